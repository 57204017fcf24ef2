package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"taskbot/internal/bot"
	"taskbot/internal/config"
	"taskbot/internal/logger"
	"taskbot/internal/models"
	"taskbot/internal/queue"
)

func main() {
	debugFlag := flag.Bool("debug", false, "Enable debug logging")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	debugMode := cfg.DebugMode || *debugFlag

	zapLogger, err := logger.NewProductionLogger(debugMode)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer func() {
		if syncErr := zapLogger.Sync(); syncErr != nil {
			_ = syncErr
		}
	}()

	zapLogger.Info("starting_notifier",
		zap.Bool("debug_mode", debugMode),
		zap.Int("prefetch", cfg.RabbitMQPrefetch),
	)

	jobQueue, err := queue.NewRabbitMQQueue(cfg.RabbitMQURL)
	if err != nil {
		zapLogger.Fatal("failed_to_connect_to_rabbitmq", zap.Error(err))
	}
	defer func() {
		if err := jobQueue.Close(); err != nil {
			zapLogger.Warn("failed_to_close_rabbitmq_connection", zap.Error(err))
		}
	}()
	zapLogger.Info("connected_to_rabbitmq")

	transport, err := bot.NewTelegramTransport(cfg.TelegramToken, debugMode, zapLogger)
	if err != nil {
		zapLogger.Fatal("failed_to_authorize_telegram_bot", zap.Error(err))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	msgChan, errChan, err := jobQueue.Consume(ctx, cfg.RabbitMQPrefetch)
	if err != nil {
		zapLogger.Fatal("failed_to_start_consuming", zap.Error(err))
	}

	zapLogger.Info("notifier_started")

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-msgChan:
				if !ok {
					zapLogger.Info("message_channel_closed")
					return
				}
				deliver(transport, msg, zapLogger)
			}
		}
	}()

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case err, ok := <-errChan:
				if !ok {
					return
				}
				zapLogger.Error("queue_error", zap.Error(err))
			}
		}
	}()

	<-sigChan
	zapLogger.Info("shutdown_signal_received")
	cancel()
	zapLogger.Info("notifier_stopped")
}

// deliver sends one reminder to its user. A delivery failure is logged and
// the message acknowledged anyway: a reminder is sent at most once, never
// retried into spam.
func deliver(transport bot.Transport, msg *queue.Message, zapLogger *zap.Logger) {
	job := msg.GetJob()
	text := fmt.Sprintf("⚠️ Reminder: task '%s' is due %s!", job.TaskName, models.HumanDate(job.Deadline))

	if err := transport.SendMessage(job.OwnerID, text); err != nil {
		zapLogger.Error("delivery_failed",
			zap.String("job_id", job.ID.String()),
			zap.Int64("task_id", job.TaskID),
			zap.Int64("owner_id", job.OwnerID),
			zap.Error(err),
		)
	} else {
		zapLogger.Info("reminder_delivered",
			zap.String("job_id", job.ID.String()),
			zap.Int64("task_id", job.TaskID),
		)
	}

	if err := msg.Ack(); err != nil {
		zapLogger.Warn("failed_to_ack_message",
			zap.String("job_id", job.ID.String()),
			zap.Error(err),
		)
	}
}
