package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/redis/go-redis/v9"
	"github.com/ulule/limiter/v3"
	redisstore "github.com/ulule/limiter/v3/drivers/store/redis"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gorilla/mux/otelmux"
	"go.uber.org/zap"

	"taskbot/internal/bot"
	"taskbot/internal/config"
	"taskbot/internal/database"
	"taskbot/internal/handlers"
	"taskbot/internal/logger"
	"taskbot/internal/queue"
	"taskbot/internal/scheduler"
	"taskbot/internal/telemetry"
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

	zapLogger.Info("starting_bot",
		zap.Bool("debug_mode", debugMode),
		zap.Duration("reminder_interval", cfg.ReminderInterval),
		zap.Duration("session_ttl", cfg.SessionTTL),
		zap.Bool("otel_enabled", cfg.OTELEnabled),
	)

	// Tracing (optional)
	if cfg.OTELEnabled {
		if cfg.OTELEndpoint == "" {
			zapLogger.Warn("otel_enabled_but_endpoint_not_configured")
		} else {
			tp, err := telemetry.InitTracer(context.Background(), "taskbot", cfg.OTELEndpoint)
			if err != nil {
				zapLogger.Warn("failed_to_initialize_otel_tracer", zap.Error(err))
			} else {
				zapLogger.Info("otel_tracer_initialized", zap.String("endpoint", cfg.OTELEndpoint))
				defer func() {
					shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
					defer shutdownCancel()
					if err := telemetry.Shutdown(shutdownCtx, tp); err != nil {
						zapLogger.Error("failed_to_shutdown_otel_tracer", zap.Error(err))
					}
				}()
			}
		}
	}

	// Database
	db, err := database.New(cfg.DatabaseURL)
	if err != nil {
		zapLogger.Fatal("failed_to_connect_to_database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			zapLogger.Warn("failed_to_close_database_connection", zap.Error(err))
		}
	}()

	migrateCtx, migrateCancel := context.WithTimeout(context.Background(), 30*time.Second)
	if err := db.Migrate(migrateCtx); err != nil {
		migrateCancel()
		zapLogger.Fatal("failed_to_migrate_schema", zap.Error(err))
	}
	migrateCancel()
	zapLogger.Info("connected_to_database")

	taskRepo := database.NewTaskRepository(db)
	taskRepo.SetLogger(zapLogger)

	// Redis rate limiter
	rateLimiter, err := newRateLimiter(cfg.RedisURL, cfg.RateLimit)
	if err != nil {
		zapLogger.Fatal("failed_to_connect_to_redis", zap.Error(err))
	}
	zapLogger.Info("connected_to_redis", zap.String("rate", cfg.RateLimit))

	// RabbitMQ reminder queue, with retries to ride out broker startup delays
	jobQueue, err := connectQueue(cfg.RabbitMQURL, zapLogger)
	if err != nil {
		zapLogger.Fatal("failed_to_connect_to_rabbitmq_after_retries", zap.Error(err))
	}
	defer func() {
		if err := jobQueue.Close(); err != nil {
			zapLogger.Warn("failed_to_close_rabbitmq_connection", zap.Error(err))
		}
	}()
	zapLogger.Info("connected_to_rabbitmq")

	// Telegram transport
	transport, err := bot.NewTelegramTransport(cfg.TelegramToken, debugMode, zapLogger)
	if err != nil {
		zapLogger.Fatal("failed_to_authorize_telegram_bot", zap.Error(err))
	}

	// Conversation machinery
	sessions := bot.NewSessionRegistry(cfg.SessionTTL, zapLogger)
	conv := bot.NewConversation(taskRepo, sessions, zapLogger)
	dispatcher := bot.NewDispatcher(taskRepo, sessions, conv, transport, rateLimiter, zapLogger)

	// Background loops
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		if err := sessions.Sweep(ctx); err != nil && err != context.Canceled {
			zapLogger.Error("session_sweeper_stopped_with_error", zap.Error(err))
		}
	}()

	reminders := scheduler.New(taskRepo, jobQueue, cfg.ReminderInterval, zapLogger)
	go func() {
		if err := reminders.Start(ctx); err != nil && err != context.Canceled {
			zapLogger.Error("reminder_scheduler_stopped_with_error", zap.Error(err))
		}
	}()

	// Operational HTTP endpoint
	r := mux.NewRouter()
	if cfg.OTELEnabled {
		r.Use(otelmux.Middleware("taskbot"))
	}
	healthChecker := handlers.NewHealthChecker(db, jobQueue)
	r.HandleFunc("/healthz", healthChecker.HealthCheck).Methods("GET")
	r.HandleFunc("/version", versionInfo).Methods("GET")

	srv := &http.Server{
		Addr:         ":" + cfg.HealthPort,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	go func() {
		zapLogger.Info("health_server_starting", zap.String("port", cfg.HealthPort))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLogger.Fatal("health_server_failed_to_start", zap.Error(err))
		}
	}()

	// Inbound update loop
	updates := transport.Updates()
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case update, ok := <-updates:
				if !ok {
					return
				}
				if update.Message == nil || update.Message.From == nil {
					continue
				}
				dispatcher.HandleMessage(ctx, update.Message.From.ID, update.Message.Chat.ID, update.Message.Text)
			}
		}
	}()

	zapLogger.Info("bot_started")

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zapLogger.Info("bot_shutting_down")
	transport.Stop()
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zapLogger.Warn("health_server_forced_to_shutdown", zap.Error(err))
	}

	zapLogger.Info("bot_exited")
}

// newRateLimiter builds the per-user message limiter on Redis
func newRateLimiter(redisURL, rateFormat string) (*limiter.Limiter, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis url: %w", err)
	}

	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	rate, err := limiter.NewRateFromFormatted(rateFormat)
	if err != nil {
		return nil, fmt.Errorf("failed to parse rate %q: %w", rateFormat, err)
	}

	store, err := redisstore.NewStore(client)
	if err != nil {
		return nil, fmt.Errorf("failed to create limiter store: %w", err)
	}

	return limiter.New(store, rate), nil
}

// connectQueue dials RabbitMQ with exponential backoff
func connectQueue(amqpURL string, zapLogger *zap.Logger) (queue.ReminderQueue, error) {
	const maxRetries = 10
	const initialDelay = 2 * time.Second

	var lastErr error
	for attempt := 0; attempt < maxRetries; attempt++ {
		jobQueue, err := queue.NewRabbitMQQueue(amqpURL)
		if err == nil {
			return jobQueue, nil
		}

		lastErr = err
		delay := initialDelay * time.Duration(1<<uint(attempt))
		if delay > 30*time.Second {
			delay = 30 * time.Second
		}
		zapLogger.Warn("failed_to_connect_to_rabbitmq_retrying",
			zap.Int("attempt", attempt+1),
			zap.Int("max_retries", maxRetries),
			zap.Duration("retry_delay", delay),
			zap.Error(err),
		)
		time.Sleep(delay)
	}

	return nil, lastErr
}

func versionInfo(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if _, err := fmt.Fprintf(w, `{"version":"1.0.0","timestamp":"%s"}`, time.Now().UTC().Format(time.RFC3339)); err != nil {
		_ = err
	}
}
