package commands

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"taskbot/internal/bot"
	"taskbot/internal/config"
)

// NewSendTestCmd creates the send-test command for verifying Telegram delivery
func NewSendTestCmd() *cobra.Command {
	var chatID int64
	var text string
	cmd := &cobra.Command{
		Use:   "send-test",
		Short: "Send a test message to a chat",
		RunE: func(cmd *cobra.Command, args []string) error {
			if chatID == 0 {
				return fmt.Errorf("--chat is required")
			}
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			transport, err := bot.NewTelegramTransport(cfg.TelegramToken, false, zap.NewNop())
			if err != nil {
				return fmt.Errorf("authorize bot: %w", err)
			}
			if err := transport.SendMessage(chatID, text); err != nil {
				return fmt.Errorf("send message: %w", err)
			}
			fmt.Println("Message sent.")
			return nil
		},
	}
	cmd.Flags().Int64Var(&chatID, "chat", 0, "Chat id (required)")
	cmd.Flags().StringVar(&text, "text", "Test message from taskctl.", "Message text")
	return cmd
}
