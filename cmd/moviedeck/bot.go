package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/vadimtrunov/MovieDeck/internal/config"
	"github.com/vadimtrunov/MovieDeck/internal/frontend/telegram"
)

// newBotCmd returns the "bot" subcommand for running the Telegram bot.
func newBotCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "bot",
		Short: "Start the Telegram bot",
		Long:  "Start the MovieDeck Telegram bot. Every user gets their own lists, favorites and watchlist.",
		RunE: func(_ *cobra.Command, _ []string) error {
			return runBot()
		},
	}
}

// runBot starts the Telegram bot and blocks until interrupted.
func runBot() error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}

	if cfg.Telegram == nil {
		return errors.New(
			"telegram configuration is required: set telegram.bot_token in config or MOVIEDECK_TELEGRAM_BOT_TOKEN env var",
		)
	}

	logger := config.SetupLogger(cfg.App.LogLevel, os.Stdout)

	bot, err := initTelegramBot(cfg, logger)
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	logger.Info("telegram bot starting",
		slog.Int("allowed_users", len(cfg.Telegram.AllowedUserIDs)),
	)
	return bot.Start(ctx)
}

// initTelegramBot creates the bot around one shared catalog client.
func initTelegramBot(cfg *config.Config, logger *slog.Logger) (*telegram.Bot, error) {
	client := newCatalog(cfg, logger)
	return telegram.New(
		cfg.Telegram.BotToken,
		cfg.Telegram.AllowedUserIDs,
		telegram.Deps{
			Catalog: client,
			Images:  client,
			AppURL:  cfg.App.URL,
		},
		logger,
	)
}
