package telegram

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/vadimtrunov/MovieDeck/internal/catalog"
	"github.com/vadimtrunov/MovieDeck/internal/config"
	"github.com/vadimtrunov/MovieDeck/internal/discover"
	"github.com/vadimtrunov/MovieDeck/internal/store"
)

// sender is the part of the Bot API the handlers call. *tgbotapi.BotAPI
// satisfies it; tests record the outgoing messages instead.
type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// ImageResolver turns image paths into absolute URLs.
type ImageResolver interface {
	ResolveImageURL(path *string, kind catalog.ImageKind, size catalog.ImageSize) string
}

// Deps holds what every user session is built from.
type Deps struct {
	Catalog discover.Catalog
	Images  ImageResolver // optional; posters are skipped when nil
	AppURL  string        // base for share links; omitted when empty
}

// Bot is the Telegram frontend for MovieDeck.
type Bot struct {
	api        sender
	poller     *tgbotapi.BotAPI
	sessions   *sessionManager
	newSession sessionFactory
	images     ImageResolver
	appURL     string
	logger     *slog.Logger
}

// New creates a new Telegram Bot.
func New(token string, allowedUserIDs []int64, deps Deps, logger *slog.Logger) (*Bot, error) {
	if deps.Catalog == nil {
		return nil, errors.New("telegram bot needs a catalog")
	}
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("create telegram bot: %w", err)
	}
	b := newBot(api, allowedUserIDs, deps, logger)
	b.poller = api
	return b, nil
}

func newBot(api sender, allowedUserIDs []int64, deps Deps, logger *slog.Logger) *Bot {
	if logger == nil {
		logger = slog.Default()
	}
	return &Bot{
		api:      api,
		sessions: newSessionManager(allowedUserIDs),
		newSession: func() *session {
			st := store.New()
			return &session{
				store:   st,
				ctrl:    discover.New(deps.Catalog, st, logger),
				library: store.NewLibrary(),
			}
		},
		images: deps.Images,
		appURL: deps.AppURL,
		logger: logger,
	}
}

// Name returns the frontend name.
func (b *Bot) Name() string { return "telegram" }

// Start starts the long-polling loop. It blocks until ctx is canceled.
func (b *Bot) Start(ctx context.Context) error {
	if b.poller == nil {
		return errors.New("telegram bot has no API connection")
	}
	b.logger.Info("telegram bot started",
		slog.String("username", b.poller.Self.UserName),
	)

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 30

	updates := b.poller.GetUpdatesChan(u)

	for {
		select {
		case <-ctx.Done():
			b.poller.StopReceivingUpdates()
			b.logger.Info("telegram bot stopped")
			return nil

		case update, ok := <-updates:
			if !ok {
				return nil
			}
			go b.handleUpdate(ctx, update)
		}
	}
}

// handleUpdate dispatches an incoming Telegram update.
func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	ctx = config.ContextWithLogger(ctx, b.logger.With(slog.Int("update_id", update.UpdateID)))
	switch {
	case update.CallbackQuery != nil:
		b.handleCallback(ctx, update.CallbackQuery)
	case update.Message != nil:
		b.handleMessage(ctx, update.Message)
	}
}
