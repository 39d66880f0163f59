package bot

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/vladimiradmaev/diabetes-tracker/internal/bot/handlers"
	apperrors "github.com/vladimiradmaev/diabetes-tracker/internal/errors"
	"github.com/vladimiradmaev/diabetes-tracker/internal/logger"
)

// Bot is the Telegram front-end over the tracker services
type Bot struct {
	api     *tgbotapi.BotAPI
	updates *handlers.UpdateHandler
	errors  *apperrors.Handler
}

func NewBot(token string, deps handlers.Dependencies, handler *apperrors.Handler) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot: %w", err)
	}
	if handler == nil {
		handler = apperrors.NewHandler(nil)
	}

	logger.Info("Bot authorized", "account", api.Self.UserName)
	return &Bot{
		api:     api,
		updates: handlers.NewUpdateHandler(api, deps, handler),
		errors:  handler,
	}, nil
}

// Start polls for updates until ctx is cancelled
func (b *Bot) Start(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.api.GetUpdatesChan(u)
	logger.Info("Bot is now listening for updates")

	for {
		select {
		case <-ctx.Done():
			logger.Info("Bot is shutting down")
			b.api.StopReceivingUpdates()
			return ctx.Err()
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			if update.Message != nil && update.Message.From != nil {
				logger.Debug("Received message", "telegram_id", update.Message.From.ID, "text", update.Message.Text)
			}
			if err := b.updates.Handle(ctx, update); err != nil {
				b.errors.Handle(ctx, apperrors.Wrap(err, apperrors.ErrorTypeInternal, "BOT_UPDATE", "failed to handle update"))
			}
		}
	}
}
