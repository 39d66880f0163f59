package handlers

import (
	"context"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	apperrors "github.com/vladimiradmaev/diabetes-tracker/internal/errors"
)

// UpdateHandler handles telegram updates and coordinates other handlers
type UpdateHandler struct {
	callbackHandler *CallbackHandler
	commandHandler  *CommandHandler
	textHandler     *TextHandler
}

// NewUpdateHandler creates a new update handler
func NewUpdateHandler(api Sender, deps Dependencies, handler *apperrors.Handler) *UpdateHandler {
	if handler == nil {
		handler = apperrors.NewHandler(nil)
	}

	states := newStateManager()
	commands := NewCommandHandler(api, deps, states, handler)
	return &UpdateHandler{
		callbackHandler: NewCallbackHandler(api, commands, states),
		commandHandler:  commands,
		textHandler:     NewTextHandler(api, deps, states, handler),
	}
}

// Handle processes a telegram update
func (h *UpdateHandler) Handle(ctx context.Context, update tgbotapi.Update) error {
	if update.CallbackQuery != nil && update.CallbackQuery.From != nil {
		return h.callbackHandler.Handle(ctx, update.CallbackQuery)
	}

	message := update.Message
	if message == nil || message.From == nil || message.Chat == nil {
		return nil
	}

	if message.IsCommand() {
		return h.commandHandler.Handle(ctx, message)
	}
	if message.Text != "" {
		return h.textHandler.Handle(ctx, message)
	}
	return nil
}
