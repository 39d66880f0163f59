package handlers

import (
	"context"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/vladimiradmaev/diabetes-tracker/internal/bot/menus"
	apperrors "github.com/vladimiradmaev/diabetes-tracker/internal/errors"
	"github.com/vladimiradmaev/diabetes-tracker/internal/input"
)

// TextHandler handles text messages
type TextHandler struct {
	api          Sender
	deps         Dependencies
	stateManager *stateManager
	errors       *apperrors.Handler
}

// NewTextHandler creates a new text handler
func NewTextHandler(api Sender, deps Dependencies, stateManager *stateManager, handler *apperrors.Handler) *TextHandler {
	return &TextHandler{
		api:          api,
		deps:         deps,
		stateManager: stateManager,
		errors:       handler,
	}
}

// Handle processes a text message
func (h *TextHandler) Handle(ctx context.Context, message *tgbotapi.Message) error {
	switch h.stateManager.get(message.From.ID) {
	case stateWaitingForGlucose:
		return h.handleGlucose(ctx, message)
	default:
		return menus.SendText(h.api, message.Chat.ID, "Please use the menu or /help to choose an action.")
	}
}

// handleGlucose records the reply to the log glucose prompt
func (h *TextHandler) handleGlucose(ctx context.Context, message *tgbotapi.Message) error {
	text := decimal(strings.TrimSpace(message.Text))
	if _, ok := input.Float(text); !ok {
		return menus.SendText(h.api, message.Chat.ID, "Please enter a number, for example: 112")
	}

	r, err := h.deps.GlucoseSvc.Create(ctx, input.Fields{
		"userId": UserID(message.From.ID),
		"value":  text,
	})
	if err != nil {
		return menus.SendText(h.api, message.Chat.ID, replyForError(ctx, h.errors, err))
	}

	h.stateManager.set(message.From.ID, stateNone)
	if err := menus.SendText(h.api, message.Chat.ID, fmt.Sprintf("✅ Glucose %.0f mg/dL saved (%s)", r.Value, r.MealState)); err != nil {
		return err
	}
	return menus.SendMainMenu(h.api, message.Chat.ID)
}
