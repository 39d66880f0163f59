package handlers

import (
	"context"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/vladimiradmaev/diabetes-tracker/internal/bot/keyboards"
	"github.com/vladimiradmaev/diabetes-tracker/internal/bot/menus"
)

// CallbackHandler handles callback query messages
type CallbackHandler struct {
	api          Sender
	commands     *CommandHandler
	stateManager *stateManager
}

// NewCallbackHandler creates a new callback handler
func NewCallbackHandler(api Sender, commands *CommandHandler, stateManager *stateManager) *CallbackHandler {
	return &CallbackHandler{
		api:          api,
		commands:     commands,
		stateManager: stateManager,
	}
}

// Handle processes a callback query
func (h *CallbackHandler) Handle(ctx context.Context, query *tgbotapi.CallbackQuery) error {
	// Answer the callback query first
	callback := tgbotapi.NewCallback(query.ID, "")
	if _, err := h.api.Request(callback); err != nil {
		return err
	}
	if query.Message == nil || query.Message.Chat == nil {
		return nil
	}

	chatID := query.Message.Chat.ID
	switch query.Data {
	case keyboards.LogGlucose:
		h.stateManager.set(query.From.ID, stateWaitingForGlucose)
		return menus.SendText(h.api, chatID, "Enter your blood glucose (mg/dL):")
	case keyboards.History:
		return menus.SendText(h.api, chatID, h.commands.Reply(ctx, UserID(query.From.ID), "history", ""))
	case keyboards.Help:
		return menus.SendText(h.api, chatID, menus.HelpText)
	case keyboards.MainMenu:
		h.stateManager.set(query.From.ID, stateNone)
		return menus.SendMainMenu(h.api, chatID)
	default:
		return menus.SendText(h.api, chatID, "Unknown action. Use /help to see the available commands.")
	}
}
