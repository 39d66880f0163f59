package keyboards

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Callback data carried by the inline buttons
const (
	LogGlucose = "log_glucose"
	History    = "history"
	Help       = "help"
	MainMenu   = "main_menu"
)

// Main creates the main menu keyboard
func Main() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🩸 Log glucose", LogGlucose),
			tgbotapi.NewInlineKeyboardButtonData("📈 History", History),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("❓ Help", Help),
		),
	)
}

// Back creates a single button that returns to the main menu
func Back() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("◀️ Main menu", MainMenu),
		),
	)
}
