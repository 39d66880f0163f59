package menus

import (
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/vladimiradmaev/diabetes-tracker/internal/bot/keyboards"
	"github.com/vladimiradmaev/diabetes-tracker/internal/domain"
)

// Sender is the part of the Telegram API menus need
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// MainMenuText greets the user on /start and on the main menu button
const MainMenuText = `🤖 *Diabetes Tracker*

🩸 Log glucose readings and insulin doses
💉 Get a formula-based dose suggestion
📈 Project your glucose after a meal

⚠️ *Important:* estimates are for reference only, always consult your doctor!

Choose an action:`

// HelpText lists the commands the bot understands
const HelpText = `Available commands:
/start - show the main menu
/help - show this message
/glucose <value> [fasting|before|after] - log a glucose reading (mg/dL)
/insulin <units> [rapid|short|intermediate|long|mix] - log an insulin dose
/dose <glucose> <carbs> [exercise min] [current dose] [weight] - suggest a dose
/predict <glucose> <insulin> <carbs> [exercise min] [intensity] - project glucose
/history - readings from the last 7 days

Example: /dose 180 45 20`

// SendMainMenu sends the main menu to a chat
func SendMainMenu(api Sender, chatID int64) error {
	msg := tgbotapi.NewMessage(chatID, MainMenuText)
	msg.ParseMode = "Markdown"
	msg.ReplyMarkup = keyboards.Main()
	_, err := api.Send(msg)
	return err
}

// SendText sends a plain message with a button back to the main menu
func SendText(api Sender, chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyMarkup = keyboards.Back()
	_, err := api.Send(msg)
	return err
}

// HistoryText renders readings newest first, at most limit of them
func HistoryText(readings []domain.GlucoseReading, limit int) string {
	if len(readings) == 0 {
		return "No glucose readings in the last 7 days. Log one with /glucose <value>."
	}

	var b strings.Builder
	b.WriteString("📈 Your glucose readings:\n\n")
	for i, r := range readings {
		if i == limit {
			fmt.Fprintf(&b, "\n…and %d more", len(readings)-limit)
			break
		}
		fmt.Fprintf(&b, "• %s  %.0f mg/dL (%s)", r.Timestamp.UTC().Format("Jan 2 15:04"), r.Value, r.MealState)
		if r.Notes != "" {
			fmt.Fprintf(&b, " %s", r.Notes)
		}
		b.WriteString("\n")
	}
	return b.String()
}
