package handlers

import (
	"strconv"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/vladimiradmaev/diabetes-tracker/internal/interfaces"
)

// Dependencies holds all service dependencies for handlers
type Dependencies struct {
	EstimatorSvc interfaces.EstimatorServiceInterface
	GlucoseSvc   interfaces.GlucoseServiceInterface
	InsulinSvc   interfaces.InsulinServiceInterface
}

// Sender is the part of the Telegram API the handlers talk to
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// UserID maps a Telegram account onto the record store's user id
func UserID(telegramID int64) string {
	return "telegram:" + strconv.FormatInt(telegramID, 10)
}
