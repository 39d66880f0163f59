package handlers

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/vladimiradmaev/diabetes-tracker/internal/bot/menus"
	apperrors "github.com/vladimiradmaev/diabetes-tracker/internal/errors"
	"github.com/vladimiradmaev/diabetes-tracker/internal/estimator"
	"github.com/vladimiradmaev/diabetes-tracker/internal/input"
	"github.com/vladimiradmaev/diabetes-tracker/internal/logger"
)

const (
	historyDays  = 7
	historyLimit = 10
)

// Positional arguments of /dose and /predict, mapped onto the wire names
// the estimator normalizer reads.
var (
	doseArgs    = []string{"bloodGlucose", "carbIntake", "exerciseTime", "currentInsulinDosage", "weight"}
	predictArgs = []string{"currentGlucose", "insulinDose", "carbIntake", "exerciseMinutes", "exerciseIntensity"}
)

// CommandHandler handles bot commands
type CommandHandler struct {
	api          Sender
	deps         Dependencies
	stateManager *stateManager
	errors       *apperrors.Handler
}

// NewCommandHandler creates a new command handler
func NewCommandHandler(api Sender, deps Dependencies, stateManager *stateManager, handler *apperrors.Handler) *CommandHandler {
	return &CommandHandler{
		api:          api,
		deps:         deps,
		stateManager: stateManager,
		errors:       handler,
	}
}

// Handle processes a command message
func (h *CommandHandler) Handle(ctx context.Context, message *tgbotapi.Message) error {
	logger.Infof("Handling command %s from user %d", message.Command(), message.From.ID)
	h.stateManager.set(message.From.ID, stateNone)

	if message.Command() == "start" {
		return menus.SendMainMenu(h.api, message.Chat.ID)
	}

	text := h.Reply(ctx, UserID(message.From.ID), message.Command(), message.CommandArguments())
	return menus.SendText(h.api, message.Chat.ID, text)
}

// Reply runs a command for userID and returns the text to send back
func (h *CommandHandler) Reply(ctx context.Context, userID, command, args string) string {
	fields := strings.Fields(args)

	switch command {
	case "start":
		return menus.MainMenuText
	case "help":
		return menus.HelpText
	case "glucose":
		return h.logGlucose(ctx, userID, fields)
	case "insulin":
		return h.logInsulin(ctx, userID, fields)
	case "dose":
		return h.dose(ctx, userID, fields)
	case "predict":
		return h.predict(ctx, userID, fields)
	case "history":
		return h.history(ctx, userID)
	default:
		return "Unknown command. Use /help to see the available commands."
	}
}

func (h *CommandHandler) logGlucose(ctx context.Context, userID string, args []string) string {
	if len(args) == 0 {
		return "Usage: /glucose <value> [fasting|before|after]"
	}

	f := input.Fields{"userId": userID, "value": decimal(args[0])}
	if len(args) > 1 {
		f["mealState"] = strings.ToLower(args[1])
	}

	r, err := h.deps.GlucoseSvc.Create(ctx, f)
	if err != nil {
		return h.failure(ctx, err)
	}
	return fmt.Sprintf("✅ Glucose %.0f mg/dL saved (%s)", r.Value, r.MealState)
}

func (h *CommandHandler) logInsulin(ctx context.Context, userID string, args []string) string {
	if len(args) == 0 {
		return "Usage: /insulin <units> [rapid|short|intermediate|long|mix]"
	}

	f := input.Fields{"userId": userID, "units": decimal(args[0])}
	if len(args) > 1 {
		f["type"] = strings.ToLower(args[1])
	}

	d, err := h.deps.InsulinSvc.Create(ctx, f)
	if err != nil {
		return h.failure(ctx, err)
	}
	return fmt.Sprintf("✅ %g units of %s insulin saved", d.Units, d.Type)
}

func (h *CommandHandler) dose(ctx context.Context, userID string, args []string) string {
	if len(args) < 2 {
		return "Usage: /dose <glucose> <carbs> [exercise min] [current dose] [weight]"
	}

	req := estimator.NormalizeInsulinRequest(positional(doseArgs, args))
	res := h.deps.EstimatorSvc.EstimateInsulinDose(ctx, userID, req)

	return fmt.Sprintf("💉 Suggested dose: %g units\n\n"+
		"Current glucose: %s mg/dL\n"+
		"Above target: %s mg/dL\n"+
		"Carb effect: %s\n"+
		"Exercise reduction: %s\n\n"+
		"Method: %s, confidence %g",
		res.RecommendedDosage,
		res.Details.CurrentGlucose,
		res.Details.GlucoseDifference,
		res.Details.CarbEffect,
		res.Details.ExerciseReduction,
		res.Method, res.Confidence,
	)
}

func (h *CommandHandler) predict(ctx context.Context, userID string, args []string) string {
	if len(args) < 3 {
		return "Usage: /predict <glucose> <insulin> <carbs> [exercise min] [intensity]"
	}

	req := estimator.NormalizeGlucoseRequest(positional(predictArgs, args))
	res := h.deps.EstimatorSvc.EstimateGlucose(ctx, userID, req)

	text := fmt.Sprintf("📊 Projected glucose: %d mg/dL\n\n"+
		"Insulin effect: %s\n"+
		"Carb effect: %s\n"+
		"Exercise effect: %s",
		res.PredictedGlucose,
		res.Details.InsulinEffect,
		res.Details.CarbEffect,
		res.Details.ExerciseEffect,
	)
	if res.Clamped {
		text += "\n\n(limited to the physiological range)"
	}
	return text
}

func (h *CommandHandler) history(ctx context.Context, userID string) string {
	readings, err := h.deps.GlucoseSvc.List(ctx, userID, historyDays)
	if err != nil {
		return h.failure(ctx, err)
	}
	return menus.HistoryText(readings, historyLimit)
}

// failure turns a service error into a reply. Validation messages are shown
// as is; anything else is logged and replaced with a generic apology.
func (h *CommandHandler) failure(ctx context.Context, err error) string {
	return replyForError(ctx, h.errors, err)
}

func replyForError(ctx context.Context, handler *apperrors.Handler, err error) string {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) && appErr.Type == apperrors.ErrorTypeValidation {
		return "⚠️ " + appErr.Message
	}
	handler.Handle(ctx, err)
	return "Something went wrong. Please try again."
}

// positional maps command arguments onto field names in order
func positional(names, args []string) input.Fields {
	f := input.Fields{}
	for i, a := range args {
		if i == len(names) {
			break
		}
		f[names[i]] = decimal(a)
	}
	return f
}

// decimal accepts a comma as the decimal separator
func decimal(s string) string {
	return strings.Replace(s, ",", ".", 1)
}
