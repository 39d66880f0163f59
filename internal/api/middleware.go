package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/vladimiradmaev/diabetes-tracker/internal/input"
	"github.com/vladimiradmaev/diabetes-tracker/internal/logger"
)

// requestLogger logs one line per request through the global slog logger
// and puts the request id on the user context for downstream logs.
func requestLogger() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		rid, _ := c.Locals("requestid").(string)
		ctx := logger.ContextWithRequestID(c.UserContext(), rid)
		c.SetUserContext(ctx)

		if chainErr := c.Next(); chainErr != nil {
			if err := c.App().Config().ErrorHandler(c, chainErr); err != nil {
				_ = c.SendStatus(fiber.StatusInternalServerError)
			}
		}

		logger.WithContext(ctx).Info("HTTP request",
			"method", c.Method(),
			"path", c.Path(),
			"status", c.Response().StatusCode(),
			"latency", time.Since(start),
		)
		return nil
	}
}

// decodeFields parses a JSON object body into loosely typed fields. An
// empty body is an empty object.
func decodeFields(c *fiber.Ctx) (input.Fields, error) {
	body := bytes.TrimSpace(c.Body())
	if len(body) == 0 {
		return input.Fields{}, nil
	}

	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()

	var f input.Fields
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("invalid JSON body: %w", err)
	}
	if f == nil {
		return input.Fields{}, nil
	}
	return f, nil
}

// queryDays reads the days query parameter; anything that is not a number
// yields 0 so the caller applies its default.
func queryDays(c *fiber.Ctx) int {
	raw := strings.TrimSpace(c.Query("days"))
	if n, err := strconv.Atoi(raw); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(raw, 64); err == nil {
		return int(f)
	}
	return 0
}
