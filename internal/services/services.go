package services

import (
	"context"
	"time"

	apperrors "github.com/vladimiradmaev/diabetes-tracker/internal/errors"
	"github.com/vladimiradmaev/diabetes-tracker/internal/input"
)

// Options carries the settings shared by every service
type Options struct {
	// DefaultUserID is the tenant used when a caller supplies no userId.
	DefaultUserID string
	// AuditTimeout bounds each best-effort audit write.
	AuditTimeout time.Duration
}

const (
	fallbackUserID       = "default"
	fallbackAuditTimeout = 5 * time.Second
)

func (o Options) withDefaults() Options {
	if o.DefaultUserID == "" {
		o.DefaultUserID = fallbackUserID
	}
	if o.AuditTimeout <= 0 {
		o.AuditTimeout = fallbackAuditTimeout
	}
	return o
}

// Invalidator drops data derived from a user's records
type Invalidator interface {
	InvalidateUser(ctx context.Context, userID string) error
}

// UserID returns id, or the configured default tenant when id is blank
func (o Options) UserID(id string) string {
	if s, ok := input.String(id); ok {
		return s
	}
	return o.withDefaults().DefaultUserID
}

func (o Options) userFrom(f input.Fields) string {
	return o.UserID(f.StringOr("", "userId"))
}

// since returns the lower timestamp bound for a days window; days <= 0
// means unbounded.
func since(now time.Time, days int) time.Time {
	if days <= 0 {
		return time.Time{}
	}
	return now.UTC().AddDate(0, 0, -days)
}

func invalidate(ctx context.Context, c Invalidator, h *apperrors.Handler, userID string) {
	if c == nil {
		return
	}
	if err := c.InvalidateUser(ctx, userID); err != nil {
		h.Handle(ctx, apperrors.Wrap(err, apperrors.ErrorTypeInternal, "CACHE_INVALIDATE", "failed to invalidate analysis cache").
			WithContext("user_id", userID))
	}
}

func validation(field, message string) *apperrors.AppError {
	return apperrors.NewValidationError(message).WithContext("field", field)
}
