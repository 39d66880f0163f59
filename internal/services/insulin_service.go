package services

import (
	"context"
	"time"

	"github.com/vladimiradmaev/diabetes-tracker/internal/domain"
	apperrors "github.com/vladimiradmaev/diabetes-tracker/internal/errors"
	"github.com/vladimiradmaev/diabetes-tracker/internal/input"
)

type InsulinService struct {
	store  domain.InsulinStore
	cache  Invalidator
	errors *apperrors.Handler
	opts   Options
	now    func() time.Time
}

func NewInsulinService(store domain.InsulinStore, cache Invalidator, handler *apperrors.Handler, opts Options) *InsulinService {
	if handler == nil {
		handler = apperrors.NewHandler(nil)
	}
	return &InsulinService{
		store:  store,
		cache:  cache,
		errors: handler,
		opts:   opts.withDefaults(),
		now:    time.Now,
	}
}

// Create stores a dose. units is required; type defaults to rapid.
func (s *InsulinService) Create(ctx context.Context, f input.Fields) (*domain.InsulinDose, error) {
	units, ok := f.Float("units")
	if !ok {
		return nil, validation("units", "units is required and must be a number")
	}

	kind := domain.InsulinType(f.StringOr(string(domain.InsulinRapid), "type"))
	if !kind.Valid() {
		return nil, validation("type", "type must be one of rapid, short, intermediate, long, mix")
	}

	var bloodGlucose *float64
	if f.Has("bloodGlucose") {
		v, ok := f.Float("bloodGlucose")
		if !ok {
			return nil, validation("bloodGlucose", "bloodGlucose must be a number")
		}
		bloodGlucose = &v
	}

	ts, err := parseTimestamp(f, s.now())
	if err != nil {
		return nil, err
	}

	d := &domain.InsulinDose{
		UserID:       s.opts.userFrom(f),
		Units:        units,
		Type:         kind,
		BloodGlucose: bloodGlucose,
		Timestamp:    ts,
		Notes:        f.StringOr("", "notes"),
	}
	if err := s.store.CreateInsulinDose(ctx, d); err != nil {
		return nil, err
	}

	invalidate(ctx, s.cache, s.errors, d.UserID)
	return d, nil
}

// List returns a user's doses, newest first. days <= 0 lists everything.
func (s *InsulinService) List(ctx context.Context, userID string, days int) ([]domain.InsulinDose, error) {
	return s.store.ListInsulinDoses(ctx, domain.ListFilter{
		UserID: s.opts.UserID(userID),
		Since:  since(s.now(), days),
	})
}
