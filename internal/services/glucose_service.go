package services

import (
	"context"
	"time"

	"github.com/vladimiradmaev/diabetes-tracker/internal/domain"
	apperrors "github.com/vladimiradmaev/diabetes-tracker/internal/errors"
	"github.com/vladimiradmaev/diabetes-tracker/internal/input"
)

type GlucoseService struct {
	store  domain.GlucoseStore
	cache  Invalidator
	errors *apperrors.Handler
	opts   Options
	now    func() time.Time
}

func NewGlucoseService(store domain.GlucoseStore, cache Invalidator, handler *apperrors.Handler, opts Options) *GlucoseService {
	if handler == nil {
		handler = apperrors.NewHandler(nil)
	}
	return &GlucoseService{
		store:  store,
		cache:  cache,
		errors: handler,
		opts:   opts.withDefaults(),
		now:    time.Now,
	}
}

func parseMealState(f input.Fields, def domain.MealState) (domain.MealState, error) {
	state := domain.MealState(f.StringOr(string(def), "mealState"))
	if !state.Valid() {
		return "", validation("mealState", "mealState must be one of fasting, before, after")
	}
	return state, nil
}

func parseTimestamp(f input.Fields, now time.Time) (time.Time, error) {
	ts, err := input.Timestamp(f["timestamp"], now)
	if err != nil {
		return time.Time{}, validation("timestamp", "timestamp must be ISO-8601 or epoch milliseconds")
	}
	return ts, nil
}

// Create stores a reading. value is required; mealState defaults to fasting
// and timestamp to now.
func (s *GlucoseService) Create(ctx context.Context, f input.Fields) (*domain.GlucoseReading, error) {
	value, ok := f.Float("value")
	if !ok {
		return nil, validation("value", "value is required and must be a number")
	}
	state, err := parseMealState(f, domain.MealStateFasting)
	if err != nil {
		return nil, err
	}
	ts, err := parseTimestamp(f, s.now())
	if err != nil {
		return nil, err
	}

	r := &domain.GlucoseReading{
		UserID:    s.opts.userFrom(f),
		Value:     value,
		Timestamp: ts,
		MealState: state,
		Notes:     f.StringOr("", "notes"),
	}
	if err := s.store.CreateGlucoseReading(ctx, r); err != nil {
		return nil, err
	}

	invalidate(ctx, s.cache, s.errors, r.UserID)
	return r, nil
}

// List returns a user's readings, newest first. days <= 0 lists everything.
func (s *GlucoseService) List(ctx context.Context, userID string, days int) ([]domain.GlucoseReading, error) {
	return s.store.ListGlucoseReadings(ctx, domain.ListFilter{
		UserID: s.opts.UserID(userID),
		Since:  since(s.now(), days),
	})
}

// Update applies the fields present in f to a stored reading
func (s *GlucoseService) Update(ctx context.Context, id string, f input.Fields) (*domain.GlucoseReading, error) {
	var patch domain.GlucoseReadingPatch

	if f.Has("value") {
		v, ok := f.Float("value")
		if !ok {
			return nil, validation("value", "value must be a number")
		}
		patch.Value = &v
	}
	if f.Has("mealState") {
		state, err := parseMealState(f, "")
		if err != nil {
			return nil, err
		}
		patch.MealState = &state
	}
	if f.Has("timestamp") {
		ts, err := parseTimestamp(f, s.now())
		if err != nil {
			return nil, err
		}
		patch.Timestamp = &ts
	}
	if f.Has("notes") {
		notes := f.StringOr("", "notes")
		patch.Notes = &notes
	}

	r, err := s.store.UpdateGlucoseReading(ctx, id, patch)
	if err != nil {
		return nil, err
	}

	invalidate(ctx, s.cache, s.errors, r.UserID)
	return r, nil
}

// Delete removes a reading
func (s *GlucoseService) Delete(ctx context.Context, id string) error {
	r, err := s.store.DeleteGlucoseReading(ctx, id)
	if err != nil {
		return err
	}
	invalidate(ctx, s.cache, s.errors, r.UserID)
	return nil
}
