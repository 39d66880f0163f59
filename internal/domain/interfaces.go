package domain

import (
	"context"
	"time"
)

// ListFilter selects one user's records. Results are ordered by timestamp,
// newest first unless Ascending is set.
type ListFilter struct {
	UserID    string
	Since     time.Time // zero means no lower bound
	Ascending bool
	Limit     int // 0 means no limit
}

// GlucoseStore persists glucose readings
type GlucoseStore interface {
	CreateGlucoseReading(ctx context.Context, r *GlucoseReading) error
	ListGlucoseReadings(ctx context.Context, f ListFilter) ([]GlucoseReading, error)
	UpdateGlucoseReading(ctx context.Context, id string, patch GlucoseReadingPatch) (*GlucoseReading, error)
	DeleteGlucoseReading(ctx context.Context, id string) (*GlucoseReading, error)
}

// MealStore persists meals
type MealStore interface {
	CreateMeal(ctx context.Context, m *Meal) error
	ListMeals(ctx context.Context, f ListFilter) ([]Meal, error)
}

// InsulinStore persists insulin doses
type InsulinStore interface {
	CreateInsulinDose(ctx context.Context, d *InsulinDose) error
	ListInsulinDoses(ctx context.Context, f ListFilter) ([]InsulinDose, error)
}

// PredictionStore persists prediction audit rows
type PredictionStore interface {
	CreatePrediction(ctx context.Context, p *Prediction) error
	ListPredictions(ctx context.Context, f ListFilter) ([]Prediction, error)
}

// Store is the record store every surface runs on. Create methods assign
// ID, CreatedAt and UpdatedAt. Update and delete return the affected record,
// or an error of type not_found for unknown ids.
type Store interface {
	GlucoseStore
	MealStore
	InsulinStore
	PredictionStore
	Counts(ctx context.Context) (RecordCounts, error)
	Close() error
}

// AuditStore is the write-only slice of Store the estimator audit trail
// needs: insulin estimates land as predictions, glucose projections as
// annotated readings.
type AuditStore interface {
	CreatePrediction(ctx context.Context, p *Prediction) error
	CreateGlucoseReading(ctx context.Context, r *GlucoseReading) error
}
