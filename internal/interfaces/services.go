package interfaces

import (
	"context"

	"github.com/vladimiradmaev/diabetes-tracker/internal/domain"
	"github.com/vladimiradmaev/diabetes-tracker/internal/estimator"
	"github.com/vladimiradmaev/diabetes-tracker/internal/input"
	"github.com/vladimiradmaev/diabetes-tracker/internal/services"
)

// EstimatorServiceInterface defines the contract for dose and glucose estimates
type EstimatorServiceInterface interface {
	EstimateInsulinDose(ctx context.Context, userID string, req estimator.InsulinRequest) estimator.InsulinResult
	EstimateGlucose(ctx context.Context, userID string, req estimator.GlucoseRequest) estimator.GlucoseResult
}

// GlucoseServiceInterface defines the contract for glucose reading operations
type GlucoseServiceInterface interface {
	Create(ctx context.Context, f input.Fields) (*domain.GlucoseReading, error)
	List(ctx context.Context, userID string, days int) ([]domain.GlucoseReading, error)
}

// InsulinServiceInterface defines the contract for insulin dose operations
type InsulinServiceInterface interface {
	Create(ctx context.Context, f input.Fields) (*domain.InsulinDose, error)
	List(ctx context.Context, userID string, days int) ([]domain.InsulinDose, error)
}

var (
	_ EstimatorServiceInterface = (*services.EstimatorService)(nil)
	_ GlucoseServiceInterface   = (*services.GlucoseService)(nil)
	_ InsulinServiceInterface   = (*services.InsulinService)(nil)
)
