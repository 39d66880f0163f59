package services

import (
	"context"
	"time"

	"github.com/vladimiradmaev/diabetes-tracker/internal/domain"
	"github.com/vladimiradmaev/diabetes-tracker/internal/estimator"
	"github.com/vladimiradmaev/diabetes-tracker/internal/input"
)

// PredictionService reads the prediction audit trail and accepts manually
// posted audit rows.
type PredictionService struct {
	store domain.PredictionStore
	opts  Options
	now   func() time.Time
}

func NewPredictionService(store domain.PredictionStore, opts Options) *PredictionService {
	return &PredictionService{
		store: store,
		opts:  opts.withDefaults(),
		now:   time.Now,
	}
}

func validPredictionMethod(m string) bool {
	for _, known := range domain.PredictionMethods {
		if m == known {
			return true
		}
	}
	return false
}

func optionalFloat(f input.Fields, key string) *float64 {
	if v, ok := f.Float(key); ok {
		return &v
	}
	return nil
}

// Create appends a prediction row. predictedValue is required; method
// defaults to local-fallback and timestamp is always now.
func (s *PredictionService) Create(ctx context.Context, f input.Fields) (*domain.Prediction, error) {
	value, ok := f.Float("predictedValue")
	if !ok {
		return nil, validation("predictedValue", "predictedValue is required and must be a number")
	}

	method := f.StringOr(string(estimator.MethodLocalFallback), "method")
	if !validPredictionMethod(method) {
		return nil, validation("method", "method must be one of local-fallback, ml-model")
	}

	var inputs domain.PredictionInputs
	switch raw := f["inputs"].(type) {
	case nil:
	case map[string]any:
		in := input.Fields(raw)
		inputs = domain.PredictionInputs{
			CurrentGlucose:    optionalFloat(in, "currentGlucose"),
			Insulin:           optionalFloat(in, "insulin"),
			Carbs:             optionalFloat(in, "carbs"),
			ExerciseDuration:  optionalFloat(in, "exerciseDuration"),
			ExerciseIntensity: optionalFloat(in, "exerciseIntensity"),
			Weight:            optionalFloat(in, "weight"),
		}
	default:
		return nil, validation("inputs", "inputs must be an object")
	}

	p := &domain.Prediction{
		UserID:         s.opts.userFrom(f),
		Timestamp:      s.now().UTC(),
		PredictedValue: value,
		Confidence:     f.FloatOr(0, "confidence"),
		Method:         method,
		Inputs:         inputs,
	}
	if err := s.store.CreatePrediction(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// List returns a user's predictions, newest first
func (s *PredictionService) List(ctx context.Context, userID string) ([]domain.Prediction, error) {
	return s.store.ListPredictions(ctx, domain.ListFilter{UserID: s.opts.UserID(userID)})
}
