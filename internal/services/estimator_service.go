package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/vladimiradmaev/diabetes-tracker/internal/domain"
	apperrors "github.com/vladimiradmaev/diabetes-tracker/internal/errors"
	"github.com/vladimiradmaev/diabetes-tracker/internal/estimator"
)

// EstimatorService runs the dose and glucose estimators and records every
// invocation in the audit trail. The audit write runs in the background and
// its outcome never reaches the caller.
type EstimatorService struct {
	estimator estimator.Estimator
	audit     domain.AuditStore
	cache     Invalidator
	errors    *apperrors.Handler
	opts      Options
	now       func() time.Time
	wg        sync.WaitGroup
}

func NewEstimatorService(est estimator.Estimator, audit domain.AuditStore, cache Invalidator, handler *apperrors.Handler, opts Options) *EstimatorService {
	if handler == nil {
		handler = apperrors.NewHandler(nil)
	}
	return &EstimatorService{
		estimator: est,
		audit:     audit,
		cache:     cache,
		errors:    handler,
		opts:      opts.withDefaults(),
		now:       time.Now,
	}
}

// Method reports the strategy of the underlying estimator
func (s *EstimatorService) Method() estimator.Method {
	return s.estimator.Method()
}

// EstimateInsulinDose computes a dose and appends a Prediction audit row
func (s *EstimatorService) EstimateInsulinDose(ctx context.Context, userID string, req estimator.InsulinRequest) estimator.InsulinResult {
	result := s.estimator.EstimateInsulinDose(req)

	p := &domain.Prediction{
		UserID:         s.opts.UserID(userID),
		Timestamp:      s.now().UTC(),
		PredictedValue: result.RecommendedDosage,
		Confidence:     result.Confidence,
		Method:         string(result.Method),
		Inputs: domain.PredictionInputs{
			CurrentGlucose:   domain.Float(req.CurrentGlucose),
			Carbs:            domain.Float(req.CarbIntake),
			ExerciseDuration: domain.Float(req.ExerciseMinutes),
			Weight:           req.BodyWeightKg,
		},
	}
	s.dispatch(ctx, p.UserID, "prediction", func(ctx context.Context) error {
		return s.audit.CreatePrediction(ctx, p)
	})

	return result
}

// projectionHorizon is how far ahead a glucose projection is recorded
const projectionHorizon = time.Hour

// EstimateGlucose projects a glucose value and appends it as an annotated
// post-meal GlucoseReading one projectionHorizon ahead
func (s *EstimatorService) EstimateGlucose(ctx context.Context, userID string, req estimator.GlucoseRequest) estimator.GlucoseResult {
	result := s.estimator.EstimateGlucose(req)

	r := &domain.GlucoseReading{
		UserID:    s.opts.UserID(userID),
		Value:     float64(result.PredictedGlucose),
		Timestamp: s.now().UTC().Add(projectionHorizon),
		MealState: domain.MealStateAfter,
		Notes:     domain.PredictedGlucoseNote,
	}
	s.dispatch(ctx, r.UserID, "glucose_reading", func(ctx context.Context) error {
		if err := s.audit.CreateGlucoseReading(ctx, r); err != nil {
			return err
		}
		invalidate(ctx, s.cache, s.errors, r.UserID)
		return nil
	})

	return result
}

// dispatch runs write detached from the caller's cancellation, bounded by
// the audit timeout. Failures and panics are logged and dropped.
func (s *EstimatorService) dispatch(ctx context.Context, userID, record string, write func(context.Context) error) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		auditCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.opts.AuditTimeout)
		defer cancel()

		defer func() {
			if rec := recover(); rec != nil {
				s.errors.Handle(auditCtx, apperrors.NewInternalError(fmt.Errorf("audit write panicked: %v", rec)).
					WithContext("record", record).
					WithContext("user_id", userID))
			}
		}()

		if err := write(auditCtx); err != nil {
			s.errors.Handle(auditCtx, apperrors.Wrap(err, apperrors.ErrorTypeDatabase, "AUDIT_WRITE", "audit write failed").
				WithContext("record", record).
				WithContext("user_id", userID))
		}
	}()
}

// Wait blocks until every dispatched audit write has finished
func (s *EstimatorService) Wait() {
	s.wg.Wait()
}

// Flush waits for pending audit writes or until ctx is done
func (s *EstimatorService) Flush(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return apperrors.NewTimeoutError("audit flush")
	}
}
