package app

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/vladimiradmaev/diabetes-tracker/internal/config"
	"github.com/vladimiradmaev/diabetes-tracker/internal/domain"
	"github.com/vladimiradmaev/diabetes-tracker/internal/estimator"
	"github.com/vladimiradmaev/diabetes-tracker/internal/input"
)

func testConfig(t *testing.T, driver string) *config.Config {
	t.Helper()
	return &config.Config{
		DB: config.DBConfig{
			Driver:     driver,
			SQLitePath: filepath.Join(t.TempDir(), "tracker.db"),
		},
		DefaultUserID:    "household",
		AuditTimeout:     time.Second,
		AnalysisCacheTTL: time.Minute,
		Estimator:        config.EstimatorConfig{ClampToPhysiologicalRange: true},
	}
}

func TestNewWiresServices(t *testing.T) {
	for _, driver := range []string{config.DriverMemory, config.DriverSQLite} {
		t.Run(driver, func(t *testing.T) {
			a, err := New(testConfig(t, driver))
			if err != nil {
				t.Fatalf("New: %v", err)
			}
			ctx := context.Background()

			r, err := a.Glucose.Create(ctx, input.Fields{"value": 130.0})
			if err != nil {
				t.Fatal(err)
			}
			if r.UserID != "household" {
				t.Errorf("default user = %q", r.UserID)
			}

			res := a.Estimator.EstimateGlucose(ctx, "", estimator.GlucoseRequest{CurrentGlucose: 400, ExerciseIntensityFactor: 1})
			if res.PredictedGlucose != 300 || !res.Clamped {
				t.Errorf("clamp not configured: %+v", res)
			}

			if err := a.Close(ctx); err != nil {
				t.Errorf("Close: %v", err)
			}
		})
	}
}

func TestCloseFlushesAudit(t *testing.T) {
	a, err := New(testConfig(t, config.DriverMemory))
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()

	a.Estimator.EstimateInsulinDose(ctx, "u1", estimator.InsulinRequest{CurrentGlucose: 150})
	store := a.Store
	if err := a.Close(ctx); err != nil {
		t.Fatal(err)
	}

	counts, err := store.Counts(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if counts != (domain.RecordCounts{Predictions: 1}) {
		t.Errorf("counts after Close = %+v", counts)
	}
}

func TestNewRejectsUnknownDriver(t *testing.T) {
	if _, err := New(testConfig(t, "mongodb")); err == nil {
		t.Error("expected an error for an unknown driver")
	}
}
