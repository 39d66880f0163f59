package database

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/vladimiradmaev/diabetes-tracker/internal/config"
	"github.com/vladimiradmaev/diabetes-tracker/internal/database/migrations"
	"github.com/vladimiradmaev/diabetes-tracker/internal/domain"
	"gorm.io/gorm"
)

func openTestDB(t *testing.T, path string) *gorm.DB {
	t.Helper()
	db, err := NewDB(config.DBConfig{Driver: config.DriverSQLite, SQLitePath: path})
	if err != nil {
		t.Fatalf("NewDB failed: %v", err)
	}
	return db
}

func TestNewDBRunsMigrationsOnce(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "tracker.db")

	first := openTestDB(t, path)
	pending, err := migrations.Pending(first)
	if err != nil {
		t.Fatalf("Pending failed: %v", err)
	}
	if len(pending) != 0 {
		t.Errorf("pending after NewDB = %v", pending)
	}

	var records []migrations.MigrationRecord
	if err := first.Order("id").Find(&records).Error; err != nil {
		t.Fatalf("listing migrations: %v", err)
	}
	if len(records) < 2 || records[0].ID != initialSchemaID {
		t.Fatalf("migration records = %+v", records)
	}
	if err := Close(first); err != nil {
		t.Fatalf("Close: %v", err)
	}

	// Reopening an existing file must not re-run anything.
	second := openTestDB(t, path)
	defer Close(second)

	var count int64
	if err := second.Model(&migrations.MigrationRecord{}).Count(&count).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != int64(len(records)) {
		t.Errorf("migration records after reopen = %d, want %d", count, len(records))
	}
}

func TestMealFoodItemsRoundTrip(t *testing.T) {
	db := openTestDB(t, filepath.Join(t.TempDir(), "tracker.db"))
	defer Close(db)

	ts := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	meal := MealFromDomain(&domain.Meal{
		ID:         "m1",
		UserID:     "u1",
		TotalCarbs: 45,
		Timestamp:  ts,
		FoodItems: []domain.FoodItem{
			{Name: "rice", CarbsPer100g: 28, Weight: 150, Carbs: 42},
			{Name: "salad", CarbsPer100g: 3, Weight: 100, Carbs: 3},
		},
	})
	if err := db.Create(meal).Error; err != nil {
		t.Fatalf("create: %v", err)
	}

	var got Meal
	if err := db.First(&got, "id = ?", "m1").Error; err != nil {
		t.Fatalf("load: %v", err)
	}
	m := got.ToDomain()
	if len(m.FoodItems) != 2 || m.FoodItems[0].Name != "rice" || m.FoodItems[1].Carbs != 3 {
		t.Errorf("FoodItems = %+v", m.FoodItems)
	}
	if !m.Timestamp.Equal(ts) {
		t.Errorf("Timestamp = %v, want %v", m.Timestamp, ts)
	}
}

func TestPredictionInputsRoundTrip(t *testing.T) {
	p := &domain.Prediction{
		ID:             "p1",
		UserID:         "u1",
		PredictedValue: 2.5,
		Confidence:     0.7,
		Method:         "local-fallback",
		Inputs: domain.PredictionInputs{
			CurrentGlucose: domain.Float(180),
			Weight:         domain.Float(70),
		},
	}

	got := PredictionFromDomain(p).ToDomain()
	if *got.Inputs.CurrentGlucose != 180 || *got.Inputs.Weight != 70 {
		t.Errorf("Inputs = %+v", got.Inputs)
	}
	if got.Inputs.Insulin != nil || got.Inputs.ExerciseIntensity != nil {
		t.Errorf("unset inputs should stay nil: %+v", got.Inputs)
	}
}

func TestNewDBRejectsMemoryDriver(t *testing.T) {
	if _, err := NewDB(config.DBConfig{Driver: config.DriverMemory}); err == nil {
		t.Fatal("expected error for memory driver")
	}
}
