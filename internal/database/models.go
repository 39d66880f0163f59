package database

import (
	"time"

	"github.com/vladimiradmaev/diabetes-tracker/internal/domain"
	"gorm.io/datatypes"
)

type GlucoseReading struct {
	ID        string    `gorm:"primaryKey;size:36"`
	UserID    string    `gorm:"size:128;not null;index:idx_glucose_user_ts,priority:1"`
	Value     float64   `gorm:"not null"`
	Timestamp time.Time `gorm:"not null;index:idx_glucose_user_ts,priority:2"`
	MealState string    `gorm:"size:16;not null;default:fasting"`
	Notes     string
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (GlucoseReading) TableName() string { return "glucose_readings" }

type Meal struct {
	ID         string                               `gorm:"primaryKey;size:36"`
	UserID     string                               `gorm:"size:128;not null;index:idx_meals_user_ts,priority:1"`
	TotalCarbs float64                              `gorm:"not null"`
	Timestamp  time.Time                            `gorm:"not null;index:idx_meals_user_ts,priority:2"`
	FoodItems  datatypes.JSONSlice[domain.FoodItem] `gorm:"not null"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

func (Meal) TableName() string { return "meals" }

type InsulinDose struct {
	ID           string    `gorm:"primaryKey;size:36"`
	UserID       string    `gorm:"size:128;not null;index:idx_insulin_user_ts,priority:1"`
	Units        float64   `gorm:"not null"`
	Type         string    `gorm:"size:16;not null;default:rapid"`
	BloodGlucose *float64
	Timestamp    time.Time `gorm:"not null;index:idx_insulin_user_ts,priority:2"`
	Notes        string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (InsulinDose) TableName() string { return "insulin_doses" }

// Prediction rows are an append-only audit trail; the user/timestamp index
// is created by the 0002 SQL migration.
type Prediction struct {
	ID                     string    `gorm:"primaryKey;size:36"`
	UserID                 string    `gorm:"size:128;not null"`
	Timestamp              time.Time `gorm:"not null"`
	PredictedValue         float64   `gorm:"not null"`
	Confidence             float64
	Method                 string `gorm:"size:32;not null"`
	InputCurrentGlucose    *float64
	InputInsulin           *float64
	InputCarbs             *float64
	InputExerciseDuration  *float64
	InputExerciseIntensity *float64
	InputWeight            *float64
	CreatedAt              time.Time
	UpdatedAt              time.Time
}

func (Prediction) TableName() string { return "predictions" }

// Models lists every table owned by the initial schema migration.
func Models() []interface{} {
	return []interface{}{&GlucoseReading{}, &Meal{}, &InsulinDose{}, &Prediction{}}
}

func GlucoseReadingFromDomain(r *domain.GlucoseReading) *GlucoseReading {
	return &GlucoseReading{
		ID:        r.ID,
		UserID:    r.UserID,
		Value:     r.Value,
		Timestamp: r.Timestamp,
		MealState: string(r.MealState),
		Notes:     r.Notes,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}

func (m *GlucoseReading) ToDomain() domain.GlucoseReading {
	return domain.GlucoseReading{
		ID:        m.ID,
		UserID:    m.UserID,
		Value:     m.Value,
		Timestamp: m.Timestamp.UTC(),
		MealState: domain.MealState(m.MealState),
		Notes:     m.Notes,
		CreatedAt: m.CreatedAt.UTC(),
		UpdatedAt: m.UpdatedAt.UTC(),
	}
}

func MealFromDomain(m *domain.Meal) *Meal {
	items := m.FoodItems
	if items == nil {
		items = []domain.FoodItem{}
	}
	return &Meal{
		ID:         m.ID,
		UserID:     m.UserID,
		TotalCarbs: m.TotalCarbs,
		Timestamp:  m.Timestamp,
		FoodItems:  datatypes.NewJSONSlice(items),
		CreatedAt:  m.CreatedAt,
		UpdatedAt:  m.UpdatedAt,
	}
}

func (m *Meal) ToDomain() domain.Meal {
	items := []domain.FoodItem(m.FoodItems)
	if items == nil {
		items = []domain.FoodItem{}
	}
	return domain.Meal{
		ID:         m.ID,
		UserID:     m.UserID,
		TotalCarbs: m.TotalCarbs,
		Timestamp:  m.Timestamp.UTC(),
		FoodItems:  items,
		CreatedAt:  m.CreatedAt.UTC(),
		UpdatedAt:  m.UpdatedAt.UTC(),
	}
}

func InsulinDoseFromDomain(d *domain.InsulinDose) *InsulinDose {
	return &InsulinDose{
		ID:           d.ID,
		UserID:       d.UserID,
		Units:        d.Units,
		Type:         string(d.Type),
		BloodGlucose: d.BloodGlucose,
		Timestamp:    d.Timestamp,
		Notes:        d.Notes,
		CreatedAt:    d.CreatedAt,
		UpdatedAt:    d.UpdatedAt,
	}
}

func (m *InsulinDose) ToDomain() domain.InsulinDose {
	return domain.InsulinDose{
		ID:           m.ID,
		UserID:       m.UserID,
		Units:        m.Units,
		Type:         domain.InsulinType(m.Type),
		BloodGlucose: m.BloodGlucose,
		Timestamp:    m.Timestamp.UTC(),
		Notes:        m.Notes,
		CreatedAt:    m.CreatedAt.UTC(),
		UpdatedAt:    m.UpdatedAt.UTC(),
	}
}

func PredictionFromDomain(p *domain.Prediction) *Prediction {
	return &Prediction{
		ID:                     p.ID,
		UserID:                 p.UserID,
		Timestamp:              p.Timestamp,
		PredictedValue:         p.PredictedValue,
		Confidence:             p.Confidence,
		Method:                 p.Method,
		InputCurrentGlucose:    p.Inputs.CurrentGlucose,
		InputInsulin:           p.Inputs.Insulin,
		InputCarbs:             p.Inputs.Carbs,
		InputExerciseDuration:  p.Inputs.ExerciseDuration,
		InputExerciseIntensity: p.Inputs.ExerciseIntensity,
		InputWeight:            p.Inputs.Weight,
		CreatedAt:              p.CreatedAt,
		UpdatedAt:              p.UpdatedAt,
	}
}

func (m *Prediction) ToDomain() domain.Prediction {
	return domain.Prediction{
		ID:             m.ID,
		UserID:         m.UserID,
		Timestamp:      m.Timestamp.UTC(),
		PredictedValue: m.PredictedValue,
		Confidence:     m.Confidence,
		Method:         m.Method,
		Inputs: domain.PredictionInputs{
			CurrentGlucose:    m.InputCurrentGlucose,
			Insulin:           m.InputInsulin,
			Carbs:             m.InputCarbs,
			ExerciseDuration:  m.InputExerciseDuration,
			ExerciseIntensity: m.InputExerciseIntensity,
			Weight:            m.InputWeight,
		},
		CreatedAt: m.CreatedAt.UTC(),
		UpdatedAt: m.UpdatedAt.UTC(),
	}
}
