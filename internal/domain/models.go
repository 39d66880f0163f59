package domain

import (
	"time"
)

// MealState tags when a glucose reading was taken relative to a meal
type MealState string

const (
	MealStateFasting MealState = "fasting"
	MealStateBefore  MealState = "before"
	MealStateAfter   MealState = "after"
)

// MealStates lists the states in reporting order
var MealStates = []MealState{MealStateFasting, MealStateBefore, MealStateAfter}

// Valid reports whether s is one of the known meal states
func (s MealState) Valid() bool {
	for _, known := range MealStates {
		if s == known {
			return true
		}
	}
	return false
}

// InsulinType is the action profile of an insulin dose
type InsulinType string

const (
	InsulinRapid        InsulinType = "rapid"
	InsulinShort        InsulinType = "short"
	InsulinIntermediate InsulinType = "intermediate"
	InsulinLong         InsulinType = "long"
	InsulinMix          InsulinType = "mix"
)

// Valid reports whether t is one of the known insulin types
func (t InsulinType) Valid() bool {
	switch t {
	case InsulinRapid, InsulinShort, InsulinIntermediate, InsulinLong, InsulinMix:
		return true
	}
	return false
}

// PredictedGlucoseNote marks glucose readings written by the projection
// rather than measured.
const PredictedGlucoseNote = "Predicted glucose value"

// GlucoseReading is a blood glucose measurement in mg/dL
type GlucoseReading struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	Value     float64   `json:"value"`
	Timestamp time.Time `json:"timestamp"`
	MealState MealState `json:"mealState"`
	Notes     string    `json:"notes"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// GlucoseReadingPatch carries the fields of a partial reading update;
// nil fields are left untouched.
type GlucoseReadingPatch struct {
	Value     *float64
	Timestamp *time.Time
	MealState *MealState
	Notes     *string
}

// FoodItem is one component of a meal
type FoodItem struct {
	Name         string  `json:"name"`
	CarbsPer100g float64 `json:"carbsPer100g"`
	Weight       float64 `json:"weight"`
	Carbs        float64 `json:"carbs"`
}

// Meal is a logged meal with its carbohydrate total in grams
type Meal struct {
	ID         string     `json:"id"`
	UserID     string     `json:"userId"`
	TotalCarbs float64    `json:"totalCarbs"`
	Timestamp  time.Time  `json:"timestamp"`
	FoodItems  []FoodItem `json:"foodItems"`
	CreatedAt  time.Time  `json:"createdAt"`
	UpdatedAt  time.Time  `json:"updatedAt"`
}

// InsulinDose is an administered insulin dose
type InsulinDose struct {
	ID           string      `json:"id"`
	UserID       string      `json:"userId"`
	Units        float64     `json:"units"`
	Type         InsulinType `json:"type"`
	BloodGlucose *float64    `json:"bloodGlucose,omitempty"`
	Timestamp    time.Time   `json:"timestamp"`
	Notes        string      `json:"notes"`
	CreatedAt    time.Time   `json:"createdAt"`
	UpdatedAt    time.Time   `json:"updatedAt"`
}

// PredictionInputs snapshots the estimator inputs of an audited prediction
type PredictionInputs struct {
	CurrentGlucose    *float64 `json:"currentGlucose,omitempty"`
	Insulin           *float64 `json:"insulin,omitempty"`
	Carbs             *float64 `json:"carbs,omitempty"`
	ExerciseDuration  *float64 `json:"exerciseDuration,omitempty"`
	ExerciseIntensity *float64 `json:"exerciseIntensity,omitempty"`
	Weight            *float64 `json:"weight,omitempty"`
}

// Prediction is an append-only audit row of an estimator invocation
type Prediction struct {
	ID             string           `json:"id"`
	UserID         string           `json:"userId"`
	Timestamp      time.Time        `json:"timestamp"`
	PredictedValue float64          `json:"predictedValue"`
	Confidence     float64          `json:"confidence"`
	Method         string           `json:"method"`
	Inputs         PredictionInputs `json:"inputs"`
	CreatedAt      time.Time        `json:"createdAt"`
	UpdatedAt      time.Time        `json:"updatedAt"`
}

// PredictionMethods lists the method names a Prediction row may carry.
// "ml-model" is accepted from manual POSTs for schema compatibility even
// though no estimator produces it.
var PredictionMethods = []string{"local-fallback", "ml-model"}

// RecordCounts totals stored records per kind
type RecordCounts struct {
	GlucoseReadings int64 `json:"glucoseReadings"`
	InsulinDoses    int64 `json:"insulinDoses"`
	Meals           int64 `json:"meals"`
	Predictions     int64 `json:"predictions"`
}

// Float returns a pointer to v, for optional numeric fields
func Float(v float64) *float64 {
	return &v
}
