package estimator

import "github.com/vladimiradmaev/diabetes-tracker/internal/input"

// Wire names accepted for each request field, first match wins.
var (
	keysCurrentGlucose    = []string{"bloodGlucose", "currentGlucose"}
	keysCarbIntake        = []string{"carbIntake", "carbs"}
	keysExerciseMinutes   = []string{"exerciseTime", "exerciseMinutes", "exerciseDuration"}
	keysCurrentDosage     = []string{"currentInsulinDosage"}
	keysBodyWeight        = []string{"weight", "bodyWeightKg"}
	keysInsulinDose       = []string{"insulinDose", "insulin"}
	keysExerciseIntensity = []string{"exerciseIntensity", "exerciseIntensityFactor"}
)

// NormalizeInsulinRequest never fails: every missing or unparseable field
// becomes 0. No range validation is performed, so negative glucose or
// carbs pass through unchanged.
func NormalizeInsulinRequest(f input.Fields) InsulinRequest {
	return InsulinRequest{
		CurrentGlucose:       f.FloatOr(0, keysCurrentGlucose...),
		CarbIntake:           f.FloatOr(0, keysCarbIntake...),
		ExerciseMinutes:      f.FloatOr(0, keysExerciseMinutes...),
		CurrentInsulinDosage: f.FloatOr(0, keysCurrentDosage...),
		BodyWeightKg:         optionalFloat(f, keysBodyWeight...),
	}
}

func optionalFloat(f input.Fields, keys ...string) *float64 {
	if v, ok := f.Float(keys...); ok {
		return &v
	}
	return nil
}

// NormalizeGlucoseRequest is NormalizeInsulinRequest for the projection,
// except the exercise intensity multiplier defaults to 1.
func NormalizeGlucoseRequest(f input.Fields) GlucoseRequest {
	return GlucoseRequest{
		CurrentGlucose:          f.FloatOr(0, keysCurrentGlucose...),
		InsulinDose:             f.FloatOr(0, keysInsulinDose...),
		CarbIntake:              f.FloatOr(0, keysCarbIntake...),
		ExerciseMinutes:         f.FloatOr(0, keysExerciseMinutes...),
		ExerciseIntensityFactor: f.FloatOr(1, keysExerciseIntensity...),
	}
}
