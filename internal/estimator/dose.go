package estimator

import "math"

// EstimateInsulinDose computes a recommended dose from current glucose,
// carbohydrates, exercise and the dose already planned.
//
// The glucose correction uses ceil above target and floor at or below it,
// so a difference of +1 mg/dL already adds a whole unit. The result is
// clamped at zero after the exercise reduction and snapped to 0.5 units.
func EstimateInsulinDose(req InsulinRequest) InsulinResult {
	glucoseDifference := req.CurrentGlucose - TargetGlucose
	carbEffect := req.CarbIntake / 10
	exerciseReduction := req.ExerciseMinutes * 0.2

	var glucoseAdjustment float64
	if glucoseDifference > 0 {
		glucoseAdjustment = math.Ceil(glucoseDifference / 30)
	} else {
		glucoseAdjustment = math.Floor(glucoseDifference / 30)
	}

	dosage := req.CurrentInsulinDosage + glucoseAdjustment + carbEffect
	dosage = math.Max(0, dosage-exerciseReduction)
	dosage = roundHalfUp(dosage*2) / 2

	return InsulinResult{
		RecommendedDosage: dosage,
		Details: InsulinDetails{
			CurrentGlucose:    formatTenths(req.CurrentGlucose),
			GlucoseDifference: formatTenths(glucoseDifference),
			CarbEffect:        formatTenths(carbEffect),
			ExerciseReduction: formatTenths(exerciseReduction),
		},
		Method:     MethodLocalFallback,
		Confidence: LocalFallbackConfidence,
	}
}
