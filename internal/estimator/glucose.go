package estimator

import "math"

// EstimateGlucose projects a future glucose value from insulin, carbs and
// exercise. Each insulin unit lowers glucose by 3 mg/dL, each gram of
// carbohydrate raises it by 0.2, and exercise lowers it by 0.1 per
// intensity-weighted minute.
func EstimateGlucose(req GlucoseRequest, opts Options) GlucoseResult {
	insulinEffect := req.InsulinDose * -3
	carbEffect := req.CarbIntake * 0.2
	exerciseEffect := req.ExerciseMinutes * req.ExerciseIntensityFactor * -0.1

	predicted := saturate(roundHalfUp(req.CurrentGlucose + insulinEffect + carbEffect + exerciseEffect))

	clamped := false
	if opts.ClampToPhysiologicalRange {
		bounded := min(max(predicted, MinPhysiologicalGlucose), MaxPhysiologicalGlucose)
		clamped = bounded != predicted
		predicted = bounded
	}

	return GlucoseResult{
		PredictedGlucose: predicted,
		Details: GlucoseDetails{
			InsulinEffect:  formatTenths(insulinEffect),
			CarbEffect:     formatTenths(carbEffect),
			ExerciseEffect: formatTenths(exerciseEffect),
		},
		Clamped: clamped,
	}
}

// saturate converts a rounded projection to int, bounded to the int32 range.
// NaN, reachable only from opposing infinite inputs, becomes 0.
func saturate(x float64) int {
	switch {
	case math.IsNaN(x):
		return 0
	case x > math.MaxInt32:
		return math.MaxInt32
	case x < math.MinInt32:
		return math.MinInt32
	}
	return int(x)
}
