// Package estimator holds the formula-based insulin-dose and glucose
// projection heuristics together with the normalizer that turns loose
// client input into their requests.
//
// The arithmetic is kept exactly as recorded results expect it, quirks
// included. None of the constants or rounding rules may change.
package estimator

import (
	"encoding/json"
	"math"
)

// Method names the strategy that produced an estimate.
type Method string

// MethodLocalFallback is the formula-based estimate. It is the only method
// this package can produce.
const MethodLocalFallback Method = "local-fallback"

const (
	// TargetGlucose is the mg/dL value corrections aim for.
	TargetGlucose = 120.0
	// LocalFallbackConfidence is reported with every formula-based dose.
	LocalFallbackConfidence = 0.7

	MinPhysiologicalGlucose = 70
	MaxPhysiologicalGlucose = 300
)

// InsulinRequest is the normalized input to EstimateInsulinDose.
type InsulinRequest struct {
	CurrentGlucose       float64 `json:"currentGlucose"`
	CarbIntake           float64 `json:"carbIntake"`
	ExerciseMinutes      float64 `json:"exerciseMinutes"`
	CurrentInsulinDosage float64 `json:"currentInsulinDosage"`
	// BodyWeightKg is accepted and audited but plays no part in the formula.
	// It is nil when the client sent no weight.
	BodyWeightKg *float64 `json:"bodyWeightKg,omitempty"`
}

// InsulinDetails are informational values, each rendered with one decimal.
type InsulinDetails struct {
	CurrentGlucose    string `json:"currentGlucose"`
	GlucoseDifference string `json:"glucoseDifference"`
	CarbEffect        string `json:"carbEffect"`
	ExerciseReduction string `json:"exerciseReduction"`
}

// InsulinResult is the response of EstimateInsulinDose.
type InsulinResult struct {
	RecommendedDosage float64        `json:"recommendedDosage"`
	Details           InsulinDetails `json:"details"`
	Method            Method         `json:"method"`
	Confidence        float64        `json:"confidence"`
}

// MarshalJSON writes a non-finite dosage as null, since JSON has no
// representation for infinities or NaN.
func (r InsulinResult) MarshalJSON() ([]byte, error) {
	type plain InsulinResult
	var dosage *float64
	if !math.IsNaN(r.RecommendedDosage) && !math.IsInf(r.RecommendedDosage, 0) {
		dosage = &r.RecommendedDosage
	}
	return json.Marshal(struct {
		RecommendedDosage *float64 `json:"recommendedDosage"`
		plain
	}{dosage, plain(r)})
}

// GlucoseRequest is the normalized input to EstimateGlucose.
type GlucoseRequest struct {
	CurrentGlucose          float64 `json:"currentGlucose"`
	InsulinDose             float64 `json:"insulinDose"`
	CarbIntake              float64 `json:"carbIntake"`
	ExerciseMinutes         float64 `json:"exerciseMinutes"`
	ExerciseIntensityFactor float64 `json:"exerciseIntensityFactor"`
}

// GlucoseDetails itemizes the projection, one decimal each.
type GlucoseDetails struct {
	InsulinEffect  string `json:"insulinEffect"`
	CarbEffect     string `json:"carbEffect"`
	ExerciseEffect string `json:"exerciseEffect"`
}

// GlucoseResult is the response of EstimateGlucose.
type GlucoseResult struct {
	PredictedGlucose int            `json:"predictedGlucose"`
	Details          GlucoseDetails `json:"details"`
	// Clamped is true when the range clamp changed the projection.
	Clamped bool `json:"clamped"`
}

// Options tunes behavior that differs between call sites of the glucose
// projection.
type Options struct {
	// ClampToPhysiologicalRange bounds the projection to [70, 300] mg/dL.
	ClampToPhysiologicalRange bool
}

// Estimator is the capability a dose/glucose strategy provides. A model
// backed strategy would implement it and report its own Method.
type Estimator interface {
	Method() Method
	EstimateInsulinDose(req InsulinRequest) InsulinResult
	EstimateGlucose(req GlucoseRequest) GlucoseResult
}

// LocalFormula is the formula-based Estimator. It holds no mutable state
// and is safe for concurrent use.
type LocalFormula struct {
	opts Options
}

// NewLocalFormula creates the formula-based estimator.
func NewLocalFormula(opts Options) *LocalFormula {
	return &LocalFormula{opts: opts}
}

// Method implements Estimator.
func (e *LocalFormula) Method() Method {
	return MethodLocalFallback
}

// EstimateInsulinDose implements Estimator.
func (e *LocalFormula) EstimateInsulinDose(req InsulinRequest) InsulinResult {
	return EstimateInsulinDose(req)
}

// EstimateGlucose implements Estimator.
func (e *LocalFormula) EstimateGlucose(req GlucoseRequest) GlucoseResult {
	return EstimateGlucose(req, e.opts)
}

var _ Estimator = (*LocalFormula)(nil)
