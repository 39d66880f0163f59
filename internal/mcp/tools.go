package mcp

import (
	"context"
	"fmt"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/vladimiradmaev/diabetes-tracker/internal/domain"
	"github.com/vladimiradmaev/diabetes-tracker/internal/estimator"
	"github.com/vladimiradmaev/diabetes-tracker/internal/input"
)

const defaultListLimit = 20

func (s *Server) registerTools() {
	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "predict_insulin",
		Description: "Suggest an insulin dose from current glucose, carbs and exercise using the local formula",
	}, s.handlePredictInsulin)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "predict_glucose",
		Description: "Project blood glucose after insulin, carbs and exercise",
	}, s.handlePredictGlucose)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "log_glucose",
		Description: "Record a blood glucose reading in mg/dL",
	}, s.handleLogGlucose)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "list_glucose",
		Description: "List recent glucose readings, newest first",
	}, s.handleListGlucose)
}

// Tool input/output types

type predictInsulinInput struct {
	BloodGlucose         float64 `json:"bloodGlucose,omitempty" jsonschema:"current blood glucose in mg/dL"`
	CarbIntake           float64 `json:"carbIntake,omitempty" jsonschema:"carbohydrates about to be eaten, in grams"`
	ExerciseTime         float64 `json:"exerciseTime,omitempty" jsonschema:"planned exercise in minutes"`
	CurrentInsulinDosage float64 `json:"currentInsulinDosage,omitempty" jsonschema:"insulin already on board, in units"`
	Weight               *float64 `json:"weight,omitempty" jsonschema:"body weight in kg, recorded but not used by the formula"`
	UserID               string  `json:"userId,omitempty" jsonschema:"user the estimate is recorded for"`
}

type predictGlucoseInput struct {
	CurrentGlucose    float64  `json:"currentGlucose,omitempty" jsonschema:"current blood glucose in mg/dL"`
	InsulinDose       float64  `json:"insulinDose,omitempty" jsonschema:"insulin to be injected, in units"`
	CarbIntake        float64  `json:"carbIntake,omitempty" jsonschema:"carbohydrates in grams"`
	ExerciseMinutes   float64  `json:"exerciseMinutes,omitempty" jsonschema:"exercise duration in minutes"`
	ExerciseIntensity *float64 `json:"exerciseIntensity,omitempty" jsonschema:"exercise intensity multiplier, defaults to 1"`
	UserID            string   `json:"userId,omitempty" jsonschema:"user the projection is recorded for"`
}

type logGlucoseInput struct {
	Value     float64 `json:"value" jsonschema:"glucose value in mg/dL"`
	MealState string  `json:"mealState,omitempty" jsonschema:"fasting, before or after; defaults to fasting"`
	Timestamp string  `json:"timestamp,omitempty" jsonschema:"ISO 8601 time of the reading, defaults to now"`
	Notes     string  `json:"notes,omitempty" jsonschema:"optional notes"`
	UserID    string  `json:"userId,omitempty" jsonschema:"user the reading belongs to"`
}

// readingOutput is a GlucoseReading with its time rendered as RFC 3339
type readingOutput struct {
	ID        string  `json:"id"`
	UserID    string  `json:"userId"`
	Value     float64 `json:"value"`
	MealState string  `json:"mealState"`
	Timestamp string  `json:"timestamp"`
	Notes     string  `json:"notes,omitempty"`
}

func toReadingOutput(r domain.GlucoseReading) readingOutput {
	return readingOutput{
		ID:        r.ID,
		UserID:    r.UserID,
		Value:     r.Value,
		MealState: string(r.MealState),
		Timestamp: r.Timestamp.UTC().Format(time.RFC3339),
		Notes:     r.Notes,
	}
}

type glucoseOutput struct {
	Reading readingOutput `json:"reading"`
	Message string        `json:"message"`
}

type listGlucoseInput struct {
	UserID string `json:"userId,omitempty" jsonschema:"user whose readings to list"`
	Days   int    `json:"days,omitempty" jsonschema:"only readings from the last N days; 0 lists everything"`
	Limit  int    `json:"limit,omitempty" jsonschema:"max results (default 20)"`
}

type listGlucoseOutput struct {
	Readings []readingOutput `json:"readings"`
	Count    int             `json:"count"`
}

// Tool handlers

func (s *Server) handlePredictInsulin(ctx context.Context, _ *mcp.CallToolRequest, in predictInsulinInput) (*mcp.CallToolResult, estimator.InsulinResult, error) {
	req := estimator.InsulinRequest{
		CurrentGlucose:       in.BloodGlucose,
		CarbIntake:           in.CarbIntake,
		ExerciseMinutes:      in.ExerciseTime,
		CurrentInsulinDosage: in.CurrentInsulinDosage,
		BodyWeightKg:         in.Weight,
	}
	return nil, s.deps.EstimatorSvc.EstimateInsulinDose(ctx, in.UserID, req), nil
}

func (s *Server) handlePredictGlucose(ctx context.Context, _ *mcp.CallToolRequest, in predictGlucoseInput) (*mcp.CallToolResult, estimator.GlucoseResult, error) {
	intensity := 1.0
	if in.ExerciseIntensity != nil {
		intensity = *in.ExerciseIntensity
	}
	req := estimator.GlucoseRequest{
		CurrentGlucose:          in.CurrentGlucose,
		InsulinDose:             in.InsulinDose,
		CarbIntake:              in.CarbIntake,
		ExerciseMinutes:         in.ExerciseMinutes,
		ExerciseIntensityFactor: intensity,
	}
	return nil, s.deps.EstimatorSvc.EstimateGlucose(ctx, in.UserID, req), nil
}

func (s *Server) handleLogGlucose(ctx context.Context, _ *mcp.CallToolRequest, in logGlucoseInput) (*mcp.CallToolResult, glucoseOutput, error) {
	f := input.Fields{"value": in.Value}
	if in.MealState != "" {
		f["mealState"] = in.MealState
	}
	if in.Timestamp != "" {
		f["timestamp"] = in.Timestamp
	}
	if in.Notes != "" {
		f["notes"] = in.Notes
	}
	if in.UserID != "" {
		f["userId"] = in.UserID
	}

	r, err := s.deps.GlucoseSvc.Create(ctx, f)
	if err != nil {
		return nil, glucoseOutput{}, fmt.Errorf("failed to log glucose: %w", err)
	}

	return nil, glucoseOutput{
		Reading: toReadingOutput(*r),
		Message: fmt.Sprintf("Logged %.0f mg/dL (%s) for %s (ID: %s)", r.Value, r.MealState, r.UserID, r.ID),
	}, nil
}

func (s *Server) handleListGlucose(ctx context.Context, _ *mcp.CallToolRequest, in listGlucoseInput) (*mcp.CallToolResult, listGlucoseOutput, error) {
	if in.Limit <= 0 {
		in.Limit = defaultListLimit
	}

	readings, err := s.deps.GlucoseSvc.List(ctx, in.UserID, in.Days)
	if err != nil {
		return nil, listGlucoseOutput{}, fmt.Errorf("failed to list glucose readings: %w", err)
	}
	if len(readings) > in.Limit {
		readings = readings[:in.Limit]
	}

	out := listGlucoseOutput{Readings: make([]readingOutput, 0, len(readings))}
	for _, r := range readings {
		out.Readings = append(out.Readings, toReadingOutput(r))
	}
	out.Count = len(out.Readings)
	return nil, out, nil
}
