package mcp

import (
	"context"
	"strings"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/vladimiradmaev/diabetes-tracker/internal/domain"
	"github.com/vladimiradmaev/diabetes-tracker/internal/estimator"
	"github.com/vladimiradmaev/diabetes-tracker/internal/repository"
	"github.com/vladimiradmaev/diabetes-tracker/internal/services"
)

type fixture struct {
	server *Server
	store  *repository.MemoryStore
	est    *services.EstimatorService
}

func setupServer(t *testing.T) *fixture {
	t.Helper()
	store := repository.NewMemoryStore()
	est := services.NewEstimatorService(estimator.NewLocalFormula(estimator.Options{}), store, nil, nil, services.Options{})
	server := NewServer(Dependencies{
		EstimatorSvc: est,
		GlucoseSvc:   services.NewGlucoseService(store, nil, nil, services.Options{}),
	}, "test")
	return &fixture{server: server, store: store, est: est}
}

func TestNewServer(t *testing.T) {
	f := setupServer(t)
	if f.server.mcpServer == nil {
		t.Fatal("Expected non-nil mcpServer")
	}
}

func TestHandlePredictInsulin(t *testing.T) {
	f := setupServer(t)
	ctx := context.Background()

	_, out, err := f.server.handlePredictInsulin(ctx, &mcp.CallToolRequest{}, predictInsulinInput{
		BloodGlucose: 150,
		UserID:       "mcp-user",
	})
	if err != nil {
		t.Fatalf("handlePredictInsulin: %v", err)
	}
	if out.RecommendedDosage != 1 || out.Method != estimator.MethodLocalFallback {
		t.Errorf("output = %+v", out)
	}

	f.est.Wait()
	preds, _ := f.store.ListPredictions(ctx, domain.ListFilter{UserID: "mcp-user"})
	if len(preds) != 1 {
		t.Errorf("audit predictions = %d, want 1", len(preds))
	}
}

func TestHandlePredictGlucose(t *testing.T) {
	f := setupServer(t)
	ctx := context.Background()

	tests := []struct {
		name  string
		input predictGlucoseInput
		want  int
	}{
		{
			name:  "intensity defaults to one",
			input: predictGlucoseInput{CurrentGlucose: 150, InsulinDose: 2, CarbIntake: 30},
			want:  150,
		},
		{
			name:  "explicit zero intensity cancels exercise",
			input: predictGlucoseInput{CurrentGlucose: 100, ExerciseMinutes: 60, ExerciseIntensity: domain.Float(0)},
			want:  100,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, out, err := f.server.handlePredictGlucose(ctx, &mcp.CallToolRequest{}, tt.input)
			if err != nil {
				t.Fatal(err)
			}
			if out.PredictedGlucose != tt.want {
				t.Errorf("PredictedGlucose = %d, want %d", out.PredictedGlucose, tt.want)
			}
		})
	}
	f.est.Wait()
}

func TestHandleLogAndListGlucose(t *testing.T) {
	f := setupServer(t)
	ctx := context.Background()

	tests := []struct {
		name      string
		input     logGlucoseInput
		wantErr   bool
		errSubstr string
	}{
		{name: "defaults", input: logGlucoseInput{Value: 110}},
		{name: "with meal state", input: logGlucoseInput{Value: 170, MealState: "after", Notes: "pasta"}},
		{name: "with timestamp", input: logGlucoseInput{Value: 95, Timestamp: "2025-01-31T08:00:00Z"}},
		{name: "bad meal state", input: logGlucoseInput{Value: 95, MealState: "snack"}, wantErr: true, errSubstr: "mealState"},
		{name: "bad timestamp", input: logGlucoseInput{Value: 95, Timestamp: "soon"}, wantErr: true, errSubstr: "failed to log glucose"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, out, err := f.server.handleLogGlucose(ctx, &mcp.CallToolRequest{}, tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatal("Expected error, got nil")
				}
				if !strings.Contains(err.Error(), tt.errSubstr) {
					t.Errorf("error %q does not mention %q", err, tt.errSubstr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if out.Reading.ID == "" || out.Reading.UserID != "default" || out.Message == "" {
				t.Errorf("output = %+v", out)
			}
		})
	}

	_, list, err := f.server.handleListGlucose(ctx, &mcp.CallToolRequest{}, listGlucoseInput{})
	if err != nil {
		t.Fatal(err)
	}
	if list.Count != 3 || len(list.Readings) != 3 {
		t.Fatalf("list = %+v", list)
	}
	if list.Readings[2].Timestamp != "2025-01-31T08:00:00Z" {
		t.Errorf("oldest reading = %+v", list.Readings[2])
	}

	_, limited, _ := f.server.handleListGlucose(ctx, &mcp.CallToolRequest{}, listGlucoseInput{Limit: 1})
	if limited.Count != 1 {
		t.Errorf("limited count = %d", limited.Count)
	}

	_, other, _ := f.server.handleListGlucose(ctx, &mcp.CallToolRequest{}, listGlucoseInput{UserID: "someone-else"})
	if other.Count != 0 || other.Readings == nil {
		t.Errorf("other user list = %+v", other)
	}
}
