package services

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/vladimiradmaev/diabetes-tracker/internal/domain"
	apperrors "github.com/vladimiradmaev/diabetes-tracker/internal/errors"
	"github.com/vladimiradmaev/diabetes-tracker/internal/estimator"
	"github.com/vladimiradmaev/diabetes-tracker/internal/repository"
)

// failingAuditStore rejects every write.
type failingAuditStore struct {
	mu    sync.Mutex
	calls int
}

func (f *failingAuditStore) CreatePrediction(context.Context, *domain.Prediction) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return errors.New("connection refused")
}

func (f *failingAuditStore) CreateGlucoseReading(context.Context, *domain.GlucoseReading) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return errors.New("connection refused")
}

// panickingAuditStore panics on every write.
type panickingAuditStore struct{}

func (panickingAuditStore) CreatePrediction(context.Context, *domain.Prediction) error {
	panic("driver bug")
}

func (panickingAuditStore) CreateGlucoseReading(context.Context, *domain.GlucoseReading) error {
	panic("driver bug")
}

// blockingAuditStore waits for release or for the write context to end.
type blockingAuditStore struct {
	release chan struct{}
	ctxErr  chan error
}

func (b *blockingAuditStore) wait(ctx context.Context) error {
	select {
	case <-b.release:
		b.ctxErr <- nil
		return nil
	case <-ctx.Done():
		b.ctxErr <- ctx.Err()
		return ctx.Err()
	}
}

func (b *blockingAuditStore) CreatePrediction(ctx context.Context, _ *domain.Prediction) error {
	return b.wait(ctx)
}

func (b *blockingAuditStore) CreateGlucoseReading(ctx context.Context, _ *domain.GlucoseReading) error {
	return b.wait(ctx)
}

type recordingInvalidator struct {
	mu    sync.Mutex
	users []string
}

func (r *recordingInvalidator) InvalidateUser(_ context.Context, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.users = append(r.users, userID)
	return nil
}

func (r *recordingInvalidator) invalidated() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.users...)
}

func testHandler(buf *bytes.Buffer) *apperrors.Handler {
	return apperrors.NewHandler(slog.New(slog.NewJSONHandler(buf, nil)))
}

func newEstimatorService(audit domain.AuditStore, inv Invalidator, h *apperrors.Handler, opts Options) *EstimatorService {
	return NewEstimatorService(estimator.NewLocalFormula(estimator.Options{}), audit, inv, h, opts)
}

var doseRequest = estimator.InsulinRequest{
	CurrentGlucose:       180,
	CarbIntake:           45,
	ExerciseMinutes:      10,
	CurrentInsulinDosage: 1,
	BodyWeightKg:         domain.Float(72),
}

func TestAuditFailureDoesNotChangeResult(t *testing.T) {
	var logs bytes.Buffer
	failing := &failingAuditStore{}
	svc := newEstimatorService(failing, nil, testHandler(&logs), Options{})

	want := estimator.EstimateInsulinDose(doseRequest)
	got := svc.EstimateInsulinDose(context.Background(), "u1", doseRequest)
	if got != want {
		t.Errorf("EstimateInsulinDose = %+v, want %+v", got, want)
	}

	glucoseReq := estimator.GlucoseRequest{CurrentGlucose: 150, InsulinDose: 2, CarbIntake: 30, ExerciseIntensityFactor: 1}
	if g := svc.EstimateGlucose(context.Background(), "u1", glucoseReq); g.PredictedGlucose != 150 {
		t.Errorf("PredictedGlucose = %d, want 150", g.PredictedGlucose)
	}

	svc.Wait()
	if failing.calls != 2 {
		t.Errorf("audit calls = %d, want 2", failing.calls)
	}
	if !strings.Contains(logs.String(), "AUDIT_WRITE") {
		t.Errorf("audit failure not logged: %s", logs.String())
	}
}

func TestAuditPanicIsContained(t *testing.T) {
	var logs bytes.Buffer
	svc := newEstimatorService(panickingAuditStore{}, nil, testHandler(&logs), Options{})

	got := svc.EstimateInsulinDose(context.Background(), "", doseRequest)
	svc.Wait()

	if got.RecommendedDosage != estimator.EstimateInsulinDose(doseRequest).RecommendedDosage {
		t.Errorf("dose changed: %+v", got)
	}
	if !strings.Contains(logs.String(), "audit write panicked") {
		t.Errorf("panic not logged: %s", logs.String())
	}
}

func TestInsulinEstimateIsAuditedAsPrediction(t *testing.T) {
	store := repository.NewMemoryStore()
	svc := newEstimatorService(store, nil, nil, Options{DefaultUserID: "household"})

	result := svc.EstimateInsulinDose(context.Background(), "", doseRequest)
	svc.Wait()

	preds, err := store.ListPredictions(context.Background(), domain.ListFilter{UserID: "household"})
	if err != nil {
		t.Fatal(err)
	}
	if len(preds) != 1 {
		t.Fatalf("predictions = %+v", preds)
	}
	p := preds[0]
	if p.PredictedValue != result.RecommendedDosage || p.Confidence != 0.7 || p.Method != "local-fallback" {
		t.Errorf("prediction = %+v", p)
	}
	in := p.Inputs
	if *in.CurrentGlucose != 180 || *in.Carbs != 45 || *in.ExerciseDuration != 10 || *in.Weight != 72 {
		t.Errorf("inputs = %+v", in)
	}
	if in.Insulin != nil || in.ExerciseIntensity != nil {
		t.Errorf("unexpected inputs recorded: %+v", in)
	}
}

func TestAuditOmitsWeightNotSent(t *testing.T) {
	store := repository.NewMemoryStore()
	svc := newEstimatorService(store, nil, nil, Options{})

	svc.EstimateInsulinDose(context.Background(), "u8", estimator.InsulinRequest{CurrentGlucose: 150})
	svc.Wait()

	preds, _ := store.ListPredictions(context.Background(), domain.ListFilter{UserID: "u8"})
	if len(preds) != 1 {
		t.Fatalf("predictions = %+v", preds)
	}
	if preds[0].Inputs.Weight != nil {
		t.Errorf("Weight = %v, want nil", *preds[0].Inputs.Weight)
	}
}

func TestGlucoseProjectionIsAuditedAsReading(t *testing.T) {
	store := repository.NewMemoryStore()
	inv := &recordingInvalidator{}
	svc := newEstimatorService(store, inv, nil, Options{})
	svc.now = func() time.Time { return fixedNow }

	req := estimator.GlucoseRequest{CurrentGlucose: 100, ExerciseMinutes: 30, ExerciseIntensityFactor: 1.5}
	result := svc.EstimateGlucose(context.Background(), "u7", req)
	svc.Wait()

	readings, _ := store.ListGlucoseReadings(context.Background(), domain.ListFilter{UserID: "u7"})
	if len(readings) != 1 {
		t.Fatalf("readings = %+v", readings)
	}
	r := readings[0]
	if r.Value != float64(result.PredictedGlucose) || r.Notes != domain.PredictedGlucoseNote || r.MealState != domain.MealStateAfter {
		t.Errorf("reading = %+v", r)
	}
	if want := fixedNow.Add(time.Hour); !r.Timestamp.Equal(want) {
		t.Errorf("Timestamp = %v, want %v", r.Timestamp, want)
	}
	if got := inv.invalidated(); len(got) != 1 || got[0] != "u7" {
		t.Errorf("invalidated = %v", got)
	}

	preds, _ := store.ListPredictions(context.Background(), domain.ListFilter{UserID: "u7"})
	if len(preds) != 0 {
		t.Errorf("glucose projection wrote predictions: %+v", preds)
	}
}

func TestAuditSurvivesCallerCancellation(t *testing.T) {
	store := repository.NewMemoryStore()
	svc := newEstimatorService(store, nil, nil, Options{})

	ctx, cancel := context.WithCancel(context.Background())
	svc.EstimateInsulinDose(ctx, "u1", doseRequest)
	cancel()
	svc.Wait()

	preds, _ := store.ListPredictions(context.Background(), domain.ListFilter{UserID: "u1"})
	if len(preds) != 1 {
		t.Errorf("audit lost after cancellation: %+v", preds)
	}
}

func TestAuditTimeoutBoundsWrite(t *testing.T) {
	var logs bytes.Buffer
	blocking := &blockingAuditStore{release: make(chan struct{}), ctxErr: make(chan error, 1)}
	svc := newEstimatorService(blocking, nil, testHandler(&logs), Options{AuditTimeout: 20 * time.Millisecond})

	svc.EstimateInsulinDose(context.Background(), "u1", doseRequest)

	select {
	case err := <-blocking.ctxErr:
		if !errors.Is(err, context.DeadlineExceeded) {
			t.Errorf("audit ctx err = %v, want deadline exceeded", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("audit write never timed out")
	}
	svc.Wait()
}

func TestFlushHonorsContext(t *testing.T) {
	blocking := &blockingAuditStore{release: make(chan struct{}), ctxErr: make(chan error, 1)}
	svc := newEstimatorService(blocking, nil, nil, Options{AuditTimeout: time.Minute})
	svc.EstimateInsulinDose(context.Background(), "u1", doseRequest)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if err := svc.Flush(ctx); apperrors.TypeOf(err) != apperrors.ErrorTypeTimeout {
		t.Errorf("Flush = %v, want timeout", err)
	}

	close(blocking.release)
	if err := svc.Flush(context.Background()); err != nil {
		t.Errorf("Flush after release = %v", err)
	}
}

func TestConcurrentEstimates(t *testing.T) {
	store := repository.NewMemoryStore()
	svc := newEstimatorService(store, nil, nil, Options{})
	want := estimator.EstimateInsulinDose(doseRequest)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if got := svc.EstimateInsulinDose(context.Background(), "u1", doseRequest); got != want {
				t.Errorf("got %+v, want %+v", got, want)
			}
		}()
	}
	wg.Wait()
	svc.Wait()

	counts, _ := store.Counts(context.Background())
	if counts.Predictions != 20 {
		t.Errorf("Predictions = %d, want 20", counts.Predictions)
	}
}
