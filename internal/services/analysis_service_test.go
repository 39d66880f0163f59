package services

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/vladimiradmaev/diabetes-tracker/internal/cache"
	"github.com/vladimiradmaev/diabetes-tracker/internal/domain"
	"github.com/vladimiradmaev/diabetes-tracker/internal/input"
	"github.com/vladimiradmaev/diabetes-tracker/internal/repository"
)

type analysisFixture struct {
	store    *repository.MemoryStore
	cache    *cache.Manager
	analysis *AnalysisService
	glucose  *GlucoseService
	meals    *MealService
	insulin  *InsulinService
}

func newAnalysisFixture(t *testing.T) *analysisFixture {
	t.Helper()
	store := repository.NewMemoryStore()
	c := cache.NewManager(time.Minute)
	now := func() time.Time { return fixedNow }

	f := &analysisFixture{
		store:    store,
		cache:    c,
		analysis: NewAnalysisService(store, c, nil, Options{}),
		glucose:  NewGlucoseService(store, c, nil, Options{}),
		meals:    NewMealService(store, c, nil, Options{}),
		insulin:  NewInsulinService(store, c, nil, Options{}),
	}
	f.analysis.now = now
	f.glucose.now = now
	f.meals.now = now
	f.insulin.now = now
	return f
}

func (f *analysisFixture) reading(t *testing.T, value float64, state string, ago time.Duration) {
	t.Helper()
	_, err := f.glucose.Create(context.Background(), input.Fields{
		"value":     value,
		"mealState": state,
		"timestamp": fixedNow.Add(-ago).Format(time.RFC3339),
	})
	if err != nil {
		t.Fatal(err)
	}
}

func (f *analysisFixture) meal(t *testing.T, carbs float64, at time.Time) {
	t.Helper()
	_, err := f.meals.Create(context.Background(), input.Fields{
		"totalCarbs": carbs,
		"timestamp":  at.Format(time.RFC3339),
	})
	if err != nil {
		t.Fatal(err)
	}
}

func TestGlucoseByMealState(t *testing.T) {
	f := newAnalysisFixture(t)
	f.reading(t, 100, "fasting", time.Hour)
	f.reading(t, 110, "fasting", 2*time.Hour)
	f.reading(t, 180, "after", 3*time.Hour)
	f.reading(t, 300, "after", 20*24*time.Hour) // outside the 14 day default

	got, err := f.analysis.GlucoseByMealState(context.Background(), "", 0)
	if err != nil {
		t.Fatalf("GlucoseByMealState: %v", err)
	}

	if got.Averages != (MealStateValues{Fasting: 105, Before: 0, After: 180}) {
		t.Errorf("Averages = %+v", got.Averages)
	}
	if got.Counts != (MealStateCounts{Fasting: 2, Before: 0, After: 1}) {
		t.Errorf("Counts = %+v", got.Counts)
	}
	meta := got.AnalysisMetadata
	if meta.Days != DefaultMealStateDays || meta.TotalReadings != 3 {
		t.Errorf("metadata = %+v", meta)
	}
	if !meta.EndDate.Equal(fixedNow) || !meta.StartDate.Equal(fixedNow.AddDate(0, 0, -14)) {
		t.Errorf("window = %v .. %v", meta.StartDate, meta.EndDate)
	}
}

func TestDailyCarbIntake(t *testing.T) {
	f := newAnalysisFixture(t)
	day1 := time.Date(2024, 6, 10, 8, 0, 0, 0, time.UTC)
	day2 := time.Date(2024, 6, 12, 19, 0, 0, 0, time.UTC)
	f.meal(t, 40, day1)
	f.meal(t, 25, day1.Add(5*time.Hour))
	f.meal(t, 70, day2)
	f.meal(t, 90, time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)) // outside window

	got, err := f.analysis.DailyCarbIntake(context.Background(), "default", 14)
	if err != nil {
		t.Fatalf("DailyCarbIntake: %v", err)
	}

	want := []DailyCarbs{
		{Date: "2024-06-10", Carbs: 65, FormattedDate: "Jun 10"},
		{Date: "2024-06-12", Carbs: 70, FormattedDate: "Jun 12"},
	}
	if len(got.DailyCarbs) != len(want) {
		t.Fatalf("DailyCarbs = %+v", got.DailyCarbs)
	}
	for i := range want {
		if got.DailyCarbs[i] != want[i] {
			t.Errorf("DailyCarbs[%d] = %+v, want %+v", i, got.DailyCarbs[i], want[i])
		}
	}
	if got.AnalysisMetadata.TotalMeals != 3 || math.Abs(got.AnalysisMetadata.AverageDailyCarbs-67.5) > 1e-9 {
		t.Errorf("metadata = %+v", got.AnalysisMetadata)
	}
}

func TestDailyCarbIntakeEmpty(t *testing.T) {
	f := newAnalysisFixture(t)
	got, err := f.analysis.DailyCarbIntake(context.Background(), "nobody", -3)
	if err != nil {
		t.Fatal(err)
	}
	if got.DailyCarbs == nil || len(got.DailyCarbs) != 0 || got.AnalysisMetadata.AverageDailyCarbs != 0 {
		t.Errorf("empty analysis = %+v", got)
	}
	if got.AnalysisMetadata.Days != DefaultDailyCarbDays {
		t.Errorf("Days = %d, want default", got.AnalysisMetadata.Days)
	}
}

func TestCarbGlucoseAscending(t *testing.T) {
	f := newAnalysisFixture(t)
	f.reading(t, 150, "before", time.Hour)
	f.reading(t, 120, "fasting", 5*time.Hour)
	f.meal(t, 50, fixedNow.Add(-2*time.Hour))
	if _, err := f.insulin.Create(context.Background(), input.Fields{"units": 5.0}); err != nil {
		t.Fatal(err)
	}

	got, err := f.analysis.CarbGlucose(context.Background(), "", 0)
	if err != nil {
		t.Fatalf("CarbGlucose: %v", err)
	}
	if len(got.GlucoseReadings) != 2 || got.GlucoseReadings[0].Value != 120 {
		t.Errorf("readings not ascending: %+v", got.GlucoseReadings)
	}
	meta := got.AnalysisMetadata
	if meta.Days != DefaultCarbGlucoseDays || meta.TotalReadings != 2 || meta.TotalMeals != 1 || meta.TotalInsulinDoses != 1 {
		t.Errorf("metadata = %+v", meta)
	}
}

func TestAnalysisCacheInvalidatedByWrites(t *testing.T) {
	f := newAnalysisFixture(t)
	ctx := context.Background()
	f.reading(t, 100, "fasting", time.Hour)

	first, err := f.analysis.GlucoseByMealState(ctx, "", 7)
	if err != nil {
		t.Fatal(err)
	}
	if first.Counts.Fasting != 1 {
		t.Fatalf("Counts = %+v", first.Counts)
	}

	// A write that bypasses the services leaves the cached result in place.
	if err := f.store.CreateGlucoseReading(ctx, &domain.GlucoseReading{
		UserID: "default", Value: 140, MealState: domain.MealStateFasting, Timestamp: fixedNow,
	}); err != nil {
		t.Fatal(err)
	}
	cached, _ := f.analysis.GlucoseByMealState(ctx, "", 7)
	if cached.Counts.Fasting != 1 {
		t.Errorf("expected cached result, got %+v", cached.Counts)
	}

	// A service write invalidates it.
	f.reading(t, 160, "fasting", time.Minute)
	fresh, _ := f.analysis.GlucoseByMealState(ctx, "", 7)
	if fresh.Counts.Fasting != 3 {
		t.Errorf("Counts after invalidation = %+v", fresh.Counts)
	}
}

// pausingStore reads glucose readings, then holds the first caller until
// release is closed.
type pausingStore struct {
	*repository.MemoryStore
	once    sync.Once
	read    chan struct{}
	release chan struct{}
}

func (p *pausingStore) ListGlucoseReadings(ctx context.Context, f domain.ListFilter) ([]domain.GlucoseReading, error) {
	readings, err := p.MemoryStore.ListGlucoseReadings(ctx, f)
	p.once.Do(func() {
		close(p.read)
		<-p.release
	})
	return readings, err
}

func TestAnalysisCacheDropsResultComputedBeforeWrite(t *testing.T) {
	f := newAnalysisFixture(t)
	ctx := context.Background()
	paused := &pausingStore{MemoryStore: f.store, read: make(chan struct{}), release: make(chan struct{})}
	f.analysis.store = paused

	done := make(chan *MealStateAnalysis)
	go func() {
		res, err := f.analysis.GlucoseByMealState(ctx, "", 7)
		if err != nil {
			t.Error(err)
		}
		done <- res
	}()

	<-paused.read
	f.reading(t, 100, "fasting", time.Minute)
	close(paused.release)

	if inFlight := <-done; inFlight.AnalysisMetadata.TotalReadings != 0 {
		t.Fatalf("in-flight result saw %d readings, want 0", inFlight.AnalysisMetadata.TotalReadings)
	}

	got, err := f.analysis.GlucoseByMealState(ctx, "", 7)
	if err != nil {
		t.Fatal(err)
	}
	if got.AnalysisMetadata.TotalReadings != 1 || got.Counts.Fasting != 1 {
		t.Errorf("analysis after write = %+v, %+v", got.Counts, got.AnalysisMetadata)
	}
}

type brokenCache struct{}

func (brokenCache) Get(context.Context, string, string, any) (bool, error) {
	return false, errors.New("cache down")
}
func (brokenCache) Generation(context.Context, string) (int64, error) {
	return 0, errors.New("cache down")
}
func (brokenCache) Set(context.Context, string, int64, string, any) error {
	return errors.New("cache down")
}
func (brokenCache) InvalidateUser(context.Context, string) error { return nil }
func (brokenCache) Close() error                                 { return nil }

func TestAnalysisSurvivesCacheFailure(t *testing.T) {
	store := repository.NewMemoryStore()
	svc := NewAnalysisService(store, brokenCache{}, nil, Options{})

	if _, err := svc.CarbGlucose(context.Background(), "", 30); err != nil {
		t.Errorf("CarbGlucose with broken cache: %v", err)
	}
}
