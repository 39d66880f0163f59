package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/vladimiradmaev/diabetes-tracker/internal/domain"
	apperrors "github.com/vladimiradmaev/diabetes-tracker/internal/errors"
)

// MemoryStore keeps records in process memory. Used with DB_DRIVER=memory
// and by tests; everything is lost on restart.
type MemoryStore struct {
	mu          sync.RWMutex
	readings    []domain.GlucoseReading
	meals       []domain.Meal
	doses       []domain.InsulinDose
	predictions []domain.Prediction
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Close() error { return nil }

// list filters items by f and orders them by timestamp. Ties keep insertion
// order ascending and reverse it descending, matching the SQL store.
func list[T any](items []T, f domain.ListFilter, userOf func(*T) string, tsOf func(*T) time.Time, clone func(T) T) []T {
	out := make([]T, 0)
	for i := range items {
		if userOf(&items[i]) != f.UserID {
			continue
		}
		if !f.Since.IsZero() && tsOf(&items[i]).Before(f.Since) {
			continue
		}
		out = append(out, clone(items[i]))
	}

	if f.Ascending {
		sort.SliceStable(out, func(i, j int) bool {
			return tsOf(&out[i]).Before(tsOf(&out[j]))
		})
	} else {
		for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
			out[i], out[j] = out[j], out[i]
		}
		sort.SliceStable(out, func(i, j int) bool {
			return tsOf(&out[i]).After(tsOf(&out[j]))
		})
	}

	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out
}

func same[T any](v T) T { return v }

func cloneMeal(m domain.Meal) domain.Meal {
	m.FoodItems = append([]domain.FoodItem{}, m.FoodItems...)
	return m
}

func cloneFloat(p *float64) *float64 {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func cloneDose(d domain.InsulinDose) domain.InsulinDose {
	d.BloodGlucose = cloneFloat(d.BloodGlucose)
	return d
}

func clonePrediction(p domain.Prediction) domain.Prediction {
	in := &p.Inputs
	in.CurrentGlucose = cloneFloat(in.CurrentGlucose)
	in.Insulin = cloneFloat(in.Insulin)
	in.Carbs = cloneFloat(in.Carbs)
	in.ExerciseDuration = cloneFloat(in.ExerciseDuration)
	in.ExerciseIntensity = cloneFloat(in.ExerciseIntensity)
	in.Weight = cloneFloat(in.Weight)
	return p
}

func (s *MemoryStore) CreateGlucoseReading(_ context.Context, r *domain.GlucoseReading) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stamp(&r.ID, &r.Timestamp, &r.CreatedAt, &r.UpdatedAt)
	s.readings = append(s.readings, *r)
	return nil
}

func (s *MemoryStore) ListGlucoseReadings(_ context.Context, f domain.ListFilter) ([]domain.GlucoseReading, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return list(s.readings, f,
		func(r *domain.GlucoseReading) string { return r.UserID },
		func(r *domain.GlucoseReading) time.Time { return r.Timestamp },
		same[domain.GlucoseReading]), nil
}

func (s *MemoryStore) UpdateGlucoseReading(_ context.Context, id string, patch domain.GlucoseReadingPatch) (*domain.GlucoseReading, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.readings {
		r := &s.readings[i]
		if r.ID != id {
			continue
		}
		if patch.Value != nil {
			r.Value = *patch.Value
		}
		if patch.Timestamp != nil {
			r.Timestamp = patch.Timestamp.UTC()
		}
		if patch.MealState != nil {
			r.MealState = *patch.MealState
		}
		if patch.Notes != nil {
			r.Notes = *patch.Notes
		}
		r.UpdatedAt = time.Now().UTC()

		updated := *r
		return &updated, nil
	}
	return nil, apperrors.NewNotFoundError("Reading", id)
}

func (s *MemoryStore) DeleteGlucoseReading(_ context.Context, id string) (*domain.GlucoseReading, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.readings {
		if s.readings[i].ID == id {
			deleted := s.readings[i]
			s.readings = append(s.readings[:i], s.readings[i+1:]...)
			return &deleted, nil
		}
	}
	return nil, apperrors.NewNotFoundError("Reading", id)
}

func (s *MemoryStore) CreateMeal(_ context.Context, m *domain.Meal) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stamp(&m.ID, &m.Timestamp, &m.CreatedAt, &m.UpdatedAt)
	if m.FoodItems == nil {
		m.FoodItems = []domain.FoodItem{}
	}
	s.meals = append(s.meals, cloneMeal(*m))
	return nil
}

func (s *MemoryStore) ListMeals(_ context.Context, f domain.ListFilter) ([]domain.Meal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return list(s.meals, f,
		func(m *domain.Meal) string { return m.UserID },
		func(m *domain.Meal) time.Time { return m.Timestamp },
		cloneMeal), nil
}

func (s *MemoryStore) CreateInsulinDose(_ context.Context, d *domain.InsulinDose) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stamp(&d.ID, &d.Timestamp, &d.CreatedAt, &d.UpdatedAt)
	s.doses = append(s.doses, cloneDose(*d))
	return nil
}

func (s *MemoryStore) ListInsulinDoses(_ context.Context, f domain.ListFilter) ([]domain.InsulinDose, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return list(s.doses, f,
		func(d *domain.InsulinDose) string { return d.UserID },
		func(d *domain.InsulinDose) time.Time { return d.Timestamp },
		cloneDose), nil
}

func (s *MemoryStore) CreatePrediction(_ context.Context, p *domain.Prediction) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stamp(&p.ID, &p.Timestamp, &p.CreatedAt, &p.UpdatedAt)
	s.predictions = append(s.predictions, clonePrediction(*p))
	return nil
}

func (s *MemoryStore) ListPredictions(_ context.Context, f domain.ListFilter) ([]domain.Prediction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return list(s.predictions, f,
		func(p *domain.Prediction) string { return p.UserID },
		func(p *domain.Prediction) time.Time { return p.Timestamp },
		clonePrediction), nil
}

func (s *MemoryStore) Counts(_ context.Context) (domain.RecordCounts, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return domain.RecordCounts{
		GlucoseReadings: int64(len(s.readings)),
		InsulinDoses:    int64(len(s.doses)),
		Meals:           int64(len(s.meals)),
		Predictions:     int64(len(s.predictions)),
	}, nil
}

var _ domain.Store = (*MemoryStore)(nil)
