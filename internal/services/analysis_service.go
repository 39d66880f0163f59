package services

import (
	"context"
	"fmt"
	"time"

	"github.com/vladimiradmaev/diabetes-tracker/internal/cache"
	"github.com/vladimiradmaev/diabetes-tracker/internal/domain"
	apperrors "github.com/vladimiradmaev/diabetes-tracker/internal/errors"
)

// Default look-back windows per analysis, in days.
const (
	DefaultCarbGlucoseDays = 30
	DefaultMealStateDays   = 14
	DefaultDailyCarbDays   = 14
)

// Window describes the time range an analysis covers
type Window struct {
	Days      int       `json:"days"`
	StartDate time.Time `json:"startDate"`
	EndDate   time.Time `json:"endDate"`
}

type CarbGlucoseMetadata struct {
	Window
	TotalReadings     int `json:"totalReadings"`
	TotalMeals        int `json:"totalMeals"`
	TotalInsulinDoses int `json:"totalInsulinDoses"`
}

// CarbGlucoseAnalysis holds every record of a window in ascending time order
type CarbGlucoseAnalysis struct {
	GlucoseReadings  []domain.GlucoseReading `json:"glucoseReadings"`
	Meals            []domain.Meal           `json:"meals"`
	InsulinDoses     []domain.InsulinDose    `json:"insulinDoses"`
	AnalysisMetadata CarbGlucoseMetadata     `json:"analysisMetadata"`
}

type MealStateValues struct {
	Fasting float64 `json:"fasting"`
	Before  float64 `json:"before"`
	After   float64 `json:"after"`
}

type MealStateCounts struct {
	Fasting int `json:"fasting"`
	Before  int `json:"before"`
	After   int `json:"after"`
}

type MealStateMetadata struct {
	Window
	TotalReadings int `json:"totalReadings"`
}

// MealStateAnalysis averages glucose per meal state; empty states average 0
type MealStateAnalysis struct {
	Averages         MealStateValues   `json:"averages"`
	Counts           MealStateCounts   `json:"counts"`
	AnalysisMetadata MealStateMetadata `json:"analysisMetadata"`
}

type DailyCarbs struct {
	Date          string  `json:"date"`
	Carbs         float64 `json:"carbs"`
	FormattedDate string  `json:"formattedDate"`
}

type DailyCarbMetadata struct {
	Window
	TotalMeals        int     `json:"totalMeals"`
	AverageDailyCarbs float64 `json:"averageDailyCarbs"`
}

// DailyCarbAnalysis sums meal carbs per UTC day, days in ascending order
type DailyCarbAnalysis struct {
	DailyCarbs       []DailyCarbs      `json:"dailyCarbs"`
	AnalysisMetadata DailyCarbMetadata `json:"analysisMetadata"`
}

// AnalysisService computes the aggregate views over a user's records.
// Results are cached per (user, analysis, days) until a write for that user
// invalidates them or the cache TTL passes.
type AnalysisService struct {
	store  domain.Store
	cache  cache.Cache
	errors *apperrors.Handler
	opts   Options
	now    func() time.Time
}

func NewAnalysisService(store domain.Store, c cache.Cache, handler *apperrors.Handler, opts Options) *AnalysisService {
	if handler == nil {
		handler = apperrors.NewHandler(nil)
	}
	return &AnalysisService{
		store:  store,
		cache:  c,
		errors: handler,
		opts:   opts.withDefaults(),
		now:    time.Now,
	}
}

func (s *AnalysisService) window(days, def int) Window {
	if days <= 0 {
		days = def
	}
	end := s.now().UTC()
	return Window{Days: days, StartDate: since(end, days), EndDate: end}
}

// cached loads key for userID into dst, or runs compute and stores its
// result under the generation read before computing, so a write that lands
// during compute is not hidden by the stored result. Cache failures degrade
// to an uncached computation.
func cached[T any](ctx context.Context, s *AnalysisService, userID, key string, compute func() (*T, error)) (*T, error) {
	if s.cache == nil {
		return compute()
	}

	var hit T
	ok, err := s.cache.Get(ctx, userID, key, &hit)
	if err != nil {
		s.cacheError(ctx, err, "CACHE_READ", "failed to read analysis cache", key)
	}
	if ok {
		return &hit, nil
	}

	gen, genErr := s.cache.Generation(ctx, userID)
	if genErr != nil {
		s.cacheError(ctx, genErr, "CACHE_READ", "failed to read analysis cache generation", key)
	}

	result, err := compute()
	if err != nil {
		return nil, err
	}

	if genErr == nil {
		if err := s.cache.Set(ctx, userID, gen, key, result); err != nil {
			s.cacheError(ctx, err, "CACHE_WRITE", "failed to write analysis cache", key)
		}
	}
	return result, nil
}

func (s *AnalysisService) cacheError(ctx context.Context, err error, code, message, key string) {
	s.errors.Handle(ctx, apperrors.Wrap(err, apperrors.ErrorTypeInternal, code, message).WithContext("key", key))
}

// CarbGlucose returns readings, meals and doses of the window side by side
func (s *AnalysisService) CarbGlucose(ctx context.Context, userID string, days int) (*CarbGlucoseAnalysis, error) {
	userID = s.opts.UserID(userID)
	w := s.window(days, DefaultCarbGlucoseDays)

	return cached(ctx, s, userID, fmt.Sprintf("carb-glucose:%d", w.Days), func() (*CarbGlucoseAnalysis, error) {
		f := domain.ListFilter{UserID: userID, Since: w.StartDate, Ascending: true}

		readings, err := s.store.ListGlucoseReadings(ctx, f)
		if err != nil {
			return nil, err
		}
		meals, err := s.store.ListMeals(ctx, f)
		if err != nil {
			return nil, err
		}
		doses, err := s.store.ListInsulinDoses(ctx, f)
		if err != nil {
			return nil, err
		}

		return &CarbGlucoseAnalysis{
			GlucoseReadings: readings,
			Meals:           meals,
			InsulinDoses:    doses,
			AnalysisMetadata: CarbGlucoseMetadata{
				Window:            w,
				TotalReadings:     len(readings),
				TotalMeals:        len(meals),
				TotalInsulinDoses: len(doses),
			},
		}, nil
	})
}

// GlucoseByMealState averages the window's readings per meal state
func (s *AnalysisService) GlucoseByMealState(ctx context.Context, userID string, days int) (*MealStateAnalysis, error) {
	userID = s.opts.UserID(userID)
	w := s.window(days, DefaultMealStateDays)

	return cached(ctx, s, userID, fmt.Sprintf("glucose-by-meal-state:%d", w.Days), func() (*MealStateAnalysis, error) {
		readings, err := s.store.ListGlucoseReadings(ctx, domain.ListFilter{UserID: userID, Since: w.StartDate})
		if err != nil {
			return nil, err
		}

		var sums MealStateValues
		var counts MealStateCounts
		for _, r := range readings {
			switch r.MealState {
			case domain.MealStateBefore:
				sums.Before += r.Value
				counts.Before++
			case domain.MealStateAfter:
				sums.After += r.Value
				counts.After++
			default:
				sums.Fasting += r.Value
				counts.Fasting++
			}
		}

		return &MealStateAnalysis{
			Averages: MealStateValues{
				Fasting: average(sums.Fasting, counts.Fasting),
				Before:  average(sums.Before, counts.Before),
				After:   average(sums.After, counts.After),
			},
			Counts: counts,
			AnalysisMetadata: MealStateMetadata{
				Window:        w,
				TotalReadings: len(readings),
			},
		}, nil
	})
}

// DailyCarbIntake totals the window's meal carbs per UTC calendar day
func (s *AnalysisService) DailyCarbIntake(ctx context.Context, userID string, days int) (*DailyCarbAnalysis, error) {
	userID = s.opts.UserID(userID)
	w := s.window(days, DefaultDailyCarbDays)

	return cached(ctx, s, userID, fmt.Sprintf("daily-carb-intake:%d", w.Days), func() (*DailyCarbAnalysis, error) {
		meals, err := s.store.ListMeals(ctx, domain.ListFilter{UserID: userID, Since: w.StartDate, Ascending: true})
		if err != nil {
			return nil, err
		}

		daily := make([]DailyCarbs, 0)
		index := make(map[string]int)
		for _, m := range meals {
			day := m.Timestamp.UTC()
			key := day.Format("2006-01-02")
			i, ok := index[key]
			if !ok {
				i = len(daily)
				index[key] = i
				daily = append(daily, DailyCarbs{Date: key, FormattedDate: day.Format("Jan 2")})
			}
			daily[i].Carbs += m.TotalCarbs
		}

		var total float64
		for _, d := range daily {
			total += d.Carbs
		}

		return &DailyCarbAnalysis{
			DailyCarbs: daily,
			AnalysisMetadata: DailyCarbMetadata{
				Window:            w,
				TotalMeals:        len(meals),
				AverageDailyCarbs: average(total, len(daily)),
			},
		}, nil
	})
}

// Counts totals stored records per kind across all users
func (s *AnalysisService) Counts(ctx context.Context) (domain.RecordCounts, error) {
	return s.store.Counts(ctx)
}

func average(sum float64, n int) float64 {
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}
