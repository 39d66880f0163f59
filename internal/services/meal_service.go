package services

import (
	"context"
	"fmt"
	"time"

	"github.com/vladimiradmaev/diabetes-tracker/internal/domain"
	apperrors "github.com/vladimiradmaev/diabetes-tracker/internal/errors"
	"github.com/vladimiradmaev/diabetes-tracker/internal/input"
)

type MealService struct {
	store  domain.MealStore
	cache  Invalidator
	errors *apperrors.Handler
	opts   Options
	now    func() time.Time
}

func NewMealService(store domain.MealStore, cache Invalidator, handler *apperrors.Handler, opts Options) *MealService {
	if handler == nil {
		handler = apperrors.NewHandler(nil)
	}
	return &MealService{
		store:  store,
		cache:  cache,
		errors: handler,
		opts:   opts.withDefaults(),
		now:    time.Now,
	}
}

// FoodItemCarbs is the carbohydrate content of weight grams of a food with
// carbsPer100g grams per 100 g.
func FoodItemCarbs(carbsPer100g, weight float64) float64 {
	return carbsPer100g * weight / 100
}

func parseFoodItems(v any) ([]domain.FoodItem, error) {
	var raw []map[string]any
	switch items := v.(type) {
	case nil:
		return []domain.FoodItem{}, nil
	case []map[string]any:
		raw = items
	case []any:
		raw = make([]map[string]any, 0, len(items))
		for i, item := range items {
			m, ok := item.(map[string]any)
			if !ok {
				return nil, validation("foodItems", fmt.Sprintf("foodItems[%d] must be an object", i))
			}
			raw = append(raw, m)
		}
	default:
		return nil, validation("foodItems", "foodItems must be an array")
	}

	out := make([]domain.FoodItem, 0, len(raw))
	for _, m := range raw {
		f := input.Fields(m)
		item := domain.FoodItem{
			Name:         f.StringOr("", "name"),
			CarbsPer100g: f.FloatOr(0, "carbsPer100g"),
			Weight:       f.FloatOr(0, "weight"),
		}
		item.Carbs = f.FloatOr(FoodItemCarbs(item.CarbsPer100g, item.Weight), "carbs")
		out = append(out, item)
	}
	return out, nil
}

// Create stores a meal. Each food item's carbs default to its per-100 g
// content scaled by weight, and totalCarbs defaults to the item sum.
func (s *MealService) Create(ctx context.Context, f input.Fields) (*domain.Meal, error) {
	items, err := parseFoodItems(f["foodItems"])
	if err != nil {
		return nil, err
	}

	var sum float64
	for _, item := range items {
		sum += item.Carbs
	}

	total := sum
	if f.Has("totalCarbs") {
		v, ok := f.Float("totalCarbs")
		if !ok {
			return nil, validation("totalCarbs", "totalCarbs must be a number")
		}
		total = v
	}

	ts, err := parseTimestamp(f, s.now())
	if err != nil {
		return nil, err
	}

	m := &domain.Meal{
		UserID:     s.opts.userFrom(f),
		TotalCarbs: total,
		Timestamp:  ts,
		FoodItems:  items,
	}
	if err := s.store.CreateMeal(ctx, m); err != nil {
		return nil, err
	}

	invalidate(ctx, s.cache, s.errors, m.UserID)
	return m, nil
}

// List returns a user's meals, newest first. days <= 0 lists everything.
func (s *MealService) List(ctx context.Context, userID string, days int) ([]domain.Meal, error) {
	return s.store.ListMeals(ctx, domain.ListFilter{
		UserID: s.opts.UserID(userID),
		Since:  since(s.now(), days),
	})
}
