package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/vladimiradmaev/diabetes-tracker/internal/database"
	"github.com/vladimiradmaev/diabetes-tracker/internal/domain"
	apperrors "github.com/vladimiradmaev/diabetes-tracker/internal/errors"
	"gorm.io/gorm"
)

// GormStore is the SQL-backed record store used with postgres and sqlite
type GormStore struct {
	db *gorm.DB
}

// NewGormStore creates a store over an already migrated database
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

// DB returns the underlying GORM database instance
func (s *GormStore) DB() *gorm.DB {
	return s.db
}

func (s *GormStore) Close() error {
	return database.Close(s.db)
}

// stamp fills the bookkeeping fields every created record carries.
func stamp(id *string, ts, createdAt, updatedAt *time.Time) {
	now := time.Now().UTC()
	if *id == "" {
		*id = uuid.NewString()
	}
	if ts.IsZero() {
		*ts = now
	}
	*ts = ts.UTC()
	*createdAt = now
	*updatedAt = now
}

func scoped(db *gorm.DB, f domain.ListFilter) *gorm.DB {
	q := db.Where("user_id = ?", f.UserID)
	if !f.Since.IsZero() {
		q = q.Where(`"timestamp" >= ?`, f.Since.UTC())
	}
	if f.Ascending {
		q = q.Order(`"timestamp" ASC`).Order("created_at ASC")
	} else {
		q = q.Order(`"timestamp" DESC`).Order("created_at DESC")
	}
	if f.Limit > 0 {
		q = q.Limit(f.Limit)
	}
	return q
}

func dbError(err error, operation string) error {
	return apperrors.NewDatabaseError(err).WithContext("operation", operation)
}

// CreateGlucoseReading stores a reading and fills its id and timestamps
func (s *GormStore) CreateGlucoseReading(ctx context.Context, r *domain.GlucoseReading) error {
	stamp(&r.ID, &r.Timestamp, &r.CreatedAt, &r.UpdatedAt)
	if err := s.db.WithContext(ctx).Create(database.GlucoseReadingFromDomain(r)).Error; err != nil {
		return dbError(err, "create glucose reading")
	}
	return nil
}

// ListGlucoseReadings returns one user's readings ordered by timestamp
func (s *GormStore) ListGlucoseReadings(ctx context.Context, f domain.ListFilter) ([]domain.GlucoseReading, error) {
	var rows []database.GlucoseReading
	if err := scoped(s.db.WithContext(ctx), f).Find(&rows).Error; err != nil {
		return nil, dbError(err, "list glucose readings")
	}

	out := make([]domain.GlucoseReading, 0, len(rows))
	for i := range rows {
		out = append(out, rows[i].ToDomain())
	}
	return out, nil
}

// UpdateGlucoseReading applies the non-nil fields of patch
func (s *GormStore) UpdateGlucoseReading(ctx context.Context, id string, patch domain.GlucoseReadingPatch) (*domain.GlucoseReading, error) {
	var row database.GlucoseReading
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&row, "id = ?", id).Error; err != nil {
			return err
		}
		if patch.Value != nil {
			row.Value = *patch.Value
		}
		if patch.Timestamp != nil {
			row.Timestamp = patch.Timestamp.UTC()
		}
		if patch.MealState != nil {
			row.MealState = string(*patch.MealState)
		}
		if patch.Notes != nil {
			row.Notes = *patch.Notes
		}
		return tx.Save(&row).Error
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.NewNotFoundError("Reading", id)
	}
	if err != nil {
		return nil, dbError(err, "update glucose reading")
	}

	updated := row.ToDomain()
	return &updated, nil
}

// DeleteGlucoseReading removes a reading by id and returns it
func (s *GormStore) DeleteGlucoseReading(ctx context.Context, id string) (*domain.GlucoseReading, error) {
	var row database.GlucoseReading
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&row, "id = ?", id).Error; err != nil {
			return err
		}
		return tx.Delete(&row).Error
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.NewNotFoundError("Reading", id)
	}
	if err != nil {
		return nil, dbError(err, "delete glucose reading")
	}

	deleted := row.ToDomain()
	return &deleted, nil
}

// CreateMeal stores a meal with its food items
func (s *GormStore) CreateMeal(ctx context.Context, m *domain.Meal) error {
	stamp(&m.ID, &m.Timestamp, &m.CreatedAt, &m.UpdatedAt)
	if m.FoodItems == nil {
		m.FoodItems = []domain.FoodItem{}
	}
	if err := s.db.WithContext(ctx).Create(database.MealFromDomain(m)).Error; err != nil {
		return dbError(err, "create meal")
	}
	return nil
}

// ListMeals returns one user's meals ordered by timestamp
func (s *GormStore) ListMeals(ctx context.Context, f domain.ListFilter) ([]domain.Meal, error) {
	var rows []database.Meal
	if err := scoped(s.db.WithContext(ctx), f).Find(&rows).Error; err != nil {
		return nil, dbError(err, "list meals")
	}

	out := make([]domain.Meal, 0, len(rows))
	for i := range rows {
		out = append(out, rows[i].ToDomain())
	}
	return out, nil
}

// CreateInsulinDose stores an insulin dose
func (s *GormStore) CreateInsulinDose(ctx context.Context, d *domain.InsulinDose) error {
	stamp(&d.ID, &d.Timestamp, &d.CreatedAt, &d.UpdatedAt)
	if err := s.db.WithContext(ctx).Create(database.InsulinDoseFromDomain(d)).Error; err != nil {
		return dbError(err, "create insulin dose")
	}
	return nil
}

// ListInsulinDoses returns one user's doses ordered by timestamp
func (s *GormStore) ListInsulinDoses(ctx context.Context, f domain.ListFilter) ([]domain.InsulinDose, error) {
	var rows []database.InsulinDose
	if err := scoped(s.db.WithContext(ctx), f).Find(&rows).Error; err != nil {
		return nil, dbError(err, "list insulin doses")
	}

	out := make([]domain.InsulinDose, 0, len(rows))
	for i := range rows {
		out = append(out, rows[i].ToDomain())
	}
	return out, nil
}

// CreatePrediction appends a prediction audit row
func (s *GormStore) CreatePrediction(ctx context.Context, p *domain.Prediction) error {
	stamp(&p.ID, &p.Timestamp, &p.CreatedAt, &p.UpdatedAt)
	if err := s.db.WithContext(ctx).Create(database.PredictionFromDomain(p)).Error; err != nil {
		return dbError(err, "create prediction")
	}
	return nil
}

// ListPredictions returns one user's prediction audit rows
func (s *GormStore) ListPredictions(ctx context.Context, f domain.ListFilter) ([]domain.Prediction, error) {
	var rows []database.Prediction
	if err := scoped(s.db.WithContext(ctx), f).Find(&rows).Error; err != nil {
		return nil, dbError(err, "list predictions")
	}

	out := make([]domain.Prediction, 0, len(rows))
	for i := range rows {
		out = append(out, rows[i].ToDomain())
	}
	return out, nil
}

// Counts totals the stored records of every kind across all users
func (s *GormStore) Counts(ctx context.Context) (domain.RecordCounts, error) {
	var c domain.RecordCounts
	db := s.db.WithContext(ctx)

	for _, q := range []struct {
		model interface{}
		dst   *int64
	}{
		{&database.GlucoseReading{}, &c.GlucoseReadings},
		{&database.InsulinDose{}, &c.InsulinDoses},
		{&database.Meal{}, &c.Meals},
		{&database.Prediction{}, &c.Predictions},
	} {
		if err := db.Model(q.model).Count(q.dst).Error; err != nil {
			return domain.RecordCounts{}, dbError(err, "count records")
		}
	}
	return c, nil
}

var _ domain.Store = (*GormStore)(nil)
