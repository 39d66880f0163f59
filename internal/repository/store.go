package repository

import (
	"github.com/vladimiradmaev/diabetes-tracker/internal/config"
	"github.com/vladimiradmaev/diabetes-tracker/internal/database"
	"github.com/vladimiradmaev/diabetes-tracker/internal/domain"
)

// New opens the store selected by cfg.Driver.
func New(cfg config.DBConfig) (domain.Store, error) {
	if cfg.Driver == config.DriverMemory {
		return NewMemoryStore(), nil
	}

	db, err := database.NewDB(cfg)
	if err != nil {
		return nil, err
	}
	return NewGormStore(db), nil
}
