package repository

import (
	"context"
	"errors"

	"github.com/Ammordius/NAGD-DKP-sub002/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type StateRepository struct {
	db *gorm.DB
}

func NewStateRepository(db *gorm.DB) *StateRepository {
	return &StateRepository{db: db}
}

// Get returns the persisted state for name, or "" when no row exists.
func (r *StateRepository) Get(ctx context.Context, name string) (string, error) {
	var row models.EngineState
	err := r.db.WithContext(ctx).
		Where("name = ?", name).
		First(&row).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil
	}
	return row.State, err
}

func (r *StateRepository) Set(ctx context.Context, name, state string) error {
	row := &models.EngineState{Name: name, State: state}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}},
		DoUpdates: clause.AssignmentColumns([]string{"state"}),
	}).Create(row).Error
}
