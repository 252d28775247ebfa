package repository

import (
	"context"

	"github.com/Ammordius/NAGD-DKP-sub002/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type AdjustmentRepository struct {
	db *gorm.DB
}

func NewAdjustmentRepository(db *gorm.DB) *AdjustmentRepository {
	return &AdjustmentRepository{db: db}
}

func (r *AdjustmentRepository) All(ctx context.Context) ([]models.DKPAdjustment, error) {
	var adjustments []models.DKPAdjustment
	err := r.db.WithContext(ctx).
		Order("adjust_key ASC").
		Find(&adjustments).Error
	return adjustments, err
}

func (r *AdjustmentRepository) Upsert(ctx context.Context, adj *models.DKPAdjustment) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "adjust_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"earned_delta", "spent_delta", "note"}),
	}).Create(adj).Error
}

func (r *AdjustmentRepository) Delete(ctx context.Context, adjustKey string) error {
	return r.db.WithContext(ctx).
		Where("adjust_key = ?", adjustKey).
		Delete(&models.DKPAdjustment{}).Error
}
