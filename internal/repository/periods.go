package repository

import (
	"context"

	"github.com/Ammordius/NAGD-DKP-sub002/internal/models"

	"gorm.io/gorm"
)

type PeriodRepository struct {
	db *gorm.DB
}

func NewPeriodRepository(db *gorm.DB) *PeriodRepository {
	return &PeriodRepository{db: db}
}

func (r *PeriodRepository) All(ctx context.Context) ([]models.DKPPeriodTotal, error) {
	var totals []models.DKPPeriodTotal
	err := r.db.WithContext(ctx).
		Order("period ASC").
		Find(&totals).Error
	return totals, err
}

func (r *PeriodRepository) ReplaceAll(ctx context.Context, rows []models.DKPPeriodTotal) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&models.DKPPeriodTotal{}).Error; err != nil {
			return err
		}
		if len(rows) == 0 {
			return nil
		}
		return tx.CreateInBatches(rows, 50).Error
	})
}
