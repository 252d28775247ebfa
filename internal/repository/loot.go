package repository

import (
	"context"
	"errors"

	"github.com/Ammordius/NAGD-DKP-sub002/internal/models"

	"gorm.io/gorm"
)

type LootRepository struct {
	db *gorm.DB
}

func NewLootRepository(db *gorm.DB) *LootRepository {
	return &LootRepository{db: db}
}

func (r *LootRepository) CreateBatch(ctx context.Context, rows []models.RaidLoot) error {
	if len(rows) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.CreateInBatches(rows, 200).Error
	})
}

func (r *LootRepository) GetByID(ctx context.Context, id int64) (*models.RaidLoot, error) {
	var row models.RaidLoot
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&row).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &row, err
}

func (r *LootRepository) GetByRaid(ctx context.Context, raidID int64) ([]models.RaidLoot, error) {
	var rows []models.RaidLoot
	err := r.db.WithContext(ctx).
		Where("raid_id = ?", raidID).
		Order("id ASC").
		Find(&rows).Error
	return rows, err
}

func (r *LootRepository) All(ctx context.Context) ([]models.RaidLoot, error) {
	var rows []models.RaidLoot
	err := r.db.WithContext(ctx).
		Order("id ASC").
		Find(&rows).Error
	return rows, err
}

func (r *LootRepository) Delete(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).
		Where("id = ?", id).
		Delete(&models.RaidLoot{}).Error
}
