package repository

import (
	"context"
	"errors"

	"github.com/Ammordius/NAGD-DKP-sub002/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type RaidRepository struct {
	db *gorm.DB
}

func NewRaidRepository(db *gorm.DB) *RaidRepository {
	return &RaidRepository{db: db}
}

func (r *RaidRepository) Upsert(ctx context.Context, raid *models.Raid) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "raid_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"name", "raid_date"}),
	}).Create(raid).Error
}

func (r *RaidRepository) CreateBatch(ctx context.Context, raids []models.Raid) error {
	if len(raids) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).CreateInBatches(raids, 200).Error
}

func (r *RaidRepository) GetByID(ctx context.Context, raidID int64) (*models.Raid, error) {
	var raid models.Raid
	err := r.db.WithContext(ctx).
		Where("raid_id = ?", raidID).
		First(&raid).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &raid, err
}

func (r *RaidRepository) All(ctx context.Context) ([]models.Raid, error) {
	var raids []models.Raid
	err := r.db.WithContext(ctx).
		Order("raid_date ASC, raid_id ASC").
		Find(&raids).Error
	return raids, err
}

func (r *RaidRepository) ListPaginated(ctx context.Context, offset, limit int) ([]models.Raid, error) {
	var raids []models.Raid
	err := r.db.WithContext(ctx).
		Order("raid_date DESC, raid_id DESC").
		Offset(offset).
		Limit(limit).
		Find(&raids).Error
	return raids, err
}

func (r *RaidRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Raid{}).
		Count(&count).Error
	return count, err
}
