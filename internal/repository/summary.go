package repository

import (
	"context"
	"errors"
	"time"

	"github.com/Ammordius/NAGD-DKP-sub002/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type SummaryRepository struct {
	db *gorm.DB
}

func NewSummaryRepository(db *gorm.DB) *SummaryRepository {
	return &SummaryRepository{db: db}
}

func (r *SummaryRepository) GetByKey(ctx context.Context, key string) (*models.DKPSummary, error) {
	var summary models.DKPSummary
	err := r.db.WithContext(ctx).
		Where("character_key = ?", key).
		First(&summary).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &summary, err
}

func (r *SummaryRepository) All(ctx context.Context) ([]models.DKPSummary, error) {
	var summaries []models.DKPSummary
	err := r.db.WithContext(ctx).
		Order("character_key ASC").
		Find(&summaries).Error
	return summaries, err
}

// ListByBalance is the leaderboard read path.
func (r *SummaryRepository) ListByBalance(ctx context.Context, offset, limit int) ([]models.DKPSummary, error) {
	var summaries []models.DKPSummary
	err := r.db.WithContext(ctx).
		Order("(earned - spent) DESC, character_key ASC").
		Offset(offset).
		Limit(limit).
		Find(&summaries).Error
	return summaries, err
}

func (r *SummaryRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.DKPSummary{}).
		Count(&count).Error
	return count, err
}

// AddEarned atomically adds to a summary row's earned and advances
// last_raid_date, creating the row when absent. Window fields are
// deliberately untouched: a delta cannot know what rolls off the
// trailing edge, so they stay stale until the next full rebuild.
func (r *SummaryRepository) AddEarned(ctx context.Context, key, name string, earned float64, raidDate time.Time) error {
	assignments := map[string]interface{}{
		"earned":         gorm.Expr("earned + ?", earned),
		"last_raid_date": gorm.Expr("CASE WHEN last_raid_date IS NULL OR last_raid_date < ? THEN ? ELSE last_raid_date END", raidDate, raidDate),
	}
	if name != "" {
		assignments["character_name"] = name
	}

	row := &models.DKPSummary{
		CharacterKey:  key,
		CharacterName: name,
		Earned:        earned,
		LastRaidDate:  &raidDate,
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "character_key"}},
		DoUpdates: clause.Assignments(assignments),
	}).Create(row).Error
}

// AddSpent is the redemption counterpart of AddEarned.
func (r *SummaryRepository) AddSpent(ctx context.Context, key, name string, spent int64, raidDate time.Time) error {
	assignments := map[string]interface{}{
		"spent":          gorm.Expr("spent + ?", spent),
		"last_raid_date": gorm.Expr("CASE WHEN last_raid_date IS NULL OR last_raid_date < ? THEN ? ELSE last_raid_date END", raidDate, raidDate),
	}
	if name != "" {
		assignments["character_name"] = name
	}

	row := &models.DKPSummary{
		CharacterKey:  key,
		CharacterName: name,
		Spent:         spent,
		LastRaidDate:  &raidDate,
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "character_key"}},
		DoUpdates: clause.Assignments(assignments),
	}).Create(row).Error
}

// ReplaceAll swaps the whole table for the rebuild output in one
// transaction.
func (r *SummaryRepository) ReplaceAll(ctx context.Context, rows []models.DKPSummary) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&models.DKPSummary{}).Error; err != nil {
			return err
		}
		if len(rows) == 0 {
			return nil
		}
		return tx.CreateInBatches(rows, 200).Error
	})
}
