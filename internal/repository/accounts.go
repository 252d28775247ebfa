package repository

import (
	"context"
	"errors"

	"github.com/Ammordius/NAGD-DKP-sub002/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type AccountRepository struct {
	db *gorm.DB
}

func NewAccountRepository(db *gorm.DB) *AccountRepository {
	return &AccountRepository{db: db}
}

func (r *AccountRepository) GetByID(ctx context.Context, accountID string) (*models.AccountSummary, error) {
	var summary models.AccountSummary
	err := r.db.WithContext(ctx).
		Where("account_id = ?", accountID).
		First(&summary).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &summary, err
}

func (r *AccountRepository) All(ctx context.Context) ([]models.AccountSummary, error) {
	var summaries []models.AccountSummary
	err := r.db.WithContext(ctx).
		Order("account_id ASC").
		Find(&summaries).Error
	return summaries, err
}

func (r *AccountRepository) ListByBalance(ctx context.Context, offset, limit int) ([]models.AccountSummary, error) {
	var summaries []models.AccountSummary
	err := r.db.WithContext(ctx).
		Order("(earned - spent) DESC, account_id ASC").
		Offset(offset).
		Limit(limit).
		Find(&summaries).Error
	return summaries, err
}

func (r *AccountRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.AccountSummary{}).
		Count(&count).Error
	return count, err
}

// Save replaces a single account row; used by the scoped recomputer.
func (r *AccountRepository) Save(ctx context.Context, summary *models.AccountSummary) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "account_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"account_name", "earned", "spent", "earned_30", "earned_60", "last_raid_date",
		}),
	}).Create(summary).Error
}

func (r *AccountRepository) Delete(ctx context.Context, accountID string) error {
	return r.db.WithContext(ctx).
		Where("account_id = ?", accountID).
		Delete(&models.AccountSummary{}).Error
}

func (r *AccountRepository) ReplaceAll(ctx context.Context, rows []models.AccountSummary) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&models.AccountSummary{}).Error; err != nil {
			return err
		}
		if len(rows) == 0 {
			return nil
		}
		return tx.CreateInBatches(rows, 200).Error
	})
}
