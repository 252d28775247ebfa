package repository

import (
	"context"

	"github.com/Ammordius/NAGD-DKP-sub002/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type LinkRepository struct {
	db *gorm.DB
}

func NewLinkRepository(db *gorm.DB) *LinkRepository {
	return &LinkRepository{db: db}
}

func (r *LinkRepository) All(ctx context.Context) ([]models.CharacterAccount, error) {
	var links []models.CharacterAccount
	err := r.db.WithContext(ctx).
		Order("char_id ASC").
		Find(&links).Error
	return links, err
}

// Upsert re-links a character; last write wins since a character maps
// to at most one account.
func (r *LinkRepository) Upsert(ctx context.Context, link *models.CharacterAccount) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "char_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"account_id", "account_name"}),
	}).Create(link).Error
}

func (r *LinkRepository) CreateBatch(ctx context.Context, links []models.CharacterAccount) error {
	if len(links) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).CreateInBatches(links, 200).Error
}
