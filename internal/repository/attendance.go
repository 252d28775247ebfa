package repository

import (
	"context"
	"errors"

	"github.com/Ammordius/NAGD-DKP-sub002/internal/models"

	"gorm.io/gorm"
)

type AttendanceRepository struct {
	db *gorm.DB
}

func NewAttendanceRepository(db *gorm.DB) *AttendanceRepository {
	return &AttendanceRepository{db: db}
}

// CreateBatch inserts the whole batch in one transaction; a uniqueness
// violation on any row rolls back all of them.
func (r *AttendanceRepository) CreateBatch(ctx context.Context, rows []models.RaidEventAttendance) error {
	if len(rows) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.CreateInBatches(rows, 200).Error
	})
}

func (r *AttendanceRepository) GetByID(ctx context.Context, id int64) (*models.RaidEventAttendance, error) {
	var row models.RaidEventAttendance
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&row).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &row, err
}

func (r *AttendanceRepository) GetByRaid(ctx context.Context, raidID int64) ([]models.RaidEventAttendance, error) {
	var rows []models.RaidEventAttendance
	err := r.db.WithContext(ctx).
		Where("raid_id = ?", raidID).
		Order("id ASC").
		Find(&rows).Error
	return rows, err
}

func (r *AttendanceRepository) All(ctx context.Context) ([]models.RaidEventAttendance, error) {
	var rows []models.RaidEventAttendance
	err := r.db.WithContext(ctx).
		Order("id ASC").
		Find(&rows).Error
	return rows, err
}

func (r *AttendanceRepository) Delete(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).
		Where("id = ?", id).
		Delete(&models.RaidEventAttendance{}).Error
}

// NameIndex builds the normalized-name backfill map for the resolver
// from rows that carry both a name and a char id. First id wins, same
// as the import scripts.
func (r *AttendanceRepository) NameIndex(ctx context.Context) (map[string]int64, error) {
	var rows []models.RaidEventAttendance
	err := r.db.WithContext(ctx).
		Select("char_id", "character_name").
		Where("char_id IS NOT NULL AND character_name <> ''").
		Order("id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	index := make(map[string]int64)
	for _, row := range rows {
		if row.CharID == nil {
			continue
		}
		if _, ok := index[row.CharacterName]; !ok {
			index[row.CharacterName] = *row.CharID
		}
	}
	return index, nil
}
