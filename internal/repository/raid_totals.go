package repository

import (
	"context"
	"errors"

	"github.com/Ammordius/NAGD-DKP-sub002/internal/models"

	"gorm.io/gorm"
)

type RaidTotalsRepository struct {
	db *gorm.DB
}

func NewRaidTotalsRepository(db *gorm.DB) *RaidTotalsRepository {
	return &RaidTotalsRepository{db: db}
}

func (r *RaidTotalsRepository) GetTotal(ctx context.Context, raidID int64) (*models.RaidDKPTotal, error) {
	var total models.RaidDKPTotal
	err := r.db.WithContext(ctx).
		Where("raid_id = ?", raidID).
		First(&total).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &total, err
}

func (r *RaidTotalsRepository) AllTotals(ctx context.Context) ([]models.RaidDKPTotal, error) {
	var totals []models.RaidDKPTotal
	err := r.db.WithContext(ctx).
		Order("raid_id ASC").
		Find(&totals).Error
	return totals, err
}

func (r *RaidTotalsRepository) AttendanceByRaid(ctx context.Context, raidID int64) ([]models.RaidAttendanceDKP, error) {
	var rows []models.RaidAttendanceDKP
	err := r.db.WithContext(ctx).
		Where("raid_id = ?", raidID).
		Order("character_key ASC").
		Find(&rows).Error
	return rows, err
}

func (r *RaidTotalsRepository) AllAttendance(ctx context.Context) ([]models.RaidAttendanceDKP, error) {
	var rows []models.RaidAttendanceDKP
	err := r.db.WithContext(ctx).
		Order("raid_id ASC, character_key ASC").
		Find(&rows).Error
	return rows, err
}

// ReplaceForRaid swaps one raid's rows in both per-raid tables
// atomically; the scoped recomputer's write path.
func (r *RaidTotalsRepository) ReplaceForRaid(ctx context.Context, raidID int64, total *models.RaidDKPTotal, attendance []models.RaidAttendanceDKP) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("raid_id = ?", raidID).Delete(&models.RaidDKPTotal{}).Error; err != nil {
			return err
		}
		if err := tx.Where("raid_id = ?", raidID).Delete(&models.RaidAttendanceDKP{}).Error; err != nil {
			return err
		}
		if total != nil {
			if err := tx.Create(total).Error; err != nil {
				return err
			}
		}
		if len(attendance) == 0 {
			return nil
		}
		return tx.CreateInBatches(attendance, 200).Error
	})
}

func (r *RaidTotalsRepository) ReplaceAll(ctx context.Context, totals []models.RaidDKPTotal, attendance []models.RaidAttendanceDKP) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&models.RaidDKPTotal{}).Error; err != nil {
			return err
		}
		if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&models.RaidAttendanceDKP{}).Error; err != nil {
			return err
		}
		if len(totals) > 0 {
			if err := tx.CreateInBatches(totals, 200).Error; err != nil {
				return err
			}
		}
		if len(attendance) == 0 {
			return nil
		}
		return tx.CreateInBatches(attendance, 200).Error
	})
}
