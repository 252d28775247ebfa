package repository

import (
	"context"
	"errors"

	"github.com/Ammordius/NAGD-DKP-sub002/internal/models"

	"gorm.io/gorm"
)

type EventRepository struct {
	db *gorm.DB
}

func NewEventRepository(db *gorm.DB) *EventRepository {
	return &EventRepository{db: db}
}

func (r *EventRepository) Create(ctx context.Context, event *models.RaidEvent) error {
	return r.db.WithContext(ctx).Create(event).Error
}

func (r *EventRepository) CreateBatch(ctx context.Context, events []models.RaidEvent) error {
	if len(events) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).CreateInBatches(events, 200).Error
}

func (r *EventRepository) GetByID(ctx context.Context, id int64) (*models.RaidEvent, error) {
	var event models.RaidEvent
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&event).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &event, err
}

func (r *EventRepository) GetByRaid(ctx context.Context, raidID int64) ([]models.RaidEvent, error) {
	var events []models.RaidEvent
	err := r.db.WithContext(ctx).
		Where("raid_id = ?", raidID).
		Order("id ASC").
		Find(&events).Error
	return events, err
}

func (r *EventRepository) All(ctx context.Context) ([]models.RaidEvent, error) {
	var events []models.RaidEvent
	err := r.db.WithContext(ctx).
		Order("id ASC").
		Find(&events).Error
	return events, err
}

func (r *EventRepository) UpdateValue(ctx context.Context, id int64, dkpValue float64) error {
	return r.db.WithContext(ctx).
		Model(&models.RaidEvent{}).
		Where("id = ?", id).
		Update("dkp_value", dkpValue).Error
}

func (r *EventRepository) Delete(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).
		Where("id = ?", id).
		Delete(&models.RaidEvent{}).Error
}
