package models

import (
	"time"
)

// RaidEvent is one point-bearing tic within a raid. Values may be
// fractional (half-point tics exist in old imports).
type RaidEvent struct {
	ID        int64      `gorm:"primaryKey;autoIncrement" json:"id"`
	RaidID    int64      `gorm:"not null;index" json:"raid_id"`
	Name      string     `gorm:"size:200" json:"name"`
	DKPValue  float64    `gorm:"not null;default:0" json:"dkp_value"`
	EventTime *time.Time `json:"event_time"`
	CreatedAt time.Time  `gorm:"autoCreateTime" json:"created_at"`
}

func (RaidEvent) TableName() string {
	return "raid_events"
}
