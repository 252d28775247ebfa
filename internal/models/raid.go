package models

import (
	"time"
)

// Raid ids come from the guild site, so the primary key is never
// generated locally.
type Raid struct {
	RaidID    int64     `gorm:"primaryKey;autoIncrement:false" json:"raid_id"`
	Name      string    `gorm:"size:200;not null" json:"name"`
	RaidDate  time.Time `gorm:"not null;index" json:"raid_date"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (Raid) TableName() string {
	return "raids"
}
