package models

import (
	"time"
)

// RaidDKPTotal caches the total DKP a raid was worth (sum of its tic
// values). Owned by the engine, replaced on scoped or full recompute.
type RaidDKPTotal struct {
	RaidID     int64     `gorm:"primaryKey;autoIncrement:false" json:"raid_id"`
	TotalDKP   float64   `gorm:"not null;default:0" json:"total_dkp"`
	EventCount int       `gorm:"not null;default:0" json:"event_count"`
	UpdatedAt  time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (RaidDKPTotal) TableName() string {
	return "raid_dkp_totals"
}

// RaidAttendanceDKP caches what each identity earned on one raid.
type RaidAttendanceDKP struct {
	RaidID        int64     `gorm:"primaryKey;autoIncrement:false" json:"raid_id"`
	CharacterKey  string    `gorm:"primaryKey;size:100" json:"character_key"`
	CharacterName string    `gorm:"size:100" json:"character_name"`
	Earned        float64   `gorm:"not null;default:0" json:"earned"`
	UpdatedAt     time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (RaidAttendanceDKP) TableName() string {
	return "raid_attendance_dkp"
}
