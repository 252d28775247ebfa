package models

import (
	"time"
)

// DKPSummary is the per-identity aggregate row. Derived entirely from
// the ledger; rebuilt or delta-updated only by the engine. Earned30 and
// Earned60 are refreshed by full rebuilds only and may lag the delta
// path by up to one refresh period.
type DKPSummary struct {
	CharacterKey  string     `gorm:"primaryKey;size:100" json:"character_key"`
	CharacterName string     `gorm:"size:100" json:"character_name"`
	Earned        float64    `gorm:"not null;default:0" json:"earned"`
	Spent         int64      `gorm:"not null;default:0" json:"spent"`
	Earned30      float64    `gorm:"column:earned_30;not null;default:0" json:"earned_30"`
	Earned60      float64    `gorm:"column:earned_60;not null;default:0" json:"earned_60"`
	LastRaidDate  *time.Time `json:"last_raid_date"`
	UpdatedAt     time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

func (DKPSummary) TableName() string {
	return "dkp_summary"
}

func (s *DKPSummary) Balance() float64 {
	return s.Earned - float64(s.Spent)
}
