package models

import (
	"time"
)

const (
	PeriodShort = "30d"
	PeriodLong  = "60d"
)

// DKPPeriodTotal is the pool-wide rolling-window aggregate, one row per
// window. Informational only; rebuilt on every window refresh.
type DKPPeriodTotal struct {
	Period     string    `gorm:"primaryKey;size:10" json:"period"`
	Earned     float64   `gorm:"not null;default:0" json:"earned"`
	Spent      int64     `gorm:"not null;default:0" json:"spent"`
	ComputedAt time.Time `gorm:"not null" json:"computed_at"`
}

func (DKPPeriodTotal) TableName() string {
	return "dkp_period_totals"
}
