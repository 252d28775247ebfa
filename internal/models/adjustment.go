package models

import (
	"time"
)

// DKPAdjustment is an operator-entered correction applied on top of
// computed totals. AdjustKey is a character display name or an account
// id. The engine only ever reads this table; operators must delete the
// row once the underlying ledger is fixed or totals over-correct.
type DKPAdjustment struct {
	AdjustKey   string    `gorm:"primaryKey;size:100" json:"adjust_key"`
	EarnedDelta float64   `gorm:"not null;default:0" json:"earned_delta"`
	SpentDelta  int64     `gorm:"not null;default:0" json:"spent_delta"`
	Note        string    `gorm:"size:500" json:"note"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (DKPAdjustment) TableName() string {
	return "dkp_adjustments"
}
