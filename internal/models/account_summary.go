package models

import (
	"time"
)

// AccountSummary rolls identity totals up to the owning account. Always
// derived straight from ledger rows through character_account, never by
// summing dkp_summary rows.
type AccountSummary struct {
	AccountID    string     `gorm:"primaryKey;size:50" json:"account_id"`
	AccountName  string     `gorm:"size:100" json:"account_name"`
	Earned       float64    `gorm:"not null;default:0" json:"earned"`
	Spent        int64      `gorm:"not null;default:0" json:"spent"`
	Earned30     float64    `gorm:"column:earned_30;not null;default:0" json:"earned_30"`
	Earned60     float64    `gorm:"column:earned_60;not null;default:0" json:"earned_60"`
	LastRaidDate *time.Time `json:"last_raid_date"`
	UpdatedAt    time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

func (AccountSummary) TableName() string {
	return "dkp_by_account"
}

func (s *AccountSummary) Balance() float64 {
	return s.Earned - float64(s.Spent)
}
