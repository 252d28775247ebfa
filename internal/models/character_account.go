package models

import (
	"time"
)

// CharacterAccount links a character to the account that owns it. A
// character belongs to at most one account; an account may own several
// characters (alts).
type CharacterAccount struct {
	CharID      int64     `gorm:"primaryKey;autoIncrement:false" json:"char_id"`
	AccountID   string    `gorm:"size:50;not null;index" json:"account_id"`
	AccountName string    `gorm:"size:100" json:"account_name"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (CharacterAccount) TableName() string {
	return "character_account"
}
