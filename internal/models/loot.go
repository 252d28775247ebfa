package models

import (
	"time"
)

// RaidLoot is the atomic spent event: one item charged to a character
// on a raid. Cost is whole DKP, never negative.
type RaidLoot struct {
	ID            int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	RaidID        int64     `gorm:"not null;index" json:"raid_id"`
	CharID        *int64    `gorm:"index" json:"char_id"`
	CharacterName string    `gorm:"size:100" json:"character_name"`
	ItemName      string    `gorm:"size:200" json:"item_name"`
	Cost          int64     `gorm:"not null;default:0" json:"cost"`
	CreatedAt     time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (RaidLoot) TableName() string {
	return "raid_loot"
}
