package models

import (
	"time"
)

// RaidEventAttendance is the atomic earned event: one character on one
// tic. CharKey is the identity key resolved at write time (char id as a
// decimal string when known, otherwise the normalized name); the unique
// index on (raid_id, event_id, char_key) is what rejects double credit.
type RaidEventAttendance struct {
	ID            int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	RaidID        int64     `gorm:"not null;index;uniqueIndex:uk_tic_char,priority:1" json:"raid_id"`
	EventID       int64     `gorm:"not null;uniqueIndex:uk_tic_char,priority:2" json:"event_id"`
	CharID        *int64    `gorm:"index" json:"char_id"`
	CharacterName string    `gorm:"size:100" json:"character_name"`
	CharKey       string    `gorm:"size:100;not null;uniqueIndex:uk_tic_char,priority:3" json:"char_key"`
	CreatedAt     time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (RaidEventAttendance) TableName() string {
	return "raid_event_attendance"
}
