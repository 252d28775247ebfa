package models

import (
	"time"
)

// EngineState persists coordinator bookkeeping across restarts, so a
// bulk load left in the suspended state is still visible after a crash.
// Single well-known row per concern.
type EngineState struct {
	Name      string    `gorm:"primaryKey;size:50" json:"name"`
	State     string    `gorm:"size:30;not null" json:"state"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (EngineState) TableName() string {
	return "engine_state"
}

const StateRowBulkLoad = "bulk_load"
