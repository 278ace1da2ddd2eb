package models

import "time"

// GenerationEvent is one lifecycle transition of a generation.
type GenerationEvent struct {
	ID           string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	GenerationID string    `gorm:"type:varchar(36);not null;index" json:"generation_id"`
	Event        string    `gorm:"type:varchar(32);not null" json:"event"`
	FromState    string    `gorm:"type:varchar(16);not null" json:"from_state"`
	ToState      string    `gorm:"type:varchar(16);not null" json:"to_state"`
	Detail       string    `gorm:"type:text" json:"detail"`
	CreatedAt    time.Time `gorm:"index" json:"created_at"`
}

func (GenerationEvent) TableName() string {
	return "generation_events"
}
