package entities

import "time"

// DenyWord is a per-handle keyword that hides matching replies.
type DenyWord struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Word      string    `gorm:"size:255;not null;uniqueIndex:idx_word_per_handle,priority:1" json:"word"`
	HandleID  uint      `gorm:"not null;uniqueIndex:idx_word_per_handle,priority:2" json:"handle_id"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// TableName returns the table name for GORM.
func (DenyWord) TableName() string {
	return "denywords"
}
