package entities

import "time"

// Reply is a stored reply for a handle. A reply becomes a qualifying event
// for surge counting once it is hidden (is_hidden true, hidden_at set).
type Reply struct {
	ID           uint       `gorm:"primaryKey" json:"id"`
	ReplyID      string     `gorm:"size:255;uniqueIndex;not null" json:"reply_id"`
	Content      string     `gorm:"type:text;not null" json:"content"`
	IsHidden     bool       `gorm:"not null;default:false;index:idx_replies_hidden,priority:2" json:"is_hidden"`
	HandleID     uint       `gorm:"not null;index:idx_replies_hidden,priority:1" json:"handle_id"`
	CreatedAt    time.Time  `gorm:"autoCreateTime" json:"created_at"`
	HiddenAt     *time.Time `gorm:"index" json:"hidden_at,omitempty"`
	HiddenByWord string     `gorm:"size:255;default:''" json:"hidden_by_word,omitempty"`
}

// TableName returns the table name for GORM.
func (Reply) TableName() string {
	return "replies"
}
