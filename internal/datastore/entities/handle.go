package entities

import "time"

// Handle is a tracked account under surveillance. Handles are created on
// first reference and never deleted.
type Handle struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Handle    string    `gorm:"size:255;uniqueIndex;not null" json:"handle"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`

	Replies   []Reply    `gorm:"foreignKey:HandleID" json:"-"`
	DenyWords []DenyWord `gorm:"foreignKey:HandleID" json:"-"`
}

// TableName returns the table name for GORM.
func (Handle) TableName() string {
	return "handles"
}
