package entities

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// SurgeConfig is the alerting policy for one handle: how many hidden
// replies within a sliding period warrant an alert, and how long to wait
// between consecutive alerts. Configs are retired by setting Enabled to
// false; they are never deleted.
type SurgeConfig struct {
	ID              string     `gorm:"primaryKey;size:36" json:"id"`
	HandleID        uint       `gorm:"not null;index" json:"handle_id"`
	CountThreshold  int        `gorm:"not null" json:"count_threshold"`
	PeriodMs        int64      `gorm:"not null" json:"period_ms"`
	CooldownMs      *int64     `json:"cooldown_ms,omitempty"`
	Recipients      []string   `gorm:"serializer:json;type:text;not null" json:"recipients"`
	Enabled         bool       `gorm:"not null;default:true;index" json:"enabled"`
	LastEvaluatedAt *time.Time `json:"last_evaluated_at,omitempty"`
	CreatedAt       time.Time  `gorm:"autoCreateTime" json:"created_at"`
	CreatedBy       string     `gorm:"size:255;default:''" json:"created_by"`
	UpdatedAt       time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
	UpdatedBy       string     `gorm:"size:255;default:''" json:"updated_by"`
}

// TableName returns the table name for GORM.
func (SurgeConfig) TableName() string {
	return "surge_configs"
}

// BeforeCreate assigns a UUID primary key when none is set.
func (c *SurgeConfig) BeforeCreate(_ *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return nil
}

// Snapshot freezes the alert-relevant fields of the config.
func (c *SurgeConfig) Snapshot() ConfigSnapshot {
	snap := ConfigSnapshot{
		CountThreshold: c.CountThreshold,
		PeriodMs:       c.PeriodMs,
		Recipients:     append([]string(nil), c.Recipients...),
	}
	if c.CooldownMs != nil {
		cooldown := *c.CooldownMs
		snap.CooldownMs = &cooldown
	}
	return snap
}
