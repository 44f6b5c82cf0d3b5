package entities

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ConfigSnapshot is the frozen copy of a config's alert-relevant fields
// taken when an alert is created. Later edits to the live config never
// change what an already-raised alert reports.
type ConfigSnapshot struct {
	CountThreshold int      `json:"count_threshold"`
	PeriodMs       int64    `json:"period_ms"`
	CooldownMs     *int64   `json:"cooldown_ms,omitempty"`
	Recipients     []string `json:"recipients"`
}

// SurgeAlert records that a config's threshold was crossed at a point in
// time. AlertedAt is null until the notification dispatcher confirms
// delivery; that transition is the only permitted mutation.
type SurgeAlert struct {
	ID             string     `gorm:"primaryKey;size:36" json:"id"`
	ConfigID       string     `gorm:"size:36;not null;index:idx_surge_alerts_config_created,priority:1" json:"config_id"`
	CreatedAt      time.Time  `gorm:"autoCreateTime;index:idx_surge_alerts_config_created,priority:2" json:"created_at"`
	SurgeAmount    int        `gorm:"not null" json:"surge_amount"`
	ConfigSnapshot string     `gorm:"type:text;not null" json:"config_snapshot"`
	AlertedAt      *time.Time `gorm:"index" json:"alerted_at,omitempty"`

	Config SurgeConfig `gorm:"foreignKey:ConfigID" json:"-"`
}

// TableName returns the table name for GORM.
func (SurgeAlert) TableName() string {
	return "surge_alerts"
}

// BeforeCreate assigns a UUID primary key when none is set.
func (a *SurgeAlert) BeforeCreate(_ *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	return nil
}

// SetSnapshot serializes snap into the alert's snapshot column.
func (a *SurgeAlert) SetSnapshot(snap ConfigSnapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshal config snapshot: %w", err)
	}
	a.ConfigSnapshot = string(data)
	return nil
}

// Snapshot parses the alert's frozen config snapshot.
func (a *SurgeAlert) Snapshot() (ConfigSnapshot, error) {
	var snap ConfigSnapshot
	if err := json.Unmarshal([]byte(a.ConfigSnapshot), &snap); err != nil {
		return ConfigSnapshot{}, fmt.Errorf("parse config snapshot: %w", err)
	}
	return snap, nil
}
