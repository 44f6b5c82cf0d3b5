package repository

import (
	"context"
	"errors"
	"time"

	"github.com/addynamo/surge-alerts/internal/datastore/entities"
)

var (
	// ErrConfigNotFound indicates the referenced surge config does not exist.
	ErrConfigNotFound = errors.New("surge config not found")
	// ErrAlertNotFound indicates no matching surge alert exists.
	ErrAlertNotFound = errors.New("surge alert not found")
)

// SurgeConfigRepository handles surge config persistence.
type SurgeConfigRepository interface {
	CreateConfig(ctx context.Context, cfg *entities.SurgeConfig) error
	SaveConfig(ctx context.Context, cfg *entities.SurgeConfig) error
	GetConfig(ctx context.Context, id string) (*entities.SurgeConfig, error)
	ListConfigs(ctx context.Context, handleID uint) ([]entities.SurgeConfig, error)
	GetEnabledConfigs(ctx context.Context) ([]entities.SurgeConfig, error)
}

// SurgeAlertRepository handles surge alert persistence. Alerts are created
// by the evaluation engine and mutated only by MarkAlertSent.
type SurgeAlertRepository interface {
	// LatestAlert returns the most recently created alert for a config,
	// or ErrAlertNotFound if the config has never alerted.
	LatestAlert(ctx context.Context, configID string) (*entities.SurgeAlert, error)

	// PendingAlerts returns every alert whose alerted_at is still null.
	PendingAlerts(ctx context.Context) ([]entities.SurgeAlert, error)

	// MarkAlertSent sets alerted_at. It must only be called after a
	// positive delivery acknowledgment.
	MarkAlertSent(ctx context.Context, alertID string, at time.Time) error

	// CommitEvaluation persists the outcome of one evaluation pass as a
	// single transaction: all new alerts are inserted and every evaluated
	// config gets its last_evaluated_at bumped, or nothing is applied.
	CommitEvaluation(ctx context.Context, alerts []*entities.SurgeAlert, evaluatedConfigIDs []string, evaluatedAt time.Time) error
}

// SurgeRepository aggregates config and alert persistence.
type SurgeRepository interface {
	SurgeConfigRepository
	SurgeAlertRepository
}
