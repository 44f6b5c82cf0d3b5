package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/addynamo/surge-alerts/internal/datastore/entities"
)

// surgeRepository implements SurgeRepository on GORM.
type surgeRepository struct {
	db *gorm.DB
}

// NewSurgeRepository creates a SurgeRepository backed by db.
func NewSurgeRepository(db *gorm.DB) SurgeRepository {
	return &surgeRepository{db: db}
}

// CreateConfig inserts a new surge config.
func (r *surgeRepository) CreateConfig(ctx context.Context, cfg *entities.SurgeConfig) error {
	if err := r.db.WithContext(ctx).Create(cfg).Error; err != nil {
		return fmt.Errorf("create surge config: %w", err)
	}
	return nil
}

// SaveConfig persists all fields of an existing config.
func (r *surgeRepository) SaveConfig(ctx context.Context, cfg *entities.SurgeConfig) error {
	if cfg.ID == "" {
		return fmt.Errorf("save surge config: missing config ID")
	}
	if err := r.db.WithContext(ctx).Save(cfg).Error; err != nil {
		return fmt.Errorf("save surge config %s: %w", cfg.ID, err)
	}
	return nil
}

// GetConfig returns a config by ID, or ErrConfigNotFound.
func (r *surgeRepository) GetConfig(ctx context.Context, id string) (*entities.SurgeConfig, error) {
	var cfg entities.SurgeConfig
	if err := r.db.WithContext(ctx).First(&cfg, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrConfigNotFound
		}
		return nil, fmt.Errorf("get surge config %s: %w", id, err)
	}
	return &cfg, nil
}

// ListConfigs returns all configs for a handle in stable creation order.
func (r *surgeRepository) ListConfigs(ctx context.Context, handleID uint) ([]entities.SurgeConfig, error) {
	var configs []entities.SurgeConfig
	err := r.db.WithContext(ctx).
		Where("handle_id = ?", handleID).
		Order("created_at ASC").
		Find(&configs).Error
	if err != nil {
		return nil, fmt.Errorf("list surge configs for handle %d: %w", handleID, err)
	}
	return configs, nil
}

// GetEnabledConfigs returns every enabled config.
func (r *surgeRepository) GetEnabledConfigs(ctx context.Context) ([]entities.SurgeConfig, error) {
	var configs []entities.SurgeConfig
	err := r.db.WithContext(ctx).
		Where("enabled = ?", true).
		Order("created_at ASC").
		Find(&configs).Error
	if err != nil {
		return nil, fmt.Errorf("list enabled surge configs: %w", err)
	}
	return configs, nil
}

// LatestAlert returns the most recently created alert for a config.
func (r *surgeRepository) LatestAlert(ctx context.Context, configID string) (*entities.SurgeAlert, error) {
	var alert entities.SurgeAlert
	err := r.db.WithContext(ctx).
		Where("config_id = ?", configID).
		Order("created_at DESC").
		First(&alert).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAlertNotFound
		}
		return nil, fmt.Errorf("latest alert for config %s: %w", configID, err)
	}
	return &alert, nil
}

// PendingAlerts returns all alerts not yet marked delivered.
func (r *surgeRepository) PendingAlerts(ctx context.Context) ([]entities.SurgeAlert, error) {
	var alerts []entities.SurgeAlert
	err := r.db.WithContext(ctx).
		Where("alerted_at IS NULL").
		Order("created_at ASC").
		Find(&alerts).Error
	if err != nil {
		return nil, fmt.Errorf("list pending alerts: %w", err)
	}
	return alerts, nil
}

// MarkAlertSent records confirmed delivery. The alerted_at IS NULL guard
// keeps the null-to-timestamp transition one-shot even if two dispatch
// passes race on the same alert.
func (r *surgeRepository) MarkAlertSent(ctx context.Context, alertID string, at time.Time) error {
	result := r.db.WithContext(ctx).
		Model(&entities.SurgeAlert{}).
		Where("id = ? AND alerted_at IS NULL", alertID).
		Update("alerted_at", at)
	if result.Error != nil {
		return fmt.Errorf("mark alert %s sent: %w", alertID, result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrAlertNotFound
	}
	return nil
}

// CommitEvaluation applies one evaluation pass atomically.
func (r *surgeRepository) CommitEvaluation(ctx context.Context, alerts []*entities.SurgeAlert, evaluatedConfigIDs []string, evaluatedAt time.Time) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, alert := range alerts {
			if err := tx.Create(alert).Error; err != nil {
				return fmt.Errorf("create surge alert for config %s: %w", alert.ConfigID, err)
			}
		}
		if len(evaluatedConfigIDs) == 0 {
			return nil
		}
		err := tx.Model(&entities.SurgeConfig{}).
			Where("id IN ?", evaluatedConfigIDs).
			Update("last_evaluated_at", evaluatedAt).Error
		if err != nil {
			return fmt.Errorf("stamp last_evaluated_at: %w", err)
		}
		return nil
	})
}
