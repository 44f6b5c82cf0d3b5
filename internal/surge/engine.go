// Package surge implements per-handle surge evaluation: counting hidden
// replies in a sliding window and raising cooldown-gated alerts.
package surge

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/addynamo/surge-alerts/internal/datastore/entities"
	"github.com/addynamo/surge-alerts/internal/datastore/repository"
	"github.com/addynamo/surge-alerts/internal/logger"
	"github.com/addynamo/surge-alerts/internal/metrics"
)

// DefaultCooldownMs is the cooldown applied when a new config omits one.
const DefaultCooldownMs int64 = 900000 // 15 minutes

// ValidationError reports malformed or out-of-range input, rejected before
// any state change.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string {
	return e.Msg
}

func validationErrorf(format string, args ...any) error {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}

// ReplyCounter counts qualifying events for a handle. The lower bound is
// inclusive; the upper bound is the moment of the call.
type ReplyCounter interface {
	CountHiddenSince(ctx context.Context, handleID uint, since time.Time) (int64, error)
}

// Engine evaluates enabled surge configs against hidden-reply volume and
// materializes alerts.
type Engine struct {
	repo    repository.SurgeRepository
	counter ReplyCounter
	log     logger.Logger
}

// NewEngine creates a surge evaluation engine.
func NewEngine(repo repository.SurgeRepository, counter ReplyCounter, log logger.Logger) *Engine {
	return &Engine{repo: repo, counter: counter, log: log}
}

// CreateConfigParams are the inputs for CreateConfig. CooldownMs defaults
// to DefaultCooldownMs when nil; Enabled defaults to true when nil.
type CreateConfigParams struct {
	HandleID       uint
	CountThreshold int
	PeriodMs       int64
	CooldownMs     *int64
	Recipients     []string
	Enabled        *bool
	CreatedBy      string
}

// CreateConfig validates and persists a new surge config.
func (e *Engine) CreateConfig(ctx context.Context, params CreateConfigParams) (*entities.SurgeConfig, error) {
	if params.CountThreshold <= 0 {
		return nil, validationErrorf("count_threshold must be positive, got %d", params.CountThreshold)
	}
	if params.PeriodMs <= 0 {
		return nil, validationErrorf("period_ms must be positive, got %d", params.PeriodMs)
	}
	if params.CooldownMs != nil && *params.CooldownMs < 0 {
		return nil, validationErrorf("cooldown_ms must not be negative, got %d", *params.CooldownMs)
	}
	if len(params.Recipients) == 0 {
		return nil, validationErrorf("recipients must not be empty")
	}

	cooldown := DefaultCooldownMs
	if params.CooldownMs != nil {
		cooldown = *params.CooldownMs
	}
	enabled := true
	if params.Enabled != nil {
		enabled = *params.Enabled
	}

	cfg := &entities.SurgeConfig{
		HandleID:       params.HandleID,
		CountThreshold: params.CountThreshold,
		PeriodMs:       params.PeriodMs,
		CooldownMs:     &cooldown,
		Recipients:     params.Recipients,
		Enabled:        enabled,
		CreatedBy:      params.CreatedBy,
		UpdatedBy:      params.CreatedBy,
	}
	if err := e.repo.CreateConfig(ctx, cfg); err != nil {
		return nil, err
	}
	e.log.Info("surge config created",
		logger.String("config_id", cfg.ID),
		logger.Uint64("handle_id", uint64(cfg.HandleID)),
		logger.Int("count_threshold", cfg.CountThreshold))
	return cfg, nil
}

// UpdateConfigParams are the partial inputs for UpdateConfig. Nil fields
// retain their prior values; ClearCooldown removes the cooldown entirely.
type UpdateConfigParams struct {
	CountThreshold *int
	PeriodMs       *int64
	CooldownMs     *int64
	ClearCooldown  bool
	Recipients     []string
	Enabled        *bool
}

// UpdateConfig applies the supplied fields to an existing config.
// Returns repository.ErrConfigNotFound if the id does not resolve.
func (e *Engine) UpdateConfig(ctx context.Context, configID string, params UpdateConfigParams, updatedBy string) (*entities.SurgeConfig, error) {
	cfg, err := e.repo.GetConfig(ctx, configID)
	if err != nil {
		return nil, err
	}

	if params.CountThreshold != nil {
		if *params.CountThreshold <= 0 {
			return nil, validationErrorf("count_threshold must be positive, got %d", *params.CountThreshold)
		}
		cfg.CountThreshold = *params.CountThreshold
	}
	if params.PeriodMs != nil {
		if *params.PeriodMs <= 0 {
			return nil, validationErrorf("period_ms must be positive, got %d", *params.PeriodMs)
		}
		cfg.PeriodMs = *params.PeriodMs
	}
	switch {
	case params.ClearCooldown:
		cfg.CooldownMs = nil
	case params.CooldownMs != nil:
		if *params.CooldownMs < 0 {
			return nil, validationErrorf("cooldown_ms must not be negative, got %d", *params.CooldownMs)
		}
		cooldown := *params.CooldownMs
		cfg.CooldownMs = &cooldown
	}
	if params.Recipients != nil {
		if len(params.Recipients) == 0 {
			return nil, validationErrorf("recipients must not be empty")
		}
		cfg.Recipients = params.Recipients
	}
	if params.Enabled != nil {
		cfg.Enabled = *params.Enabled
	}
	cfg.UpdatedBy = updatedBy

	if err := e.repo.SaveConfig(ctx, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// GetConfig returns one config by id, or repository.ErrConfigNotFound.
func (e *Engine) GetConfig(ctx context.Context, configID string) (*entities.SurgeConfig, error) {
	return e.repo.GetConfig(ctx, configID)
}

// ListConfigs returns all configs for a handle.
func (e *Engine) ListConfigs(ctx context.Context, handleID uint) ([]entities.SurgeConfig, error) {
	return e.repo.ListConfigs(ctx, handleID)
}

// EvaluateAll runs one evaluation pass over every enabled config at time
// now. For each config it counts hidden replies in [now-period, now); a
// count at or above the threshold raises a new alert unless the config's
// cooldown since its latest alert has not elapsed. All alerts and
// last_evaluated_at stamps for the pass commit as one transaction.
//
// Concurrent passes can both observe "no prior alert" for the same config
// and create duplicate alerts; run passes from a single scheduler to avoid
// this. Per-config query failures skip that config for the pass.
func (e *Engine) EvaluateAll(ctx context.Context, now time.Time) error {
	configs, err := e.repo.GetEnabledConfigs(ctx)
	if err != nil {
		return err
	}

	var newAlerts []*entities.SurgeAlert
	evaluated := make([]string, 0, len(configs))

	for i := range configs {
		cfg := &configs[i]
		since := now.Add(-time.Duration(cfg.PeriodMs) * time.Millisecond)

		count, err := e.counter.CountHiddenSince(ctx, cfg.HandleID, since)
		if err != nil {
			e.log.Warn("skipping config for this pass",
				logger.String("config_id", cfg.ID),
				logger.Error(err))
			continue
		}

		if int(count) >= cfg.CountThreshold {
			eligible, err := e.cooldownElapsed(ctx, cfg, now)
			if err != nil {
				e.log.Warn("skipping config for this pass",
					logger.String("config_id", cfg.ID),
					logger.Error(err))
				continue
			}
			if eligible {
				alert := &entities.SurgeAlert{
					ConfigID:    cfg.ID,
					CreatedAt:   now,
					SurgeAmount: int(count),
				}
				if err := alert.SetSnapshot(cfg.Snapshot()); err != nil {
					e.log.Error("failed to snapshot config",
						logger.String("config_id", cfg.ID),
						logger.Error(err))
					continue
				}
				newAlerts = append(newAlerts, alert)
			}
		}

		evaluated = append(evaluated, cfg.ID)
	}

	if err := e.repo.CommitEvaluation(ctx, newAlerts, evaluated, now); err != nil {
		return err
	}

	metrics.EvaluationPasses.Inc()
	metrics.AlertsCreated.Add(float64(len(newAlerts)))
	if len(newAlerts) > 0 {
		e.log.Info("surge evaluation pass raised alerts",
			logger.Int("alerts", len(newAlerts)),
			logger.Int("configs_evaluated", len(evaluated)))
	}
	return nil
}

// cooldownElapsed reports whether a new alert may be raised for cfg at now.
func (e *Engine) cooldownElapsed(ctx context.Context, cfg *entities.SurgeConfig, now time.Time) (bool, error) {
	last, err := e.repo.LatestAlert(ctx, cfg.ID)
	if err != nil {
		if errors.Is(err, repository.ErrAlertNotFound) {
			return true, nil
		}
		return false, err
	}
	if cfg.CooldownMs == nil {
		return true, nil
	}
	cooldownEnd := last.CreatedAt.Add(time.Duration(*cfg.CooldownMs) * time.Millisecond)
	return !now.Before(cooldownEnd), nil
}
