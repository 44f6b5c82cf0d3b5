package surge

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/addynamo/surge-alerts/internal/datastore/entities"
	"github.com/addynamo/surge-alerts/internal/datastore/repository"
	"github.com/addynamo/surge-alerts/internal/logger"
)

// mockSurgeRepo is an in-memory mock of repository.SurgeRepository.
type mockSurgeRepo struct {
	configs map[string]*entities.SurgeConfig
	alerts  []*entities.SurgeAlert
	mu      sync.Mutex
}

func newMockSurgeRepo() *mockSurgeRepo {
	return &mockSurgeRepo{configs: make(map[string]*entities.SurgeConfig)}
}

func (m *mockSurgeRepo) CreateConfig(_ context.Context, cfg *entities.SurgeConfig) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if cfg.ID == "" {
		cfg.ID = uuid.NewString()
	}
	if cfg.CreatedAt.IsZero() {
		cfg.CreatedAt = time.Now()
	}
	clone := *cfg
	m.configs[cfg.ID] = &clone
	return nil
}

func (m *mockSurgeRepo) SaveConfig(_ context.Context, cfg *entities.SurgeConfig) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.configs[cfg.ID]; !ok {
		return repository.ErrConfigNotFound
	}
	clone := *cfg
	m.configs[cfg.ID] = &clone
	return nil
}

func (m *mockSurgeRepo) GetConfig(_ context.Context, id string) (*entities.SurgeConfig, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cfg, ok := m.configs[id]
	if !ok {
		return nil, repository.ErrConfigNotFound
	}
	clone := *cfg
	return &clone, nil
}

func (m *mockSurgeRepo) ListConfigs(_ context.Context, handleID uint) ([]entities.SurgeConfig, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []entities.SurgeConfig
	for _, cfg := range m.configs {
		if cfg.HandleID == handleID {
			out = append(out, *cfg)
		}
	}
	return out, nil
}

func (m *mockSurgeRepo) GetEnabledConfigs(_ context.Context) ([]entities.SurgeConfig, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []entities.SurgeConfig
	for _, cfg := range m.configs {
		if cfg.Enabled {
			out = append(out, *cfg)
		}
	}
	return out, nil
}

func (m *mockSurgeRepo) LatestAlert(_ context.Context, configID string) (*entities.SurgeAlert, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var latest *entities.SurgeAlert
	for _, a := range m.alerts {
		if a.ConfigID != configID {
			continue
		}
		if latest == nil || a.CreatedAt.After(latest.CreatedAt) {
			latest = a
		}
	}
	if latest == nil {
		return nil, repository.ErrAlertNotFound
	}
	clone := *latest
	return &clone, nil
}

func (m *mockSurgeRepo) PendingAlerts(_ context.Context) ([]entities.SurgeAlert, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []entities.SurgeAlert
	for _, a := range m.alerts {
		if a.AlertedAt == nil {
			out = append(out, *a)
		}
	}
	return out, nil
}

func (m *mockSurgeRepo) MarkAlertSent(_ context.Context, alertID string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.alerts {
		if a.ID == alertID && a.AlertedAt == nil {
			stamp := at
			a.AlertedAt = &stamp
			return nil
		}
	}
	return repository.ErrAlertNotFound
}

func (m *mockSurgeRepo) CommitEvaluation(_ context.Context, alerts []*entities.SurgeAlert, evaluatedConfigIDs []string, evaluatedAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, alert := range alerts {
		if alert.ID == "" {
			alert.ID = uuid.NewString()
		}
		clone := *alert
		m.alerts = append(m.alerts, &clone)
	}
	for _, id := range evaluatedConfigIDs {
		if cfg, ok := m.configs[id]; ok {
			stamp := evaluatedAt
			cfg.LastEvaluatedAt = &stamp
		}
	}
	return nil
}

// mockCounter returns fixed hidden-reply counts per handle.
type mockCounter struct {
	counts map[uint]int64
	errs   map[uint]error
}

func (c *mockCounter) CountHiddenSince(_ context.Context, handleID uint, _ time.Time) (int64, error) {
	if err := c.errs[handleID]; err != nil {
		return 0, err
	}
	return c.counts[handleID], nil
}

func testLogger() logger.Logger {
	return logger.NewSlogLogger(io.Discard, logger.LogLevelError, nil)
}

func int64Ptr(v int64) *int64 { return &v }
func boolPtr(v bool) *bool    { return &v }

func TestCreateConfig_Defaults(t *testing.T) {
	repo := newMockSurgeRepo()
	engine := NewEngine(repo, &mockCounter{}, testLogger())

	cfg, err := engine.CreateConfig(t.Context(), CreateConfigParams{
		HandleID:       1,
		CountThreshold: 5,
		PeriodMs:       300000,
		Recipients:     []string{"ops@example.com"},
		CreatedBy:      "tester",
	})
	require.NoError(t, err)

	assert.NotEmpty(t, cfg.ID)
	require.NotNil(t, cfg.CooldownMs)
	assert.Equal(t, DefaultCooldownMs, *cfg.CooldownMs)
	assert.True(t, cfg.Enabled)
	assert.Equal(t, "tester", cfg.CreatedBy)
	assert.Nil(t, cfg.LastEvaluatedAt)
}

func TestCreateConfig_Validation(t *testing.T) {
	repo := newMockSurgeRepo()
	engine := NewEngine(repo, &mockCounter{}, testLogger())

	cases := []struct {
		name   string
		params CreateConfigParams
	}{
		{"zero threshold", CreateConfigParams{HandleID: 1, CountThreshold: 0, PeriodMs: 1000, Recipients: []string{"a@b.c"}}},
		{"negative threshold", CreateConfigParams{HandleID: 1, CountThreshold: -1, PeriodMs: 1000, Recipients: []string{"a@b.c"}}},
		{"zero period", CreateConfigParams{HandleID: 1, CountThreshold: 5, PeriodMs: 0, Recipients: []string{"a@b.c"}}},
		{"negative cooldown", CreateConfigParams{HandleID: 1, CountThreshold: 5, PeriodMs: 1000, CooldownMs: int64Ptr(-1), Recipients: []string{"a@b.c"}}},
		{"no recipients", CreateConfigParams{HandleID: 1, CountThreshold: 5, PeriodMs: 1000}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := engine.CreateConfig(t.Context(), tc.params)
			var verr *ValidationError
			assert.ErrorAs(t, err, &verr)
		})
	}
	assert.Empty(t, repo.configs, "rejected input must not change state")
}

func TestUpdateConfig_PartialFields(t *testing.T) {
	repo := newMockSurgeRepo()
	engine := NewEngine(repo, &mockCounter{}, testLogger())

	cfg, err := engine.CreateConfig(t.Context(), CreateConfigParams{
		HandleID:       1,
		CountThreshold: 5,
		PeriodMs:       300000,
		Recipients:     []string{"ops@example.com"},
		CreatedBy:      "alice",
	})
	require.NoError(t, err)

	threshold := 9
	updated, err := engine.UpdateConfig(t.Context(), cfg.ID, UpdateConfigParams{
		CountThreshold: &threshold,
	}, "bob")
	require.NoError(t, err)

	assert.Equal(t, 9, updated.CountThreshold)
	assert.Equal(t, cfg.PeriodMs, updated.PeriodMs, "unsupplied fields retain prior values")
	assert.Equal(t, cfg.Recipients, updated.Recipients)
	assert.Equal(t, "bob", updated.UpdatedBy)
	assert.Equal(t, "alice", updated.CreatedBy)
}

func TestUpdateConfig_NotFound(t *testing.T) {
	engine := NewEngine(newMockSurgeRepo(), &mockCounter{}, testLogger())

	_, err := engine.UpdateConfig(t.Context(), "missing", UpdateConfigParams{}, "bob")
	assert.ErrorIs(t, err, repository.ErrConfigNotFound)
}

func TestEvaluateAll_RaisesAlertOverThreshold(t *testing.T) {
	repo := newMockSurgeRepo()
	counter := &mockCounter{counts: map[uint]int64{1: 6}}
	engine := NewEngine(repo, counter, testLogger())

	cfg, err := engine.CreateConfig(t.Context(), CreateConfigParams{
		HandleID:       1,
		CountThreshold: 5,
		PeriodMs:       300000,
		Recipients:     []string{"ops@example.com"},
	})
	require.NoError(t, err)

	now := time.Now()
	require.NoError(t, engine.EvaluateAll(t.Context(), now))

	pending, err := repo.PendingAlerts(t.Context())
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, cfg.ID, pending[0].ConfigID)
	assert.Equal(t, 6, pending[0].SurgeAmount)
	assert.Nil(t, pending[0].AlertedAt)

	snap, err := pending[0].Snapshot()
	require.NoError(t, err)
	assert.Equal(t, 5, snap.CountThreshold)
	assert.Equal(t, int64(300000), snap.PeriodMs)
	assert.Equal(t, []string{"ops@example.com"}, snap.Recipients)

	got, err := repo.GetConfig(t.Context(), cfg.ID)
	require.NoError(t, err)
	require.NotNil(t, got.LastEvaluatedAt)
	assert.True(t, got.LastEvaluatedAt.Equal(now))
}

func TestEvaluateAll_BelowThresholdNoAlert(t *testing.T) {
	repo := newMockSurgeRepo()
	counter := &mockCounter{counts: map[uint]int64{1: 4}}
	engine := NewEngine(repo, counter, testLogger())

	cfg, err := engine.CreateConfig(t.Context(), CreateConfigParams{
		HandleID:       1,
		CountThreshold: 5,
		PeriodMs:       300000,
		Recipients:     []string{"ops@example.com"},
	})
	require.NoError(t, err)

	require.NoError(t, engine.EvaluateAll(t.Context(), time.Now()))

	assert.Empty(t, repo.alerts)
	got, err := repo.GetConfig(t.Context(), cfg.ID)
	require.NoError(t, err)
	assert.NotNil(t, got.LastEvaluatedAt, "last_evaluated_at is stamped regardless of outcome")
}

func TestEvaluateAll_CooldownSuppressesThenExpires(t *testing.T) {
	repo := newMockSurgeRepo()
	counter := &mockCounter{counts: map[uint]int64{1: 10}}
	engine := NewEngine(repo, counter, testLogger())

	_, err := engine.CreateConfig(t.Context(), CreateConfigParams{
		HandleID:       1,
		CountThreshold: 5,
		PeriodMs:       300000,
		CooldownMs:     int64Ptr(900000), // 15 minutes
		Recipients:     []string{"ops@example.com"},
	})
	require.NoError(t, err)

	start := time.Now()
	require.NoError(t, engine.EvaluateAll(t.Context(), start))
	require.Len(t, repo.alerts, 1)

	// One minute later the condition still holds but the cooldown gates it.
	require.NoError(t, engine.EvaluateAll(t.Context(), start.Add(time.Minute)))
	assert.Len(t, repo.alerts, 1, "cooldown must suppress a second alert")

	// Sixteen minutes after the first alert the cooldown has elapsed.
	require.NoError(t, engine.EvaluateAll(t.Context(), start.Add(16*time.Minute)))
	assert.Len(t, repo.alerts, 2)
}

func TestEvaluateAll_NoCooldownAlertsEveryPass(t *testing.T) {
	repo := newMockSurgeRepo()
	counter := &mockCounter{counts: map[uint]int64{1: 10}}
	engine := NewEngine(repo, counter, testLogger())

	cfg, err := engine.CreateConfig(t.Context(), CreateConfigParams{
		HandleID:       1,
		CountThreshold: 5,
		PeriodMs:       300000,
		Recipients:     []string{"ops@example.com"},
	})
	require.NoError(t, err)

	// Remove the cooldown entirely: every over-threshold pass alerts.
	_, err = engine.UpdateConfig(t.Context(), cfg.ID, UpdateConfigParams{ClearCooldown: true}, "tester")
	require.NoError(t, err)

	start := time.Now()
	require.NoError(t, engine.EvaluateAll(t.Context(), start))
	require.NoError(t, engine.EvaluateAll(t.Context(), start.Add(time.Second)))
	assert.Len(t, repo.alerts, 2)
}

func TestEvaluateAll_DisabledConfigSkipped(t *testing.T) {
	repo := newMockSurgeRepo()
	counter := &mockCounter{counts: map[uint]int64{1: 100}}
	engine := NewEngine(repo, counter, testLogger())

	cfg, err := engine.CreateConfig(t.Context(), CreateConfigParams{
		HandleID:       1,
		CountThreshold: 5,
		PeriodMs:       300000,
		Recipients:     []string{"ops@example.com"},
		Enabled:        boolPtr(false),
	})
	require.NoError(t, err)

	require.NoError(t, engine.EvaluateAll(t.Context(), time.Now()))

	assert.Empty(t, repo.alerts)
	got, err := repo.GetConfig(t.Context(), cfg.ID)
	require.NoError(t, err)
	assert.Nil(t, got.LastEvaluatedAt)
}

func TestEvaluateAll_CounterFailureSkipsOnlyThatConfig(t *testing.T) {
	repo := newMockSurgeRepo()
	counter := &mockCounter{
		counts: map[uint]int64{2: 10},
		errs:   map[uint]error{1: errors.New("query timeout")},
	}
	engine := NewEngine(repo, counter, testLogger())

	broken, err := engine.CreateConfig(t.Context(), CreateConfigParams{
		HandleID: 1, CountThreshold: 5, PeriodMs: 300000, Recipients: []string{"a@b.c"},
	})
	require.NoError(t, err)
	healthy, err := engine.CreateConfig(t.Context(), CreateConfigParams{
		HandleID: 2, CountThreshold: 5, PeriodMs: 300000, Recipients: []string{"a@b.c"},
	})
	require.NoError(t, err)

	require.NoError(t, engine.EvaluateAll(t.Context(), time.Now()))

	require.Len(t, repo.alerts, 1)
	assert.Equal(t, healthy.ID, repo.alerts[0].ConfigID)

	got, err := repo.GetConfig(t.Context(), broken.ID)
	require.NoError(t, err)
	assert.Nil(t, got.LastEvaluatedAt, "failed config is retried next pass, not stamped")
}

func TestAlertSnapshotUnaffectedByLaterConfigEdits(t *testing.T) {
	repo := newMockSurgeRepo()
	counter := &mockCounter{counts: map[uint]int64{1: 6}}
	engine := NewEngine(repo, counter, testLogger())

	cfg, err := engine.CreateConfig(t.Context(), CreateConfigParams{
		HandleID:       1,
		CountThreshold: 5,
		PeriodMs:       300000,
		Recipients:     []string{"old@example.com"},
	})
	require.NoError(t, err)

	require.NoError(t, engine.EvaluateAll(t.Context(), time.Now()))

	threshold := 50
	_, err = engine.UpdateConfig(t.Context(), cfg.ID, UpdateConfigParams{
		CountThreshold: &threshold,
		Recipients:     []string{"new@example.com"},
	}, "tester")
	require.NoError(t, err)

	pending, err := repo.PendingAlerts(t.Context())
	require.NoError(t, err)
	require.Len(t, pending, 1)

	snap, err := pending[0].Snapshot()
	require.NoError(t, err)
	assert.Equal(t, 5, snap.CountThreshold, "snapshot is frozen at alert creation")
	assert.Equal(t, []string{"old@example.com"}, snap.Recipients)
}
