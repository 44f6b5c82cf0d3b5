package conf

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	// No config file in the package directory, so only defaults apply.
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "surge-alerts", cfg.App.Name)
	assert.Equal(t, "surge_alerts.db", cfg.Database.Path)
	assert.Equal(t, ":8080", cfg.HTTP.Addr)
	assert.Equal(t, 587, cfg.SMTP.Port)
	assert.True(t, cfg.Scheduler.Enabled)
	assert.Equal(t, time.Minute, cfg.Scheduler.EvaluateInterval.Std())
	assert.Equal(t, 60, cfg.Detector.WindowSize)
	assert.InDelta(t, 2.0, cfg.Detector.ThresholdMultiplier, 1e-9)
}

func TestLoad_FromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
database:
  path: /var/lib/surge/alerts.db
http:
  addr: ":9090"
scheduler:
  evaluate_interval: 30s
  notify_interval: 2m
detector:
  window_size: 120
  threshold_multiplier: 3.5
smtp:
  host: mail.example.com
  from: surge@example.com
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/var/lib/surge/alerts.db", cfg.Database.Path)
	assert.Equal(t, ":9090", cfg.HTTP.Addr)
	assert.Equal(t, 30*time.Second, cfg.Scheduler.EvaluateInterval.Std())
	assert.Equal(t, 2*time.Minute, cfg.Scheduler.NotifyInterval.Std())
	assert.Equal(t, 120, cfg.Detector.WindowSize)
	assert.InDelta(t, 3.5, cfg.Detector.ThresholdMultiplier, 1e-9)
	assert.Equal(t, "mail.example.com", cfg.SMTP.Host)
	assert.Equal(t, 587, cfg.SMTP.Port, "defaults apply under partial sections")
}

func TestLoad_RejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"zero window", "detector:\n  window_size: 0\n"},
		{"negative multiplier", "detector:\n  threshold_multiplier: -1\n"},
		{"zero evaluate interval", "scheduler:\n  evaluate_interval: 0s\n"},
		{"empty db path", "database:\n  path: \"\"\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.yaml")
			require.NoError(t, os.WriteFile(path, []byte(tt.yaml), 0o644))

			_, err := Load(path)
			assert.Error(t, err)
		})
	}
}
