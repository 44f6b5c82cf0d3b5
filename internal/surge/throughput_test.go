package surge

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// windowCounter counts recorded event times at or after since.
type windowCounter struct {
	events []time.Time
}

func (c *windowCounter) CountHiddenSince(_ context.Context, _ uint, since time.Time) (int64, error) {
	var n int64
	for _, ts := range c.events {
		if !ts.Before(since) {
			n++
		}
	}
	return n, nil
}

func TestThroughput_WindowBounds(t *testing.T) {
	now := time.Now()
	counter := &windowCounter{events: []time.Time{
		now.Add(-5 * time.Minute),  // inside all windows
		now.Add(-30 * time.Minute), // inside hour and day
		now.Add(-2 * time.Hour),    // inside day only
		now.Add(-30 * time.Hour),   // outside all windows
	}}
	engine := NewEngine(newMockSurgeRepo(), counter, testLogger())

	metrics, err := engine.Throughput(t.Context(), 1, now)
	require.NoError(t, err)

	assert.Equal(t, int64(1), metrics.HiddenLast15Min)
	assert.Equal(t, int64(2), metrics.HiddenLastHour)
	assert.Equal(t, int64(3), metrics.HiddenLast24Hours)
}
