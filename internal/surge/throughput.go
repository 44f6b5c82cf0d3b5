package surge

import (
	"context"
	"time"
)

// ThroughputMetrics reports hidden-reply counts over fixed trailing windows.
type ThroughputMetrics struct {
	HiddenLast15Min   int64 `json:"hidden_replies_last_15_min"`
	HiddenLastHour    int64 `json:"hidden_replies_last_hour"`
	HiddenLast24Hours int64 `json:"hidden_replies_last_24_hours"`
}

// Throughput returns hidden-reply counts for the last 15 minutes, hour,
// and 24 hours for a handle.
func (e *Engine) Throughput(ctx context.Context, handleID uint, now time.Time) (ThroughputMetrics, error) {
	var out ThroughputMetrics

	windows := []struct {
		since time.Time
		dest  *int64
	}{
		{now.Add(-15 * time.Minute), &out.HiddenLast15Min},
		{now.Add(-time.Hour), &out.HiddenLastHour},
		{now.Add(-24 * time.Hour), &out.HiddenLast24Hours},
	}
	for _, w := range windows {
		count, err := e.counter.CountHiddenSince(ctx, handleID, w.since)
		if err != nil {
			return ThroughputMetrics{}, err
		}
		*w.dest = count
	}
	return out, nil
}
