// Package detector implements a rolling-window statistical spike detector.
package detector

import (
	"errors"
	"math"
	"sync"
	"time"
)

const (
	// DefaultWindowSize is the sample buffer capacity when none is given.
	DefaultWindowSize = 60
	// DefaultMultiplier is the standard-deviation multiplier when none is given.
	DefaultMultiplier = 2.0

	// minSamplesForStats is the smallest buffer size for which the
	// mean/std statistics are considered meaningful.
	minSamplesForStats = 5
	// spikeHistorySize is the maximum number of retained spike events.
	spikeHistorySize = 100
)

// ErrInvalidMultiplier is returned when a non-positive threshold
// multiplier is supplied.
var ErrInvalidMultiplier = errors.New("threshold multiplier must be positive")

// Sample is a single timestamped value in the rolling window.
type Sample struct {
	Timestamp time.Time `json:"timestamp"`
	Value     float64   `json:"value"`
}

// Detector classifies incoming values as spikes relative to the mean and
// population standard deviation of a bounded rolling window. One instance
// corresponds to one monitored series; all state is guarded by a single
// mutex so every operation observes the buffer, spike history, and
// multiplier as one atomic unit.
type Detector struct {
	windowSize int
	multiplier float64
	samples    []Sample
	spikes     []Sample
	mu         sync.Mutex
}

// New creates a Detector. Non-positive arguments fall back to the defaults.
func New(windowSize int, multiplier float64) *Detector {
	if windowSize <= 0 {
		windowSize = DefaultWindowSize
	}
	if multiplier <= 0 {
		multiplier = DefaultMultiplier
	}
	return &Detector{
		windowSize: windowSize,
		multiplier: multiplier,
		samples:    make([]Sample, 0, windowSize),
	}
}

// AddSample appends a value to the window, evicting the oldest sample at
// capacity, and reports whether the value is a spike. Fewer than five
// retained samples never produce a spike; below that size the statistics
// are unreliable.
func (d *Detector) AddSample(value float64, now time.Time) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if len(d.samples) >= d.windowSize {
		d.samples = d.samples[1:]
	}
	d.samples = append(d.samples, Sample{Timestamp: now, Value: value})

	if len(d.samples) < minSamplesForStats {
		return false
	}

	isSpike := value > d.threshold()
	if isSpike {
		if len(d.spikes) >= spikeHistorySize {
			d.spikes = d.spikes[1:]
		}
		d.spikes = append(d.spikes, Sample{Timestamp: now, Value: value})
	}
	return isSpike
}

// CurrentAverage returns the mean of the retained samples, or 0 when the
// window is empty.
func (d *Detector) CurrentAverage() float64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.samples) == 0 {
		return 0
	}
	return d.mean()
}

// CurrentThreshold returns the spike threshold for the current window.
// ok is false while fewer than five samples are retained.
func (d *Detector) CurrentThreshold() (threshold float64, ok bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.samples) < minSamplesForStats {
		return 0, false
	}
	return d.threshold(), true
}

// RecentSamples returns the retained samples, oldest first.
func (d *Detector) RecentSamples() []Sample {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]Sample, len(d.samples))
	copy(out, d.samples)
	return out
}

// RecentSpikes returns the retained spike events, oldest first.
func (d *Detector) RecentSpikes() []Sample {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]Sample, len(d.spikes))
	copy(out, d.spikes)
	return out
}

// SetThresholdMultiplier replaces the multiplier for all subsequent
// computations. Returns ErrInvalidMultiplier for m <= 0, leaving the
// current multiplier unchanged.
func (d *Detector) SetThresholdMultiplier(m float64) error {
	if m <= 0 {
		return ErrInvalidMultiplier
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.multiplier = m
	return nil
}

// mean computes the arithmetic mean of the buffer. Caller holds d.mu.
func (d *Detector) mean() float64 {
	var sum float64
	for i := range d.samples {
		sum += d.samples[i].Value
	}
	return sum / float64(len(d.samples))
}

// threshold computes mean + multiplier*std over the buffer, using the
// population standard deviation of exactly the retained values. Results
// shift as the window slides; recency bias is intended. Caller holds d.mu.
func (d *Detector) threshold() float64 {
	mean := d.mean()
	var sqSum float64
	for i := range d.samples {
		diff := d.samples[i].Value - mean
		sqSum += diff * diff
	}
	std := math.Sqrt(sqSum / float64(len(d.samples)))
	return mean + d.multiplier*std
}
