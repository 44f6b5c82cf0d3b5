package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/addynamo/surge-alerts/internal/detector"
	"github.com/addynamo/surge-alerts/internal/metrics"
)

// initDetectorRoutes registers the rolling-window detector endpoints.
func (c *Controller) initDetectorRoutes(g *echo.Group) {
	d := g.Group("/detector")

	d.GET("/stats", c.GetDetectorStats)
	d.POST("/sample", c.AddDetectorSample)
	d.PUT("/threshold", c.SetDetectorThreshold)
}

// GetDetectorStats returns the current window statistics.
func (c *Controller) GetDetectorStats(ctx echo.Context) error {
	threshold, ok := c.detector.CurrentThreshold()

	resp := map[string]any{
		"average":       c.detector.CurrentAverage(),
		"samples":       c.detector.RecentSamples(),
		"recent_spikes": c.detector.RecentSpikes(),
	}
	if ok {
		resp["threshold"] = threshold
	} else {
		resp["threshold"] = nil
	}
	return ctx.JSON(http.StatusOK, resp)
}

// AddDetectorSample feeds one value into the rolling window and reports
// whether it spiked.
func (c *Controller) AddDetectorSample(ctx echo.Context) error {
	var body struct {
		Value *float64 `json:"value"`
	}
	if err := ctx.Bind(&body); err != nil || body.Value == nil {
		return ctx.JSON(http.StatusBadRequest, map[string]string{"error": "value is required"})
	}

	isSpike := c.detector.AddSample(*body.Value, time.Now().UTC())
	metrics.SamplesObserved.Inc()
	if isSpike {
		metrics.SpikesDetected.Inc()
	}
	return ctx.JSON(http.StatusOK, map[string]any{"is_spike": isSpike})
}

// SetDetectorThreshold replaces the standard-deviation multiplier.
func (c *Controller) SetDetectorThreshold(ctx echo.Context) error {
	var body struct {
		Multiplier *float64 `json:"multiplier"`
	}
	if err := ctx.Bind(&body); err != nil || body.Multiplier == nil {
		return ctx.JSON(http.StatusBadRequest, map[string]string{"error": "multiplier is required"})
	}

	if err := c.detector.SetThresholdMultiplier(*body.Multiplier); err != nil {
		if errors.Is(err, detector.ErrInvalidMultiplier) {
			return ctx.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
		}
		return c.handleError(ctx, err, "Failed to set threshold multiplier", http.StatusInternalServerError)
	}
	return ctx.JSON(http.StatusOK, map[string]any{"multiplier": *body.Multiplier})
}
