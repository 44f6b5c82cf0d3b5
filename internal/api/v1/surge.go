package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/addynamo/surge-alerts/internal/datastore/entities"
	"github.com/addynamo/surge-alerts/internal/datastore/repository"
	"github.com/addynamo/surge-alerts/internal/surge"
)

// initSurgeRoutes registers surge config, evaluation, and delivery endpoints.
func (c *Controller) initSurgeRoutes(g *echo.Group) {
	sa := g.Group("/surge-alerts")

	sa.GET("/throughput/:handle", c.GetThroughput)
	sa.POST("/:handle/config", c.CreateSurgeConfig)
	sa.PUT("/:handle/config/:id", c.UpdateSurgeConfig)
	sa.GET("/:handle/config", c.ListSurgeConfigs)
	sa.POST("/evaluate", c.EvaluateSurges)
	sa.POST("/notify", c.ProcessNotifications)
	sa.GET("/pending", c.ListPendingAlerts)
}

// surgeConfigPayload is the create/update request body. Pointer fields
// are optional on update; ClearCooldown removes the cooldown entirely.
type surgeConfigPayload struct {
	CountThreshold *int     `json:"surge_reply_count_per_period"`
	PeriodMs       *int64   `json:"surge_reply_period_in_ms"`
	CooldownMs     *int64   `json:"alert_cooldown_period_in_ms"`
	ClearCooldown  bool     `json:"clear_cooldown"`
	Recipients     []string `json:"emails_to_notify"`
	Enabled        *bool    `json:"enabled"`
}

// surgeConfigResponse mirrors the stored config in API field names.
type surgeConfigResponse struct {
	ID              string     `json:"id"`
	CountThreshold  int        `json:"surge_reply_count_per_period"`
	PeriodMs        int64      `json:"surge_reply_period_in_ms"`
	CooldownMs      *int64     `json:"alert_cooldown_period_in_ms"`
	Recipients      []string   `json:"emails_to_notify"`
	Enabled         bool       `json:"enabled"`
	LastEvaluatedAt *time.Time `json:"last_evaluated_at,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

func toConfigResponse(cfg *entities.SurgeConfig) surgeConfigResponse {
	return surgeConfigResponse{
		ID:              cfg.ID,
		CountThreshold:  cfg.CountThreshold,
		PeriodMs:        cfg.PeriodMs,
		CooldownMs:      cfg.CooldownMs,
		Recipients:      cfg.Recipients,
		Enabled:         cfg.Enabled,
		LastEvaluatedAt: cfg.LastEvaluatedAt,
		CreatedAt:       cfg.CreatedAt,
		UpdatedAt:       cfg.UpdatedAt,
	}
}

// GetThroughput returns hidden-reply throughput metrics for a handle.
func (c *Controller) GetThroughput(ctx echo.Context) error {
	handle, err := c.handles.GetByName(ctx.Request().Context(), ctx.Param("handle"))
	if err != nil {
		if errors.Is(err, repository.ErrHandleNotFound) {
			return ctx.JSON(http.StatusNotFound, map[string]string{"error": "Handle not found"})
		}
		return c.handleError(ctx, err, "Failed to resolve handle", http.StatusInternalServerError)
	}

	metrics, err := c.engine.Throughput(ctx.Request().Context(), handle.ID, time.Now().UTC())
	if err != nil {
		return c.handleError(ctx, err, "Failed to compute throughput", http.StatusInternalServerError)
	}
	return ctx.JSON(http.StatusOK, metrics)
}

// CreateSurgeConfig creates a surge alert configuration for a handle.
func (c *Controller) CreateSurgeConfig(ctx echo.Context) error {
	handle, err := c.handles.GetByName(ctx.Request().Context(), ctx.Param("handle"))
	if err != nil {
		if errors.Is(err, repository.ErrHandleNotFound) {
			return ctx.JSON(http.StatusNotFound, map[string]string{"error": "Handle not found"})
		}
		return c.handleError(ctx, err, "Failed to resolve handle", http.StatusInternalServerError)
	}

	var payload surgeConfigPayload
	if err := ctx.Bind(&payload); err != nil {
		return ctx.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
	}
	if payload.CountThreshold == nil || payload.PeriodMs == nil {
		return ctx.JSON(http.StatusBadRequest, map[string]string{"error": "surge_reply_count_per_period and surge_reply_period_in_ms are required"})
	}

	cfg, err := c.engine.CreateConfig(ctx.Request().Context(), surge.CreateConfigParams{
		HandleID:       handle.ID,
		CountThreshold: *payload.CountThreshold,
		PeriodMs:       *payload.PeriodMs,
		CooldownMs:     payload.CooldownMs,
		Recipients:     payload.Recipients,
		Enabled:        payload.Enabled,
		CreatedBy:      userID(ctx),
	})
	if err != nil {
		var verr *surge.ValidationError
		if errors.As(err, &verr) {
			return ctx.JSON(http.StatusBadRequest, map[string]string{"error": verr.Msg})
		}
		return c.handleError(ctx, err, "Failed to create surge config", http.StatusInternalServerError)
	}

	return ctx.JSON(http.StatusCreated, toConfigResponse(cfg))
}

// UpdateSurgeConfig applies a partial update to an existing config. The
// config must belong to the handle in the path.
func (c *Controller) UpdateSurgeConfig(ctx echo.Context) error {
	reqCtx := ctx.Request().Context()

	handle, err := c.handles.GetByName(reqCtx, ctx.Param("handle"))
	if err != nil {
		if errors.Is(err, repository.ErrHandleNotFound) {
			return ctx.JSON(http.StatusNotFound, map[string]string{"error": "Handle not found"})
		}
		return c.handleError(ctx, err, "Failed to resolve handle", http.StatusInternalServerError)
	}

	existing, err := c.engine.GetConfig(reqCtx, ctx.Param("id"))
	if err != nil {
		if errors.Is(err, repository.ErrConfigNotFound) {
			return ctx.JSON(http.StatusNotFound, map[string]string{"error": "Configuration not found"})
		}
		return c.handleError(ctx, err, "Failed to get surge config", http.StatusInternalServerError)
	}
	if existing.HandleID != handle.ID {
		return ctx.JSON(http.StatusNotFound, map[string]string{"error": "Configuration not found"})
	}

	var payload surgeConfigPayload
	if err := ctx.Bind(&payload); err != nil {
		return ctx.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
	}

	cfg, err := c.engine.UpdateConfig(reqCtx, existing.ID, surge.UpdateConfigParams{
		CountThreshold: payload.CountThreshold,
		PeriodMs:       payload.PeriodMs,
		CooldownMs:     payload.CooldownMs,
		ClearCooldown:  payload.ClearCooldown,
		Recipients:     payload.Recipients,
		Enabled:        payload.Enabled,
	}, userID(ctx))
	if err != nil {
		var verr *surge.ValidationError
		if errors.As(err, &verr) {
			return ctx.JSON(http.StatusBadRequest, map[string]string{"error": verr.Msg})
		}
		return c.handleError(ctx, err, "Failed to update surge config", http.StatusInternalServerError)
	}

	return ctx.JSON(http.StatusOK, toConfigResponse(cfg))
}

// ListSurgeConfigs returns every configuration for a handle.
func (c *Controller) ListSurgeConfigs(ctx echo.Context) error {
	handle, err := c.handles.GetByName(ctx.Request().Context(), ctx.Param("handle"))
	if err != nil {
		if errors.Is(err, repository.ErrHandleNotFound) {
			return ctx.JSON(http.StatusNotFound, map[string]string{"error": "Handle not found"})
		}
		return c.handleError(ctx, err, "Failed to resolve handle", http.StatusInternalServerError)
	}

	configs, err := c.engine.ListConfigs(ctx.Request().Context(), handle.ID)
	if err != nil {
		return c.handleError(ctx, err, "Failed to list surge configs", http.StatusInternalServerError)
	}

	out := make([]surgeConfigResponse, 0, len(configs))
	for i := range configs {
		out = append(out, toConfigResponse(&configs[i]))
	}
	return ctx.JSON(http.StatusOK, map[string]any{"configurations": out})
}

// EvaluateSurges runs one evaluation pass over all enabled configs.
func (c *Controller) EvaluateSurges(ctx echo.Context) error {
	if err := c.engine.EvaluateAll(ctx.Request().Context(), time.Now().UTC()); err != nil {
		return c.handleError(ctx, err, "Failed to evaluate surge configs", http.StatusInternalServerError)
	}
	return ctx.JSON(http.StatusOK, map[string]any{"success": true})
}

// ProcessNotifications runs one delivery pass over pending alerts.
func (c *Controller) ProcessNotifications(ctx echo.Context) error {
	result, err := c.dispatcher.ProcessPending(ctx.Request().Context(), time.Now().UTC())
	if err != nil {
		return c.handleError(ctx, err, "Failed to process surge alerts", http.StatusInternalServerError)
	}
	return ctx.JSON(http.StatusOK, map[string]any{
		"success":          true,
		"processed_alerts": result.Delivered,
		"failed_alerts":    result.Failed,
	})
}

// ListPendingAlerts returns alerts still awaiting delivery.
func (c *Controller) ListPendingAlerts(ctx echo.Context) error {
	pending, err := c.dispatcher.PendingAlerts(ctx.Request().Context())
	if err != nil {
		return c.handleError(ctx, err, "Failed to list pending alerts", http.StatusInternalServerError)
	}

	type pendingAlert struct {
		ID          string    `json:"id"`
		ConfigID    string    `json:"config_id"`
		SurgeAmount int       `json:"surge_amount"`
		CreatedAt   time.Time `json:"created_at"`
	}
	out := make([]pendingAlert, 0, len(pending))
	for i := range pending {
		out = append(out, pendingAlert{
			ID:          pending[i].ID,
			ConfigID:    pending[i].ConfigID,
			SurgeAmount: pending[i].SurgeAmount,
			CreatedAt:   pending[i].CreatedAt,
		})
	}
	return ctx.JSON(http.StatusOK, map[string]any{"pending_alerts": out})
}
