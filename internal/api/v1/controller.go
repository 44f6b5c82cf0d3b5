// Package api exposes the surge-alert HTTP surface.
package api

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/addynamo/surge-alerts/internal/datastore/repository"
	"github.com/addynamo/surge-alerts/internal/detector"
	"github.com/addynamo/surge-alerts/internal/logger"
	"github.com/addynamo/surge-alerts/internal/notify"
	"github.com/addynamo/surge-alerts/internal/replies"
	"github.com/addynamo/surge-alerts/internal/surge"
)

// Controller wires the API routes to the application services.
type Controller struct {
	engine     *surge.Engine
	dispatcher *notify.Dispatcher
	replies    *replies.Service
	handles    repository.HandleRepository
	detector   *detector.Detector
	log        logger.Logger
}

// NewController creates the API controller and registers all routes on e.
func NewController(e *echo.Echo, engine *surge.Engine, dispatcher *notify.Dispatcher, replySvc *replies.Service, handles repository.HandleRepository, det *detector.Detector, log logger.Logger) *Controller {
	c := &Controller{
		engine:     engine,
		dispatcher: dispatcher,
		replies:    replySvc,
		handles:    handles,
		detector:   det,
		log:        log,
	}

	e.GET("/", c.HealthCheck)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	g := e.Group("/api/v1")
	c.initSurgeRoutes(g)
	c.initDetectorRoutes(g)
	c.initReplyRoutes(g)
	return c
}

// HealthCheck reports service liveness.
func (c *Controller) HealthCheck(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, map[string]string{
		"status":  "healthy",
		"message": "surge detection service is running",
	})
}

// userID returns the acting user from the X-User-ID header, defaulting
// to "system" for unattributed calls.
func userID(ctx echo.Context) string {
	if id := ctx.Request().Header.Get("X-User-ID"); id != "" {
		return id
	}
	return "system"
}

// handleError logs err and returns a JSON error response.
func (c *Controller) handleError(ctx echo.Context, err error, message string, code int) error {
	c.log.Error(message, logger.Error(err))
	return ctx.JSON(code, map[string]string{"error": message})
}
