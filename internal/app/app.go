// Package app wires configuration, storage, and services into runnable
// commands.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	apiv1 "github.com/addynamo/surge-alerts/internal/api/v1"
	"github.com/addynamo/surge-alerts/internal/conf"
	"github.com/addynamo/surge-alerts/internal/datastore"
	"github.com/addynamo/surge-alerts/internal/datastore/repository"
	"github.com/addynamo/surge-alerts/internal/detector"
	"github.com/addynamo/surge-alerts/internal/logger"
	"github.com/addynamo/surge-alerts/internal/notify"
	"github.com/addynamo/surge-alerts/internal/replies"
	"github.com/addynamo/surge-alerts/internal/scheduler"
	"github.com/addynamo/surge-alerts/internal/surge"
)

const shutdownTimeout = 10 * time.Second

// App aggregates configuration and shared dependencies for the CLI commands.
type App struct {
	Config *conf.Config
	Logger logger.Logger
}

// NewApp constructs a new application handle.
func NewApp(cfg *conf.Config, log logger.Logger) *App {
	return &App{Config: cfg, Logger: log}
}

// services are the wired application components for one store.
type services struct {
	engine     *surge.Engine
	dispatcher *notify.Dispatcher
	replies    *replies.Service
	handles    repository.HandleRepository
	detector   *detector.Detector
}

func (a *App) buildServices() (*services, error) {
	db, err := datastore.Open(a.Config.Database.Path)
	if err != nil {
		return nil, err
	}

	handleRepo := repository.NewHandleRepository(db)
	replyRepo := repository.NewReplyRepository(db)
	surgeRepo := repository.NewSurgeRepository(db)

	return &services{
		engine:     surge.NewEngine(surgeRepo, replyRepo, a.Logger),
		dispatcher: notify.NewDispatcher(surgeRepo, handleRepo, a.newMailer(), a.Logger),
		replies:    replies.NewService(handleRepo, replyRepo, a.Logger),
		handles:    handleRepo,
		detector:   detector.New(a.Config.Detector.WindowSize, a.Config.Detector.ThresholdMultiplier),
	}, nil
}

// newMailer selects the delivery transport: webhook when a URL is
// configured, SMTP otherwise.
func (a *App) newMailer() notify.Mailer {
	if a.Config.Webhook.URL != "" {
		return notify.NewWebhookMailer(a.Config.Webhook.URL, a.Config.Webhook.Timeout.Std(), a.Logger)
	}
	return notify.NewSMTPMailer(notify.SMTPConfig{
		Host:     a.Config.SMTP.Host,
		Port:     a.Config.SMTP.Port,
		Username: a.Config.SMTP.Username,
		Password: a.Config.SMTP.Password,
		From:     a.Config.SMTP.From,
	}, a.Logger)
}

// Serve runs the HTTP API and, when enabled, the background scheduler
// until the context is cancelled or a termination signal arrives.
func (a *App) Serve(ctx context.Context) error {
	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	svcs, err := a.buildServices()
	if err != nil {
		return err
	}

	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())
	apiv1.NewController(e, svcs.engine, svcs.dispatcher, svcs.replies, svcs.handles, svcs.detector, a.Logger)

	if a.Config.Scheduler.Enabled {
		sched := scheduler.New(svcs.engine, svcs.dispatcher,
			a.Config.Scheduler.EvaluateInterval.Std(),
			a.Config.Scheduler.NotifyInterval.Std(),
			a.Logger)
		sched.Start()
		defer sched.Stop()
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- e.Start(a.Config.HTTP.Addr)
	}()
	a.Logger.Info("surge-alerts serving",
		logger.String("addr", a.Config.HTTP.Addr))

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown http server: %w", err)
	}
	a.Logger.Info("surge-alerts stopped")
	return nil
}

// EvaluateOnce runs a single surge evaluation pass.
func (a *App) EvaluateOnce(ctx context.Context) error {
	svcs, err := a.buildServices()
	if err != nil {
		return err
	}
	return svcs.engine.EvaluateAll(ctx, time.Now().UTC())
}

// NotifyOnce runs a single delivery pass over pending alerts.
func (a *App) NotifyOnce(ctx context.Context) error {
	svcs, err := a.buildServices()
	if err != nil {
		return err
	}
	result, err := svcs.dispatcher.ProcessPending(ctx, time.Now().UTC())
	if err != nil {
		return err
	}
	a.Logger.Info("delivery pass completed",
		logger.Int("delivered", len(result.Delivered)),
		logger.Int("failed", len(result.Failed)))
	return nil
}
