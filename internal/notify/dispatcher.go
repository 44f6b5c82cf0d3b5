// Package notify delivers pending surge alerts to configured recipients.
package notify

import (
	"context"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/addynamo/surge-alerts/internal/datastore/entities"
	"github.com/addynamo/surge-alerts/internal/datastore/repository"
	"github.com/addynamo/surge-alerts/internal/logger"
	"github.com/addynamo/surge-alerts/internal/metrics"
)

const (
	// handleCacheTTL bounds how long a resolved handle name is reused.
	handleCacheTTL = 5 * time.Minute
	// handleCacheSweep is the cache's eviction sweep interval.
	handleCacheSweep = 10 * time.Minute
)

// Mailer is the delivery capability. Implementations must not panic on
// transport failure; errors are captured per alert by the dispatcher.
type Mailer interface {
	Send(ctx context.Context, recipients []string, subject, body string) error
}

// Result reports the outcome of one dispatch pass.
type Result struct {
	Delivered []string `json:"processed_alerts"`
	Failed    []string `json:"failed_alerts"`
}

// Dispatcher drains pending surge alerts, attempting delivery once per
// alert per pass. An alert is marked delivered only after the transport
// acknowledges; failures leave it pending for the next pass.
type Dispatcher struct {
	alerts  repository.SurgeAlertRepository
	handles repository.HandleRepository
	mailer  Mailer
	names   *cache.Cache
	log     logger.Logger
}

// NewDispatcher creates a notification dispatcher.
func NewDispatcher(alerts repository.SurgeAlertRepository, handles repository.HandleRepository, mailer Mailer, log logger.Logger) *Dispatcher {
	return &Dispatcher{
		alerts:  alerts,
		handles: handles,
		mailer:  mailer,
		names:   cache.New(handleCacheTTL, handleCacheSweep),
		log:     log,
	}
}

// PendingAlerts returns every alert awaiting delivery.
func (d *Dispatcher) PendingAlerts(ctx context.Context) ([]entities.SurgeAlert, error) {
	return d.alerts.PendingAlerts(ctx)
}

// ProcessPending attempts delivery for every pending alert and records
// outcomes. A failed item never aborts the batch; it stays pending and is
// retried on the next invocation.
func (d *Dispatcher) ProcessPending(ctx context.Context, now time.Time) (Result, error) {
	pending, err := d.alerts.PendingAlerts(ctx)
	if err != nil {
		return Result{}, err
	}

	result := Result{Delivered: []string{}, Failed: []string{}}
	for i := range pending {
		alert := &pending[i]

		snap, err := alert.Snapshot()
		if err != nil {
			d.log.Error("unreadable config snapshot",
				logger.String("alert_id", alert.ID),
				logger.Error(err))
			result.Failed = append(result.Failed, alert.ID)
			continue
		}

		handleName, err := d.handleName(ctx, alert.ConfigID)
		if err != nil {
			d.log.Error("handle not found for alert",
				logger.String("alert_id", alert.ID),
				logger.String("config_id", alert.ConfigID),
				logger.Error(err))
			result.Failed = append(result.Failed, alert.ID)
			continue
		}

		subject := buildSubject(handleName)
		body := buildBody(handleName, snap, alert.SurgeAmount)

		if err := d.mailer.Send(ctx, snap.Recipients, subject, body); err != nil {
			metrics.DeliveryFailures.Inc()
			d.log.Warn("alert delivery failed, will retry next pass",
				logger.String("alert_id", alert.ID),
				logger.Error(err))
			result.Failed = append(result.Failed, alert.ID)
			continue
		}

		// Delivery is acknowledged; mark now and only now. If marking
		// fails the alert may be re-sent next pass, which at-least-once
		// delivery tolerates.
		if err := d.alerts.MarkAlertSent(ctx, alert.ID, now); err != nil {
			d.log.Error("delivered but failed to mark alert sent",
				logger.String("alert_id", alert.ID),
				logger.Error(err))
		}
		metrics.AlertsDelivered.Inc()
		result.Delivered = append(result.Delivered, alert.ID)
	}
	return result, nil
}

// handleName resolves the handle owning a config, with a short-lived cache
// so hot handles do not cost one query per alert.
func (d *Dispatcher) handleName(ctx context.Context, configID string) (string, error) {
	if name, ok := d.names.Get(configID); ok {
		return name.(string), nil
	}
	handle, err := d.handles.HandleForConfig(ctx, configID)
	if err != nil {
		return "", err
	}
	d.names.Set(configID, handle.Handle, cache.DefaultExpiration)
	return handle.Handle, nil
}
