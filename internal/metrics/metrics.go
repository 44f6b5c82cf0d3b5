// Package metrics registers Prometheus instrumentation for the service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// SamplesObserved counts samples fed to the spike detector.
	SamplesObserved = promauto.NewCounter(prometheus.CounterOpts{
		Name: "surge_detector_samples_total",
		Help: "Number of samples fed to the rolling-window detector.",
	})

	// SpikesDetected counts samples classified as spikes.
	SpikesDetected = promauto.NewCounter(prometheus.CounterOpts{
		Name: "surge_detector_spikes_total",
		Help: "Number of samples classified as spikes.",
	})

	// EvaluationPasses counts completed surge evaluation passes.
	EvaluationPasses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "surge_evaluation_passes_total",
		Help: "Number of completed surge evaluation passes.",
	})

	// AlertsCreated counts surge alerts raised by the evaluation engine.
	AlertsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "surge_alerts_created_total",
		Help: "Number of surge alerts created.",
	})

	// AlertsDelivered counts alerts successfully delivered to recipients.
	AlertsDelivered = promauto.NewCounter(prometheus.CounterOpts{
		Name: "surge_alerts_delivered_total",
		Help: "Number of surge alerts delivered.",
	})

	// DeliveryFailures counts failed delivery attempts.
	DeliveryFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "surge_alert_delivery_failures_total",
		Help: "Number of failed surge alert delivery attempts.",
	})
)
