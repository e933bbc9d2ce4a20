// Package metrics exposes Prometheus collectors for the scheduler and the
// notification delivery path.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	NotificationsDelivered = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "uvent_notifications_delivered_total",
			Help: "Notifications with at least one channel delivered, by kind",
		},
		[]string{"kind"},
	)

	NotificationsFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "uvent_notifications_failed_total",
			Help: "Notifications where both channels failed, by kind",
		},
		[]string{"kind"},
	)

	PushAttempts = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "uvent_push_attempts_total",
			Help: "Individual FCM endpoint send attempts",
		},
	)

	TokensDeactivated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "uvent_push_tokens_deactivated_total",
			Help: "Push endpoints retired after FCM reported them invalid",
		},
	)

	SchedulerRecomputes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "uvent_scheduler_recomputes_total",
			Help: "Timer recomputation passes, by transition",
		},
		[]string{"transition"},
	)

	SchedulerFires = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "uvent_scheduler_fires_total",
			Help: "Event transitions processed, by transition",
		},
		[]string{"transition"},
	)

	SchedulerErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "uvent_scheduler_errors_total",
			Help: "Storage errors swallowed by scheduler passes, by transition",
		},
		[]string{"transition"},
	)

	TimersArmed = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "uvent_scheduler_timers_armed",
			Help: "Currently armed one-shot transition timers, by transition",
		},
		[]string{"transition"},
	)
)
