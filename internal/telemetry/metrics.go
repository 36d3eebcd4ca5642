/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package telemetry

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// BuildsTotal counts plan builds by outcome ("ok" / "error").
	BuildsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gridcast_builds_total",
		Help: "Plan builds by outcome.",
	}, []string{"status"})

	// BuildDuration observes wall time of complete build passes.
	BuildDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "gridcast_build_duration_seconds",
		Help:    "Duration of plan build passes.",
		Buckets: prometheus.ExponentialBuckets(0.05, 2, 10),
	})

	// PlanSlots tracks slot counts of the most recent plan by kind.
	PlanSlots = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "gridcast_plan_slots",
		Help: "Slots in the most recently built plan by kind.",
	}, []string{"kind"})

	// EventsDropped counts events left out of a plan for lack of a free lane.
	EventsDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "gridcast_events_dropped_total",
		Help: "Events dropped because no lane was free in time.",
	})

	// APIRequestsTotal counts lookup-service requests.
	APIRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gridcast_api_requests_total",
		Help: "HTTP requests by method, route and status.",
	}, []string{"method", "endpoint", "status"})

	// APIRequestDuration observes lookup-service latency.
	APIRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "gridcast_api_request_duration_seconds",
		Help:    "HTTP request latency by method, route and status.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "endpoint", "status"})

	// APIActiveConnections gauges in-flight lookup requests.
	APIActiveConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "gridcast_api_active_connections",
		Help: "In-flight HTTP requests.",
	})
)

// Handler exposes the Prometheus metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}
