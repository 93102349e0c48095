// Portalgate - Multi-Tenant Portal Authorization Service
// Copyright 2026 Campus Works
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/campusworks/portalgate

// Prometheus metrics for the authorization system.
//
// Metrics categories:
//   - Engine decisions: allow/deny counts by role, action, reason; latency
//   - Route policy: enforcement counts, cache hits
//   - Sessions: creations, revocations, active gauge
package authz

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/campusworks/portalgate/internal/rbac"
)

var (
	// DecisionsTotal counts engine decisions by role, action, and outcome.
	DecisionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "portalgate_authz_decisions_total",
			Help: "Total number of authorization engine decisions",
		},
		[]string{"role", "action", "decision"},
	)

	// DenialsTotal tracks denials by role, action, and reason, for alerting.
	DenialsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "portalgate_authz_denials_total",
			Help: "Total number of authorization denials by reason",
		},
		[]string{"role", "action", "reason"},
	)

	// DecisionDuration tracks the latency of engine decisions.
	DecisionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "portalgate_authz_decision_duration_seconds",
			Help: "Duration of authorization engine decisions in seconds",
			// Decisions are pure in-memory evaluation; buckets stay in
			// the microsecond range.
			Buckets: []float64{0.000001, 0.000005, 0.00001, 0.00005, 0.0001, 0.0005, 0.001},
		},
		[]string{"action"},
	)

	// RoutePolicyTotal counts route-level policy enforcements.
	RoutePolicyTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "portalgate_authz_route_policy_total",
			Help: "Total number of route policy enforcements",
		},
		[]string{"role", "decision"},
	)

	// SessionOpsTotal counts session store operations.
	SessionOpsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "portalgate_session_operations_total",
			Help: "Total number of session store operations",
		},
		[]string{"operation"},
	)

	// ActiveSessions tracks the number of live sessions.
	ActiveSessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "portalgate_sessions_active",
			Help: "Number of active (unexpired, unrevoked) sessions",
		},
	)
)

// RecordDecision records an engine decision with its latency.
func RecordDecision(role rbac.Role, action Action, d Decision, duration time.Duration) {
	outcome := "deny"
	if d.Allowed {
		outcome = "allow"
	}

	DecisionsTotal.WithLabelValues(role.String(), string(action), outcome).Inc()
	DecisionDuration.WithLabelValues(string(action)).Observe(duration.Seconds())

	if !d.Allowed {
		DenialsTotal.WithLabelValues(role.String(), string(action), string(d.Reason)).Inc()
	}
}

// RecordRoutePolicy records a route-level policy enforcement.
func RecordRoutePolicy(role rbac.Role, allowed bool) {
	outcome := "deny"
	if allowed {
		outcome = "allow"
	}
	RoutePolicyTotal.WithLabelValues(role.String(), outcome).Inc()
}

// RecordSessionOp records a session store operation.
func RecordSessionOp(operation string) {
	SessionOpsTotal.WithLabelValues(operation).Inc()
}
