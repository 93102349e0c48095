// Portalgate - Multi-Tenant Portal Authorization Service
// Copyright 2026 Campus Works
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/campusworks/portalgate

package authz

import (
	"context"
	"time"

	"github.com/campusworks/portalgate/internal/auth"
	"github.com/campusworks/portalgate/internal/logging"
	"github.com/campusworks/portalgate/internal/rbac"
)

// Service wraps the pure decision engine with the observability the
// HTTP boundary needs: every evaluation is timed, counted, and written
// to the audit trail. The engine functions stay pure and directly
// callable; handlers go through the Service so no decision escapes the
// audit log.
type Service struct {
	audit *AuditLogger
}

// NewService creates an authorization service. A nil audit logger
// disables auditing but keeps metrics.
func NewService(audit *AuditLogger) *Service {
	return &Service{audit: audit}
}

// Evaluate runs the engine for one action and records the outcome.
func (s *Service) Evaluate(ctx context.Context, p *auth.Principal, r *Resource, action Action) Decision {
	start := time.Now()
	decision := Decide(action, p, r)
	duration := time.Since(start)

	RecordDecision(principalRole(p), action, decision, duration)

	if s.audit != nil {
		event := &AuditEvent{
			Action:   action,
			Allowed:  decision.Allowed,
			Reason:   decision.Reason,
			Duration: duration,
		}
		if p != nil {
			event.ActorID = p.ID
			event.ActorRole = p.Role
			event.ActorRegion = p.Region()
			event.SessionID = p.SessionID
		}
		if r != nil {
			event.ResourceID = r.ID
			event.ResourceKind = r.Kind
			event.Scope = r.Scope
		}
		event.RequestID = logging.RequestIDFromContext(ctx)
		s.audit.LogDecision(event)
	}

	return decision
}

// Close flushes and stops the audit trail.
func (s *Service) Close() {
	if s.audit != nil {
		s.audit.Close()
	}
}

// principalRole returns the role for metric labels; the label set must
// stay bounded, so nil principals collapse to "anonymous".
func principalRole(p *auth.Principal) rbac.Role {
	if p != nil && rbac.IsValid(p.Role) {
		return p.Role
	}
	return rbac.Role("anonymous")
}
