// Portalgate - Multi-Tenant Portal Authorization Service
// Copyright 2026 Campus Works
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/campusworks/portalgate

// Decision audit trail for security monitoring and forensic analysis.
// Every engine decision made at the HTTP boundary is recorded:
// actor, resource, action, outcome, denial reason, latency.
//
// Denial reasons for restricted resources are logged in full here;
// only the HTTP response hides them from the client.
package authz

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/campusworks/portalgate/internal/logging"
	"github.com/campusworks/portalgate/internal/rbac"
)

// AuditEvent captures the complete context of one authorization decision.
type AuditEvent struct {
	// ID is a unique identifier for this audit event.
	ID string `json:"id"`

	// Timestamp is when the decision was made.
	Timestamp time.Time `json:"timestamp"`

	// RequestID links this event to an HTTP request, if any.
	RequestID string `json:"request_id,omitempty"`

	// ActorID is the principal requesting access.
	ActorID string `json:"actor_id"`

	// ActorRole is the principal's role.
	ActorRole rbac.Role `json:"actor_role,omitempty"`

	// ActorRegion is the principal's home region, if any.
	ActorRegion string `json:"actor_region,omitempty"`

	// ResourceID identifies the resource the decision concerned.
	ResourceID string `json:"resource_id"`

	// ResourceKind is the portal entity kind.
	ResourceKind EntityKind `json:"resource_kind,omitempty"`

	// Scope is the resource's visibility scope.
	Scope VisibilityScope `json:"scope,omitempty"`

	// Action is the operation that was decided.
	Action Action `json:"action"`

	// Allowed is the decision outcome.
	Allowed bool `json:"allowed"`

	// Reason is the denial reason, empty on allow.
	Reason DenialReason `json:"reason,omitempty"`

	// Duration is how long the decision took.
	Duration time.Duration `json:"duration_ns"`

	// SessionID is the principal's session, if known.
	SessionID string `json:"session_id,omitempty"`
}

// AuditLoggerConfig configures the audit logger behavior.
type AuditLoggerConfig struct {
	// Enabled controls whether audit logging is active.
	Enabled bool

	// LogAllowed controls whether to log allowed decisions.
	// Set to false to only log denials (reduces log volume).
	LogAllowed bool

	// LogDenied controls whether to log denied decisions.
	LogDenied bool

	// SampleRate is the fraction of allowed decisions to log (0.0 to 1.0).
	// Denials are always logged at full rate when LogDenied is true.
	SampleRate float64

	// BufferSize is the size of the async event buffer.
	// Events are dropped if the buffer is full (non-blocking).
	BufferSize int
}

// DefaultAuditLoggerConfig returns sensible defaults for production.
func DefaultAuditLoggerConfig() *AuditLoggerConfig {
	return &AuditLoggerConfig{
		Enabled:    true,
		LogAllowed: true,
		LogDenied:  true,
		SampleRate: 1.0,
		BufferSize: 1000,
	}
}

// AuditLogger handles async logging of authorization decisions.
type AuditLogger struct {
	config   *AuditLoggerConfig
	events   chan *AuditEvent
	stopChan chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewAuditLogger creates a new audit logger with the given configuration.
func NewAuditLogger(config *AuditLoggerConfig) *AuditLogger {
	if config == nil {
		config = DefaultAuditLoggerConfig()
	}
	if config.BufferSize <= 0 {
		config.BufferSize = 1000
	}
	if config.SampleRate <= 0 || config.SampleRate > 1.0 {
		config.SampleRate = 1.0
	}

	al := &AuditLogger{
		config:   config,
		events:   make(chan *AuditEvent, config.BufferSize),
		stopChan: make(chan struct{}),
	}

	if config.Enabled {
		al.wg.Add(1)
		go al.processEvents()
	}

	return al
}

// LogDecision records an authorization decision asynchronously.
// Non-blocking; events are dropped if the buffer is full.
func (al *AuditLogger) LogDecision(event *AuditEvent) {
	if al == nil || !al.config.Enabled {
		return
	}

	if event.Allowed {
		if !al.config.LogAllowed {
			return
		}
		// Deterministic sampling of allowed decisions by event ID.
		if al.config.SampleRate < 1.0 {
			if len(event.ID) > 0 && (int(event.ID[0])%100) >= int(al.config.SampleRate*100) {
				return
			}
		}
	} else if !al.config.LogDenied {
		return
	}

	if event.ID == "" {
		event.ID = uuid.New().String()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	select {
	case al.events <- event:
	default:
		logging.Warn().
			Str("actor_id", event.ActorID).
			Str("resource_id", event.ResourceID).
			Msg("Audit log buffer full, event dropped")
	}
}

// processEvents handles the async event processing.
func (al *AuditLogger) processEvents() {
	defer al.wg.Done()

	for {
		select {
		case <-al.stopChan:
			al.drainEvents()
			return
		case event := <-al.events:
			al.writeEvent(event)
		}
	}
}

// drainEvents processes any remaining events in the buffer.
func (al *AuditLogger) drainEvents() {
	for {
		select {
		case event := <-al.events:
			al.writeEvent(event)
		default:
			return
		}
	}
}

// writeEvent outputs the event to the log. Denials are logged at warn
// level for visibility.
func (al *AuditLogger) writeEvent(event *AuditEvent) {
	logEvent := logging.Info()
	if !event.Allowed {
		logEvent = logging.Warn()
	}

	logEvent = logEvent.
		Str("event_type", "authz_decision").
		Str("audit_id", event.ID).
		Time("audit_timestamp", event.Timestamp).
		Str("actor_id", event.ActorID).
		Str("resource_id", event.ResourceID).
		Str("action", string(event.Action)).
		Bool("allowed", event.Allowed).
		Dur("duration", event.Duration)

	if event.ActorRole != "" {
		logEvent = logEvent.Str("actor_role", event.ActorRole.String())
	}
	if event.ActorRegion != "" {
		logEvent = logEvent.Str("actor_region", event.ActorRegion)
	}
	if event.ResourceKind != "" {
		logEvent = logEvent.Str("resource_kind", string(event.ResourceKind))
	}
	if event.Scope != "" {
		logEvent = logEvent.Str("scope", string(event.Scope))
	}
	if event.RequestID != "" {
		logEvent = logEvent.Str("request_id", event.RequestID)
	}
	if event.Reason != "" {
		logEvent = logEvent.Str("reason", string(event.Reason))
	}
	if event.SessionID != "" {
		logEvent = logEvent.Str("session_id", event.SessionID)
	}

	if event.Allowed {
		logEvent.Msg("Authorization allowed")
	} else {
		logEvent.Msg("Authorization denied")
	}
}

// Close stops the audit logger and flushes remaining events.
func (al *AuditLogger) Close() {
	if al == nil {
		return
	}

	al.stopOnce.Do(func() {
		close(al.stopChan)
	})
	al.wg.Wait()
}

// Stats returns current audit logger statistics.
func (al *AuditLogger) Stats() AuditLoggerStats {
	if al == nil {
		return AuditLoggerStats{}
	}

	return AuditLoggerStats{
		BufferSize: al.config.BufferSize,
		BufferUsed: len(al.events),
		Enabled:    al.config.Enabled,
		LogAllowed: al.config.LogAllowed,
		LogDenied:  al.config.LogDenied,
		SampleRate: al.config.SampleRate,
	}
}

// AuditLoggerStats provides statistics about the audit logger.
type AuditLoggerStats struct {
	BufferSize int     `json:"buffer_size"`
	BufferUsed int     `json:"buffer_used"`
	Enabled    bool    `json:"enabled"`
	LogAllowed bool    `json:"log_allowed"`
	LogDenied  bool    `json:"log_denied"`
	SampleRate float64 `json:"sample_rate"`
}
