// Portalgate - Multi-Tenant Portal Authorization Service
// Copyright 2026 Campus Works
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/campusworks/portalgate

package authz

import (
	"context"

	"github.com/campusworks/portalgate/internal/auth"
)

// InstrumentedSessionStore decorates a session store with the session
// operation counters and the active sessions gauge. The gauge counts
// net creations minus revocations and cleanup; it drifts only if the
// process restarts against a persistent store, and corrects as
// sessions cycle.
type InstrumentedSessionStore struct {
	inner auth.SessionStore
}

// InstrumentSessions wraps a session store with metrics recording.
func InstrumentSessions(inner auth.SessionStore) *InstrumentedSessionStore {
	return &InstrumentedSessionStore{inner: inner}
}

func (s *InstrumentedSessionStore) Create(ctx context.Context, session *auth.Session) error {
	err := s.inner.Create(ctx, session)
	if err == nil {
		RecordSessionOp("create")
		ActiveSessions.Inc()
	}
	return err
}

func (s *InstrumentedSessionStore) Get(ctx context.Context, id string) (*auth.Session, error) {
	RecordSessionOp("get")
	return s.inner.Get(ctx, id)
}

func (s *InstrumentedSessionStore) Revoke(ctx context.Context, id string) error {
	err := s.inner.Revoke(ctx, id)
	if err == nil {
		RecordSessionOp("revoke")
		ActiveSessions.Dec()
	}
	return err
}

func (s *InstrumentedSessionStore) RevokeAllForUser(ctx context.Context, userID string) (int, error) {
	count, err := s.inner.RevokeAllForUser(ctx, userID)
	if err == nil && count > 0 {
		RecordSessionOp("revoke_all")
		ActiveSessions.Sub(float64(count))
	}
	return count, err
}

func (s *InstrumentedSessionStore) IsValid(ctx context.Context, id string) (bool, error) {
	RecordSessionOp("validate")
	return s.inner.IsValid(ctx, id)
}

func (s *InstrumentedSessionStore) CleanupExpired(ctx context.Context) (int, error) {
	count, err := s.inner.CleanupExpired(ctx)
	if err == nil && count > 0 {
		RecordSessionOp("cleanup")
		ActiveSessions.Sub(float64(count))
	}
	return count, err
}

func (s *InstrumentedSessionStore) Close() error {
	return s.inner.Close()
}
