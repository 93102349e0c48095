// Portalgate - Multi-Tenant Portal Authorization Service
// Copyright 2026 Campus Works
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/campusworks/portalgate

package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
)

const (
	sessionKeyPrefix     = "session:"
	sessionUserKeyPrefix = "session_user:"
)

// BadgerSessionStore persists sessions in an embedded Badger database
// so revocations survive restarts. Keys:
//
//	session:<id>              -> JSON-encoded Session
//	session_user:<uid>:<id>   -> empty value, index for RevokeAllForUser
//
// Badger's own TTL removes records some time after session expiry;
// CleanupExpired exists for the store interface and reports zero
// because expiry reclamation is delegated to the engine.
type BadgerSessionStore struct {
	db     *badger.DB
	logger zerolog.Logger
}

// NewBadgerSessionStore opens (or creates) a Badger database at path.
func NewBadgerSessionStore(path string, logger zerolog.Logger) (*BadgerSessionStore, error) {
	opts := badger.DefaultOptions(path).
		WithLogger(nil).
		WithNumVersionsToKeep(1).
		WithCompactL0OnClose(true)

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open session database: %w", err)
	}

	return &BadgerSessionStore{
		db:     db,
		logger: logger.With().Str("component", "session_store").Logger(),
	}, nil
}

func sessionKey(id string) []byte {
	return []byte(sessionKeyPrefix + id)
}

func sessionUserKey(userID, id string) []byte {
	return []byte(sessionUserKeyPrefix + userID + ":" + id)
}

// Create persists a new session with a TTL slightly past its expiry.
func (s *BadgerSessionStore) Create(_ context.Context, session *Session) error {
	if session == nil || session.ID == "" {
		return fmt.Errorf("session id is required")
	}

	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}

	// Keep the record around for an hour past expiry so IsValid can
	// distinguish "expired" from "never existed".
	ttl := time.Until(session.ExpiresAt) + time.Hour
	if ttl < time.Hour {
		ttl = time.Hour
	}

	return s.db.Update(func(txn *badger.Txn) error {
		entry := badger.NewEntry(sessionKey(session.ID), data).WithTTL(ttl)
		if err := txn.SetEntry(entry); err != nil {
			return err
		}
		index := badger.NewEntry(sessionUserKey(session.UserID, session.ID), nil).WithTTL(ttl)
		return txn.SetEntry(index)
	})
}

// Get returns the session by id.
func (s *BadgerSessionStore) Get(_ context.Context, id string) (*Session, error) {
	var session Session
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(sessionKey(id))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &session)
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read session: %w", err)
	}
	return &session, nil
}

// Revoke marks the session revoked. Idempotent for live sessions.
func (s *BadgerSessionStore) Revoke(_ context.Context, id string) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		item, err := txn.Get(sessionKey(id))
		if err != nil {
			return err
		}

		var session Session
		if err := item.Value(func(val []byte) error {
			return json.Unmarshal(val, &session)
		}); err != nil {
			return err
		}
		if session.RevokedAt != nil {
			return nil
		}

		now := time.Now()
		session.RevokedAt = &now
		data, err := json.Marshal(&session)
		if err != nil {
			return err
		}

		entry := badger.NewEntry(sessionKey(id), data)
		if ttl := item.ExpiresAt(); ttl > 0 {
			remaining := time.Until(time.Unix(int64(ttl), 0))
			if remaining > 0 {
				entry = entry.WithTTL(remaining)
			}
		}
		return txn.SetEntry(entry)
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return ErrSessionNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to revoke session: %w", err)
	}
	return nil
}

// RevokeAllForUser revokes every live session of a user by walking the
// user index prefix.
func (s *BadgerSessionStore) RevokeAllForUser(ctx context.Context, userID string) (int, error) {
	prefix := []byte(sessionUserKeyPrefix + userID + ":")
	var ids []string

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			key := string(it.Item().Key())
			ids = append(ids, key[len(prefix):])
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("failed to list user sessions: %w", err)
	}

	revoked := 0
	for _, id := range ids {
		session, err := s.Get(ctx, id)
		if errors.Is(err, ErrSessionNotFound) {
			continue
		}
		if err != nil {
			return revoked, err
		}
		if session.Revoked() {
			continue
		}
		if err := s.Revoke(ctx, id); err != nil && !errors.Is(err, ErrSessionNotFound) {
			return revoked, err
		}
		revoked++
	}

	s.logger.Info().
		Str("user_id", userID).
		Int("revoked", revoked).
		Msg("Revoked all sessions for user")
	return revoked, nil
}

// IsValid reports whether the session is live.
func (s *BadgerSessionStore) IsValid(ctx context.Context, id string) (bool, error) {
	session, err := s.Get(ctx, id)
	if err != nil {
		return false, err
	}
	if session.Revoked() {
		return false, ErrSessionRevoked
	}
	if session.Expired(time.Now()) {
		return false, ErrSessionExpired
	}
	return true, nil
}

// CleanupExpired triggers a value-log garbage collection pass. Expired
// records are already unreadable through their Badger TTL, so this
// reclaims space rather than deleting keys.
func (s *BadgerSessionStore) CleanupExpired(_ context.Context) (int, error) {
	err := s.db.RunValueLogGC(0.5)
	if err != nil && !errors.Is(err, badger.ErrNoRewrite) {
		return 0, fmt.Errorf("value log gc failed: %w", err)
	}
	return 0, nil
}

// Close closes the underlying database.
func (s *BadgerSessionStore) Close() error {
	return s.db.Close()
}
