// Portalgate - Multi-Tenant Portal Authorization Service
// Copyright 2026 Campus Works
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/campusworks/portalgate

package auth

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/campusworks/portalgate/internal/logging"
)

// ErrLockoutNotFound is returned when a lockout entry doesn't exist.
var ErrLockoutNotFound = errors.New("lockout entry not found")

// LockoutConfig holds configuration for the login lockout system.
type LockoutConfig struct {
	// MaxAttempts is the number of failed attempts before lockout.
	MaxAttempts int `json:"max_attempts"`

	// LockoutDuration is the base lockout period.
	LockoutDuration time.Duration `json:"lockout_duration"`

	// EnableExponentialBackoff doubles the lockout period on each
	// subsequent lockout.
	EnableExponentialBackoff bool `json:"enable_exponential_backoff"`

	// MaxLockoutDuration caps the lockout period.
	MaxLockoutDuration time.Duration `json:"max_lockout_duration"`

	// CleanupInterval is how often to run expired lockout cleanup.
	CleanupInterval time.Duration `json:"cleanup_interval"`

	// Enabled controls whether lockout is active.
	Enabled bool `json:"enabled"`
}

// DefaultLockoutConfig returns sensible defaults.
func DefaultLockoutConfig() *LockoutConfig {
	return &LockoutConfig{
		MaxAttempts:              5,
		LockoutDuration:          15 * time.Minute,
		EnableExponentialBackoff: true,
		MaxLockoutDuration:       24 * time.Hour,
		CleanupInterval:          5 * time.Minute,
		Enabled:                  true,
	}
}

// LockoutEntry tracks failed login attempts for a username.
type LockoutEntry struct {
	Subject        string    `json:"subject"`
	FailedAttempts int       `json:"failed_attempts"`
	LastAttempt    time.Time `json:"last_attempt"`
	LockoutCount   int       `json:"lockout_count"`
	LockedUntil    time.Time `json:"locked_until"`
	LastFailedIP   string    `json:"last_failed_ip,omitempty"`
}

// IsLocked returns true if the entry is currently locked out.
func (e *LockoutEntry) IsLocked() bool {
	return time.Now().Before(e.LockedUntil)
}

// LockoutStore defines the interface for lockout state persistence.
type LockoutStore interface {
	GetEntry(ctx context.Context, subject string) (*LockoutEntry, error)
	SaveEntry(ctx context.Context, entry *LockoutEntry) error
	DeleteEntry(ctx context.Context, subject string) error
	CleanupExpired(ctx context.Context) (int, error)
}

// LockoutManager throttles repeated failed logins per username.
type LockoutManager struct {
	config *LockoutConfig
	store  LockoutStore
	mu     sync.RWMutex
}

// NewLockoutManager creates a new lockout manager.
func NewLockoutManager(store LockoutStore, config *LockoutConfig) *LockoutManager {
	if config == nil {
		config = DefaultLockoutConfig()
	}
	return &LockoutManager{config: config, store: store}
}

// CheckLocked returns whether the subject is currently locked out and
// the time remaining if so.
func (m *LockoutManager) CheckLocked(ctx context.Context, subject string) (bool, time.Duration, error) {
	m.mu.RLock()
	enabled := m.config.Enabled
	m.mu.RUnlock()

	if !enabled {
		return false, 0, nil
	}

	entry, err := m.store.GetEntry(ctx, subject)
	if err != nil {
		if errors.Is(err, ErrLockoutNotFound) {
			return false, 0, nil
		}
		return false, 0, fmt.Errorf("check lockout: %w", err)
	}

	if !entry.IsLocked() {
		return false, 0, nil
	}
	return true, time.Until(entry.LockedUntil), nil
}

// RecordFailedAttempt records a failed login attempt and returns
// whether the account is now locked.
func (m *LockoutManager) RecordFailedAttempt(ctx context.Context, username, ip string) (locked bool, remaining time.Duration, err error) {
	m.mu.RLock()
	config := *m.config
	m.mu.RUnlock()

	if !config.Enabled {
		return false, 0, nil
	}

	entry, err := m.getOrCreateEntry(ctx, username)
	if err != nil {
		return false, 0, fmt.Errorf("get entry: %w", err)
	}

	if entry.IsLocked() {
		return true, time.Until(entry.LockedUntil), nil
	}

	now := time.Now()
	entry.FailedAttempts++
	entry.LastAttempt = now
	entry.LastFailedIP = ip

	if entry.FailedAttempts < config.MaxAttempts {
		if err := m.store.SaveEntry(ctx, entry); err != nil {
			return false, 0, fmt.Errorf("save entry: %w", err)
		}
		return false, 0, nil
	}

	duration := calculateLockoutDuration(&config, entry.LockoutCount)
	entry.LockedUntil = now.Add(duration)
	entry.LockoutCount++
	entry.FailedAttempts = 0

	logging.Warn().
		Str("subject", entry.Subject).
		Dur("duration", duration).
		Int("lockout_count", entry.LockoutCount).
		Msg("Account locked")

	if err := m.store.SaveEntry(ctx, entry); err != nil {
		return false, 0, fmt.Errorf("save locked entry: %w", err)
	}
	return true, duration, nil
}

// calculateLockoutDuration computes the lockout duration with optional
// exponential backoff.
func calculateLockoutDuration(config *LockoutConfig, lockoutCount int) time.Duration {
	duration := config.LockoutDuration
	if !config.EnableExponentialBackoff || lockoutCount == 0 {
		return duration
	}

	multiplier := 1 << lockoutCount
	duration = time.Duration(int64(duration) * int64(multiplier))
	if duration > config.MaxLockoutDuration {
		return config.MaxLockoutDuration
	}
	return duration
}

func (m *LockoutManager) getOrCreateEntry(ctx context.Context, subject string) (*LockoutEntry, error) {
	entry, err := m.store.GetEntry(ctx, subject)
	if err != nil && !errors.Is(err, ErrLockoutNotFound) {
		return nil, err
	}
	if entry == nil {
		entry = &LockoutEntry{Subject: subject}
	}
	return entry, nil
}

// RecordSuccessfulLogin clears the lockout state for a subject.
func (m *LockoutManager) RecordSuccessfulLogin(ctx context.Context, username string) error {
	m.mu.RLock()
	enabled := m.config.Enabled
	m.mu.RUnlock()

	if !enabled {
		return nil
	}

	if err := m.store.DeleteEntry(ctx, username); err != nil && !errors.Is(err, ErrLockoutNotFound) {
		return fmt.Errorf("clear lockout: %w", err)
	}
	return nil
}

// ClearLockout manually clears a lockout (admin action).
func (m *LockoutManager) ClearLockout(ctx context.Context, subject string) error {
	if err := m.store.DeleteEntry(ctx, subject); err != nil && !errors.Is(err, ErrLockoutNotFound) {
		return fmt.Errorf("clear lockout: %w", err)
	}
	logging.Info().Str("subject", subject).Msg("Manually cleared lockout")
	return nil
}

// StartCleanupRoutine starts a background routine to clean up expired
// entries until the context is canceled.
func (m *LockoutManager) StartCleanupRoutine(ctx context.Context) {
	m.mu.RLock()
	interval := m.config.CleanupInterval
	m.mu.RUnlock()

	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				count, err := m.store.CleanupExpired(ctx)
				if err != nil {
					logging.Error().Err(err).Msg("Lockout cleanup error")
					continue
				}
				if count > 0 {
					logging.Info().Int("count", count).Msg("Cleaned up expired lockout entries")
				}
			}
		}
	}()
}

// MemoryLockoutStore implements LockoutStore using in-memory storage.
type MemoryLockoutStore struct {
	entries map[string]*LockoutEntry
	mu      sync.RWMutex
}

// NewMemoryLockoutStore creates a new in-memory lockout store.
func NewMemoryLockoutStore() *MemoryLockoutStore {
	return &MemoryLockoutStore{entries: make(map[string]*LockoutEntry)}
}

// GetEntry retrieves a lockout entry.
func (s *MemoryLockoutStore) GetEntry(_ context.Context, subject string) (*LockoutEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, ok := s.entries[subject]
	if !ok {
		return nil, ErrLockoutNotFound
	}
	clone := *entry
	return &clone, nil
}

// SaveEntry persists a lockout entry.
func (s *MemoryLockoutStore) SaveEntry(_ context.Context, entry *LockoutEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	clone := *entry
	s.entries[entry.Subject] = &clone
	return nil
}

// DeleteEntry removes a lockout entry.
func (s *MemoryLockoutStore) DeleteEntry(_ context.Context, subject string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.entries[subject]; !ok {
		return ErrLockoutNotFound
	}
	delete(s.entries, subject)
	return nil
}

// CleanupExpired removes entries that are unlocked and stale.
func (s *MemoryLockoutStore) CleanupExpired(_ context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Keep entries for 24h after their last attempt.
	threshold := time.Now().Add(-24 * time.Hour)
	count := 0
	for subject, entry := range s.entries {
		if !entry.IsLocked() && entry.LastAttempt.Before(threshold) {
			delete(s.entries, subject)
			count++
		}
	}
	return count, nil
}
