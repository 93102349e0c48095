// Portalgate - Multi-Tenant Portal Authorization Service
// Copyright 2026 Campus Works
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/campusworks/portalgate

package logging

import (
	"strconv"
	"strings"

	"github.com/rs/zerolog"
)

// SecurityEvent represents a security-relevant event for the auth log.
type SecurityEvent struct {
	// Event is the type of event (login_success, logout, token_refresh, ...).
	Event string
	// UserID is the user's identifier, if known.
	UserID string
	// Username is the login name, if known.
	Username string
	// SessionID is the session identifier (sanitized before output).
	SessionID string
	// IPAddress is the client's IP address.
	IPAddress string
	// Success indicates whether the operation succeeded.
	Success bool
	// Error is the failure message, logged only on failure.
	Error string
	// Details contains additional sanitized fields.
	Details map[string]string
}

// SecurityLogger logs authentication events with identifiers masked so
// that a leaked log file does not leak credentials or full session IDs.
type SecurityLogger struct {
	logger zerolog.Logger
}

// NewSecurityLogger creates a security logger on the global logger.
func NewSecurityLogger() *SecurityLogger {
	return &SecurityLogger{
		logger: With().Str("component", "auth").Logger(),
	}
}

// NewSecurityLoggerWithLogger creates a security logger on a custom logger.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func NewSecurityLoggerWithLogger(logger zerolog.Logger) *SecurityLogger {
	return &SecurityLogger{
		logger: logger.With().Str("component", "auth").Logger(),
	}
}

// LogEvent logs a security event with automatic sanitization.
func (l *SecurityLogger) LogEvent(event *SecurityEvent) {
	e := l.logger.Info().Str("event", event.Event)

	if event.Success {
		e = e.Str("status", "success")
	} else {
		e = e.Str("status", "failed")
	}
	if event.UserID != "" {
		e = e.Str("user_id", SanitizeUserID(event.UserID))
	}
	if event.Username != "" {
		e = e.Str("username", SanitizeUsername(event.Username))
	}
	if event.SessionID != "" {
		e = e.Str("session_id", SanitizeSessionID(event.SessionID))
	}
	if event.IPAddress != "" {
		e = e.Str("ip", event.IPAddress)
	}
	if event.Error != "" && !event.Success {
		e = e.Str("error", SanitizeError(event.Error))
	}
	for k, v := range event.Details {
		e = e.Str(k, v)
	}

	e.Msg("")
}

// LogLoginSuccess logs a successful login.
func (l *SecurityLogger) LogLoginSuccess(userID, username, ip string) {
	l.LogEvent(&SecurityEvent{
		Event:     "login_success",
		UserID:    userID,
		Username:  username,
		IPAddress: ip,
		Success:   true,
	})
}

// LogLoginFailure logs a failed login.
func (l *SecurityLogger) LogLoginFailure(username, ip, reason string) {
	l.LogEvent(&SecurityEvent{
		Event:     "login_failed",
		Username:  username,
		IPAddress: ip,
		Success:   false,
		Error:     reason,
	})
}

// LogLogout logs a logout.
func (l *SecurityLogger) LogLogout(userID, sessionID, ip string) {
	l.LogEvent(&SecurityEvent{
		Event:     "logout",
		UserID:    userID,
		SessionID: sessionID,
		IPAddress: ip,
		Success:   true,
	})
}

// LogLogoutAll logs a logout-all with the number of revoked sessions.
func (l *SecurityLogger) LogLogoutAll(userID, ip string, sessionCount int) {
	l.LogEvent(&SecurityEvent{
		Event:     "logout_all",
		UserID:    userID,
		IPAddress: ip,
		Success:   true,
		Details: map[string]string{
			"sessions_revoked": strconv.Itoa(sessionCount),
		},
	})
}

// LogTokenRefresh logs a token refresh.
func (l *SecurityLogger) LogTokenRefresh(userID, sessionID string, success bool, errMsg string) {
	l.LogEvent(&SecurityEvent{
		Event:     "token_refresh",
		UserID:    userID,
		SessionID: sessionID,
		Success:   success,
		Error:     errMsg,
	})
}

// LogSessionCreated logs a session creation.
func (l *SecurityLogger) LogSessionCreated(userID, sessionID, ip string) {
	l.LogEvent(&SecurityEvent{
		Event:     "session_created",
		UserID:    userID,
		SessionID: sessionID,
		IPAddress: ip,
		Success:   true,
	})
}

// LogAccountLocked logs a login lockout.
func (l *SecurityLogger) LogAccountLocked(username, ip string) {
	l.LogEvent(&SecurityEvent{
		Event:     "account_locked",
		Username:  username,
		IPAddress: ip,
		Success:   false,
	})
}

// SanitizeToken masks a token, showing only first and last 4 characters.
func SanitizeToken(token string) string {
	if token == "" {
		return ""
	}
	if len(token) <= 12 {
		return "***"
	}
	return token[:4] + "..." + token[len(token)-4:]
}

// SanitizeSessionID masks a session ID.
func SanitizeSessionID(sessionID string) string {
	return SanitizeToken(sessionID)
}

// SanitizeUserID masks a user ID.
func SanitizeUserID(userID string) string {
	if userID == "" {
		return ""
	}
	if len(userID) <= 8 {
		return "***"
	}
	return userID[:4] + "..." + userID[len(userID)-4:]
}

// SanitizeUsername masks a username, keeping the first 2 characters.
func SanitizeUsername(username string) string {
	if username == "" {
		return ""
	}
	if len(username) <= 2 {
		return "***"
	}
	return username[:2] + "***"
}

// SanitizeError replaces error messages that may embed credentials
// with a generic message, and truncates the rest.
func SanitizeError(err string) string {
	sensitive := []string{"password", "secret", "token", "key", "bearer", "authorization", "cookie"}

	lowerErr := strings.ToLower(err)
	for _, pattern := range sensitive {
		if strings.Contains(lowerErr, pattern) {
			return "authentication error"
		}
	}

	if len(err) > 200 {
		return err[:200] + "..."
	}
	return err
}
