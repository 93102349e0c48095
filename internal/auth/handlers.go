// Portalgate - Multi-Tenant Portal Authorization Service
// Copyright 2026 Campus Works
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/campusworks/portalgate

package auth

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"

	"github.com/campusworks/portalgate/internal/logging"
)

// Handlers exposes the authentication HTTP surface: login, refresh,
// logout, logout-all, and the current-principal endpoint.
type Handlers struct {
	jwt      *JWTManager
	sessions SessionStore
	users    UserStore
	lockout  *LockoutManager
	secLog   *logging.SecurityLogger
	validate *validator.Validate
}

// NewHandlers creates the auth handlers. lockout may be nil to disable
// login throttling.
func NewHandlers(jwt *JWTManager, sessions SessionStore, users UserStore, lockout *LockoutManager) *Handlers {
	return &Handlers{
		jwt:      jwt,
		sessions: sessions,
		users:    users,
		lockout:  lockout,
		secLog:   logging.NewSecurityLogger(),
		validate: validator.New(),
	}
}

type loginRequest struct {
	Username string `json:"username" validate:"required,min=1,max=128"`
	Password string `json:"password" validate:"required,min=1,max=512"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

type tokenResponse struct {
	AccessToken  string     `json:"access_token"`
	RefreshToken string     `json:"refresh_token"`
	TokenType    string     `json:"token_type"`
	ExpiresIn    int        `json:"expires_in"`
	User         *Principal `json:"user"`
}

// Login handles POST /api/v1/auth/login. On success it creates an
// access and a refresh session and returns both tokens.
func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAuthError(w, http.StatusBadRequest, CodeInvalidRequest, "invalid request body")
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		writeAuthError(w, http.StatusBadRequest, CodeInvalidRequest, "username and password are required")
		return
	}

	ctx := r.Context()
	ip := clientIP(r)

	if h.lockout != nil {
		locked, remaining, err := h.lockout.CheckLocked(ctx, req.Username)
		if err != nil {
			logging.CtxErr(ctx, err).Msg("Lockout check failed")
		}
		if locked {
			h.secLog.LogAccountLocked(req.Username, ip)
			writeLockedError(w, remaining)
			return
		}
	}

	user, err := h.users.GetByUsername(ctx, req.Username)
	if err != nil {
		// Burn a bcrypt comparison so the response time matches the
		// known-user path.
		CheckPassword(dummyHash, req.Password)
		h.failLogin(ctx, w, req.Username, ip, "unknown user")
		return
	}

	if !CheckPassword(user.PasswordHash, req.Password) {
		h.failLogin(ctx, w, req.Username, ip, "wrong password")
		return
	}

	if h.lockout != nil {
		if err := h.lockout.RecordSuccessfulLogin(ctx, req.Username); err != nil {
			logging.CtxErr(ctx, err).Msg("Failed to clear lockout state")
		}
	}

	resp, err := h.issueTokens(ctx, user)
	if err != nil {
		logging.CtxErr(ctx, err).Msg("Token issuance failed")
		writeAuthError(w, http.StatusInternalServerError, CodeInternal, "could not complete login")
		return
	}

	h.secLog.LogLoginSuccess(user.ID, user.Username, ip)
	writeAuthJSON(w, http.StatusOK, resp)
}

// failLogin records the failed attempt and writes the denial. The
// response is identical for unknown users and wrong passwords.
func (h *Handlers) failLogin(ctx context.Context, w http.ResponseWriter, username, ip, reason string) {
	h.secLog.LogLoginFailure(username, ip, reason)

	if h.lockout != nil {
		locked, remaining, err := h.lockout.RecordFailedAttempt(ctx, username, ip)
		if err != nil {
			logging.CtxErr(ctx, err).Msg("Failed to record login attempt")
		}
		if locked {
			h.secLog.LogAccountLocked(username, ip)
			writeLockedError(w, remaining)
			return
		}
	}

	writeAuthError(w, http.StatusUnauthorized, CodeTokenVerificationFailed, "invalid username or password")
}

// issueTokens creates an access and refresh session pair and signs
// tokens against them.
func (h *Handlers) issueTokens(ctx context.Context, user *User) (*tokenResponse, error) {
	p := user.Principal()
	now := time.Now()

	accessID, err := NewSessionID()
	if err != nil {
		return nil, err
	}
	refreshID, err := NewSessionID()
	if err != nil {
		return nil, err
	}

	accessSession := &Session{
		ID:        accessID,
		UserID:    user.ID,
		Role:      user.Role,
		RegionID:  user.RegionID,
		Kind:      TokenAccess,
		CreatedAt: now,
		ExpiresAt: now.Add(h.jwt.AccessTTL()),
	}
	refreshSession := &Session{
		ID:        refreshID,
		UserID:    user.ID,
		Role:      user.Role,
		RegionID:  user.RegionID,
		Kind:      TokenRefresh,
		CreatedAt: now,
		ExpiresAt: now.Add(h.jwt.RefreshTTL()),
	}

	if err := h.sessions.Create(ctx, accessSession); err != nil {
		return nil, fmt.Errorf("create access session: %w", err)
	}
	if err := h.sessions.Create(ctx, refreshSession); err != nil {
		return nil, fmt.Errorf("create refresh session: %w", err)
	}

	accessToken, err := h.jwt.Generate(p, TokenAccess, accessID)
	if err != nil {
		return nil, err
	}
	refreshToken, err := h.jwt.Generate(p, TokenRefresh, refreshID)
	if err != nil {
		return nil, err
	}

	h.secLog.LogSessionCreated(user.ID, accessID, "")

	p.SessionID = accessID
	return &tokenResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "Bearer",
		ExpiresIn:    int(h.jwt.AccessTTL().Seconds()),
		User:         p,
	}, nil
}

// Refresh handles POST /api/v1/auth/refresh. The refresh token is
// single-use: its session is revoked and a fresh pair is issued.
func (h *Handlers) Refresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAuthError(w, http.StatusBadRequest, CodeInvalidRequest, "invalid request body")
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		writeAuthError(w, http.StatusBadRequest, CodeInvalidRequest, "refresh_token is required")
		return
	}

	ctx := r.Context()

	claims, err := h.jwt.Verify(req.RefreshToken)
	if err != nil || claims.Kind != TokenRefresh {
		h.secLog.LogTokenRefresh("", "", false, "verification failed")
		writeAuthError(w, http.StatusUnauthorized, CodeTokenVerificationFailed, "invalid refresh token")
		return
	}

	if _, err := h.sessions.IsValid(ctx, claims.SessionID); err != nil {
		h.secLog.LogTokenRefresh(claims.Subject, claims.SessionID, false, "session not live")
		writeAuthError(w, http.StatusUnauthorized, CodeTokenVerificationFailed, "invalid refresh token")
		return
	}

	// The user record is re-read so role or region changes take effect
	// on rotation rather than living until the refresh token expires.
	user, err := h.users.GetByID(ctx, claims.Subject)
	if err != nil {
		h.secLog.LogTokenRefresh(claims.Subject, claims.SessionID, false, "user lookup failed")
		writeAuthError(w, http.StatusUnauthorized, CodeTokenVerificationFailed, "invalid refresh token")
		return
	}

	if err := h.sessions.Revoke(ctx, claims.SessionID); err != nil && !errors.Is(err, ErrSessionNotFound) {
		logging.CtxErr(ctx, err).Msg("Failed to revoke rotated refresh session")
	}

	resp, err := h.issueTokens(ctx, user)
	if err != nil {
		logging.CtxErr(ctx, err).Msg("Token issuance failed")
		writeAuthError(w, http.StatusInternalServerError, CodeInternal, "could not refresh session")
		return
	}

	h.secLog.LogTokenRefresh(user.ID, claims.SessionID, true, "")
	writeAuthJSON(w, http.StatusOK, resp)
}

// Logout handles POST /api/v1/auth/logout. Revokes the session behind
// the presented credential. Requires authentication.
func (h *Handlers) Logout(w http.ResponseWriter, r *http.Request) {
	p := PrincipalFromContext(r.Context())
	if p == nil {
		writeAuthError(w, http.StatusUnauthorized, CodeNoToken, "authentication required")
		return
	}

	if p.SessionID != "" {
		if err := h.sessions.Revoke(r.Context(), p.SessionID); err != nil && !errors.Is(err, ErrSessionNotFound) {
			logging.CtxErr(r.Context(), err).Msg("Failed to revoke session")
			writeAuthError(w, http.StatusInternalServerError, CodeInternal, "could not revoke session")
			return
		}
	}

	h.secLog.LogLogout(p.ID, p.SessionID, clientIP(r))
	writeAuthJSON(w, http.StatusOK, map[string]string{"status": "logged_out"})
}

// LogoutAll handles POST /api/v1/auth/logout-all. Revokes every live
// session of the authenticated user, access and refresh alike. Admins
// may revoke another user's sessions via the user_id query parameter.
func (h *Handlers) LogoutAll(w http.ResponseWriter, r *http.Request) {
	p := PrincipalFromContext(r.Context())
	if p == nil {
		writeAuthError(w, http.StatusUnauthorized, CodeNoToken, "authentication required")
		return
	}

	target := p.ID
	if requested := r.URL.Query().Get("user_id"); requested != "" && requested != p.ID {
		if !p.IsAdmin() {
			writeAuthError(w, http.StatusForbidden, CodeInsufficientPermissions, "insufficient role")
			return
		}
		target = requested
	}

	count, err := h.sessions.RevokeAllForUser(r.Context(), target)
	if err != nil {
		logging.CtxErr(r.Context(), err).Msg("Failed to revoke user sessions")
		writeAuthError(w, http.StatusInternalServerError, CodeInternal, "could not revoke sessions")
		return
	}

	h.secLog.LogLogoutAll(target, clientIP(r), count)
	writeAuthJSON(w, http.StatusOK, map[string]interface{}{
		"status":           "logged_out",
		"user_id":          target,
		"sessions_revoked": count,
	})
}

// Me handles GET /api/v1/auth/me. Returns the resolved principal.
func (h *Handlers) Me(w http.ResponseWriter, r *http.Request) {
	p := PrincipalFromContext(r.Context())
	if p == nil {
		writeAuthError(w, http.StatusUnauthorized, CodeNoToken, "authentication required")
		return
	}
	writeAuthJSON(w, http.StatusOK, p)
}

// clientIP extracts the remote IP, without the port.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func writeAuthJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Error().Err(err).Msg("Error encoding auth response")
	}
}

// writeLockedError writes the lockout denial with a Retry-After hint.
func writeLockedError(w http.ResponseWriter, remaining time.Duration) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Retry-After", fmt.Sprintf("%d", int(remaining.Seconds())))
	w.WriteHeader(http.StatusTooManyRequests)

	if err := json.NewEncoder(w).Encode(map[string]interface{}{
		"error":            CodeAccountLocked,
		"message":          fmt.Sprintf("too many failed attempts, try again in %v", remaining.Round(time.Second)),
		"retry_after_secs": int(remaining.Seconds()),
	}); err != nil {
		logging.Error().Err(err).Msg("Error encoding lockout response")
	}
}
