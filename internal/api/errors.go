// Portalgate - Multi-Tenant Portal Authorization Service
// Copyright 2026 Campus Works
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/campusworks/portalgate

package api

import (
	"errors"
	"net/http"

	"github.com/goccy/go-json"

	"github.com/campusworks/portalgate/internal/authz"
	"github.com/campusworks/portalgate/internal/logging"
)

// ErrResourceNotFound is returned by the repository for unknown ids.
// Handlers also answer it for resources the caller may not see, so a
// 404 never confirms existence.
var ErrResourceNotFound = errors.New("resource not found")

// Enrollment conflicts are detected inside the repository, under its
// lock, so two racing requests cannot both report success.
var (
	ErrAlreadyEnrolled = errors.New("already enrolled")
	ErrNotEnrolled     = errors.New("not enrolled")
)

// API error codes carried in the "error" field of denial payloads.
const (
	CodeNotFound        = "NOT_FOUND"
	CodeForbidden       = "FORBIDDEN"
	CodeInvalidRequest  = "INVALID_REQUEST"
	CodeInvalidState    = "INVALID_STATE"
	CodeAlreadyEnrolled = "ALREADY_ENROLLED"
	CodeNotEnrolled     = "NOT_ENROLLED"
	CodeInternal        = "INTERNAL"
)

// ErrorResponse is the JSON error payload.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// WriteError writes the structured error payload.
func WriteError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(ErrorResponse{Error: code, Message: message}); err != nil {
		logging.Error().Err(err).Msg("Error encoding error response")
	}
}

// WriteJSON writes a JSON response body.
func WriteJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Error().Err(err).Msg("Error encoding response")
	}
}

// writeNotFound answers as if the resource does not exist.
func writeNotFound(w http.ResponseWriter) {
	WriteError(w, http.StatusNotFound, CodeNotFound, "resource not found")
}

// writeDenial maps an engine decision to the HTTP error surface.
// Invisibility becomes a 404 so denied callers cannot probe for
// existence; denials on resources the caller can see become 403 or
// 409 depending on the reason.
func writeDenial(w http.ResponseWriter, d authz.Decision) {
	switch d.Reason {
	case authz.ReasonNotVisible, authz.ReasonNotPublished:
		writeNotFound(w)
	case authz.ReasonInvalidState:
		WriteError(w, http.StatusConflict, CodeInvalidState, "operation not valid in the resource's current state")
	case authz.ReasonAlreadyEnrolled:
		WriteError(w, http.StatusConflict, CodeAlreadyEnrolled, "already enrolled")
	case authz.ReasonNotEnrolled:
		WriteError(w, http.StatusConflict, CodeNotEnrolled, "not enrolled")
	default:
		WriteError(w, http.StatusForbidden, CodeForbidden, "operation not permitted")
	}
}
