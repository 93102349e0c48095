// Portalgate - Multi-Tenant Portal Authorization Service
// Copyright 2026 Campus Works
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/campusworks/portalgate

package authz

import (
	"net/http"

	"github.com/goccy/go-json"
)

// Handlers exposes admin-only inspection endpoints for the route
// policy layer. Mutation stays in the policy file; these endpoints are
// read-only so a policy change always goes through review.
type Handlers struct {
	enforcer *Enforcer
	audit    *AuditLogger
}

// NewHandlers creates policy inspection handlers.
func NewHandlers(enforcer *Enforcer, audit *AuditLogger) *Handlers {
	return &Handlers{enforcer: enforcer, audit: audit}
}

// policyResponse is the payload for GET /authz/policies.
type policyResponse struct {
	Policies  [][]string `json:"policies"`
	Hierarchy [][]string `json:"hierarchy"`
}

// ListPolicies returns all route policy rules and the generated role
// inheritance chain.
func (h *Handlers) ListPolicies(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, policyResponse{
		Policies:  h.enforcer.GetPolicy(),
		Hierarchy: h.enforcer.GetGroupingPolicy(),
	})
}

// ReloadPolicies reloads policies from the configured policy file.
func (h *Handlers) ReloadPolicies(w http.ResponseWriter, r *http.Request) {
	if err := h.enforcer.LoadPolicy(); err != nil {
		writeDenial(w, http.StatusInternalServerError, "INTERNAL", "policy reload failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "reloaded"})
}

// AuditStats returns audit logger statistics.
func (h *Handlers) AuditStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.audit.Stats())
}

// writeJSON writes a JSON response body.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	//nolint:errcheck // nothing useful to do if the response write fails
	json.NewEncoder(w).Encode(v)
}
