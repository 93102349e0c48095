// Portalgate - Multi-Tenant Portal Authorization Service
// Copyright 2026 Campus Works
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/campusworks/portalgate

package api

import (
	"errors"
	"net/http"
	"slices"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"

	"github.com/campusworks/portalgate/internal/auth"
	"github.com/campusworks/portalgate/internal/authz"
	"github.com/campusworks/portalgate/internal/logging"
	"github.com/campusworks/portalgate/internal/rbac"
)

// Handlers serves the portal resource API. Every operation consults
// the authorization service; handlers never reimplement access rules.
type Handlers struct {
	repo     Repository
	authz    *authz.Service
	validate *validator.Validate
}

// NewHandlers creates the resource handlers.
func NewHandlers(repo Repository, authzSvc *authz.Service) *Handlers {
	return &Handlers{
		repo:     repo,
		authz:    authzSvc,
		validate: validator.New(),
	}
}

type resourceRequest struct {
	Title             string   `json:"title" validate:"required,max=256"`
	Description       string   `json:"description" validate:"max=4096"`
	Kind              string   `json:"kind" validate:"required,oneof=class committee project announcement"`
	Scope             string   `json:"scope" validate:"required,oneof=public region_based restricted"`
	VisibilityRegions []string `json:"visibility_regions"`
	AllowedRoles      []string `json:"allowed_roles" validate:"dive,oneof=owner secretariat company_admin student"`
	AllowedUsers      []string `json:"allowed_users"`
}

// List handles GET /api/v1/resources. The result contains only
// resources the caller may view; everything else is omitted rather
// than marked.
func (h *Handlers) List(w http.ResponseWriter, r *http.Request) {
	p := auth.PrincipalFromContext(r.Context())

	all, err := h.repo.List(r.Context())
	if err != nil {
		logging.CtxErr(r.Context(), err).Msg("Resource listing failed")
		WriteError(w, http.StatusInternalServerError, CodeInternal, "could not list resources")
		return
	}

	visible := make([]*Resource, 0, len(all))
	for _, res := range all {
		if d := h.authz.Evaluate(r.Context(), p, &res.Resource, authz.ActionView); d.Allowed {
			visible = append(visible, res)
		}
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"resources": visible,
		"total":     len(visible),
	})
}

// Get handles GET /api/v1/resources/{id}.
func (h *Handlers) Get(w http.ResponseWriter, r *http.Request) {
	p := auth.PrincipalFromContext(r.Context())

	res, ok := h.fetch(w, r)
	if !ok {
		return
	}
	if d := h.authz.Evaluate(r.Context(), p, &res.Resource, authz.ActionView); !d.Allowed {
		writeDenial(w, d)
		return
	}

	WriteJSON(w, http.StatusOK, res)
}

// Create handles POST /api/v1/resources. Creation requires
// company_admin or above; the route is additionally behind
// RequireRegion so a company_admin always has a home region here.
func (h *Handlers) Create(w http.ResponseWriter, r *http.Request) {
	p := auth.PrincipalFromContext(r.Context())
	if p == nil || !rbac.IsCompanyAdmin(p.Role) {
		WriteError(w, http.StatusForbidden, CodeForbidden, "insufficient role")
		return
	}

	req, ok := h.decodeResourceRequest(w, r)
	if !ok {
		return
	}

	res, err := h.resourceFromRequest(req, p)
	if err != nil {
		WriteError(w, http.StatusBadRequest, CodeInvalidRequest, err.Error())
		return
	}
	if err := h.repo.Create(r.Context(), res); err != nil {
		logging.CtxErr(r.Context(), err).Msg("Resource creation failed")
		WriteError(w, http.StatusInternalServerError, CodeInternal, "could not create resource")
		return
	}

	WriteJSON(w, http.StatusCreated, res)
}

// Update handles PUT /api/v1/resources/{id}.
func (h *Handlers) Update(w http.ResponseWriter, r *http.Request) {
	p := auth.PrincipalFromContext(r.Context())

	res, ok := h.fetch(w, r)
	if !ok {
		return
	}

	// Invisible resources 404 before the edit rule is even consulted,
	// so a denied editor learns nothing a viewer would not.
	if d := h.authz.Evaluate(r.Context(), p, &res.Resource, authz.ActionView); !d.Allowed {
		writeDenial(w, d)
		return
	}
	if d := h.authz.Evaluate(r.Context(), p, &res.Resource, authz.ActionEdit); !d.Allowed {
		writeDenial(w, d)
		return
	}

	req, ok := h.decodeResourceRequest(w, r)
	if !ok {
		return
	}

	updated, err := h.resourceFromRequest(req, p)
	if err != nil {
		WriteError(w, http.StatusBadRequest, CodeInvalidRequest, err.Error())
		return
	}
	updated.ID = res.ID
	updated.OwnerID = res.OwnerID
	updated.State = res.State
	if err := h.repo.Update(r.Context(), updated); err != nil {
		logging.CtxErr(r.Context(), err).Msg("Resource update failed")
		WriteError(w, http.StatusInternalServerError, CodeInternal, "could not update resource")
		return
	}

	stored, err := h.repo.Get(r.Context(), res.ID)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, CodeInternal, "could not update resource")
		return
	}
	WriteJSON(w, http.StatusOK, stored)
}

// Delete handles DELETE /api/v1/resources/{id}.
func (h *Handlers) Delete(w http.ResponseWriter, r *http.Request) {
	p := auth.PrincipalFromContext(r.Context())

	res, ok := h.fetch(w, r)
	if !ok {
		return
	}
	if d := h.authz.Evaluate(r.Context(), p, &res.Resource, authz.ActionView); !d.Allowed {
		writeDenial(w, d)
		return
	}
	if d := h.authz.Evaluate(r.Context(), p, &res.Resource, authz.ActionDelete); !d.Allowed {
		writeDenial(w, d)
		return
	}

	if err := h.repo.Delete(r.Context(), res.ID); err != nil {
		logging.CtxErr(r.Context(), err).Msg("Resource deletion failed")
		WriteError(w, http.StatusInternalServerError, CodeInternal, "could not delete resource")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Publish handles POST /api/v1/resources/{id}/publish.
func (h *Handlers) Publish(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, authz.StatePublished)
}

// Close handles POST /api/v1/resources/{id}/close.
func (h *Handlers) Close(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, authz.StateClosed)
}

// transition applies an admin lifecycle change.
func (h *Handlers) transition(w http.ResponseWriter, r *http.Request, state authz.LifecycleState) {
	p := auth.PrincipalFromContext(r.Context())

	res, ok := h.fetch(w, r)
	if !ok {
		return
	}
	if d := h.authz.Evaluate(r.Context(), p, &res.Resource, authz.ActionPublish); !d.Allowed {
		writeDenial(w, d)
		return
	}

	updated, err := h.repo.SetState(r.Context(), res.ID, state)
	if err != nil {
		if errors.Is(err, ErrResourceNotFound) {
			writeNotFound(w)
			return
		}
		WriteError(w, http.StatusConflict, CodeInvalidState,
			"cannot transition from "+string(res.State)+" to "+string(state))
		return
	}

	WriteJSON(w, http.StatusOK, updated)
}

// Enroll handles POST /api/v1/resources/{id}/enroll.
func (h *Handlers) Enroll(w http.ResponseWriter, r *http.Request) {
	p := auth.PrincipalFromContext(r.Context())

	res, ok := h.fetch(w, r)
	if !ok {
		return
	}
	if d := h.authz.Evaluate(r.Context(), p, &res.Resource, authz.ActionView); !d.Allowed {
		writeDenial(w, d)
		return
	}
	if d := h.authz.Evaluate(r.Context(), p, &res.Resource, authz.ActionEnroll); !d.Allowed {
		writeDenial(w, d)
		return
	}

	// The repository re-checks enrollment under its lock; two racing
	// enroll requests cannot both succeed.
	updated, err := h.repo.Enroll(r.Context(), res.ID, p.ID)
	if err != nil {
		if errors.Is(err, ErrAlreadyEnrolled) {
			WriteError(w, http.StatusConflict, CodeAlreadyEnrolled, "already enrolled")
			return
		}
		logging.CtxErr(r.Context(), err).Msg("Enrollment failed")
		WriteError(w, http.StatusInternalServerError, CodeInternal, "could not enroll")
		return
	}

	WriteJSON(w, http.StatusOK, updated)
}

// Withdraw handles DELETE /api/v1/resources/{id}/enroll.
func (h *Handlers) Withdraw(w http.ResponseWriter, r *http.Request) {
	p := auth.PrincipalFromContext(r.Context())

	res, ok := h.fetch(w, r)
	if !ok {
		return
	}
	if d := h.authz.Evaluate(r.Context(), p, &res.Resource, authz.ActionView); !d.Allowed {
		writeDenial(w, d)
		return
	}
	if d := h.authz.Evaluate(r.Context(), p, &res.Resource, authz.ActionCancelEnrollment); !d.Allowed {
		writeDenial(w, d)
		return
	}

	updated, err := h.repo.Withdraw(r.Context(), res.ID, p.ID)
	if err != nil {
		if errors.Is(err, ErrNotEnrolled) {
			WriteError(w, http.StatusConflict, CodeNotEnrolled, "not enrolled")
			return
		}
		logging.CtxErr(r.Context(), err).Msg("Withdrawal failed")
		WriteError(w, http.StatusInternalServerError, CodeInternal, "could not withdraw")
		return
	}

	WriteJSON(w, http.StatusOK, updated)
}

// fetch loads the resource named in the URL, answering 404 on miss.
func (h *Handlers) fetch(w http.ResponseWriter, r *http.Request) (*Resource, bool) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeNotFound(w)
		return nil, false
	}

	res, err := h.repo.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, ErrResourceNotFound) {
			writeNotFound(w)
		} else {
			logging.CtxErr(r.Context(), err).Msg("Resource fetch failed")
			WriteError(w, http.StatusInternalServerError, CodeInternal, "could not load resource")
		}
		return nil, false
	}
	return res, true
}

// decodeResourceRequest parses and validates a create/update body.
func (h *Handlers) decodeResourceRequest(w http.ResponseWriter, r *http.Request) (*resourceRequest, bool) {
	var req resourceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, CodeInvalidRequest, "invalid request body")
		return nil, false
	}
	if err := h.validate.Struct(&req); err != nil {
		WriteError(w, http.StatusBadRequest, CodeInvalidRequest, "invalid resource payload")
		return nil, false
	}
	return &req, true
}

// resourceFromRequest builds a Resource owned by the caller. A
// region_based resource always includes the caller's home region in
// its visibility list and must end up with at least one region, so an
// author can never create something their own region cannot reach.
func (h *Handlers) resourceFromRequest(req *resourceRequest, p *auth.Principal) (*Resource, error) {
	roles := make([]rbac.Role, 0, len(req.AllowedRoles))
	for _, r := range req.AllowedRoles {
		roles = append(roles, rbac.Role(r))
	}

	regions := append([]string(nil), req.VisibilityRegions...)
	scope := authz.VisibilityScope(req.Scope)
	if scope == authz.ScopeRegionBased {
		if p.HasRegion() && !slices.Contains(regions, p.Region()) {
			regions = append(regions, p.Region())
		}
		if len(regions) == 0 {
			return nil, errors.New("region_based resources require at least one visibility region")
		}
	}

	return &Resource{
		Resource: authz.Resource{
			Kind:              authz.EntityKind(req.Kind),
			OwnerID:           p.ID,
			Scope:             scope,
			VisibilityRegions: regions,
			AllowedRoles:      roles,
			AllowedUsers:      req.AllowedUsers,
			State:             authz.StateDraft,
		},
		Title:       req.Title,
		Description: req.Description,
	}, nil
}
