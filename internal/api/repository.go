// Portalgate - Multi-Tenant Portal Authorization Service
// Copyright 2026 Campus Works
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/campusworks/portalgate

package api

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/campusworks/portalgate/internal/authz"
	"github.com/campusworks/portalgate/internal/rbac"
)

// Resource is a portal resource as stored and served: the
// authorization attributes plus presentation metadata.
type Resource struct {
	authz.Resource

	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Repository stores portal resources. Implementations must be safe
// for concurrent use.
type Repository interface {
	// Get returns the resource by id, or ErrResourceNotFound.
	Get(ctx context.Context, id string) (*Resource, error)

	// List returns all resources, ordered by creation time descending.
	List(ctx context.Context) ([]*Resource, error)

	// Create persists a new resource. A missing ID is generated.
	Create(ctx context.Context, r *Resource) error

	// Update replaces the stored resource. Enrollment state is owned
	// by Enroll/Withdraw and is preserved across updates.
	Update(ctx context.Context, r *Resource) error

	// Delete removes the resource.
	Delete(ctx context.Context, id string) error

	// SetState moves the resource through its lifecycle. Illegal
	// transitions return an error without modifying the resource.
	SetState(ctx context.Context, id string, state authz.LifecycleState) (*Resource, error)

	// Enroll records a user's enrollment. An existing enrollment
	// returns ErrAlreadyEnrolled without modifying the resource.
	Enroll(ctx context.Context, id, userID string) (*Resource, error)

	// Withdraw removes a user's enrollment, or returns ErrNotEnrolled.
	Withdraw(ctx context.Context, id, userID string) (*Resource, error)
}

// MemoryRepository is the in-memory Repository.
type MemoryRepository struct {
	mu        sync.RWMutex
	resources map[string]*Resource
}

// NewMemoryRepository creates an empty repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{resources: make(map[string]*Resource)}
}

func cloneResource(r *Resource) *Resource {
	clone := *r
	if r.VisibilityRegions != nil {
		clone.VisibilityRegions = append([]string(nil), r.VisibilityRegions...)
	}
	if r.AllowedUsers != nil {
		clone.AllowedUsers = append([]string(nil), r.AllowedUsers...)
	}
	if r.AllowedRoles != nil {
		clone.AllowedRoles = append([]rbac.Role(nil), r.AllowedRoles...)
	}
	if r.Enrolled != nil {
		clone.Enrolled = make(map[string]bool, len(r.Enrolled))
		for k, v := range r.Enrolled {
			clone.Enrolled[k] = v
		}
	}
	return &clone
}

// Get returns a copy of the resource.
func (s *MemoryRepository) Get(_ context.Context, id string) (*Resource, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.resources[id]
	if !ok {
		return nil, ErrResourceNotFound
	}
	return cloneResource(r), nil
}

// List returns copies of all resources, newest first.
func (s *MemoryRepository) List(_ context.Context) ([]*Resource, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*Resource, 0, len(s.resources))
	for _, r := range s.resources {
		out = append(out, cloneResource(r))
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

// Create persists a new resource.
func (s *MemoryRepository) Create(_ context.Context, r *Resource) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if r.ID == "" {
		r.ID = uuid.New().String()
	}
	if _, exists := s.resources[r.ID]; exists {
		return fmt.Errorf("resource %s already exists", r.ID)
	}

	now := time.Now()
	r.CreatedAt = now
	r.UpdatedAt = now
	if r.State == "" {
		r.State = authz.StateDraft
	}
	if r.Enrolled == nil {
		r.Enrolled = make(map[string]bool)
	}

	s.resources[r.ID] = cloneResource(r)
	return nil
}

// Update replaces the stored resource, preserving creation time and
// enrollment state.
func (s *MemoryRepository) Update(_ context.Context, r *Resource) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.resources[r.ID]
	if !ok {
		return ErrResourceNotFound
	}

	updated := cloneResource(r)
	updated.CreatedAt = existing.CreatedAt
	updated.Enrolled = existing.Enrolled
	updated.UpdatedAt = time.Now()

	s.resources[r.ID] = updated
	return nil
}

// Delete removes the resource.
func (s *MemoryRepository) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.resources[id]; !ok {
		return ErrResourceNotFound
	}
	delete(s.resources, id)
	return nil
}

// SetState applies a lifecycle transition.
func (s *MemoryRepository) SetState(_ context.Context, id string, state authz.LifecycleState) (*Resource, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.resources[id]
	if !ok {
		return nil, ErrResourceNotFound
	}
	if !authz.CanTransition(r.State, state) {
		return nil, fmt.Errorf("illegal transition %s -> %s", r.State, state)
	}

	r.State = state
	r.UpdatedAt = time.Now()
	return cloneResource(r), nil
}

// Enroll records an enrollment.
func (s *MemoryRepository) Enroll(_ context.Context, id, userID string) (*Resource, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.resources[id]
	if !ok {
		return nil, ErrResourceNotFound
	}
	if r.Enrolled[userID] {
		return nil, ErrAlreadyEnrolled
	}
	if r.Enrolled == nil {
		r.Enrolled = make(map[string]bool)
	}
	r.Enrolled[userID] = true
	r.UpdatedAt = time.Now()
	return cloneResource(r), nil
}

// Withdraw removes an enrollment.
func (s *MemoryRepository) Withdraw(_ context.Context, id, userID string) (*Resource, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.resources[id]
	if !ok {
		return nil, ErrResourceNotFound
	}
	if !r.Enrolled[userID] {
		return nil, ErrNotEnrolled
	}
	delete(r.Enrolled, userID)
	r.UpdatedAt = time.Now()
	return cloneResource(r), nil
}
