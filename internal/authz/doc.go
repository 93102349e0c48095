// Portalgate - Multi-Tenant Portal Authorization Service
// Copyright 2026 Campus Works
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/campusworks/portalgate

/*
Package authz is the portal's authorization core.

It decides, for a principal (role, identity, region associations) and a
resource (visibility scope, owner, region tags, lifecycle state),
whether an operation is permitted. The same decision functions back
every entry point: session validation, the CMS services for classes,
committees, projects, and announcements, and the UI permission gates.

Layers, from inner to outer:

  - Visibility scope evaluation (Visible): a role-blind function of the
    resource's shape. Scopes are public, region_based, and restricted;
    unknown scopes fail closed.
  - The decision engine (CanAccess, CanEdit, CanDelete, CanPublish,
    CanEnroll, CanCancelEnrollment): pure functions composing the rbac
    hierarchy, scope evaluation, ownership, and lifecycle state into
    per-action Decisions. Grants are additive; no rule revokes what
    another grants.
  - Service: wraps the engine with Prometheus metrics and the async
    audit trail. Handlers evaluate through the Service so every
    decision is recorded.
  - Enforcer / Middleware: coarse casbin route policies (path pattern,
    method class) that keep wrong-role traffic away from handlers
    entirely. The role inheritance chain is generated from the rbac
    ordering at startup.

The engine performs no I/O and is safe to call from any number of
concurrent request handlers without synchronization. Decisions are
never cached across calls; role and resource state can change between
them. Only the casbin route layer caches, keyed by (role, path, method
class), which is safe because route policies change only on reload.
*/
package authz
