// Portalgate - Multi-Tenant Portal Authorization Service
// Copyright 2026 Campus Works
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/campusworks/portalgate

// Package api is the HTTP surface of the portal: the resource CRUD and
// enrollment endpoints, the route tree, and the error envelope.
//
// Handlers delegate every access question to the authorization
// service. A resource the caller may not see is answered with 404, the
// same response an unknown id gets, so the API never confirms the
// existence of something it will not show.
package api
