// Portalgate - Multi-Tenant Portal Authorization Service
// Copyright 2026 Campus Works
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/campusworks/portalgate

package supervisor

import (
	"context"
	"time"

	"github.com/campusworks/portalgate/internal/logging"
)

// JanitorService runs a reclamation task on a fixed interval under
// supervision. Session expiry and lockout staleness are both handled
// this way: the task reports how many entries it reclaimed, and a task
// error ends the Serve so suture restarts the janitor with backoff.
type JanitorService struct {
	name     string
	interval time.Duration
	task     func(ctx context.Context) (int, error)
}

// NewJanitorService creates a janitor running task every interval.
func NewJanitorService(name string, interval time.Duration, task func(ctx context.Context) (int, error)) *JanitorService {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	return &JanitorService{name: name, interval: interval, task: task}
}

// Serve implements suture.Service.
func (j *JanitorService) Serve(ctx context.Context) error {
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	logging.Info().
		Str("janitor", j.name).
		Dur("interval", j.interval).
		Msg("Janitor started")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			reclaimed, err := j.task(ctx)
			if err != nil {
				logging.Error().Err(err).Str("janitor", j.name).Msg("Janitor run failed")
				return err
			}
			if reclaimed > 0 {
				logging.Debug().
					Str("janitor", j.name).
					Int("reclaimed", reclaimed).
					Msg("Janitor run complete")
			}
		}
	}
}

// String identifies the service in supervisor logs.
func (j *JanitorService) String() string {
	return j.name
}
