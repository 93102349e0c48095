// Portalgate - Multi-Tenant Portal Authorization Service
// Copyright 2026 Campus Works
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/campusworks/portalgate

package logging

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestSlogHandler_LevelsMapToZerolog(t *testing.T) {
	tests := []struct {
		level slog.Level
		want  string
	}{
		{slog.LevelDebug, `"level":"debug"`},
		{slog.LevelInfo, `"level":"info"`},
		{slog.LevelWarn, `"level":"warn"`},
		{slog.LevelError, `"level":"error"`},
	}

	for _, tt := range tests {
		t.Run(tt.level.String(), func(t *testing.T) {
			var buf bytes.Buffer
			logger := zerolog.New(&buf).Level(zerolog.TraceLevel)
			slogger := slog.New(NewSlogHandlerWithLogger(logger))

			slogger.Log(context.Background(), tt.level, "mapped")

			if !strings.Contains(buf.String(), tt.want) {
				t.Errorf("output = %s, want level %s", buf.String(), tt.want)
			}
		})
	}
}

func TestSlogHandler_Attributes(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)
	slogger := slog.New(NewSlogHandlerWithLogger(logger))

	slogger.Info("attrs",
		slog.String("name", "cleanup"),
		slog.Int("count", 7),
		slog.Bool("ok", true),
	)

	out := buf.String()
	for _, want := range []string{`"name":"cleanup"`, `"count":7`, `"ok":true`} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %s: %s", want, out)
		}
	}
}

func TestSlogHandler_WithAttrsAndGroup(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)
	handler := NewSlogHandlerWithLogger(logger).
		WithAttrs([]slog.Attr{slog.String("service", "portalgate")}).
		WithGroup("worker")
	slogger := slog.New(handler)

	slogger.Info("grouped", slog.String("state", "running"))

	out := buf.String()
	if !strings.Contains(out, `"worker.service":"portalgate"`) && !strings.Contains(out, `"service":"portalgate"`) {
		t.Errorf("output missing pre-set attr: %s", out)
	}
	if !strings.Contains(out, `"worker.state":"running"`) {
		t.Errorf("output missing grouped attr: %s", out)
	}
}

func TestSlogHandler_Enabled(t *testing.T) {
	logger := zerolog.New(nil).Level(zerolog.WarnLevel)
	handler := NewSlogHandlerWithLogger(logger)

	if handler.Enabled(context.Background(), slog.LevelDebug) {
		t.Error("debug should be disabled at warn level")
	}
	if !handler.Enabled(context.Background(), slog.LevelError) {
		t.Error("error should be enabled at warn level")
	}
}
