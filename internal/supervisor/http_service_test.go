// Portalgate - Multi-Tenant Portal Authorization Service
// Copyright 2026 Campus Works
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/campusworks/portalgate

package supervisor

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"
)

// mockServer is an HTTPServer whose lifecycle the test controls.
type mockServer struct {
	listenErr   error
	shutdownErr error
	closed      chan struct{}
	shutdowns   chan struct{}
}

func newMockServer() *mockServer {
	return &mockServer{
		closed:    make(chan struct{}),
		shutdowns: make(chan struct{}, 1),
	}
}

func (m *mockServer) ListenAndServe() error {
	if m.listenErr != nil {
		return m.listenErr
	}
	<-m.closed
	return http.ErrServerClosed
}

func (m *mockServer) Shutdown(context.Context) error {
	m.shutdowns <- struct{}{}
	close(m.closed)
	return m.shutdownErr
}

func TestHTTPService_GracefulShutdown(t *testing.T) {
	srv := newMockServer()
	svc := NewHTTPService(srv, time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- svc.Serve(ctx) }()

	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Serve() error = %v, want context.Canceled", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Serve() did not return after cancellation")
	}

	select {
	case <-srv.shutdowns:
	default:
		t.Error("Shutdown() was not called")
	}
}

func TestHTTPService_ListenFailure(t *testing.T) {
	srv := newMockServer()
	srv.listenErr = errors.New("address in use")
	svc := NewHTTPService(srv, time.Second)

	err := svc.Serve(context.Background())
	if err == nil || !errors.Is(err, srv.listenErr) {
		t.Errorf("Serve() error = %v, want wrapped listen error", err)
	}
}

func TestHTTPService_ServerClosedIsClean(t *testing.T) {
	srv := newMockServer()
	svc := NewHTTPService(srv, time.Second)

	done := make(chan error, 1)
	go func() { done <- svc.Serve(context.Background()) }()

	// External close without context cancellation.
	close(srv.closed)

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Serve() error = %v, want nil on ErrServerClosed", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Serve() did not return")
	}
}

func TestHTTPService_String(t *testing.T) {
	if got := NewHTTPService(newMockServer(), 0).String(); got != "http-server" {
		t.Errorf("String() = %q, want http-server", got)
	}
}
