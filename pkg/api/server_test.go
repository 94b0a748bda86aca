package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/predictval/predictval/pkg/cost"
	"github.com/predictval/predictval/pkg/queue"
)

func newTestServer(pinger func(context.Context) error) *Server {
	tracker := cost.New()
	registry := prometheus.NewRegistry()
	for _, c := range tracker.Collectors() {
		registry.MustRegister(c)
	}
	var pool *queue.WorkerPool
	return NewServer("test", tracker, pool, pinger, registry)
}

func TestHealthHandlerHealthy(t *testing.T) {
	s := newTestServer(func(context.Context) error { return nil })
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	s.engine.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal body: %v", err)
	}
	if body["status"] != "healthy" {
		t.Errorf("status field = %v, want healthy", body["status"])
	}
}

func TestHealthHandlerUnhealthyOnPingError(t *testing.T) {
	s := newTestServer(func(context.Context) error { return errors.New("connection refused") })
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	s.engine.ServeHTTP(rec, req)

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rec.Code)
	}
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal body: %v", err)
	}
	if body["status"] != "unhealthy" {
		t.Errorf("status field = %v, want unhealthy", body["status"])
	}
	if body["database"] != false {
		t.Errorf("database field = %v, want false", body["database"])
	}
}

func TestCostHandlerReturnsSnapshot(t *testing.T) {
	s := newTestServer(func(context.Context) error { return nil })
	req := httptest.NewRequest(http.MethodGet, "/cost", nil)
	rec := httptest.NewRecorder()
	s.engine.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var snap cost.Snapshot
	if err := json.Unmarshal(rec.Body.Bytes(), &snap); err != nil {
		t.Fatalf("unmarshal snapshot: %v", err)
	}
}

func TestMetricsHandlerServesPrometheusFormat(t *testing.T) {
	s := newTestServer(func(context.Context) error { return nil })
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	s.engine.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
}
