package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"
)

type mockHealthChecker struct {
	pingErr error
}

func (m *mockHealthChecker) Ping(_ context.Context) error {
	return m.pingErr
}

type mockOperatorCounter struct {
	count    int
	countErr error
}

func (m *mockOperatorCounter) Count(_ context.Context) (int, error) {
	return m.count, m.countErr
}

func decodeHealth(t *testing.T, rec *httptest.ResponseRecorder) HealthResponse {
	t.Helper()
	var resp HealthResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode health response: %v", err)
	}
	return resp
}

func TestHandleHealth_AllHealthy(t *testing.T) {
	h := NewHealthHandler(&mockHealthChecker{}, &mockOperatorCounter{count: 2}, zap.NewNop())

	rec := httptest.NewRecorder()
	h.HandleHealth(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	resp := decodeHealth(t, rec)
	if resp.Status != "ok" {
		t.Errorf("Status = %q, want ok", resp.Status)
	}
	if resp.Checks["database"].Status != "healthy" {
		t.Errorf("database check = %+v, want healthy", resp.Checks["database"])
	}
	if resp.Checks["operators"].Status != "healthy" {
		t.Errorf("operators check = %+v, want healthy", resp.Checks["operators"])
	}
}

func TestHandleHealth_NoOperatorsDegrades(t *testing.T) {
	h := NewHealthHandler(&mockHealthChecker{}, &mockOperatorCounter{count: 0}, zap.NewNop())

	rec := httptest.NewRecorder()
	h.HandleHealth(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	// Degraded still answers 200: leads are captured, only fan-out suffers.
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	resp := decodeHealth(t, rec)
	if resp.Status != "degraded" {
		t.Errorf("Status = %q, want degraded", resp.Status)
	}
	if resp.Checks["operators"].Message != "no operators registered" {
		t.Errorf("operators message = %q", resp.Checks["operators"].Message)
	}
}

func TestHandleHealth_OperatorCountErrorDegrades(t *testing.T) {
	h := NewHealthHandler(&mockHealthChecker{}, &mockOperatorCounter{countErr: errors.New("timeout")}, zap.NewNop())

	rec := httptest.NewRecorder()
	h.HandleHealth(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if resp := decodeHealth(t, rec); resp.Status != "degraded" {
		t.Errorf("Status = %q, want degraded", resp.Status)
	}
}

func TestHandleHealth_DatabaseDownIsUnhealthy(t *testing.T) {
	h := NewHealthHandler(
		&mockHealthChecker{pingErr: errors.New("connection refused")},
		&mockOperatorCounter{count: 2},
		zap.NewNop(),
	)

	rec := httptest.NewRecorder()
	h.HandleHealth(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rec.Code)
	}
	resp := decodeHealth(t, rec)
	if resp.Status != "unhealthy" {
		t.Errorf("Status = %q, want unhealthy", resp.Status)
	}
	if resp.Checks["database"].Status != "unhealthy" {
		t.Errorf("database check = %+v, want unhealthy", resp.Checks["database"])
	}
}

func TestHandleReadiness(t *testing.T) {
	tests := []struct {
		name     string
		pingErr  error
		wantCode int
	}{
		{"ready", nil, http.StatusOK},
		{"database down", errors.New("connection refused"), http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHealthHandler(&mockHealthChecker{pingErr: tt.pingErr}, nil, zap.NewNop())

			rec := httptest.NewRecorder()
			h.HandleReadiness(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))

			if rec.Code != tt.wantCode {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantCode)
			}
		})
	}
}

func TestHandleLiveness(t *testing.T) {
	h := NewHealthHandler(nil, nil, zap.NewNop())

	rec := httptest.NewRecorder()
	h.HandleLiveness(rec, httptest.NewRequest(http.MethodGet, "/live", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if rec.Body.String() != "alive" {
		t.Errorf("body = %q, want alive", rec.Body.String())
	}
}
