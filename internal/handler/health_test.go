package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

type stubChecker struct {
	err error
}

func (s *stubChecker) Ping(context.Context) error { return s.err }

func TestHealthz(t *testing.T) {
	t.Parallel()

	h := NewHealthHandler(nil, nil)
	rec := httptest.NewRecorder()

	h.Healthz(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
}

func TestReadyz(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		store      HealthChecker
		cache      HealthChecker
		wantStatus int
	}{
		{
			name:       "all healthy",
			store:      &stubChecker{},
			cache:      &stubChecker{},
			wantStatus: http.StatusOK,
		},
		{
			name:       "store down",
			store:      &stubChecker{err: errors.New("connection refused")},
			cache:      &stubChecker{},
			wantStatus: http.StatusServiceUnavailable,
		},
		{
			name:       "cache down",
			store:      &stubChecker{},
			cache:      &stubChecker{err: errors.New("connection refused")},
			wantStatus: http.StatusServiceUnavailable,
		},
		{
			name:       "not configured",
			wantStatus: http.StatusServiceUnavailable,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			h := NewHealthHandler(tt.store, tt.cache)
			rec := httptest.NewRecorder()

			h.Readyz(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}

			var resp HealthResponse
			if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
				t.Fatalf("decoding response: %v", err)
			}
			if tt.wantStatus == http.StatusOK && resp.Status != "ok" {
				t.Errorf("Status = %q, want ok", resp.Status)
			}
		})
	}
}
