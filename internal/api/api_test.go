package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"technician-dispatch/internal/common/logger"
	"technician-dispatch/internal/dispatch"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeMatcher struct {
	result *dispatch.MatchResult
	err    error
	got    string
}

func (f *fakeMatcher) Match(ctx context.Context, requestID string) (*dispatch.MatchResult, error) {
	f.got = requestID
	return f.result, f.err
}

func newTestRouter(t *testing.T, m Matcher, checks ...Check) *gin.Engine {
	return NewRouter(Deps{Matcher: m, Checks: checks, Logger: logger.NewTestLogger(t)})
}

func do(t *testing.T, r http.Handler, method, path, body string) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var out map[string]interface{}
	if strings.HasPrefix(w.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	}
	return w, out
}

func TestAssign_Success(t *testing.T) {
	m := &fakeMatcher{result: &dispatch.MatchResult{
		RunID:     "run-1",
		RequestID: "req-1",
		Outcome:   dispatch.OutcomeAssigned,
		Assigned:  &dispatch.CandidateSummary{TechnicianID: "t-1", Name: "Amal", Rating: 4.8, DistanceKm: 3.1, Score: 77},
		Alternatives: []dispatch.CandidateSummary{
			{TechnicianID: "t-2", Name: "Badr", Rating: 4.5, DistanceKm: 8, Score: 60},
		},
	}}
	r := newTestRouter(t, m)

	w, body := do(t, r, http.MethodPost, "/api/v1/requests/req-1/assign", "")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "req-1", m.got)
	assert.Equal(t, true, body["success"])
	assigned := body["assigned_technician"].(map[string]interface{})
	assert.Equal(t, "t-1", assigned["id"])
	assert.Equal(t, 3.1, assigned["distance"])
	assert.Len(t, body["alternatives"], 1)
	assert.NotEmpty(t, w.Header().Get(requestIDHeader))
}

func TestAssign_BodyForm(t *testing.T) {
	m := &fakeMatcher{result: &dispatch.MatchResult{Outcome: dispatch.OutcomeNoCandidates, Reason: dispatch.ReasonNoTechniciansInRange}}
	r := newTestRouter(t, m)

	w, body := do(t, r, http.MethodPost, "/api/v1/assign", `{"requestId":"req-9"}`)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "req-9", m.got)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, dispatch.ReasonNoTechniciansInRange, body["reason"])
	assert.Equal(t, "No technicians found within service area", body["error"])
	assert.Equal(t, []interface{}{}, body["alternatives"])
	assert.NotContains(t, body, "assigned_technician")
}

func TestAssign_BodyMissingID(t *testing.T) {
	m := &fakeMatcher{}
	r := newTestRouter(t, m)

	w, body := do(t, r, http.MethodPost, "/api/v1/assign", `{}`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "INVALID_INPUT", body["code"])
	assert.Empty(t, m.got)
}

func TestAssign_ErrorStatuses(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"not found", dispatch.ErrRequestNotFound, http.StatusNotFound, "REQUEST_NOT_FOUND"},
		{"missing location", dispatch.ErrMissingLocation, http.StatusBadRequest, "REQUEST_LOCATION_MISSING"},
		{"already assigned", dispatch.ErrAlreadyAssigned, http.StatusConflict, "REQUEST_ALREADY_ASSIGNED"},
		{"technician taken", fmt.Errorf("%w: t-1", dispatch.ErrTechnicianUnavailable), http.StatusConflict, "TECHNICIAN_UNAVAILABLE"},
		{"store down", fmt.Errorf("%w: conn refused", dispatch.ErrRequestStoreUnavailable), http.StatusServiceUnavailable, "REQUEST_STORE_UNAVAILABLE"},
		{"timeout", dispatch.ErrMatchTimeout, http.StatusServiceUnavailable, "MATCH_TIMEOUT"},
		{"unexpected", errors.New("nil map"), http.StatusInternalServerError, "INTERNAL_ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newTestRouter(t, &fakeMatcher{err: tt.err})

			w, body := do(t, r, http.MethodPost, "/api/v1/requests/req-1/assign", "")

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Equal(t, false, body["success"])
			assert.Equal(t, tt.wantCode, body["code"])
			assert.Equal(t, []interface{}{}, body["alternatives"])
			if tt.wantStatus == http.StatusServiceUnavailable {
				assert.Equal(t, true, body["retryable"])
			}
		})
	}
}

func TestHealthAndReady(t *testing.T) {
	healthy := Check{Name: "postgres", Ping: func(context.Context) error { return nil }}
	broken := Check{Name: "redis", Ping: func(context.Context) error { return errors.New("connection refused") }}

	t.Run("health is always ok", func(t *testing.T) {
		w, body := do(t, newTestRouter(t, &fakeMatcher{}, broken), http.MethodGet, "/health", "")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "ok", body["status"])
	})

	t.Run("ready when all checks pass", func(t *testing.T) {
		w, body := do(t, newTestRouter(t, &fakeMatcher{}, healthy), http.MethodGet, "/ready", "")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "ready", body["status"])
	})

	t.Run("not ready when a check fails", func(t *testing.T) {
		w, body := do(t, newTestRouter(t, &fakeMatcher{}, healthy, broken), http.MethodGet, "/ready", "")
		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
		checks := body["checks"].(map[string]interface{})
		assert.Equal(t, "ok", checks["postgres"])
		assert.Equal(t, "connection refused", checks["redis"])
	})
}

func TestMetricsEndpoint(t *testing.T) {
	r := newTestRouter(t, &fakeMatcher{})
	w, _ := do(t, r, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "go_goroutines")
}
