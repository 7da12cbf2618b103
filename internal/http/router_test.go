// README: Router auth and input-validation tests. These paths reject before
// any service call, so the services can be zero-valued.
package http

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"vahan/internal/http/middleware"
	"vahan/internal/modules/booking"
)

const testSecret = "test-secret"

func buildTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	return NewRouter(RouterDeps{
		Booking:   booking.NewService(booking.Deps{}),
		JWTSecret: testSecret,
		Logger:    slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil)),
	})
}

func token(t *testing.T, subject, role string) string {
	t.Helper()
	tok, err := middleware.IssueToken(testSecret, subject, role, jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	})
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	return tok
}

func doRequest(r *gin.Engine, method, path string, body any, bearer string) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestHealth_NoAuthRequired(t *testing.T) {
	r := buildTestRouter(t)
	w := doRequest(r, http.MethodGet, "/health", nil, "")
	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}
}

func TestAPI_RejectsMissingToken(t *testing.T) {
	r := buildTestRouter(t)
	w := doRequest(r, http.MethodGet, "/api/bookings/abc", nil, "")
	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", w.Code)
	}
}

func TestAPI_RejectsExpiredToken(t *testing.T) {
	r := buildTestRouter(t)
	expired, err := middleware.IssueToken(testSecret, "c1", "customer", jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
	})
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	w := doRequest(r, http.MethodGet, "/api/bookings/abc", nil, expired)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", w.Code)
	}
}

func TestAPI_RejectsTokenUnderWrongSecret(t *testing.T) {
	r := buildTestRouter(t)
	forged, err := middleware.IssueToken("other-secret", "c1", "admin", jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	})
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	w := doRequest(r, http.MethodGet, "/api/bookings/abc", nil, forged)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", w.Code)
	}
}

func TestAccept_RequiresDriverRole(t *testing.T) {
	r := buildTestRouter(t)
	w := doRequest(r, http.MethodPost, "/api/bookings/abc/accept", nil, token(t, "c1", "customer"))
	if w.Code != http.StatusForbidden {
		t.Errorf("expected 403, got %d", w.Code)
	}
}

func TestApprove_RequiresAdminRole(t *testing.T) {
	r := buildTestRouter(t)
	w := doRequest(r, http.MethodPost, "/api/bookings/abc/cancel-request/approve", nil, token(t, "d1", "driver"))
	if w.Code != http.StatusForbidden {
		t.Errorf("expected 403, got %d", w.Code)
	}
}

func TestCreate_CustomerCannotBookForAnother(t *testing.T) {
	r := buildTestRouter(t)
	w := doRequest(r, http.MethodPost, "/api/bookings", map[string]any{
		"customer_id": "someone-else",
		"vehicle_id":  "v1",
	}, token(t, "c1", "customer"))
	if w.Code != http.StatusForbidden {
		t.Errorf("expected 403, got %d", w.Code)
	}
}

func TestCreate_InvalidJSON(t *testing.T) {
	r := buildTestRouter(t)
	req := httptest.NewRequest(http.MethodPost, "/api/bookings", bytes.NewBufferString("{not json"))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token(t, "c1", "customer"))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
}

func TestCancelRequest_ReasonRequired(t *testing.T) {
	r := buildTestRouter(t)
	w := doRequest(r, http.MethodPost, "/api/bookings/abc/cancel-request", map[string]any{}, token(t, "c1", "customer"))
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
}
