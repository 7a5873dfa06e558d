package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"SleepSim/pkg/http/middleware"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
)

type testHandler struct{}

func (testHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/ok", func(c echo.Context) error { return SuccessResponse(c, "fine") })
	e.GET("/missing", func(c echo.Context) error { return NotFoundError("no such run") })
	e.GET("/boom", func(c echo.Context) error { panic("boom") })
	e.GET("/opaque", func(c echo.Context) error { return errors.New("db down") })
}

type denyAll struct{}

func (denyAll) Allow(string) bool { return false }

func newTestServer() *Server {
	reg := prometheus.NewRegistry()
	return NewServer([]Handler{testHandler{}}, WithMetrics("/metrics", reg, reg))
}

func do(s *Server, method, path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	s.Echo().ServeHTTP(rec, httptest.NewRequest(method, path, nil))
	return rec
}

func TestServerEnvelope(t *testing.T) {
	s := newTestServer()

	rec := do(s, http.MethodGet, "/ok")
	var body APIResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if rec.Code != http.StatusOK || body.Status != http.StatusOK || body.Data != "fine" {
		t.Fatalf("ok: %d %+v", rec.Code, body)
	}

	rec = do(s, http.MethodGet, "/missing")
	if rec.Code != http.StatusNotFound || !strings.Contains(rec.Body.String(), "ERR_NOT_FOUND") {
		t.Fatalf("missing: %d %s", rec.Code, rec.Body.String())
	}

	rec = do(s, http.MethodGet, "/opaque")
	if rec.Code != http.StatusInternalServerError || strings.Contains(rec.Body.String(), "db down") {
		t.Fatalf("opaque errors must not leak: %d %s", rec.Code, rec.Body.String())
	}

	rec = do(s, http.MethodGet, "/boom")
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("panic: %d", rec.Code)
	}
}

func TestServerHealthAndMetrics(t *testing.T) {
	s := newTestServer()
	if rec := do(s, http.MethodGet, "/healthz"); rec.Code != http.StatusOK {
		t.Fatalf("healthz: %d", rec.Code)
	}
	do(s, http.MethodGet, "/ok")
	rec := do(s, http.MethodGet, "/metrics")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `http_requests_total{method="GET",route="/ok",status="200"} 1`) {
		t.Fatalf("metrics: %d\n%s", rec.Code, rec.Body.String())
	}
}

func TestRateLimitMiddleware(t *testing.T) {
	e := echo.New()
	e.GET("/limited", func(c echo.Context) error { return c.NoContent(http.StatusNoContent) }, middleware.RateLimit(denyAll{}))
	e.GET("/open", func(c echo.Context) error { return c.NoContent(http.StatusNoContent) }, middleware.RateLimit(nil))

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/limited", nil))
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("limited: %d", rec.Code)
	}
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/open", nil))
	if rec.Code != http.StatusNoContent {
		t.Fatalf("open: %d", rec.Code)
	}
}
