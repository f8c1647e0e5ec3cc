package http

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"

	applogger "PulseDesk/pkg/logger"
	"PulseDesk/pkg/metrics"
)

type stubHandler struct{}

func (stubHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/ok", func(c echo.Context) error { return OKResponse(c, map[string]string{"status": StatusOK}) })
	e.GET("/boom", func(c echo.Context) error { panic("boom") })
	e.GET("/bad", func(c echo.Context) error { return BadRequestError("nope") })
}

func newTestServer() *Server {
	reg := prometheus.NewRegistry()
	return NewServer(stubHandler{}, applogger.Nop(), metrics.New(reg), reg)
}

func serve(s *Server, method, target string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	s.Echo().ServeHTTP(rec, httptest.NewRequest(method, target, nil))
	return rec
}

func TestServerMiddlewareChain(t *testing.T) {
	s := newTestServer()

	rec := serve(s, http.MethodGet, "/ok")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.NotEmpty(t, rec.Header().Get(echo.HeaderXRequestID))
	assert.Contains(t, rec.Header().Get("Access-Control-Expose-Headers"), "ETag")
}

func TestServerRecoversPanics(t *testing.T) {
	rec := serve(newTestServer(), http.MethodGet, "/boom")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"status":"error","message":"internal server error"}`, rec.Body.String())
}

func TestServerRendersAppErrors(t *testing.T) {
	rec := serve(newTestServer(), http.MethodGet, "/bad")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"error"`)
	assert.Contains(t, rec.Body.String(), `"message":"nope"`)
}

func TestServerPreflightAndMetrics(t *testing.T) {
	s := newTestServer()
	rec := serve(s, http.MethodOptions, "/ok")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	serve(s, http.MethodGet, "/ok")
	rec = serve(s, http.MethodGet, "/metrics")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "http_requests_total")
}
