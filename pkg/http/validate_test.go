package http

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sampleRequest struct {
	Group string `query:"group" default:"stocks" validate:"required,oneof=stocks crypto"`
	Debug bool   `query:"debug"`
}

func (r *sampleRequest) Canonicalize() {
	r.Group = strings.ToLower(strings.TrimSpace(r.Group))
}

func newContext(target string) echo.Context {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	return e.NewContext(req, httptest.NewRecorder())
}

func TestReadAndValidateRequestDefaults(t *testing.T) {
	var req sampleRequest
	require.NoError(t, ReadAndValidateRequest(newContext("/api/market?debug=1"), &req))
	assert.Equal(t, "stocks", req.Group)
	assert.True(t, req.Debug)
}

func TestReadAndValidateRequestCanonicalizes(t *testing.T) {
	var req sampleRequest
	require.NoError(t, ReadAndValidateRequest(newContext("/api/market?group=%20CRYPTO"), &req))
	assert.Equal(t, "crypto", req.Group)
}

func TestReadAndValidateRequestRejects(t *testing.T) {
	var req sampleRequest
	err := ReadAndValidateRequest(newContext("/api/market?group=bonds"), &req)
	var appErr *AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, http.StatusBadRequest, appErr.Status)
	require.Len(t, appErr.Details, 1)
	assert.Equal(t, "ERR_ONEOF", appErr.Details[0].Code)
	assert.Equal(t, "group", appErr.Details[0].Field)
	assert.Contains(t, appErr.Message, "group must be one of")
}
