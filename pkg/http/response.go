package http

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
)

const (
	HeaderETag         = "ETag"
	HeaderIfNoneMatch  = "If-None-Match"
	HeaderCacheControl = "Cache-Control"
)

// OKResponse writes a 200 JSON body.
func OKResponse(c echo.Context, body interface{}) error {
	return c.JSON(http.StatusOK, body)
}

// NotModifiedResponse writes an empty 304.
func NotModifiedResponse(c echo.Context) error {
	return c.NoContent(http.StatusNotModified)
}

// ErrorResponse writes the error envelope with the given status.
func ErrorResponse(c echo.Context, status int, message string) error {
	return c.JSON(status, ErrorEnvelope{Status: StatusError, Message: message})
}

// AppErrorResponse writes an AppError, or a generic 500 for anything else.
func AppErrorResponse(c echo.Context, err error) error {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return c.JSON(appErr.Status, ErrorEnvelope{
			Status:  StatusError,
			Message: appErr.Message,
			Code:    appErr.Code,
			Errors:  appErr.Details,
		})
	}
	return ErrorResponse(c, http.StatusInternalServerError, "internal server error")
}

// SetCacheHeaders sets ETag and, for a positive max age, Cache-Control.
func SetCacheHeaders(c echo.Context, etag string, maxAge time.Duration) {
	h := c.Response().Header()
	if etag != "" {
		h.Set(HeaderETag, etag)
	}
	if secs := int(maxAge / time.Second); secs > 0 {
		h.Set(HeaderCacheControl, "public, max-age="+strconv.Itoa(secs))
	} else {
		h.Set(HeaderCacheControl, "no-cache")
	}
}
