package handlers

import (
	"net/http"
	"net/url"

	"github.com/labstack/echo/v4"

	"tripmate/internal/middleware"
)

// Helper to safely get string from context
func getStringFromContext(c echo.Context, key string) string {
	val := c.Get(key)
	if val == nil {
		return ""
	}
	strVal, ok := val.(string)
	if !ok {
		return ""
	}
	return strVal
}

func currentUID(c echo.Context) string {
	return getStringFromContext(c, middleware.ContextUserUID)
}

func bindJSON(c echo.Context, dest any) error {
	if err := c.Bind(dest); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	return nil
}

// pathParam returns a decoded path parameter. echo matches on the escaped
// path only when the request carries a RawPath, and only then are params left
// escaped.
func pathParam(c echo.Context, name string) string {
	v := c.Param(name)
	if c.Request().URL.RawPath == "" {
		return v
	}
	if unescaped, err := url.PathUnescape(v); err == nil {
		return unescaped
	}
	return v
}
