package handler

import (
	"strings"

	"github.com/labstack/echo/v4"
)

const (
	headerETag    = "ETag"
	headerIfMatch = "If-Match"
)

// Entity signatures double as ETags, so a client can send back what it
// read as If-Match.

func setETag(c echo.Context, signature string) {
	c.Response().Header().Set(headerETag, `"`+signature+`"`)
}

// ifMatch returns the signature in the If-Match header, or "" when absent.
func ifMatch(c echo.Context) string {
	v := strings.TrimSpace(c.Request().Header.Get(headerIfMatch))
	v = strings.TrimPrefix(v, "W/")
	return strings.Trim(v, `"`)
}
