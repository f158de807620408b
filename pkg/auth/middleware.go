// Package auth trusts the authenticating gateway in front of this service:
// token verification and session handling happen there, and the resolved
// user arrives as a header. This package only extracts it.
package auth

import (
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/quillreader/quill/pkg/errcodes"
)

// UserIDHeader carries the authenticated user's ID, set by the gateway.
const UserIDHeader = "X-User-ID"

const userIDContextKey = "user_id"

// Middleware parses the gateway identity header into the request context.
// Requests without a valid header still pass through; handlers that need an
// identity fail with 401 when they ask for it.
func Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if raw := c.Request().Header.Get(UserIDHeader); raw != "" {
				if id, err := strconv.Atoi(raw); err == nil && id > 0 {
					c.Set(userIDContextKey, id)
				}
			}
			return next(c)
		}
	}
}

// UserID returns the authenticated user's ID, or a 401 error when the
// request carried no usable identity.
func UserID(c echo.Context) (int, error) {
	id, ok := c.Get(userIDContextKey).(int)
	if !ok {
		return 0, errcodes.Unauthorized("Authentication is required.")
	}
	return id, nil
}
