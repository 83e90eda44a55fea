package middleware

import (
	"strconv"

	"github.com/labstack/echo/v4"
)

// RequestContext extracts per-request tenant identifiers into the echo
// context. Authentication and tenant routing happen upstream; this only
// carries the identifiers the CRUD layer scopes queries by.
func RequestContext() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if raw := c.Request().Header.Get("X-Branch-ID"); raw != "" {
				if id, err := strconv.ParseUint(raw, 10, 32); err == nil {
					c.Set("branchID", uint(id))
				}
			}
			if staff := c.Request().Header.Get("X-Staff-ID"); staff != "" {
				c.Set("staffID", staff)
			}
			return next(c)
		}
	}
}

// BranchID returns the branch scope set by RequestContext, zero when absent
func BranchID(c echo.Context) uint {
	if val := c.Get("branchID"); val != nil {
		if id, ok := val.(uint); ok {
			return id
		}
	}
	return 0
}
