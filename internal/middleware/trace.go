package middleware

import (
	"policyPortal/business/recommender"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

const HeaderTraceID = "X-Trace-Id"

// TraceID propagates or mints a request trace id and attaches it to the request context.
func TraceID() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			tid := c.Request().Header.Get(HeaderTraceID)
			if _, err := uuid.Parse(tid); err != nil {
				tid = uuid.NewString()
			}

			req := c.Request()
			c.SetRequest(req.WithContext(recommender.WithTraceID(req.Context(), tid)))
			c.Response().Header().Set(HeaderTraceID, tid)

			return next(c)
		}
	}
}
