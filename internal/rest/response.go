package rest

import (
	"strconv"

	"policyPortal/internal/middleware"

	"github.com/labstack/echo/v4"
)

type ResponseError struct {
	Message string `json:"message"`
}

// errorJSON writes err with the status its domain error maps to.
func errorJSON(c echo.Context, err error) error {
	status, _ := middleware.StatusFor(err)
	msg := err.Error()
	if status >= 500 {
		msg = "internal server error"
	}
	return c.JSON(status, ResponseError{Message: msg})
}

func queryInt(c echo.Context, name string, def int) (int, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return def, nil
	}
	return strconv.Atoi(raw)
}
