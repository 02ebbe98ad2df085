package middleware

import (
	"context"
	"errors"
	"net/http"

	"policyPortal/domain"
	"policyPortal/pkg/logger"
	jsonres "policyPortal/pkg/response"

	"github.com/labstack/echo/v4"
)

// StatusFor maps domain errors onto HTTP status codes and error codes.
func StatusFor(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrPolicyNotFound), errors.Is(err, domain.ErrProfileNotFound):
		return http.StatusNotFound, "NOT_FOUND"
	case errors.Is(err, domain.ErrInsufficientSelection),
		errors.Is(err, domain.ErrTooManyPolicies),
		errors.Is(err, domain.ErrInvalidProfile),
		errors.Is(err, domain.ErrInvalidPolicy):
		return http.StatusBadRequest, "BAD_REQUEST"
	case errors.Is(err, domain.ErrTrainingInProgress):
		return http.StatusConflict, "CONFLICT"
	case errors.Is(err, domain.ErrInsufficientTrainingData):
		return http.StatusUnprocessableEntity, "UNPROCESSABLE"
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "TIMEOUT"
	default:
		return http.StatusInternalServerError, "INTERNAL"
	}
}

// ErrorHandler is the echo HTTPErrorHandler for the API.
func ErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	var he *echo.HTTPError
	if errors.As(err, &he) {
		msg := http.StatusText(he.Code)
		if m, ok := he.Message.(string); ok {
			msg = m
		}
		_ = c.JSON(he.Code, jsonres.Error(http.StatusText(he.Code), msg, nil))
		return
	}

	status, code := StatusFor(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		logger.Error("unhandled request error", "path", c.Path(), "error", err)
		msg = "internal server error"
	}
	_ = c.JSON(status, jsonres.Error(code, msg, nil))
}
