// Package handler contains the HTTP wire layer: request binding, error
// mapping and JSON responses. Field names on the wire stay Portuguese to
// match the schema the web client was built against.
package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/tobiasmaugus/vendas-api/internal/apperror"
)

// httpStatus maps the error taxonomy to HTTP status codes. Wrong admin
// secret and every credential failure map to 401, matching the contract the
// web client expects; Conflict maps to 400 for the same reason.
func httpStatus(err error) int {
	switch {
	case errors.Is(err, apperror.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, apperror.ErrValidation),
		errors.Is(err, apperror.ErrConflict),
		errors.Is(err, apperror.ErrInsufficientStock):
		return http.StatusBadRequest
	case errors.Is(err, apperror.ErrUnauthenticated),
		errors.Is(err, apperror.ErrInvalidAssertion),
		errors.Is(err, apperror.ErrInvalidCredential),
		errors.Is(err, apperror.ErrUnknownUser),
		errors.Is(err, apperror.ErrForbidden):
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

// jsonError writes the standard error body for a taxonomy error
func jsonError(c echo.Context, err error) error {
	return c.JSON(httpStatus(err), echo.Map{"error": err.Error()})
}
