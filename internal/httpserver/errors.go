package httpserver

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/smartcart/internal/shared"
)

const (
	msgInvalidCredentials = "Invalid email or password"
	msgDuplicateUser      = "User with this email already exists"
	msgValidation         = "email and password are required, password at most 72 bytes"
)

// httpError maps service errors to fixed client messages. The original error
// is kept as Internal for the request log only.
func httpError(err error) *echo.HTTPError {
	var he *echo.HTTPError
	switch {
	case errors.Is(err, shared.ErrValidation):
		he = echo.NewHTTPError(http.StatusBadRequest, msgValidation)
	case errors.Is(err, shared.ErrInvalidCredentials):
		he = echo.NewHTTPError(http.StatusUnauthorized, msgInvalidCredentials)
	case errors.Is(err, shared.ErrDuplicateUser):
		he = echo.NewHTTPError(http.StatusConflict, msgDuplicateUser)
	case errors.Is(err, shared.ErrNotFound):
		he = echo.NewHTTPError(http.StatusNotFound, "user not found")
	case errors.Is(err, shared.ErrUnauthenticated):
		he = echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
	case errors.Is(err, shared.ErrForbidden):
		he = echo.NewHTTPError(http.StatusForbidden, "forbidden")
	case errors.Is(err, shared.ErrStoreUnavailable):
		he = echo.NewHTTPError(http.StatusServiceUnavailable, "service unavailable")
	default:
		he = echo.NewHTTPError(http.StatusInternalServerError, "internal server error")
	}
	return he.SetInternal(err)
}
