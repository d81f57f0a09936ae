package httpserver

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/smartcart/internal/logging"
	authmw "github.com/Skotchmaster/smartcart/internal/middleware/auth"
	"github.com/Skotchmaster/smartcart/internal/models"
	"github.com/Skotchmaster/smartcart/internal/service"
	"github.com/Skotchmaster/smartcart/internal/shared"
	"github.com/Skotchmaster/smartcart/internal/transport"
	"github.com/Skotchmaster/smartcart/internal/util"
)

type UserHTTP struct {
	Svc *service.AuthService
}

// GetUser lets a customer read their own record and an admin read any.
func (h *UserHTTP) GetUser(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "user_get")

	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		l.Warn("get_user_error", "status", 400, "id", c.Param("id"))
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	claims, ok := authmw.ClaimsFromEcho(c)
	if !ok {
		return httpError(shared.ErrUnauthenticated)
	}

	isAdmin := claims.Role == models.RoleAdmin
	user, err := h.Svc.GetUser(ctx, uint(id))
	if err != nil {
		// a missing id must look the same as someone else's id to a customer
		if !isAdmin && errors.Is(err, shared.ErrNotFound) {
			l.Warn("get_user_forbidden", "status", 403, "user_id", id)
			return httpError(shared.ErrForbidden)
		}
		return httpError(err)
	}
	if !isAdmin && models.NormalizeEmail(claims.Subject) != user.EmailKey {
		l.Warn("get_user_forbidden", "status", 403, "user_id", id)
		return httpError(shared.ErrForbidden)
	}

	return c.JSON(http.StatusOK, transport.NewUserResponse(user))
}

// ListUsers returns every user, or a single page when page or size is given.
// The total count is always reported in X-Total-Count.
func (h *UserHTTP) ListUsers(c echo.Context) error {
	ctx := c.Request().Context()

	pageParam, sizeParam := c.QueryParam("page"), c.QueryParam("size")
	if pageParam == "" && sizeParam == "" {
		users, err := h.Svc.ListAllUsers(ctx)
		if err != nil {
			return httpError(err)
		}
		c.Response().Header().Set("X-Total-Count", strconv.Itoa(len(users)))
		return c.JSON(http.StatusOK, transport.NewUserResponses(users))
	}

	page := util.ParseIntDefault(pageParam, 1)
	size := util.ParseIntDefault(sizeParam, util.DefaultPageSize)
	users, total, err := h.Svc.ListUsers(ctx, page, size)
	if err != nil {
		return httpError(err)
	}
	c.Response().Header().Set("X-Total-Count", strconv.FormatInt(total, 10))
	return c.JSON(http.StatusOK, transport.NewUserResponses(users))
}
