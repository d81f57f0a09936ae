package httpserver

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	authmw "github.com/Skotchmaster/smartcart/internal/middleware/auth"
	loggingmw "github.com/Skotchmaster/smartcart/internal/middleware/logging"
)

type Pinger interface {
	Ping(ctx context.Context) error
}

type Deps struct {
	AuthHandler *AuthHTTP
	UserHandler *UserHTTP
	Tokens      authmw.TokenValidator
	DB          Pinger
}

// NewEcho builds the echo instance with the middleware every route shares.
func NewEcho(logger *slog.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Pre(echomw.RemoveTrailingSlash())
	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())
	e.Use(loggingmw.RequestLogger(logger))
	e.Use(echomw.BodyLimit("1M"))
	return e
}

func Register(e *echo.Echo, d *Deps) error {
	guard, err := authmw.Guard(d.Tokens)
	if err != nil {
		return err
	}

	e.GET("/health", func(c echo.Context) error {
		return c.String(http.StatusOK, "SmartCart API is running!")
	})
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/health/ready", func(c echo.Context) error {
		if d.DB == nil {
			return c.NoContent(http.StatusOK)
		}
		ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
		defer cancel()
		if err := d.DB.Ping(ctx); err != nil {
			return echo.NewHTTPError(http.StatusServiceUnavailable, "not ready").SetInternal(err)
		}
		return c.NoContent(http.StatusOK)
	})

	user := e.Group("/api/user")
	user.POST("/login", d.AuthHandler.Login)
	user.POST("/register", d.AuthHandler.Register)

	user.GET("/:id", d.UserHandler.GetUser, guard)
	user.GET("", d.UserHandler.ListUsers, guard, authmw.RequireAdmin())

	return nil
}
