package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/smartcart/internal/logging"
	"github.com/Skotchmaster/smartcart/internal/shared"
	"github.com/Skotchmaster/smartcart/internal/tokens"
)

const (
	CtxClaims = "claims"
	CtxEmail  = "email"
	CtxRole   = "role"
)

type ctxKey struct{}

type TokenValidator interface {
	Validate(token string) (*tokens.Claims, error)
}

// Guard authenticates the bearer token of every request it wraps. The claims
// are trusted as signed: the user record is not re-read, so a role change
// only applies once the caller's current token expires.
func Guard(v TokenValidator) (echo.MiddlewareFunc, error) {
	cfg := echojwt.Config{
		ContextKey:  CtxClaims,
		TokenLookup: "header:" + echo.HeaderAuthorization + ":Bearer ",
		ParseTokenFunc: func(c echo.Context, auth string) (interface{}, error) {
			return v.Validate(auth)
		},
		SuccessHandler: func(c echo.Context) {
			claims, ok := c.Get(CtxClaims).(*tokens.Claims)
			if !ok {
				return
			}
			c.Set(CtxEmail, claims.Subject)
			c.Set(CtxRole, claims.Role)
			c.SetRequest(c.Request().WithContext(IntoContext(c.Request().Context(), claims)))
		},
		ErrorHandler: func(c echo.Context, err error) error {
			l := logging.FromContext(c.Request().Context()).With("mw", "auth_guard")
			l.Warn("unauthenticated", "status", http.StatusUnauthorized, "reason", failureReason(err))
			return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized").
				SetInternal(fmt.Errorf("%w: %w", shared.ErrUnauthenticated, err))
		},
	}
	return cfg.ToMiddleware()
}

func failureReason(err error) string {
	switch {
	case errors.Is(err, tokens.ErrExpired),
		errors.Is(err, tokens.ErrSignatureInvalid),
		errors.Is(err, tokens.ErrMalformed):
		return tokens.Kind(err)
	default:
		return "missing_bearer_token"
	}
}

func IntoContext(ctx context.Context, claims *tokens.Claims) context.Context {
	return context.WithValue(ctx, ctxKey{}, claims)
}

func ClaimsFromContext(ctx context.Context) (*tokens.Claims, bool) {
	claims, ok := ctx.Value(ctxKey{}).(*tokens.Claims)
	return claims, ok && claims != nil
}

func ClaimsFromEcho(c echo.Context) (*tokens.Claims, bool) {
	claims, ok := c.Get(CtxClaims).(*tokens.Claims)
	return claims, ok && claims != nil
}
