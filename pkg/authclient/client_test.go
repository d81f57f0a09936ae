package authclient

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/Skotchmaster/smartcart/internal/db"
	"github.com/Skotchmaster/smartcart/internal/hash"
	"github.com/Skotchmaster/smartcart/internal/httpserver"
	"github.com/Skotchmaster/smartcart/internal/logging"
	"github.com/Skotchmaster/smartcart/internal/models"
	"github.com/Skotchmaster/smartcart/internal/repo"
	"github.com/Skotchmaster/smartcart/internal/service"
	"github.com/Skotchmaster/smartcart/internal/tokens"
)

func newAuthServer(t *testing.T) *httptest.Server {
	t.Helper()

	gdb, err := db.Open(context.Background(), "")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close(gdb) })

	issuer, err := tokens.NewIssuer([]byte("client-test-secret-0123456789"), time.Hour)
	require.NoError(t, err)

	store := &repo.GormRepo{DB: gdb}
	svc := &service.AuthService{Store: store, Hasher: hash.New(bcrypt.MinCost), Tokens: issuer}

	e := httpserver.NewEcho(logging.NewWithWriter(io.Discard, "error"))
	require.NoError(t, httpserver.Register(e, &httpserver.Deps{
		AuthHandler: &httpserver.AuthHTTP{Svc: svc},
		UserHandler: &httpserver.UserHTTP{Svc: svc},
		Tokens:      issuer,
		DB:          store,
	}))

	srv := httptest.NewServer(e)
	t.Cleanup(srv.Close)
	return srv
}

func TestClient_RegisterLoginGetUser(t *testing.T) {
	srv := newAuthServer(t)
	client := NewClient(srv.URL + "/")
	ctx := context.Background()

	reg, err := client.Register(ctx, "a@x.com", "pw1")
	require.NoError(t, err)
	assert.Equal(t, models.RoleCustomer, reg.Role)

	login, err := client.Login(ctx, "a@x.com", "pw1")
	require.NoError(t, err)
	assert.Equal(t, "a@x.com", login.Email)

	user, err := client.GetUser(ctx, login.Token, 1)
	require.NoError(t, err)
	assert.Equal(t, "a@x.com", user.Email)
}

func TestClient_Errors(t *testing.T) {
	srv := newAuthServer(t)
	client := NewClient(srv.URL)
	ctx := context.Background()

	_, err := client.Register(ctx, "a@x.com", "pw1")
	require.NoError(t, err)

	_, err = client.Register(ctx, "a@x.com", "pw1")
	assert.True(t, IsStatus(err, http.StatusConflict))

	_, err = client.Login(ctx, "a@x.com", "wrong")
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.Status)
	assert.Equal(t, "Invalid email or password", apiErr.Message)

	_, err = client.GetUser(ctx, "garbage", 1)
	assert.True(t, IsStatus(err, http.StatusUnauthorized))
}

func TestClient_RejectsUnknownRole(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"token":"t","email":"a@x.com","role":"Root"}`))
	}))
	t.Cleanup(srv.Close)

	_, err := NewClient(srv.URL).Login(context.Background(), "a@x.com", "pw1")
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrUnknownRole)
}
