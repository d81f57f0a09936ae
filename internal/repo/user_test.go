package repo

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/Skotchmaster/smartcart/internal/db"
	"github.com/Skotchmaster/smartcart/internal/models"
)

func newTestRepo(t *testing.T) *GormRepo {
	t.Helper()

	gdb, err := db.Open(context.Background(), "")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close(gdb) })

	return &GormRepo{DB: gdb}
}

func newUser(email string) *models.User {
	return &models.User{Email: email, PasswordHash: "$2a$10$hash", Role: models.RoleCustomer}
}

func TestGormRepo_InsertAndFind(t *testing.T) {
	t.Parallel()

	r := newTestRepo(t)
	ctx := context.Background()

	u := newUser(" Alice@Example.com ")
	require.NoError(t, r.Insert(ctx, u))
	assert.NotZero(t, u.ID)
	assert.False(t, u.CreatedAt.IsZero())
	assert.Equal(t, "Alice@Example.com", u.Email)

	for _, lookup := range []string{"alice@example.com", "ALICE@EXAMPLE.COM", "Alice@Example.com"} {
		got, err := r.FindByEmail(ctx, lookup)
		require.NoError(t, err, lookup)
		assert.Equal(t, u.ID, got.ID)
		assert.Equal(t, models.RoleCustomer, got.Role)
	}

	got, err := r.FindByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "Alice@Example.com", got.Email)
}

func TestGormRepo_NotFound(t *testing.T) {
	t.Parallel()

	r := newTestRepo(t)
	ctx := context.Background()

	_, err := r.FindByEmail(ctx, "ghost@x.com")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = r.FindByID(ctx, 42)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGormRepo_InsertDuplicateIgnoresCase(t *testing.T) {
	t.Parallel()

	r := newTestRepo(t)
	ctx := context.Background()

	require.NoError(t, r.Insert(ctx, newUser("a@x.com")))

	err := r.Insert(ctx, newUser("A@X.COM"))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDuplicateEmail)

	users, err := r.ListAll(ctx)
	require.NoError(t, err)
	assert.Len(t, users, 1)
}

func TestGormRepo_ListAllAndPage(t *testing.T) {
	t.Parallel()

	r := newTestRepo(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		require.NoError(t, r.Insert(ctx, newUser(fmt.Sprintf("user%d@x.com", i))))
	}

	all, err := r.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 5)
	for i := 1; i < len(all); i++ {
		assert.Less(t, all[i-1].ID, all[i].ID)
	}

	page, total, err := r.ListPage(ctx, 2, 2)
	require.NoError(t, err)
	assert.EqualValues(t, 5, total)
	require.Len(t, page, 2)
	assert.Equal(t, "user2@x.com", page[0].Email)
	assert.Equal(t, "user3@x.com", page[1].Email)
}

func TestGormRepo_Ping(t *testing.T) {
	r := newTestRepo(t)
	require.NoError(t, r.Ping(context.Background()))
}

func TestIsUniqueViolation(t *testing.T) {
	t.Parallel()

	assert.True(t, isUniqueViolation(gorm.ErrDuplicatedKey))
	assert.True(t, isUniqueViolation(fmt.Errorf("wrap: %w", &pq.Error{Code: "23505"})))
	assert.False(t, isUniqueViolation(&pq.Error{Code: "23503"}))
	assert.True(t, isUniqueViolation(errors.New("constraint failed: UNIQUE constraint failed: users.email_key (2067)")))
	assert.False(t, isUniqueViolation(errors.New("database is locked")))
}
