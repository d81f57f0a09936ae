package tokens

import (
	"encoding/base64"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/smartcart/internal/models"
)

var testSecret = []byte("test-secret-0123456789abcdef")

func newTestIssuer(t *testing.T, now *time.Time) *Issuer {
	t.Helper()

	iss, err := NewIssuer(testSecret, time.Hour, WithClock(func() time.Time { return *now }))
	require.NoError(t, err)
	return iss
}

func TestNewIssuer_RejectsBadInput(t *testing.T) {
	_, err := NewIssuer(nil, time.Hour)
	require.Error(t, err)

	_, err = NewIssuer(testSecret, 0)
	require.Error(t, err)
}

func TestIssuer_IssueAndValidate(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	iss := newTestIssuer(t, &now)

	token, exp, err := iss.Issue("a@x.com", models.RoleCustomer)
	require.NoError(t, err)
	require.NotEmpty(t, token)
	assert.Equal(t, now.Add(time.Hour), exp)

	claims, err := iss.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, "a@x.com", claims.Email())
	assert.Equal(t, models.RoleCustomer, claims.Role)
	assert.NotEmpty(t, claims.ID)
	assert.Equal(t, exp, claims.ExpiresAt.Time.UTC())
}

func TestIssuer_ExpiresAfterTTL(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	iss := newTestIssuer(t, &now)

	token, _, err := iss.Issue("a@x.com", models.RoleAdmin)
	require.NoError(t, err)

	now = now.Add(time.Hour - time.Second)
	_, err = iss.Validate(token)
	require.NoError(t, err)

	// exactly at exp: no clock skew allowance
	now = now.Add(time.Second)
	_, err = iss.Validate(token)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrExpired)
	assert.Equal(t, "expired", Kind(err))
}

func TestIssuer_WrongSecret(t *testing.T) {
	now := time.Now()
	iss := newTestIssuer(t, &now)

	other, err := NewIssuer([]byte("another-secret-0123456789"), time.Hour)
	require.NoError(t, err)

	token, _, err := other.Issue("a@x.com", models.RoleAdmin)
	require.NoError(t, err)

	_, err = iss.Validate(token)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrSignatureInvalid)
}

func TestIssuer_TamperedPayload(t *testing.T) {
	now := time.Now()
	iss := newTestIssuer(t, &now)

	token, _, err := iss.Issue("a@x.com", models.RoleCustomer)
	require.NoError(t, err)

	parts := strings.Split(token, ".")
	require.Len(t, parts, 3)
	payload := `{"role":"Admin","sub":"a@x.com","exp":` + strconv.FormatInt(now.Add(time.Hour).Unix(), 10) + `}`
	parts[1] = base64.RawURLEncoding.EncodeToString([]byte(payload))

	_, err = iss.Validate(strings.Join(parts, "."))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrSignatureInvalid)
}

func TestIssuer_RejectsNoneAlgorithm(t *testing.T) {
	now := time.Now()
	iss := newTestIssuer(t, &now)

	claims := jwt.MapClaims{"sub": "a@x.com", "role": "Admin", "exp": now.Add(time.Hour).Unix()}
	token, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = iss.Validate(token)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrSignatureInvalid)
}

func TestIssuer_Malformed(t *testing.T) {
	now := time.Now()
	iss := newTestIssuer(t, &now)

	sign := func(c jwt.MapClaims) string {
		s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(testSecret)
		require.NoError(t, err)
		return s
	}
	exp := now.Add(time.Hour).Unix()

	tests := []struct {
		name  string
		token string
	}{
		{name: "empty", token: ""},
		{name: "garbage", token: "not-a-jwt"},
		{name: "two segments", token: "abc.def"},
		{name: "missing exp", token: sign(jwt.MapClaims{"sub": "a@x.com", "role": "Customer"})},
		{name: "unknown role", token: sign(jwt.MapClaims{"sub": "a@x.com", "role": "Root", "exp": exp})},
		{name: "missing role", token: sign(jwt.MapClaims{"sub": "a@x.com", "exp": exp})},
		{name: "missing subject", token: sign(jwt.MapClaims{"role": "Customer", "exp": exp})},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := iss.Validate(tt.token)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrMalformed)
			assert.Equal(t, "malformed", Kind(err))
		})
	}
}

func TestIssuer_IssueRejectsInvalidRole(t *testing.T) {
	now := time.Now()
	iss := newTestIssuer(t, &now)

	_, _, err := iss.Issue("a@x.com", models.Role("Root"))
	assert.ErrorIs(t, err, models.ErrUnknownRole)

	_, _, err = iss.Issue("", models.RoleCustomer)
	assert.Error(t, err)
}
