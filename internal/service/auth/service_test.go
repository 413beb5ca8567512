package auth

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const secret = "0123456789abcdef0123456789abcdef"

func newService(t *testing.T) *Service {
	t.Helper()

	hash, err := HashPassword("s3cret")
	require.NoError(t, err)

	svc, err := New(Config{Secret: secret, TTL: time.Hour, Username: "admin", PasswordHash: hash})
	require.NoError(t, err)

	return svc
}

func TestLoginAndVerify(t *testing.T) {
	svc := newService(t)

	token, exp, err := svc.Login(context.Background(), "admin", "s3cret")
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), exp, time.Minute)

	claims, err := svc.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "admin", claims.Subject)
	assert.Equal(t, RoleAdmin, claims.Role)
}

func TestLogin_WrongCredentials(t *testing.T) {
	svc := newService(t)

	_, _, err := svc.Login(context.Background(), "admin", "nope")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, _, err = svc.Login(context.Background(), "root", "s3cret")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestVerify_Rejects(t *testing.T) {
	svc := newService(t)

	token, _, err := svc.Login(context.Background(), "admin", "s3cret")
	require.NoError(t, err)

	t.Run("expired", func(t *testing.T) {
		svc.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
		defer func() { svc.now = time.Now }()

		_, err := svc.Verify(token)
		assert.ErrorIs(t, err, ErrUnauthorized)
	})

	t.Run("other secret", func(t *testing.T) {
		forged, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
			Role: RoleAdmin,
			RegisteredClaims: jwt.RegisteredClaims{
				Issuer:    issuer,
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			},
		}).SignedString([]byte("another-secret-of-enough-length"))
		require.NoError(t, err)

		_, err = svc.Verify(forged)
		assert.ErrorIs(t, err, ErrUnauthorized)
	})

	t.Run("none alg", func(t *testing.T) {
		unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{
			Role: RoleAdmin,
			RegisteredClaims: jwt.RegisteredClaims{
				Issuer:    issuer,
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			},
		}).SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)

		_, err = svc.Verify(unsigned)
		assert.ErrorIs(t, err, ErrUnauthorized)
	})

	t.Run("wrong role", func(t *testing.T) {
		other, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
			Role: "buyer",
			RegisteredClaims: jwt.RegisteredClaims{
				Issuer:    issuer,
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			},
		}).SignedString([]byte(secret))
		require.NoError(t, err)

		_, err = svc.Verify(other)
		assert.ErrorIs(t, err, ErrUnauthorized)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := svc.Verify("not.a.token")
		assert.ErrorIs(t, err, ErrUnauthorized)
	})
}

func TestNew_RejectsBadConfig(t *testing.T) {
	_, err := New(Config{Secret: "short", Username: "admin", PasswordHash: "x"})
	assert.Error(t, err)

	_, err = New(Config{Secret: secret, Username: "admin", PasswordHash: "plain"})
	assert.Error(t, err)
}
