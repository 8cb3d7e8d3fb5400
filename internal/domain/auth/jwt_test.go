package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storehouse/internal/core/id"
)

func TestJWTService_RoundTrip(t *testing.T) {
	svc := NewJWTService(DefaultJWTConfig("secret"))
	userID := id.New()

	token, expiresAt, err := svc.GenerateAccessToken(userID, "keeper@example.com", []string{"storekeeper"})
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(15*time.Minute), expiresAt, 5*time.Second)

	user, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, userID.String(), user.UserID)
	assert.Equal(t, []string{"storekeeper"}, user.Roles)
}

func TestJWTService_FallsBackToUID(t *testing.T) {
	svc := NewJWTService(DefaultJWTConfig("secret"))
	userID := id.New()

	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "storehouse",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
		},
		UserID: userID.String(),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("secret"))
	require.NoError(t, err)

	user, err := svc.ValidateToken(signed)
	require.NoError(t, err)
	assert.Equal(t, userID.String(), user.UserID)
}

func TestJWTService_Rejects(t *testing.T) {
	svc := NewJWTService(DefaultJWTConfig("secret"))

	other := NewJWTService(DefaultJWTConfig("other-secret"))
	foreign, _, err := other.GenerateAccessToken(id.New(), "", nil)
	require.NoError(t, err)

	expired := NewJWTService(DefaultJWTConfig("secret"))
	expired.now = func() time.Time { return time.Now().Add(-time.Hour) }
	stale, _, err := expired.GenerateAccessToken(id.New(), "", nil)
	require.NoError(t, err)

	noSubject, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{Issuer: "storehouse"},
	}).SignedString([]byte("secret"))
	require.NoError(t, err)

	tests := map[string]string{
		"wrong secret": foreign,
		"expired":      stale,
		"garbage":      "not-a-token",
		"no subject":   noSubject,
	}
	for name, token := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := svc.ValidateToken(token)
			assert.Error(t, err)
		})
	}
}
