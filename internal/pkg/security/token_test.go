package security

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSecret = []byte("test-secret-at-least-16-bytes")

func TestGenerateAndVerifyToken(t *testing.T) {
	token, err := GenerateToken(testSecret, 42)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := VerifyToken(testSecret, token)
	require.NoError(t, err)
	assert.Equal(t, uint(42), claims.UserID)
	require.NotNil(t, claims.ExpiresAt)
	assert.WithinDuration(t, time.Now().Add(TokenTTL), claims.ExpiresAt.Time, time.Minute)
}

func TestVerifyTokenWrongSecret(t *testing.T) {
	token, err := GenerateToken(testSecret, 42)
	require.NoError(t, err)

	_, err = VerifyToken([]byte("a-completely-different-secret"), token)
	assert.Error(t, err)
}

func TestVerifyTokenGarbage(t *testing.T) {
	_, err := VerifyToken(testSecret, "not.a.token")
	assert.Error(t, err)
}

func TestVerifyTokenRejectsUnsignedAlgorithm(t *testing.T) {
	// A token signed with "none" must never verify, even with a valid shape.
	unsigned := jwt.NewWithClaims(jwt.SigningMethodNone, &Claims{UserID: 42})
	token, err := unsigned.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = VerifyToken(testSecret, token)
	assert.Error(t, err)
}

func TestVerifyTokenExpired(t *testing.T) {
	expired := jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{
		UserID: 42,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
		},
	})
	token, err := expired.SignedString(testSecret)
	require.NoError(t, err)

	_, err = VerifyToken(testSecret, token)
	assert.Error(t, err)
}
