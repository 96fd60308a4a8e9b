package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef0123456789abcdef"

var issuedAt = time.Date(2024, time.January, 1, 12, 0, 0, 0, time.UTC)

func newManager(t *testing.T) *TokenManager {
	t.Helper()
	m, err := NewTokenManager(testSecret, time.Hour)
	require.NoError(t, err)
	return m
}

func TestTokenRoundTrip(t *testing.T) {
	t.Parallel()

	m := newManager(t)
	token, expiresAt, err := m.Issue("nova", issuedAt)
	require.NoError(t, err)
	assert.Equal(t, issuedAt.Add(time.Hour), expiresAt)
	assert.Len(t, strings.Split(token, "."), 3)

	username, err := m.Verify(token, issuedAt.Add(30*time.Minute))
	require.NoError(t, err)
	assert.Equal(t, "nova", username)
}

func TestTokenExpires(t *testing.T) {
	t.Parallel()

	m := newManager(t)
	token, _, err := m.Issue("nova", issuedAt)
	require.NoError(t, err)

	_, err = m.Verify(token, issuedAt.Add(2*time.Hour))
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestTokenRejectsTampering(t *testing.T) {
	t.Parallel()

	m := newManager(t)
	token, _, err := m.Issue("nova", issuedAt)
	require.NoError(t, err)

	other, err := NewTokenManager(strings.Repeat("x", 32), time.Hour)
	require.NoError(t, err)
	_, err = other.Verify(token, issuedAt)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = m.Verify(token+"x", issuedAt)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = m.Verify("not-a-token", issuedAt)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenRejectsUnsignedAlgorithm(t *testing.T) {
	t.Parallel()

	claims := &Claims{
		Username: "root",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "root",
			Issuer:    issuer,
			ExpiresAt: jwt.NewNumericDate(issuedAt.Add(time.Hour)),
		},
	}
	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = newManager(t).Verify(unsigned, issuedAt)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestNewTokenManagerValidates(t *testing.T) {
	t.Parallel()

	_, err := NewTokenManager("short", time.Hour)
	assert.ErrorIs(t, err, ErrWeakSecret)

	_, err = NewTokenManager(testSecret, 0)
	assert.Error(t, err)

	_, _, err = newManager(t).Issue("  ", issuedAt)
	assert.Error(t, err)
}
