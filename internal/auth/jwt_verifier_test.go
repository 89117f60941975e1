package auth

import (
	"crypto/rand"
	"crypto/rsa"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"zaidev/internal/domain"
	"zaidev/internal/domain/models"
)

func newRSAVerifier(t *testing.T, role string) (*KeyJWTVerifier, *rsa.PrivateKey) {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	kf := func(*jwt.Token) (interface{}, error) { return &key.PublicKey, nil }
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewKeyfuncVerifier(kf, role, logger), key
}

func sign(t *testing.T, key *rsa.PrivateKey, claims models.Claims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodRS256, claims).SignedString(key)
	require.NoError(t, err)
	return s
}

func validClaims() models.Claims {
	return models.Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user-1",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
		Role: "authenticated",
	}
}

func TestVerifyTokenAcceptsValidToken(t *testing.T) {
	v, key := newRSAVerifier(t, "authenticated")

	claims, err := v.VerifyToken(sign(t, key, validClaims()))
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.GetUserID())
}

func TestVerifyTokenRejects(t *testing.T) {
	v, key := newRSAVerifier(t, "authenticated")

	expired := validClaims()
	expired.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Minute))

	noSubject := validClaims()
	noSubject.Subject = ""

	anon := validClaims()
	anon.Role = "anon"

	noExpiry := validClaims()
	noExpiry.ExpiresAt = nil

	hmac, err := jwt.NewWithClaims(jwt.SigningMethodHS256, validClaims()).SignedString([]byte("secret"))
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
	}{
		{"expired", sign(t, key, expired)},
		{"missing subject", sign(t, key, noSubject)},
		{"wrong role", sign(t, key, anon)},
		{"missing expiry", sign(t, key, noExpiry)},
		{"hmac algorithm", hmac},
		{"garbage", "not-a-token"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := v.VerifyToken(tt.token)
			assert.ErrorIs(t, err, domain.ErrUnauthorized)
		})
	}
}

func TestVerifyTokenWithoutRequiredRole(t *testing.T) {
	v, key := newRSAVerifier(t, "")

	c := validClaims()
	c.Role = ""
	_, err := v.VerifyToken(sign(t, key, c))
	assert.NoError(t, err)
}
