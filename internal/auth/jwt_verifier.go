package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"zaidev/internal/domain"
	"zaidev/internal/domain/models"

	"github.com/MicahParks/keyfunc/v3"
	"github.com/golang-jwt/jwt/v5"
)

// allowedAlgorithms prevents algorithm confusion attacks.
var allowedAlgorithms = []string{"RS256", "ES256"}

// KeyJWTVerifier implements JWTVerifier with a key lookup function.
type KeyJWTVerifier struct {
	keyfunc      jwt.Keyfunc
	requiredRole string
	logger       *slog.Logger
}

// NewJWTVerifier creates a verifier that fetches public keys from a JWKS
// endpoint. Keys are cached and refreshed by keyfunc based on HTTP cache
// headers. requiredRole, when set, must equal the token's role claim.
func NewJWTVerifier(ctx context.Context, jwksURL, requiredRole string, logger *slog.Logger) (JWTVerifier, error) {
	if jwksURL == "" {
		return nil, errors.New("JWKS URL cannot be empty")
	}

	jwks, err := keyfunc.NewDefaultCtx(ctx, []string{jwksURL})
	if err != nil {
		return nil, fmt.Errorf("failed to create JWKS client: %w", err)
	}

	logger.Info("JWT verifier initialized", "jwks_url", jwksURL, "required_role", requiredRole)
	return NewKeyfuncVerifier(jwks.Keyfunc, requiredRole, logger), nil
}

// NewKeyfuncVerifier creates a verifier from an existing key lookup.
func NewKeyfuncVerifier(kf jwt.Keyfunc, requiredRole string, logger *slog.Logger) *KeyJWTVerifier {
	return &KeyJWTVerifier{
		keyfunc:      kf,
		requiredRole: requiredRole,
		logger:       logger,
	}
}

// VerifyToken validates a JWT token and extracts its claims.
// Every failure is reported as domain.ErrUnauthorized.
func (v *KeyJWTVerifier) VerifyToken(tokenString string) (*models.Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &models.Claims{}, v.keyfunc,
		jwt.WithValidMethods(allowedAlgorithms),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		v.logger.Debug("token parse failed", "error", err.Error())
		return nil, domain.ErrUnauthorized
	}
	if !token.Valid {
		return nil, domain.ErrUnauthorized
	}

	claims, ok := token.Claims.(*models.Claims)
	if !ok {
		v.logger.Error("failed to extract claims from token")
		return nil, domain.ErrUnauthorized
	}

	if claims.Subject == "" {
		v.logger.Debug("token missing subject claim")
		return nil, domain.ErrUnauthorized
	}

	if v.requiredRole != "" && claims.Role != v.requiredRole {
		v.logger.Warn("token has invalid role",
			"role", claims.Role,
			"expected", v.requiredRole,
			"user_id", claims.Subject,
		)
		return nil, domain.ErrUnauthorized
	}

	return claims, nil
}

// Close releases resources held by the JWT verifier.
// keyfunc manages its own refresh goroutine, so this only logs.
func (v *KeyJWTVerifier) Close() error {
	v.logger.Info("JWT verifier closed")
	return nil
}
