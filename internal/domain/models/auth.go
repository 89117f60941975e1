package models

import "github.com/golang-jwt/jwt/v5"

// Claims is the subset of bearer token claims the API relies on. Tokens from
// Supabase or any OIDC issuer publishing a JWKS carry these fields.
type Claims struct {
	jwt.RegisteredClaims // sub, iss, aud, exp, iat
	Email                string `json:"email,omitempty"`
	Role                 string `json:"role,omitempty"`
	SessionID            string `json:"session_id,omitempty"`
}

// GetUserID returns the user ID from the JWT subject claim.
func (c *Claims) GetUserID() string {
	return c.Subject
}
