// Package auth issues and validates the bearer tokens the control
// plane's admin API accepts, mirroring the teacher's
// controlplane/api/auth package trimmed to a single admin identity (no
// per-user roles/groups, since the admin API's only subject is the
// server operator, not an SMB2 client).
package auth

import "github.com/golang-jwt/jwt/v5"

// TokenType distinguishes a short-lived access token from a
// longer-lived refresh token, both encoded the same way.
type TokenType string

const (
	TokenTypeAccess  TokenType = "access"
	TokenTypeRefresh TokenType = "refresh"
)

// Claims identifies the admin principal a token was issued to.
type Claims struct {
	jwt.RegisteredClaims

	Username  string    `json:"username"`
	TokenType TokenType `json:"token_type"`
}

func (c *Claims) IsAccessToken() bool  { return c.TokenType == TokenTypeAccess }
func (c *Claims) IsRefreshToken() bool { return c.TokenType == TokenTypeRefresh }
