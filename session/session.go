// Package session owns the client-side credential state: the token pair,
// its expiry timestamps and the authenticated user profile.
package session

import "time"

// DefaultTokenType is the Authorization scheme used when the server does
// not name one.
const DefaultTokenType = "Bearer"

// Profile is the authenticated user as reported by the server.
type Profile struct {
	ID       string   `json:"id"`
	Username string   `json:"username"`
	Email    string   `json:"email"`
	Roles    []string `json:"roles"`
	Avatar   string   `json:"avatar,omitempty"`
	Status   string   `json:"status,omitempty"`
}

// HasRole reports whether the profile carries the named role.
func (p *Profile) HasRole(role string) bool {
	if p == nil {
		return false
	}
	for _, r := range p.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// Session is the full credential state, in the shape persisted to durable
// storage as a single JSON blob.
type Session struct {
	TokenType        string     `json:"token_type,omitempty"`
	AccessToken      string     `json:"access_token,omitempty"`
	AccessExpiresAt  *time.Time `json:"access_expires_at,omitempty"`
	RefreshToken     string     `json:"refresh_token,omitempty"`
	RefreshExpiresAt *time.Time `json:"refresh_expires_at,omitempty"`
	Profile          *Profile   `json:"profile,omitempty"`
}
