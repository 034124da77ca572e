package admin

import (
	"context"
	"net/http"
	"time"

	"github.com/openjudge/judgectl/client"
)

// AuthToken is one issued credential visible on the token screen.
type AuthToken struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	Kind      string    `json:"kind,omitempty"`
	IssuedAt  time.Time `json:"issuedAt,omitempty"`
	ExpiresAt time.Time `json:"expiresAt,omitempty"`
	Revoked   bool      `json:"revoked"`
}

// TokenPage is one page of the issued-token list.
type TokenPage struct {
	Tokens []AuthToken `json:"tokens"`
	Meta   ListMeta    `json:"meta"`
}

// ListTokens returns one page of issued tokens matching q.
func (s *Service) ListTokens(ctx context.Context, q ListQuery) (*TokenPage, error) {
	return doList[TokenPage](ctx, s.c, "/admin/tokens", q.values())
}

// RevokeToken invalidates an issued credential. Destructive: requires a
// sensitive-operation token from the step-up gate.
func (s *Service) RevokeToken(ctx context.Context, id string, sensitiveToken string) error {
	return s.c.Call(ctx, client.Request{
		Method: http.MethodPost,
		Path:   "/admin/tokens/" + id + "/revoke",
		Header: sensitiveHeader(sensitiveToken),
	}, nil)
}
