// Package auth implements the remote auth flows: login, registration,
// token refresh and logout, updating the session store on success.
package auth

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/openjudge/judgectl/client"
	"github.com/openjudge/judgectl/session"
)

// ErrNoRefreshToken is returned by Refresh when the store holds no refresh
// token.
var ErrNoRefreshToken = errors.New("auth: no refresh token held")

// Service drives the auth endpoints and is the only writer of the session
// store besides the 401 clearing path in the HTTP client.
type Service struct {
	client *client.Client
	store  *session.Store

	mu         sync.Mutex
	refreshing *refreshCall
}

// refreshCall is one in-flight refresh exchange shared by concurrent
// callers, so two simultaneous refreshes cannot race each other's
// wholesale session replacement.
type refreshCall struct {
	done    chan struct{}
	profile *session.Profile
	err     error
}

// NewService creates an auth service around the given client and store.
func NewService(c *client.Client, store *session.Store) *Service {
	return &Service{client: c, store: store}
}

// Credentials is the JSON body for POST /auth/login.
type Credentials struct {
	Identifier string `json:"identifier"`
	Password   string `json:"password"`
}

// Registration is the JSON body for POST /auth/register.
type Registration struct {
	Username         string `json:"username"`
	Email            string `json:"email"`
	Password         string `json:"password"`
	VerificationCode string `json:"verificationCode,omitempty"`
}

// tokenGrant is the server's response to login, registration and refresh.
// Token lifetimes arrive in seconds.
type tokenGrant struct {
	TokenType             string           `json:"tokenType,omitempty"`
	AccessToken           string           `json:"accessToken"`
	AccessTokenExpiresIn  int64            `json:"accessTokenExpiresIn,omitempty"`
	RefreshToken          string           `json:"refreshToken,omitempty"`
	RefreshTokenExpiresIn int64            `json:"refreshTokenExpiresIn,omitempty"`
	User                  *session.Profile `json:"user,omitempty"`
}

// Login exchanges credentials for a session. On success every session
// field is replaced wholesale and persisted; the profile is returned.
func (s *Service) Login(ctx context.Context, creds Credentials) (*session.Profile, error) {
	return s.grant(ctx, "/auth/login", creds)
}

// Register creates an account and logs it in, replacing the session like
// Login.
func (s *Service) Register(ctx context.Context, details Registration) (*session.Profile, error) {
	return s.grant(ctx, "/auth/register", details)
}

func (s *Service) grant(ctx context.Context, path string, body any) (*session.Profile, error) {
	grant, err := client.Do[tokenGrant](ctx, s.client, client.Request{
		Method: http.MethodPost,
		Path:   path,
		Body:   body,
	})
	if err != nil {
		return nil, err
	}
	return s.applyGrant(grant)
}

func (s *Service) applyGrant(grant tokenGrant) (*session.Profile, error) {
	now := time.Now()
	sess := session.Session{
		TokenType:        grant.TokenType,
		AccessToken:      grant.AccessToken,
		AccessExpiresAt:  expiry(now, grant.AccessTokenExpiresIn, grant.AccessToken),
		RefreshToken:     grant.RefreshToken,
		RefreshExpiresAt: expiry(now, grant.RefreshTokenExpiresIn, ""),
		Profile:          grant.User,
	}
	if err := s.store.SetSession(sess); err != nil {
		return nil, err
	}
	return grant.User, nil
}

// expiry computes an absolute expiry from a server-given lifetime in
// seconds. When the server gives none and the token is a JWT, the exp claim
// is used instead, parsed without validation.
func expiry(now time.Time, lifetimeSeconds int64, token string) *time.Time {
	if lifetimeSeconds > 0 {
		t := now.Add(time.Duration(lifetimeSeconds) * time.Second)
		return &t
	}
	if token == "" {
		return nil
	}
	var claims jwt.RegisteredClaims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return nil
	}
	if claims.ExpiresAt == nil {
		return nil
	}
	t := claims.ExpiresAt.Time
	return &t
}

// Refresh exchanges the held refresh token for a new session. It fails fast
// with ErrNoRefreshToken when none is held. Concurrent callers share a
// single in-flight exchange and all receive its result.
func (s *Service) Refresh(ctx context.Context) (*session.Profile, error) {
	s.mu.Lock()
	if call := s.refreshing; call != nil {
		s.mu.Unlock()
		select {
		case <-call.done:
			return call.profile, call.err
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	call := &refreshCall{done: make(chan struct{})}
	s.refreshing = call
	s.mu.Unlock()

	call.profile, call.err = s.doRefresh(ctx)

	s.mu.Lock()
	s.refreshing = nil
	s.mu.Unlock()
	close(call.done)

	return call.profile, call.err
}

func (s *Service) doRefresh(ctx context.Context) (*session.Profile, error) {
	token, ok := s.store.RefreshToken()
	if !ok {
		return nil, ErrNoRefreshToken
	}
	return s.grant(ctx, "/auth/refresh", map[string]string{"refreshToken": token})
}

// Logout tells the server to drop the session, then clears local state.
// The remote call is best-effort: local state is cleared even when it fails.
func (s *Service) Logout(ctx context.Context) error {
	err := s.client.Call(ctx, client.Request{
		Method: http.MethodPost,
		Path:   "/auth/logout",
	}, nil)
	s.store.Clear()
	if err != nil && !client.IsCanceled(err) {
		return err
	}
	return nil
}

// Me fetches the current profile from the server.
func (s *Service) Me(ctx context.Context) (*session.Profile, error) {
	profile, err := client.Do[session.Profile](ctx, s.client, client.Request{
		Method: http.MethodGet,
		Path:   "/auth/me",
	})
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

// ForgotPassword asks the server to start a password reset for email.
func (s *Service) ForgotPassword(ctx context.Context, email string) error {
	return s.client.Call(ctx, client.Request{
		Method: http.MethodPost,
		Path:   "/auth/forgot",
		Body:   map[string]string{"email": email},
	}, nil)
}
