package session

import (
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/awnumar/memguard"

	"github.com/openjudge/judgectl/storage"
)

// Store is the single source of truth for "am I logged in" and "what
// credential do I attach to requests". All session state is owned here;
// callers read through accessors and replace state only wholesale.
//
// The refresh token is the long-lived credential, so while held in memory
// it lives in a memguard Enclave and is opened only to persist the session
// or to perform a refresh exchange.
type Store struct {
	mu      sync.RWMutex
	backing storage.Store
	logger  *slog.Logger

	tokenType        string
	accessToken      string
	accessExpiresAt  *time.Time
	refresh          *memguard.Enclave
	refreshExpiresAt *time.Time
	profile          *Profile
}

// StoreOption configures the Store.
type StoreOption func(*Store)

// WithLogger sets the structured logger used for storage round-trip
// diagnostics.
func WithLogger(logger *slog.Logger) StoreOption {
	return func(s *Store) { s.logger = logger }
}

// NewStore creates a Store persisting to backing. A previously persisted
// session is restored; an absent or corrupt entry yields an empty session.
func NewStore(backing storage.Store, opts ...StoreOption) *Store {
	s := &Store{backing: backing}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	s.restore()
	return s
}

func (s *Store) restore() {
	data, err := s.backing.Load()
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			s.logger.Warn("loading persisted session", slog.Any("error", err))
		}
		return
	}
	var sess Session
	if err := json.Unmarshal(data, &sess); err != nil {
		s.logger.Warn("persisted session is corrupt, starting empty", slog.Any("error", err))
		return
	}
	s.apply(sess)
}

// apply replaces all in-memory fields from sess. Called under s.mu, or from
// the constructor before the store is shared.
func (s *Store) apply(sess Session) {
	s.tokenType = sess.TokenType
	if s.tokenType == "" && sess.AccessToken != "" {
		s.tokenType = DefaultTokenType
	}
	s.accessToken = sess.AccessToken
	s.accessExpiresAt = sess.AccessExpiresAt
	s.refresh = nil
	if sess.RefreshToken != "" {
		s.refresh = memguard.NewEnclave([]byte(sess.RefreshToken))
	}
	s.refreshExpiresAt = sess.RefreshExpiresAt
	s.profile = sess.Profile
}

// SetSession atomically replaces every session field and persists the
// result to durable storage.
func (s *Store) SetSession(sess Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, err := json.Marshal(sess)
	if err != nil {
		return err
	}
	s.apply(sess)
	if err := s.backing.Save(data); err != nil {
		s.logger.Warn("persisting session", slog.Any("error", err))
		return err
	}
	return nil
}

// Clear resets every field to its empty state and removes the durable
// storage entry. Idempotent; safe to call when already logged out.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokenType = ""
	s.accessToken = ""
	s.accessExpiresAt = nil
	s.refresh = nil
	s.refreshExpiresAt = nil
	s.profile = nil
	if err := s.backing.Delete(); err != nil {
		s.logger.Warn("removing persisted session", slog.Any("error", err))
	}
}

// IsAuthenticated derives the login state on every call: an access token is
// held and either carries no expiry or expires strictly in the future.
// Cached data may remain after expiry; it does not count as authenticated.
func (s *Store) IsAuthenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.accessToken == "" {
		return false
	}
	return s.accessExpiresAt == nil || s.accessExpiresAt.After(time.Now())
}

// AuthorizationHeader returns "{scheme} {accessToken}" when an access token
// is held. Implements client.CredentialSource together with Clear.
func (s *Store) AuthorizationHeader() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.accessToken == "" {
		return "", false
	}
	scheme := s.tokenType
	if scheme == "" {
		scheme = DefaultTokenType
	}
	return scheme + " " + s.accessToken, true
}

// RefreshToken opens the enclave and returns a copy of the refresh token.
func (s *Store) RefreshToken() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.refresh == nil {
		return "", false
	}
	buf, err := s.refresh.Open()
	if err != nil {
		return "", false
	}
	defer buf.Destroy()
	return string(buf.Bytes()), true
}

// Profile returns the cached user profile, or nil when none is held. The
// returned value is a copy; mutating it does not affect the store.
func (s *Store) Profile() *Profile {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.profile == nil {
		return nil
	}
	p := *s.profile
	p.Roles = append([]string(nil), s.profile.Roles...)
	return &p
}

// AccessExpiresAt returns the access token expiry, or nil when none is set.
func (s *Store) AccessExpiresAt() *time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.accessExpiresAt == nil {
		return nil
	}
	t := *s.accessExpiresAt
	return &t
}
