package judgetest

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/openjudge/judgectl/session"
)

type contextKey int

const accountKey contextKey = iota

type grantResponse struct {
	TokenType             string           `json:"tokenType"`
	AccessToken           string           `json:"accessToken"`
	AccessTokenExpiresIn  int64            `json:"accessTokenExpiresIn"`
	RefreshToken          string           `json:"refreshToken"`
	RefreshTokenExpiresIn int64            `json:"refreshTokenExpiresIn"`
	User                  *session.Profile `json:"user"`
}

func (s *Server) profileOf(acc *account) *session.Profile {
	return &session.Profile{
		ID:       acc.ID,
		Username: acc.Username,
		Email:    acc.Email,
		Roles:    append([]string(nil), acc.Roles...),
		Status:   acc.Status,
	}
}

func (s *Server) mintAccessToken(acc *account) (string, error) {
	claims := jwt.RegisteredClaims{
		Subject:   acc.ID,
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(s.accessTTL)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.jwtSecret)
}

func (s *Server) grant(w http.ResponseWriter, acc *account) {
	access, err := s.mintAccessToken(acc)
	if err != nil {
		writeErr(w, http.StatusInternalServerError, "internal", "failed to mint token")
		return
	}
	refresh := uuid.NewString()
	s.mu.Lock()
	s.refresh[refresh] = refreshRecord{
		UserID:    acc.ID,
		ExpiresAt: time.Now().Add(defaultRefreshTTL),
	}
	s.mu.Unlock()

	writeData(w, http.StatusOK, grantResponse{
		TokenType:             "Bearer",
		AccessToken:           access,
		AccessTokenExpiresIn:  int64(s.accessTTL / time.Second),
		RefreshToken:          refresh,
		RefreshTokenExpiresIn: int64(defaultRefreshTTL / time.Second),
		User:                  s.profileOf(acc),
	})
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeJSON[struct {
		Identifier string `json:"identifier"`
		Password   string `json:"password"`
	}](w, r)
	if !ok {
		return
	}
	s.mu.Lock()
	acc := s.accounts[req.Identifier]
	s.mu.Unlock()
	if acc == nil || bcrypt.CompareHashAndPassword(acc.PasswordHash, []byte(req.Password)) != nil {
		writeErr(w, http.StatusOK, "invalid_credentials", "invalid identifier or password")
		return
	}
	s.grant(w, acc)
}

func (s *Server) register(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeJSON[struct {
		Username string `json:"username"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}](w, r)
	if !ok {
		return
	}
	if req.Username == "" || req.Email == "" || req.Password == "" {
		writeErr(w, http.StatusOK, "validation", "username, email and password are required")
		return
	}
	s.mu.Lock()
	_, taken := s.accounts[req.Username]
	s.mu.Unlock()
	if taken {
		writeErr(w, http.StatusOK, "conflict", "username is taken")
		return
	}
	s.SeedAccount(req.Username, req.Email, req.Password, "user")
	s.mu.Lock()
	acc := s.accounts[req.Username]
	s.mu.Unlock()
	s.grant(w, acc)
}

func (s *Server) refreshGrant(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeJSON[struct {
		RefreshToken string `json:"refreshToken"`
	}](w, r)
	if !ok {
		return
	}
	s.mu.Lock()
	rec, found := s.refresh[req.RefreshToken]
	if found {
		// Rotation: the old token is single-use.
		delete(s.refresh, req.RefreshToken)
	}
	s.mu.Unlock()
	if !found || time.Now().After(rec.ExpiresAt) {
		writeErr(w, http.StatusOK, "invalid_refresh", "refresh token is invalid or expired")
		return
	}
	acc := s.accountByID(rec.UserID)
	if acc == nil {
		writeErr(w, http.StatusOK, "invalid_refresh", "account no longer exists")
		return
	}
	s.grant(w, acc)
}

func (s *Server) logout(w http.ResponseWriter, r *http.Request) {
	writeData(w, http.StatusOK, nil)
}

func (s *Server) me(w http.ResponseWriter, r *http.Request) {
	acc := accountFromContext(r.Context())
	writeData(w, http.StatusOK, s.profileOf(acc))
}

func (s *Server) forgot(w http.ResponseWriter, r *http.Request) {
	if _, ok := decodeJSON[struct {
		Email string `json:"email"`
	}](w, r); !ok {
		return
	}
	writeData(w, http.StatusOK, nil)
}

func (s *Server) sendCode(w http.ResponseWriter, r *http.Request) {
	acc := accountFromContext(r.Context())
	code := s.issueCode()
	s.codes.Set(acc.ID, code, codeTTL)
	s.mu.Lock()
	s.lastCode = code
	s.codeSends++
	s.mu.Unlock()
	writeData(w, http.StatusOK, nil)
}

func (s *Server) verifyCode(w http.ResponseWriter, r *http.Request) {
	acc := accountFromContext(r.Context())
	req, ok := decodeJSON[struct {
		Code string `json:"code"`
	}](w, r)
	if !ok {
		return
	}
	want, found := s.codes.Get(acc.ID)
	if !found || want.(string) != req.Code {
		writeErr(w, http.StatusOK, "invalid_code", "one-time code is invalid or expired")
		return
	}
	s.codes.Delete(acc.ID)
	token := uuid.NewString()
	s.tokens.Set(token, acc.ID, sensitiveTTL)
	writeData(w, http.StatusOK, map[string]any{
		"token":     token,
		"expiresIn": int64(sensitiveTTL / time.Second),
	})
}

func (s *Server) accountByID(id string) *account {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, acc := range s.accounts {
		if acc.ID == id {
			return acc
		}
	}
	return nil
}

// authMiddleware verifies the Bearer JWT and rejects missing, malformed or
// expired tokens with a bare 401, which is what drives the client's
// session-clearing path.
func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		token, found := strings.CutPrefix(header, "Bearer ")
		if !found || token == "" {
			writeErr(w, http.StatusUnauthorized, "unauthorized", "authentication required")
			return
		}
		var claims jwt.RegisteredClaims
		_, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
			return s.jwtSecret, nil
		}, jwt.WithValidMethods([]string{"HS256"}))
		if err != nil {
			writeErr(w, http.StatusUnauthorized, "unauthorized", "token is invalid or expired")
			return
		}
		acc := s.accountByID(claims.Subject)
		if acc == nil {
			writeErr(w, http.StatusUnauthorized, "unauthorized", "unknown account")
			return
		}
		ctx := context.WithValue(r.Context(), accountKey, acc)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func accountFromContext(ctx context.Context) *account {
	acc, _ := ctx.Value(accountKey).(*account)
	return acc
}

// requireSensitive checks the sensitive-operation token header minted by
// the verify endpoint. Returns false after writing the step-up error.
func (s *Server) requireSensitive(w http.ResponseWriter, r *http.Request) bool {
	token := r.Header.Get("X-Sensitive-Token")
	if token == "" {
		writeErr(w, http.StatusForbidden, "step_up_required", "sensitive operation requires verification")
		return false
	}
	if _, found := s.tokens.Get(token); !found {
		writeErr(w, http.StatusForbidden, "step_up_invalid", "sensitive-operation token is invalid or expired")
		return false
	}
	return true
}
