package auth_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openjudge/judgectl/auth"
	"github.com/openjudge/judgectl/client"
	"github.com/openjudge/judgectl/internal/judgetest"
	"github.com/openjudge/judgectl/session"
	"github.com/openjudge/judgectl/storage/memory"
)

func newService(t *testing.T, handler http.Handler) (*auth.Service, *session.Store) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	store := session.NewStore(memory.NewStore())
	c := client.New(srv.URL, client.WithCredentialSource(store))
	return auth.NewService(c, store), store
}

func grantJSON(t *testing.T, grant map[string]any) []byte {
	t.Helper()
	body, err := json.Marshal(map[string]any{"success": true, "data": grant})
	require.NoError(t, err)
	return body
}

func TestLoginEstablishesSession(t *testing.T) {
	svc, store := newService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/auth/login", r.URL.Path)
		var creds map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&creds))
		assert.Equal(t, "admin", creds["identifier"])
		w.Write(grantJSON(t, map[string]any{
			"accessToken":          "T1",
			"accessTokenExpiresIn": 3600,
			"refreshToken":         "R1",
			"user":                 map[string]any{"id": "u1", "username": "admin", "roles": []string{"admin"}},
		}))
	}))

	profile, err := svc.Login(context.Background(), auth.Credentials{Identifier: "admin", Password: "open-sesame"})
	require.NoError(t, err)
	require.NotNil(t, profile)
	assert.Equal(t, "admin", profile.Username)

	assert.True(t, store.IsAuthenticated())
	header, ok := store.AuthorizationHeader()
	require.True(t, ok)
	assert.Equal(t, "Bearer T1", header)

	exp := store.AccessExpiresAt()
	require.NotNil(t, exp)
	assert.WithinDuration(t, time.Now().Add(time.Hour), *exp, 5*time.Second)

	refresh, ok := store.RefreshToken()
	require.True(t, ok)
	assert.Equal(t, "R1", refresh)
}

func TestLoginFailureLeavesSessionEmpty(t *testing.T) {
	svc, store := newService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"success":false,"error":{"code":"invalid_credentials","message":"invalid credentials"}}`))
	}))

	_, err := svc.Login(context.Background(), auth.Credentials{Identifier: "admin", Password: "wrong"})
	var apiErr *client.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "invalid_credentials", apiErr.Code)
	assert.False(t, store.IsAuthenticated())
}

func TestExpiryFallsBackToJWTClaim(t *testing.T) {
	// No accessTokenExpiresIn in the grant: the exp claim of the token
	// itself supplies the expiry, parsed without signature validation.
	exp := time.Now().Add(30 * time.Minute).Truncate(time.Second)
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "u1",
		ExpiresAt: jwt.NewNumericDate(exp),
	})
	signed, err := token.SignedString([]byte("untrusted"))
	require.NoError(t, err)

	svc, store := newService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(grantJSON(t, map[string]any{"accessToken": signed}))
	}))

	_, err = svc.Login(context.Background(), auth.Credentials{})
	require.NoError(t, err)
	got := store.AccessExpiresAt()
	require.NotNil(t, got)
	assert.True(t, got.Equal(exp), "want %v, got %v", exp, got)
}

func TestRefreshWithoutTokenFailsFast(t *testing.T) {
	called := false
	svc, _ := newService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))

	_, err := svc.Refresh(context.Background())
	require.ErrorIs(t, err, auth.ErrNoRefreshToken)
	assert.False(t, called, "no network call expected")
}

func TestRefreshSingleFlight(t *testing.T) {
	var calls atomic.Int32
	svc, store := newService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/auth/login":
			w.Write(grantJSON(t, map[string]any{
				"accessToken":  "T1",
				"refreshToken": "R1",
			}))
		case "/auth/refresh":
			calls.Add(1)
			time.Sleep(50 * time.Millisecond)
			var body map[string]string
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, "R1", body["refreshToken"])
			w.Write(grantJSON(t, map[string]any{
				"accessToken":  "T2",
				"refreshToken": "R2",
			}))
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}))

	_, err := svc.Login(context.Background(), auth.Credentials{})
	require.NoError(t, err)

	var wg sync.WaitGroup
	errs := make([]error, 8)
	for i := range errs {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = svc.Refresh(context.Background())
		}()
	}
	wg.Wait()

	for _, err := range errs {
		require.NoError(t, err)
	}
	assert.Equal(t, int32(1), calls.Load(), "concurrent refreshes share one exchange")

	header, ok := store.AuthorizationHeader()
	require.True(t, ok)
	assert.Equal(t, "Bearer T2", header)
	refresh, ok := store.RefreshToken()
	require.True(t, ok)
	assert.Equal(t, "R2", refresh)
}

func TestLogoutClearsEvenWhenRemoteFails(t *testing.T) {
	svc, store := newService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/auth/login":
			w.Write(grantJSON(t, map[string]any{"accessToken": "T1"}))
		case "/auth/logout":
			w.WriteHeader(http.StatusInternalServerError)
			w.Write([]byte(`{"success":false,"error":{"message":"session service down"}}`))
		}
	}))

	_, err := svc.Login(context.Background(), auth.Credentials{})
	require.NoError(t, err)
	require.True(t, store.IsAuthenticated())

	err = svc.Logout(context.Background())
	require.Error(t, err)
	assert.False(t, store.IsAuthenticated(), "local state cleared regardless of remote outcome")
}

func TestRefreshRotation(t *testing.T) {
	backend := judgetest.New()
	srv := httptest.NewServer(backend.Handler())
	defer srv.Close()

	store := session.NewStore(memory.NewStore())
	c := client.New(srv.URL, client.WithCredentialSource(store))
	svc := auth.NewService(c, store)

	_, err := svc.Login(context.Background(), auth.Credentials{
		Identifier: "admin",
		Password:   "open-sesame",
	})
	require.NoError(t, err)
	first, ok := store.RefreshToken()
	require.True(t, ok)

	profile, err := svc.Refresh(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "admin", profile.Username)

	second, ok := store.RefreshToken()
	require.True(t, ok)
	assert.NotEqual(t, first, second, "refresh tokens rotate on use")

	// Replaying the old token must fail; the store keeps the live session.
	err = c.Call(context.Background(), client.Request{
		Method: http.MethodPost,
		Path:   "/auth/refresh",
		Body:   map[string]string{"refreshToken": first},
	}, nil)
	var apiErr *client.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "invalid_refresh", apiErr.Code)
	assert.True(t, store.IsAuthenticated())
}

func TestMe(t *testing.T) {
	svc, _ := newService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/auth/me", r.URL.Path)
		w.Write([]byte(`{"success":true,"data":{"id":"u1","username":"admin","email":"admin@judge.test"}}`))
	}))

	profile, err := svc.Me(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "admin@judge.test", profile.Email)
}
