// Package judgetest provides an in-process fake of the judge platform's
// admin API, speaking the response-envelope protocol. It backs the package
// tests and the `judgectl devserver` command.
package judgetest

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"
	"golang.org/x/crypto/bcrypt"

	"github.com/openjudge/judgectl/admin"
)

const (
	defaultAccessTTL  = time.Hour
	defaultRefreshTTL = 720 * time.Hour
	codeTTL           = 5 * time.Minute
	sensitiveTTL      = 5 * time.Minute
)

type account struct {
	ID           string
	Username     string
	Email        string
	PasswordHash []byte
	Roles        []string
	Status       string
}

type refreshRecord struct {
	UserID    string
	ExpiresAt time.Time
}

// Server is the fake backend. All state is in memory; one-time codes and
// sensitive-operation tokens live in TTL caches.
type Server struct {
	mu        sync.Mutex
	jwtSecret []byte
	accessTTL time.Duration

	accounts map[string]*account // keyed by username and by email
	refresh  map[string]refreshRecord
	codes    *gocache.Cache // user ID -> one-time code
	tokens   *gocache.Cache // sensitive-operation token -> user ID

	lastCode  string
	codeSends int

	problems map[int64]*admin.Problem
	contests map[int64]*admin.Contest
	roles    map[int64]*admin.Role
	tags     map[int64]*admin.Tag
	datasets map[int64]*admin.Dataset
	comments map[int64]*admin.Comment
	words    map[int64]*admin.SensitiveWord
	nodes    map[string]*admin.JudgeNode
	jobs     map[int64]*admin.JudgeJob
	issued   map[string]*admin.AuthToken
	nextID   int64
}

// Option configures the fake server.
type Option func(*Server)

// WithAccessTTL overrides the access token lifetime.
func WithAccessTTL(d time.Duration) Option {
	return func(s *Server) { s.accessTTL = d }
}

// New creates a fake server with one seeded admin account
// (admin / open-sesame) and a handful of seeded resources.
func New(opts ...Option) *Server {
	s := &Server{
		jwtSecret: []byte(uuid.NewString()),
		accessTTL: defaultAccessTTL,
		accounts:  make(map[string]*account),
		refresh:   make(map[string]refreshRecord),
		codes:     gocache.New(codeTTL, 10*time.Minute),
		tokens:    gocache.New(sensitiveTTL, 10*time.Minute),
		problems:  make(map[int64]*admin.Problem),
		contests:  make(map[int64]*admin.Contest),
		roles:     make(map[int64]*admin.Role),
		tags:      make(map[int64]*admin.Tag),
		datasets:  make(map[int64]*admin.Dataset),
		comments:  make(map[int64]*admin.Comment),
		words:     make(map[int64]*admin.SensitiveWord),
		nodes:     make(map[string]*admin.JudgeNode),
		jobs:      make(map[int64]*admin.JudgeJob),
		issued:    make(map[string]*admin.AuthToken),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.SeedAccount("admin", "admin@judge.test", "open-sesame", "admin")
	s.seedResources()
	return s
}

// SeedAccount registers an account directly, bypassing the register
// endpoint.
func (s *Server) SeedAccount(username, email, password string, roles ...string) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		panic(err)
	}
	acc := &account{
		ID:           uuid.NewString(),
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		Roles:        roles,
		Status:       "active",
	}
	s.mu.Lock()
	s.accounts[username] = acc
	s.accounts[email] = acc
	s.mu.Unlock()
}

// LastCode returns the most recently "delivered" one-time code.
func (s *Server) LastCode() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastCode
}

// CodeSends returns how many one-time codes have been sent.
func (s *Server) CodeSends() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.codeSends
}

// Handler returns the chi router for the fake API.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	// Health predates the envelope convention and returns a bare payload.
	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	})

	r.Post("/auth/login", s.login)
	r.Post("/auth/register", s.register)
	r.Post("/auth/refresh", s.refreshGrant)
	r.Post("/auth/forgot", s.forgot)
	r.Group(func(r chi.Router) {
		r.Use(s.authMiddleware)
		r.Post("/auth/logout", s.logout)
		r.Get("/auth/me", s.me)
		r.Post("/auth/sensitive/send-code", s.sendCode)
		r.Post("/auth/sensitive/verify", s.verifyCode)
	})

	r.Route("/admin", func(r chi.Router) {
		r.Use(s.authMiddleware)
		s.mountAdmin(r)
	})

	return r
}

func (s *Server) nextNumericID() int64 {
	s.nextID++
	return s.nextID
}

func (s *Server) seedResources() {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now().UTC()

	for i, title := range []string{"Two Sum", "Shortest Path", "Segment Tree Beats"} {
		id := s.nextNumericID()
		s.problems[id] = &admin.Problem{
			ID:         id,
			Title:      title,
			Difficulty: []string{"easy", "medium", "hard"}[i],
			Visible:    true,
			CreatedAt:  now,
		}
	}
	id := s.nextNumericID()
	s.contests[id] = &admin.Contest{
		ID:      id,
		Title:   "Weekly Round 1",
		Kind:    "icpc",
		StartAt: now.Add(24 * time.Hour),
		EndAt:   now.Add(29 * time.Hour),
		Visible: true,
	}
	for _, name := range []string{"graphs", "dp"} {
		id := s.nextNumericID()
		s.tags[id] = &admin.Tag{ID: id, Name: name}
	}
	id = s.nextNumericID()
	s.roles[id] = &admin.Role{ID: id, Name: "moderator", Permissions: []string{"comments:moderate"}}

	nodeID := uuid.NewString()
	s.nodes[nodeID] = &admin.JudgeNode{ID: nodeID, Hostname: "judge-1", Status: "online", LastSeen: now}
	for i := 0; i < 3; i++ {
		id := s.nextNumericID()
		s.jobs[id] = &admin.JudgeJob{
			ID:          id,
			ProblemID:   1,
			Submitter:   "contestant",
			NodeID:      nodeID,
			Status:      "finished",
			Verdict:     "wrong_answer",
			SubmittedAt: now.Add(-time.Hour),
		}
	}
	tok := uuid.NewString()
	s.issued[tok] = &admin.AuthToken{ID: tok, UserID: "seed", Kind: "api", IssuedAt: now}
}

func (s *Server) issueCode() string {
	return fmt.Sprintf("%06d", rand.Intn(1000000))
}
