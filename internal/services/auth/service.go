package auth

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/mcoot/bouncetimer/internal/dependencies/clock"
	"github.com/mcoot/bouncetimer/internal/dependencies/random"
)

// Errors
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidSession     = errors.New("invalid or expired session")
	ErrForbidden          = errors.New("operator role not allowed")
)

// Role is the operator's permission level
type Role string

const (
	// RoleAdmin registers players and manages their slots
	RoleAdmin Role = "admin"
	// RoleEmployee only watches the timers
	RoleEmployee Role = "employee"
)

// Valid reports whether r is a known role
func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleEmployee
}

// CanManage reports whether the role may mutate the player store
func (r Role) CanManage() bool {
	return r == RoleAdmin
}

// Operator is a static login
type Operator struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	Role     Role   `yaml:"role"`
}

// Session represents an authenticated operator
type Session struct {
	Token     string
	Username  string
	Role      Role
	CreatedAt time.Time
	ExpiresAt time.Time
}

// Config holds configuration for the auth service
type Config struct {
	SessionDuration time.Duration
	Operators       []Operator
	// BcryptCost is the hashing cost for operator passwords; zero means bcrypt.DefaultCost
	BcryptCost int
}

// DefaultConfig returns default auth configuration
func DefaultConfig() Config {
	return Config{
		SessionDuration: 12 * time.Hour,
		Operators: []Operator{
			{Username: "admin", Password: "123", Role: RoleAdmin},
			{Username: "Usuario", Password: "123", Role: RoleEmployee},
		},
	}
}

const tokenAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

type credential struct {
	role Role
	hash []byte
}

// Service matches operator credentials and tracks sessions
type Service struct {
	clock  clock.Clock
	random random.Random

	credentials map[string]credential

	mu       sync.RWMutex
	sessions map[string]*Session

	sessionDuration time.Duration
}

// New creates a new auth Service. Passwords are only kept as bcrypt hashes.
func New(clock clock.Clock, random random.Random, cfg Config) (*Service, error) {
	if cfg.SessionDuration == 0 {
		cfg.SessionDuration = DefaultConfig().SessionDuration
	}
	cost := cfg.BcryptCost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}

	credentials := make(map[string]credential, len(cfg.Operators))
	for _, op := range cfg.Operators {
		if op.Username == "" {
			return nil, errors.New("operator username is required")
		}
		if !op.Role.Valid() {
			return nil, fmt.Errorf("operator %q has unknown role %q", op.Username, op.Role)
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(op.Password), cost)
		if err != nil {
			return nil, fmt.Errorf("hash password for %q: %w", op.Username, err)
		}
		credentials[op.Username] = credential{role: op.Role, hash: hash}
	}

	return &Service{
		clock:           clock,
		random:          random,
		credentials:     credentials,
		sessions:        make(map[string]*Session),
		sessionDuration: cfg.SessionDuration,
	}, nil
}

// Login matches a username and password and creates a session
func (s *Service) Login(username, password string) (*Session, error) {
	cred, ok := s.credentials[username]
	if !ok {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword(cred.hash, []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return s.createSession(username, cred.role), nil
}

// ValidateSession checks if a session token is valid and returns the session
func (s *Service) ValidateSession(token string) (*Session, error) {
	s.mu.RLock()
	session, ok := s.sessions[token]
	s.mu.RUnlock()

	if !ok {
		return nil, ErrInvalidSession
	}

	if s.clock.Now().After(session.ExpiresAt) {
		s.mu.Lock()
		delete(s.sessions, token)
		s.mu.Unlock()
		return nil, ErrInvalidSession
	}

	return session, nil
}

// InvalidateSession removes a session
func (s *Service) InvalidateSession(token string) {
	s.mu.Lock()
	delete(s.sessions, token)
	s.mu.Unlock()
}

func (s *Service) createSession(username string, role Role) *Session {
	now := s.clock.Now()
	session := &Session{
		Token:     s.newToken(),
		Username:  username,
		Role:      role,
		CreatedAt: now,
		ExpiresAt: now.Add(s.sessionDuration),
	}

	s.mu.Lock()
	s.sessions[session.Token] = session
	s.mu.Unlock()

	return session
}

// newToken generates a session token that is not in use
func (s *Service) newToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for {
		token := "sess_" + s.random.String(32, tokenAlphabet)
		if _, exists := s.sessions[token]; !exists {
			return token
		}
	}
}

// CleanExpiredSessions removes expired sessions (call periodically)
func (s *Service) CleanExpiredSessions() {
	now := s.clock.Now()
	s.mu.Lock()
	defer s.mu.Unlock()

	for token, session := range s.sessions {
		if now.After(session.ExpiresAt) {
			delete(s.sessions, token)
		}
	}
}
