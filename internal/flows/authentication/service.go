package authentication

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// LoginMode is how a homeserver accepts logins.
type LoginMode int

const (
	LoginPassword LoginMode = iota
	LoginOIDC
)

func (m LoginMode) String() string {
	if m == LoginOIDC {
		return "oidc"
	}
	return "password"
}

var (
	// ErrUserCancelled is returned when the user abandons an OIDC login.
	ErrUserCancelled = errors.New("user cancelled authentication")
	// ErrServerUnreachable is returned when a homeserver cannot be configured.
	ErrServerUnreachable = errors.New("homeserver unreachable")
	// ErrInvalidCredentials is returned for a rejected password login.
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// Service talks to the homeserver on behalf of the flow.
type Service interface {
	Configure(ctx context.Context, server string) (LoginMode, error)
	LoginWithOIDC(ctx context.Context) (userID string, err error)
	Login(ctx context.Context, username, password string) (userID string, err error)
}

// MemoryService is a scripted Service.
type MemoryService struct {
	mu       sync.Mutex
	servers  map[string]LoginMode
	accounts map[string]string
	oidcUser string
	oidcErr  error
	server   string
}

func NewMemoryService() *MemoryService {
	return &MemoryService{servers: make(map[string]LoginMode), accounts: make(map[string]string)}
}

// AddServer registers a reachable homeserver.
func (s *MemoryService) AddServer(server string, mode LoginMode) {
	s.mu.Lock()
	s.servers[server] = mode
	s.mu.Unlock()
}

// AddAccount registers a password account on any server.
func (s *MemoryService) AddAccount(username, password string) {
	s.mu.Lock()
	s.accounts[username] = password
	s.mu.Unlock()
}

// SetOIDCResult scripts the outcome of OIDC logins.
func (s *MemoryService) SetOIDCResult(userID string, err error) {
	s.mu.Lock()
	s.oidcUser, s.oidcErr = userID, err
	s.mu.Unlock()
}

func (s *MemoryService) Configure(ctx context.Context, server string) (LoginMode, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	mode, ok := s.servers[server]
	if !ok {
		return 0, fmt.Errorf("configure %s: %w", server, ErrServerUnreachable)
	}
	s.server = server
	return mode, nil
}

func (s *MemoryService) LoginWithOIDC(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.oidcUser, s.oidcErr
}

func (s *MemoryService) Login(ctx context.Context, username, password string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if want, ok := s.accounts[username]; !ok || want != password {
		return "", fmt.Errorf("login %s: %w", username, ErrInvalidCredentials)
	}
	return "@" + username + ":" + s.server, nil
}
