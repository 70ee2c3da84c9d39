package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/samvad-hq/samvad-comment-ingestor/pkg/httpclient"
)

// Manager owns the upstream session token. The token has no expiry timer; it
// stays valid until the upstream rejects it (401) and Invalidate is called, or
// a fresh Login replaces it.
type Manager struct {
	client   httpclient.Client
	loginURL string
	username string
	password string

	mu    sync.Mutex
	token string
}

// NewManager builds a Manager that performs the login exchange against loginURL.
func NewManager(client httpclient.Client, loginURL, username, password string) *Manager {
	return &Manager{
		client:   client,
		loginURL: loginURL,
		username: username,
		password: password,
	}
}

// Current returns the stored token, if any.
func (m *Manager) Current() (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.token, m.token != ""
}

// Invalidate clears the stored token.
func (m *Manager) Invalidate() {
	m.mu.Lock()
	m.token = ""
	m.mu.Unlock()
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string `json:"token"`
}

// Login performs the credential exchange and stores the resulting token.
// It never retries; the caller decides whether to retry the whole operation.
func (m *Manager) Login(ctx context.Context) error {
	resp, err := m.client.Post(ctx, m.loginURL, nil, loginRequest{
		Username: m.username,
		Password: m.password,
	})
	if err != nil {
		return fmt.Errorf("login request: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return fmt.Errorf("login returned status %d", resp.StatusCode())
	}

	var body loginResponse
	if err := json.Unmarshal(resp.Body(), &body); err != nil {
		return fmt.Errorf("decode login response: %w", err)
	}
	if strings.TrimSpace(body.Token) == "" {
		return fmt.Errorf("login response contains no token")
	}

	m.mu.Lock()
	m.token = body.Token
	m.mu.Unlock()
	return nil
}
