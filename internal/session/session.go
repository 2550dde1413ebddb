package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v4"

	"github.com/medipal-health/appstate-service/internal/config"
)

var (
	ErrTokenRequest = errors.New("token request failed")
	ErrNoSession    = errors.New("no active session")
)

// Session holds the backend access token for the signed-in user and
// refreshes it when it approaches expiry. The backend verifies tokens;
// the session only reads its own claims to know who is signed in.
type Session struct {
	cfg        config.AuthConfig
	httpClient *http.Client

	mu          sync.RWMutex
	accessToken string
	tokenExpiry time.Time
	userID      string
}

// New creates a session against the configured token endpoint.
func New(cfg config.AuthConfig) *Session {
	return &Session{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// AccessToken returns a valid access token, obtaining or refreshing one as
// needed.
func (s *Session) AccessToken(ctx context.Context) (string, error) {
	s.mu.RLock()
	if s.accessToken != "" && time.Now().Before(s.tokenExpiry) {
		token := s.accessToken
		s.mu.RUnlock()
		return token, nil
	}
	s.mu.RUnlock()

	s.mu.Lock()
	defer s.mu.Unlock()

	// Double check after acquiring write lock
	if s.accessToken != "" && time.Now().Before(s.tokenExpiry) {
		return s.accessToken, nil
	}

	data := url.Values{}
	data.Set("grant_type", "client_credentials")
	data.Set("client_id", s.cfg.ClientID)
	data.Set("client_secret", s.cfg.ClientSecret)

	req, err := http.NewRequestWithContext(ctx, "POST", s.cfg.TokenURL, strings.NewReader(data.Encode()))
	if err != nil {
		return "", fmt.Errorf("failed to create token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to request token: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		log.Printf("Failed to obtain access token: %d - %s", resp.StatusCode, string(body))
		return "", fmt.Errorf("%w: status %d", ErrTokenRequest, resp.StatusCode)
	}

	var result struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int    `json:"expires_in"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("failed to decode token response: %w", err)
	}

	s.storeTokenLocked(result.AccessToken, result.ExpiresIn)

	log.Printf("Obtained new access token (expires in %d seconds)", result.ExpiresIn)

	return s.accessToken, nil
}

// SetToken installs a token obtained elsewhere (e.g. the app's own sign-in
// flow) so the layer can run without the client-credentials endpoint.
func (s *Session) SetToken(raw string, expiresIn int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.storeTokenLocked(raw, expiresIn)
}

// storeTokenLocked keeps a 60 second buffer before expiry and extracts the
// user id from the token's sub claim. Caller must hold the write lock.
func (s *Session) storeTokenLocked(raw string, expiresIn int) {
	s.accessToken = raw
	s.tokenExpiry = time.Now().Add(time.Duration(expiresIn-60) * time.Second)
	s.userID = subjectOf(raw)
}

// UserID returns the signed-in user's id, or an error if no session exists.
func (s *Session) UserID() (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.userID == "" {
		return "", ErrNoSession
	}
	return s.userID, nil
}

// Clear drops the session (sign-out).
func (s *Session) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accessToken = ""
	s.tokenExpiry = time.Time{}
	s.userID = ""
}

// subjectOf reads the sub claim without verifying the signature. The server
// is the verifier; a garbled token simply yields an empty subject.
func subjectOf(raw string) string {
	parser := jwt.NewParser()
	token, _, err := parser.ParseUnverified(raw, jwt.MapClaims{})
	if err != nil {
		return ""
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return ""
	}
	sub, _ := claims["sub"].(string)
	return sub
}
