package auth

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	DefaultTimeout = 30 * time.Second

	// maxErrorBody caps how much of an error response is read.
	maxErrorBody = 64 << 10
)

// Credentials is the JSON body of POST /login.
type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Session is the success payload of POST /login.
type Session struct {
	AccessToken  string `json:"access_token"`
	AccessExpiry int64  `json:"access_expiry"`
}

// Expiry converts AccessExpiry (unix seconds) to a time.
func (s *Session) Expiry() time.Time {
	return time.Unix(s.AccessExpiry, 0)
}

type errorResponse struct {
	Message string `json:"message"`
}

// Authenticator exchanges credentials for a session.
type Authenticator interface {
	Login(ctx context.Context, creds Credentials) (*Session, error)
}

// HTTPAuthenticator talks to {BaseURL}/login.
type HTTPAuthenticator struct {
	BaseURL string
	Client  *http.Client
	Logger  *zap.Logger
}

// NewHTTPAuthenticator returns an authenticator using HTTP/1.1, which avoids
// HTTP/2 issues with some edge proxies.
func NewHTTPAuthenticator(baseURL string, timeout time.Duration, logger *zap.Logger) *HTTPAuthenticator {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HTTPAuthenticator{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Client: &http.Client{
			Transport: &http.Transport{
				Proxy:        http.ProxyFromEnvironment,
				TLSNextProto: make(map[string]func(authority string, c *tls.Conn) http.RoundTripper),
			},
			Timeout: timeout,
		},
		Logger: logger,
	}
}

// Login sends one request. It never retries.
func (a *HTTPAuthenticator) Login(ctx context.Context, creds Credentials) (*Session, error) {
	body, err := json.Marshal(creds)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal login request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.BaseURL+"/login", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create login request: %w", err)
	}
	requestID := uuid.NewString()
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", requestID)

	log := a.logger().With(zap.String("request_id", requestID), zap.String("username", creds.Username))
	start := time.Now()

	resp, err := a.client().Do(req)
	if err != nil {
		log.Debug("login request failed", zap.Error(err), zap.Duration("elapsed", time.Since(start)))
		return nil, &TransportError{Err: err}
	}
	defer resp.Body.Close()

	log.Debug("login response",
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", time.Since(start)))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, decodeAPIError(resp, requestID)
	}

	var session Session
	if err := json.NewDecoder(resp.Body).Decode(&session); err != nil {
		return nil, fmt.Errorf("failed to parse login response: %w", err)
	}
	if session.AccessToken == "" {
		return nil, fmt.Errorf("login response missing access_token")
	}

	return &session, nil
}

func decodeAPIError(resp *http.Response, requestID string) *APIError {
	apiErr := &APIError{StatusCode: resp.StatusCode, RequestID: requestID}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err != nil || len(data) == 0 {
		return apiErr
	}

	var payload errorResponse
	if err := json.Unmarshal(data, &payload); err == nil {
		apiErr.Message = payload.Message
	}
	return apiErr
}

func (a *HTTPAuthenticator) client() *http.Client {
	if a.Client != nil {
		return a.Client
	}
	return http.DefaultClient
}

func (a *HTTPAuthenticator) logger() *zap.Logger {
	if a.Logger != nil {
		return a.Logger
	}
	return zap.NewNop()
}
