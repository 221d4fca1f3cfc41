// Package api is a client for the Veg'N Bio REST backend.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	DefaultBaseURL = "http://localhost:8080/api/v1"
	DefaultTimeout = 10 * time.Second

	requestIDHeader = "X-Request-ID"
)

// ErrUnauthorized is returned for 401 responses. The session token is cleared
// before it is returned.
var ErrUnauthorized = errors.New("unauthorized")

// Error is a non-2xx response from the backend.
type Error struct {
	Status  int
	Message string
}

func (e *Error) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("api: status %d", e.Status)
	}
	return fmt.Sprintf("api: status %d: %s", e.Status, e.Message)
}

// Is lets errors.Is(err, ErrUnauthorized) match 401 responses.
func (e *Error) Is(target error) bool {
	return target == ErrUnauthorized && e.Status == http.StatusUnauthorized
}

// StatusCode returns the HTTP status carried by err, or 0.
func StatusCode(err error) int {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	return 0
}

// Token is a bearer token shared by every request of one customer session.
type Token struct {
	mu        sync.Mutex
	raw       string
	expiresAt time.Time
}

// Set stores raw. The expiry is read from the exp claim without checking the
// signature; the backend is the one that verifies it.
func (t *Token) Set(raw string) error {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(raw, claims); err != nil {
		return fmt.Errorf("failed to parse token: %w", err)
	}
	var expiresAt time.Time
	exp, err := claims.GetExpirationTime()
	if err != nil {
		return fmt.Errorf("failed to read token expiry: %w", err)
	}
	if exp != nil {
		expiresAt = exp.Time
	}
	t.mu.Lock()
	t.raw, t.expiresAt = raw, expiresAt
	t.mu.Unlock()
	return nil
}

// Bearer returns the token if it has not expired at now. An expired token is dropped.
func (t *Token) Bearer(now time.Time) string {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.raw == "" {
		return ""
	}
	if !t.expiresAt.IsZero() && !now.Before(t.expiresAt) {
		t.raw, t.expiresAt = "", time.Time{}
		return ""
	}
	return t.raw
}

func (t *Token) Clear() {
	t.mu.Lock()
	t.raw, t.expiresAt = "", time.Time{}
	t.mu.Unlock()
}

// LoggedIn reports whether a usable token is held.
func (t *Token) LoggedIn() bool {
	return t.Bearer(time.Now()) != ""
}

// Client talks to the backend. The zero value is not usable; use New.
type Client struct {
	baseURL    string
	httpClient *http.Client
	token      *Token
	logger     *zap.Logger
	now        func() time.Time
}

// New returns a client for baseURL. A zero timeout uses DefaultTimeout.
func New(baseURL string, timeout time.Duration, logger *zap.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
		now:        time.Now,
	}
}

// WithToken returns a copy of c that authenticates with tok.
func (c *Client) WithToken(tok *Token) *Client {
	cp := *c
	cp.token = tok
	return &cp
}

func (c *Client) get(ctx context.Context, path string, query url.Values, out any) error {
	if len(query) > 0 {
		path += "?" + query.Encode()
	}
	return c.do(ctx, http.MethodGet, path, nil, out)
}

func (c *Client) post(ctx context.Context, path string, in, out any) error {
	return c.do(ctx, http.MethodPost, path, in, out)
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	reqID := uuid.NewString()
	req.Header.Set(requestIDHeader, reqID)
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != nil {
		if bearer := c.token.Bearer(c.now()); bearer != "" {
			req.Header.Set("Authorization", "Bearer "+bearer)
		}
	}

	log := c.logger.With(zap.String("request_id", reqID), zap.String("method", method), zap.String("path", path))
	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.Warn("request failed", zap.Error(err))
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()
	log.Debug("request done", zap.Int("status", resp.StatusCode), zap.Duration("took", time.Since(start)))

	if resp.StatusCode == http.StatusUnauthorized && c.token != nil {
		c.token.Clear()
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &Error{Status: resp.StatusCode, Message: errorMessage(data)}
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", path, err)
	}
	return nil
}

// errorMessage pulls a message out of the backend's JSON error body, falling
// back to the raw text.
func errorMessage(body []byte) string {
	var payload struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		if payload.Message != "" {
			return payload.Message
		}
		if payload.Error != "" {
			return payload.Error
		}
	}
	return strings.TrimSpace(string(body))
}
