// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kluniversity/klu-agent/internal/offline"
	"github.com/kluniversity/klu-agent/internal/util"
)

const (
	// DevelopmentURL is used when the client runs on a loopback origin.
	DevelopmentURL = "http://localhost:8000"

	// ChatPath is the chat endpoint path.
	ChatPath = "/api/chat"

	// MaxResponseSize caps the response body read.
	// SECURITY: Response size limit prevents memory exhaustion.
	MaxResponseSize = 2 * 1024 * 1024
)

// PERFORMANCE: Connection pooling reduces TCP handshake overhead.
var sharedTransport = &http.Transport{
	Proxy:               http.ProxyFromEnvironment,
	MaxIdleConns:        10,
	MaxIdleConnsPerHost: 4,
	IdleConnTimeout:     90 * time.Second,
	TLSHandshakeTimeout: 10 * time.Second,
}

var (
	// ErrMalformedResponse indicates a 2xx response that could not be used.
	ErrMalformedResponse = errors.New("malformed chat response")

	// ErrEmptyMessage is returned when asked to send a blank message.
	ErrEmptyMessage = errors.New("message is empty")
)

// StatusError is returned for non-2xx responses.
type StatusError struct {
	Status int
	Body   string
}

// Error implements the error interface.
func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("chat API error (HTTP %d)", e.Status)
	}
	return fmt.Sprintf("chat API error (HTTP %d): %s", e.Status, e.Body)
}

// =============================================================================
// WIRE TYPES
// =============================================================================

// ChatRequest is the request body of POST /api/chat.
type ChatRequest struct {
	Message string `json:"message"`
}

// ChatResponse is the success body of POST /api/chat.
type ChatResponse struct {
	Answer       string   `json:"answer"`
	Sources      []string `json:"sources"`
	ToolsUsed    []string `json:"tools_used"`
	ResponseTime float64  `json:"response_time"`
}

// =============================================================================
// BASE URL
// =============================================================================

// ResolveBaseURL picks the API base for a client origin. Loopback or empty
// origins use DevelopmentURL; any other origin is used as is.
func ResolveBaseURL(origin string) string {
	origin = strings.TrimRight(strings.TrimSpace(origin), "/")
	if origin == "" {
		return DevelopmentURL
	}

	host := origin
	if u, err := url.Parse(origin); err == nil && u.Host != "" {
		host = u.Hostname()
	} else if h, _, err := net.SplitHostPort(origin); err == nil {
		host = h
	}

	if offline.IsLocalhost(host) {
		return DevelopmentURL
	}
	if !strings.Contains(origin, "://") {
		return "http://" + origin
	}
	return origin
}

// =============================================================================
// CLIENT
// =============================================================================

// Client talks to the chat API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a client for baseURL. Requests are bounded only by
// the transport and the caller's context unless WithTimeout is set.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Transport: sharedTransport,
		},
	}
}

// WithTimeout sets the per-request timeout. Zero disables it.
func (c *Client) WithTimeout(timeout time.Duration) *Client {
	c.httpClient.Timeout = timeout
	return c
}

// BaseURL returns the API base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Chat sends message and returns the decoded answer. It makes one attempt.
func (c *Client) Chat(ctx context.Context, message string) (*ChatResponse, error) {
	if strings.TrimSpace(message) == "" {
		return nil, ErrEmptyMessage
	}

	bodyBytes, err := json.Marshal(ChatRequest{Message: message})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+ChatPath, bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())

	start := time.Now()
	logRequest(req)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	logResponse(req, resp, time.Since(start))

	body, err := readResponse(resp)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{Status: resp.StatusCode, Body: truncateBody(body)}
	}

	var chatResp ChatResponse
	if err := json.Unmarshal(body, &chatResp); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if strings.TrimSpace(chatResp.Answer) == "" {
		return nil, fmt.Errorf("%w: missing answer", ErrMalformedResponse)
	}
	return &chatResp, nil
}

// Healthy reports whether GET /health answers 2xx.
func (c *Client) Healthy(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return false
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, io.LimitReader(resp.Body, MaxResponseSize))
	return resp.StatusCode >= 200 && resp.StatusCode <= 299
}

// logRequest logs method, path and request id. Bodies are never logged.
func logRequest(req *http.Request) {
	log.Printf("API_REQUEST | method=%s path=%s request_id=%s", req.Method, req.URL.Path, req.Header.Get("X-Request-ID"))
}

func logResponse(req *http.Request, resp *http.Response, duration time.Duration) {
	log.Printf("API_RESPONSE | status=%d request_id=%s duration=%v", resp.StatusCode, req.Header.Get("X-Request-ID"), duration)
}

// readResponse reads the body with a size limit.
func readResponse(resp *http.Response) ([]byte, error) {
	body, err := io.ReadAll(io.LimitReader(resp.Body, MaxResponseSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if len(body) > MaxResponseSize {
		return nil, fmt.Errorf("response exceeded maximum size of %d bytes", MaxResponseSize)
	}
	return body, nil
}

func truncateBody(body []byte) string {
	return util.TruncateRunes(strings.TrimSpace(string(body)), 200)
}
