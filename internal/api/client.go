package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/joescharf/fixxy/internal/models"
)

// Client errors. Every failure from Ask wraps exactly one of these.
var (
	ErrTransport = errors.New("transport error")
	ErrStatus    = errors.New("unexpected status")
	ErrDecode    = errors.New("malformed response")
)

// RequestIDHeader carries the per-request id between client and server.
const RequestIDHeader = "X-Request-ID"

// Client calls the inference service's /ask endpoint.
type Client struct {
	endpoint string
	http     *http.Client
	log      zerolog.Logger
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(h *http.Client) ClientOption {
	return func(c *Client) { c.http = h }
}

// WithClientLogger sets the client's logger.
func WithClientLogger(log zerolog.Logger) ClientOption {
	return func(c *Client) { c.log = log }
}

// NewClient creates a client for the service at endpoint, e.g.
// http://localhost:8000.
func NewClient(endpoint string, opts ...ClientOption) *Client {
	c := &Client{
		endpoint: strings.TrimRight(endpoint, "/"),
		http:     http.DefaultClient,
		log:      zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Endpoint returns the service base URL.
func (c *Client) Endpoint() string { return c.endpoint }

// Ask posts req and returns the service's answer. Deadlines come from ctx.
func (c *Client) Ask(ctx context.Context, req models.AskRequest) (models.AskResponse, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return models.AskResponse{}, fmt.Errorf("encode request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+"/ask", bytes.NewReader(body))
	if err != nil {
		return models.AskResponse{}, fmt.Errorf("%w: %v", ErrTransport, err)
	}
	reqID := uuid.NewString()
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set(RequestIDHeader, reqID)

	log := c.log.With().Str("request_id", reqID).Str("task", req.Task).Logger()
	log.Debug().Str("endpoint", c.endpoint).Msg("ask")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return models.AskResponse{}, fmt.Errorf("%w: %w", ErrTransport, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return models.AskResponse{}, fmt.Errorf("%w: read body: %w", ErrTransport, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		log.Debug().Int("status", resp.StatusCode).Msg("ask rejected")
		return models.AskResponse{}, fmt.Errorf("%w: %d", ErrStatus, resp.StatusCode)
	}

	var decoded struct {
		Answer *string `json:"answer"`
	}
	if err := json.Unmarshal(data, &decoded); err != nil {
		return models.AskResponse{}, fmt.Errorf("%w: %w", ErrDecode, err)
	}
	if decoded.Answer == nil {
		return models.AskResponse{}, fmt.Errorf("%w: missing answer field", ErrDecode)
	}
	return models.AskResponse{Answer: *decoded.Answer}, nil
}
