package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

// maxBodyBytes caps how much of a reply is read; page sources can be large.
const maxBodyBytes int64 = 16 << 20

// Client speaks the automation server's HTTP API: GET /tools, GET /health
// and JSON-RPC tools/call on the base URL.
type Client struct {
	baseURL          string
	httpClient       *http.Client
	callTimeout      time.Duration
	discoveryTimeout time.Duration
	logger           *zap.Logger
}

// ClientOption configures optional Client dependencies.
type ClientOption func(*Client)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithLogger injects a logger dependency.
func WithLogger(l *zap.Logger) ClientOption {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithCallTimeout bounds every tools/call request. Zero disables the bound.
func WithCallTimeout(d time.Duration) ClientOption {
	return func(c *Client) { c.callTimeout = d }
}

// WithDiscoveryTimeout bounds the tool listing request. Zero disables the bound.
func WithDiscoveryTimeout(d time.Duration) ClientOption {
	return func(c *Client) { c.discoveryTimeout = d }
}

// NewClient returns a client for the server at baseURL.
func NewClient(baseURL string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL:    strings.TrimSpace(baseURL),
		httpClient: &http.Client{},
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	c.logger = c.logger.Named("mcp")
	return c
}

// BaseURL returns the server URL tools/call requests are posted to.
func (c *Client) BaseURL() string { return c.baseURL }

// ListTools fetches GET {base}/tools.
func (c *Client) ListTools(ctx context.Context) ([]ToolDescriptor, error) {
	ctx, cancel := withTimeout(ctx, c.discoveryTimeout)
	defer cancel()

	var list toolList
	if err := c.getJSON(ctx, "/tools", &list); err != nil {
		return nil, fmt.Errorf("list tools: %w", err)
	}
	return list.Tools, nil
}

// Health fetches GET {base}/health.
func (c *Client) Health(ctx context.Context) (HealthStatus, error) {
	ctx, cancel := withTimeout(ctx, c.discoveryTimeout)
	defer cancel()

	var status HealthStatus
	if err := c.getJSON(ctx, "/health", &status); err != nil {
		return HealthStatus{}, fmt.Errorf("health: %w", err)
	}
	return status, nil
}

// CallTool posts one tools/call request and returns result.content[0].text.
//
// Errors are one of *TransportError, *RPCError or *MalformedResponseError.
// A JSON-RPC error body wins over the HTTP status because the server reports
// unknown tools and tool failures as 404 and 500 with an error object.
func (c *Client) CallTool(ctx context.Context, name string, args Arguments) (string, error) {
	if args == nil {
		args = Arguments{}
	}
	payload, err := json.Marshal(rpcRequest{
		JSONRPC: jsonRPCVersion,
		Method:  methodToolsCall,
		Params:  callParams{Name: name, Arguments: args},
		ID:      requestID,
	})
	if err != nil {
		return "", fmt.Errorf("encode request: %w", err)
	}

	ctx, cancel := withTimeout(ctx, c.callTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(payload))
	if err != nil {
		return "", &TransportError{Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	status, body, err := c.do(req)
	if err != nil {
		return "", err
	}
	c.logger.Debug("tools/call",
		zap.String("tool", name),
		zap.Int("status", status),
		zap.Duration("elapsed", time.Since(start)),
	)

	var resp rpcResponse
	decodeErr := json.Unmarshal(body, &resp)
	if decodeErr == nil && resp.Error != nil {
		return "", &RPCError{Code: resp.Error.Code, Message: resp.Error.Message, Data: resp.Error.Data}
	}
	if status < 200 || status > 299 {
		return "", &TransportError{Err: fmt.Errorf("unexpected status %d %s", status, http.StatusText(status))}
	}
	if decodeErr != nil {
		return "", &MalformedResponseError{Detail: "decode body: " + decodeErr.Error()}
	}
	if resp.Result == nil || len(resp.Result.Content) == 0 || resp.Result.Content[0].Text == nil {
		return "", &MalformedResponseError{Detail: "missing result.content[0].text"}
	}
	return *resp.Result.Content[0].Text, nil
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, strings.TrimRight(c.baseURL, "/")+path, nil)
	if err != nil {
		return &TransportError{Err: err}
	}
	req.Header.Set("Accept", "application/json")

	status, body, err := c.do(req)
	if err != nil {
		return err
	}
	if status < 200 || status > 299 {
		return &TransportError{Err: fmt.Errorf("unexpected status %d %s", status, http.StatusText(status))}
	}
	if err := json.Unmarshal(body, out); err != nil {
		return &MalformedResponseError{Detail: "decode body: " + err.Error()}
	}
	return nil
}

func (c *Client) do(req *http.Request) (int, []byte, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, &TransportError{Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return 0, nil, &TransportError{Err: fmt.Errorf("read body: %w", err)}
	}
	return resp.StatusCode, body, nil
}

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if ctx == nil {
		ctx = context.Background()
	}
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}
