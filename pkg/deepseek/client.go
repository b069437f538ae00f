// Package deepseek is a client for the chat.deepseek.com web service. It
// authenticates with email/password (caching the resulting credential
// triple on disk), a previously cached cookie, or a static API key, and
// exchanges chat messages either as a single reply or as a streamed
// sequence of deltas.
package deepseek

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"deepseek/internal/auth"
	"deepseek/internal/logging"
)

// DefaultBaseURL is the production origin of the service.
const DefaultBaseURL = "https://chat.deepseek.com"

// Config holds construction-time configuration for a Client.
type Config struct {
	// Email and Password are required for a fresh login unless APIKey is
	// set or a cached credential record exists.
	Email    string
	Password string

	// APIKey bypasses the login flow entirely: Authorization is set to
	// "Bearer <key>" and no network calls are made at login time.
	APIKey string

	// BaseURL overrides the service origin. Empty means DefaultBaseURL.
	BaseURL string

	// Proxies maps URL scheme ("http", "https", "socks5") to proxy URL.
	Proxies map[string]string

	// Timeout bounds each HTTP call.
	Timeout time.Duration

	// CredentialsPath overrides the cache location,
	// ~/.deepseek_credentials.json by default.
	CredentialsPath string
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		BaseURL: DefaultBaseURL,
		Timeout: 120 * time.Second,
	}
}

// Client is a session with the chat service. It holds the active header
// set and the accumulated conversation turns. A Client is intended for use
// by one conversation at a time; methods are safe to call from the caller's
// own goroutine discipline, and only Login is internally deduplicated.
type Client struct {
	email    string
	password string
	apiKey   string
	baseURL  string

	httpClient *http.Client
	store      *auth.Store

	headers     map[string]string
	chatHeaders map[string]string // computed once on first send

	history  []Message
	loggedIn bool

	loginGroup singleflight.Group
}

// NewClient builds a Client from cfg.
func NewClient(cfg Config) (*Client, error) {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 120 * time.Second
	}

	hc, err := newHTTPClient(cfg.Proxies, timeout)
	if err != nil {
		return nil, err
	}

	var store *auth.Store
	if cfg.CredentialsPath != "" {
		store = auth.NewStoreAt(cfg.CredentialsPath)
	} else {
		store, err = auth.NewStore()
		if err != nil {
			return nil, fmt.Errorf("failed to resolve credentials path: %w", err)
		}
	}

	return &Client{
		email:      cfg.Email,
		password:   cfg.Password,
		apiKey:     cfg.APIKey,
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: hc,
		store:      store,
		headers:    defaultHeaders(),
	}, nil
}

// defaultHeaders is the base header set sent on every call, before the
// login flow layers Cookie and Authorization on top.
func defaultHeaders() map[string]string {
	return map[string]string{
		"User-Agent":      "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
		"Accept-Language": "en-US,en;q=0.9",
		"Origin":          DefaultBaseURL,
		"Referer":         DefaultBaseURL + "/",
	}
}

// Login establishes the session headers. Precedence:
//
//  1. A static API key sets Authorization directly, zero network calls.
//  2. A cached credential record sets Cookie from the cache, zero network
//     calls. This path intentionally does NOT set Authorization; the
//     fresh-login path sets both. Observed behavior of the reference
//     implementation, preserved pending verification against the live
//     service.
//  3. Otherwise email and password are required (ConfigError before any
//     network attempt) and the three-step flow runs: session id, then auth
//     token, then cookie. The resulting triple is persisted wholesale.
//
// Login is idempotent and concurrent calls are collapsed into one flow.
func (c *Client) Login(ctx context.Context) error {
	_, err, _ := c.loginGroup.Do("login", func() (interface{}, error) {
		return nil, c.login(ctx)
	})
	return err
}

func (c *Client) login(ctx context.Context) error {
	if c.loggedIn {
		return nil
	}

	if c.apiKey != "" {
		c.headers["Authorization"] = "Bearer " + c.apiKey
		c.loggedIn = true
		logging.Auth("using static API key")
		return nil
	}

	creds, err := c.store.Load()
	if err != nil {
		return err
	}
	if creds != nil {
		c.headers["Cookie"] = creds.Cookie
		c.loggedIn = true
		logging.Auth("using cached credentials from %s", c.store.Path())
		return nil
	}

	if c.email == "" || c.password == "" {
		return &ConfigError{Reason: "email and password are required for login"}
	}

	sessionID, err := auth.GetSessionID(ctx, c.httpClient, c.baseURL)
	if err != nil {
		return authStepError("session", err)
	}
	c.headers["Cookie"] = "session-id=" + sessionID

	authToken, err := auth.GetAuthToken(ctx, c.httpClient, c.baseURL, c.email, c.password, sessionID)
	if err != nil {
		return authStepError("login", err)
	}
	c.headers["Authorization"] = "Bearer " + authToken

	cookie, err := auth.GetCookie(ctx, c.httpClient, c.baseURL, authToken)
	if err != nil {
		return authStepError("cookie", err)
	}
	c.headers["Cookie"] = cookie

	if err := c.store.Save(&auth.Credentials{
		SessionID: sessionID,
		AuthToken: authToken,
		Cookie:    cookie,
	}); err != nil {
		return err
	}

	c.loggedIn = true
	logging.Auth("fresh login completed")
	return nil
}

// authStepError converts a login-step failure into the public taxonomy:
// remote non-success statuses become *AuthError, everything else (network
// failures, malformed responses) passes through wrapped.
func authStepError(step string, err error) error {
	var se *auth.StatusError
	if errors.As(err, &se) {
		return &AuthError{Step: step, Status: se.Status, Body: se.Body}
	}
	return fmt.Errorf("%s step failed: %w", step, err)
}

// Models fetches the mapping of available models.
func (c *Client) Models(ctx context.Context) (map[string]interface{}, error) {
	if err := c.Login(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, "GET", c.baseURL+"/api/models", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	applyHeaders(req, c.headers)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &APIError{Status: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	var models map[string]interface{}
	if err := json.Unmarshal(body, &models); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	return models, nil
}

// SendOption customizes a single send.
type SendOption func(*sendOptions)

type sendOptions struct {
	model string
	extra map[string]interface{}
}

// WithModel selects the model name for this send. The name is mapped to a
// wire-level model class; see ModelChat.
func WithModel(model string) SendOption {
	return func(o *sendOptions) { o.model = model }
}

// WithExtra adds an arbitrary key to the outgoing payload, passed through
// to the service untouched.
func WithExtra(key string, value interface{}) SendOption {
	return func(o *sendOptions) {
		if o.extra == nil {
			o.extra = make(map[string]interface{})
		}
		o.extra[key] = value
	}
}

// Send posts a message and blocks for the complete reply. On success the
// user turn and the assistant turn are appended to the conversation
// history, in that order.
func (c *Client) Send(ctx context.Context, message string, opts ...SendOption) (*ChatResponse, error) {
	resp, err := c.doSend(ctx, message, false, opts)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	var chat ChatResponse
	if err := json.Unmarshal(body, &chat); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	if len(chat.Choices) == 0 {
		return nil, fmt.Errorf("no completion returned")
	}

	c.history = append(c.history,
		Message{Role: RoleUser, Content: message},
		Message{Role: RoleAssistant, Content: chat.Choices[0].Message.Content},
	)
	return &chat, nil
}

// SendStream posts a message and returns the live delta stream. History is
// NOT updated: aggregating the fragments back into an assistant turn is
// the caller's responsibility (see Stream.Text).
func (c *Client) SendStream(ctx context.Context, message string, opts ...SendOption) (*Stream, error) {
	resp, err := c.doSend(ctx, message, true, opts)
	if err != nil {
		return nil, err
	}
	return newStream(resp.Body), nil
}

// doSend is the shared request path of the blocking and streaming sends.
func (c *Client) doSend(ctx context.Context, message string, stream bool, opts []SendOption) (*http.Response, error) {
	if err := c.Login(ctx); err != nil {
		return nil, err
	}

	options := sendOptions{model: ModelChat}
	for _, opt := range opts {
		opt(&options)
	}

	rl := logging.WithRequestID(logging.CategoryAPI, uuid.NewString())
	rl.Debug("send: model=%s stream=%v history_len=%d", options.model, stream, len(c.history))

	payload := map[string]interface{}{
		"message":      message,
		"stream":       stream,
		"model_class":  modelClass(options.model),
		"chat_history": c.historyPayload(),
	}
	for k, v := range options.extra {
		payload[k] = v
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/api/chat/send", bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	applyHeaders(req, c.chatHeaderSet())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		rl.Error("send failed: %v", err)
		return nil, fmt.Errorf("request failed: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		rl.Error("send rejected: status=%d", resp.StatusCode)
		return nil, &APIError{Status: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}
	return resp, nil
}

// chatHeaderSet returns the header set for chat calls: the session headers
// plus Accept and Content-Type, computed once and cached.
func (c *Client) chatHeaderSet() map[string]string {
	if c.chatHeaders == nil {
		c.chatHeaders = make(map[string]string, len(c.headers)+2)
		for k, v := range c.headers {
			c.chatHeaders[k] = v
		}
		c.chatHeaders["Accept"] = "text/event-stream"
		c.chatHeaders["Content-Type"] = "application/json"
	}
	return c.chatHeaders
}

// historyPayload returns the full turn sequence resent on every message.
func (c *Client) historyPayload() []Message {
	if c.history == nil {
		return []Message{}
	}
	return c.history
}

// History returns a copy of the accumulated conversation turns.
func (c *Client) History() []Message {
	out := make([]Message, len(c.history))
	copy(out, c.history)
	return out
}

// Headers returns a copy of the active session header set.
func (c *Client) Headers() map[string]string {
	out := make(map[string]string, len(c.headers))
	for k, v := range c.headers {
		out[k] = v
	}
	return out
}

func applyHeaders(req *http.Request, headers map[string]string) {
	for k, v := range headers {
		req.Header.Set(k, v)
	}
}
