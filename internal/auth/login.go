package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"deepseek/internal/logging"
)

// Login endpoints, relative to the service origin. The request and
// response shapes are the remote service's contract, not ours.
const (
	SessionPath = "/api/auth/session"
	LoginPath   = "/api/auth/login"
	CookiePath  = "/api/auth/cookie"
)

// StatusError is a non-success response from one of the login endpoints.
// The remote failure modes (bad credentials, rate limiting, CAPTCHA) are
// not distinguished here.
type StatusError struct {
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("request failed with status %d: %s", e.Status, e.Body)
}

// GetSessionID acquires an opaque session identifier, the first of the
// three sequential login steps.
func GetSessionID(ctx context.Context, hc *http.Client, baseURL string) (string, error) {
	var out struct {
		SessionID string `json:"session_id"`
	}
	if err := postJSON(ctx, hc, baseURL+SessionPath, nil, &out); err != nil {
		return "", err
	}
	if out.SessionID == "" {
		return "", fmt.Errorf("session endpoint returned no session id")
	}
	logging.AuthDebug("acquired session id")
	return out.SessionID, nil
}

// GetAuthToken exchanges email, password and the session id for an auth
// token.
func GetAuthToken(ctx context.Context, hc *http.Client, baseURL, email, password, sessionID string) (string, error) {
	payload := map[string]string{
		"email":      email,
		"password":   password,
		"session_id": sessionID,
	}
	var out struct {
		AuthToken string `json:"auth_token"`
	}
	if err := postJSON(ctx, hc, baseURL+LoginPath, payload, &out); err != nil {
		return "", err
	}
	if out.AuthToken == "" {
		return "", fmt.Errorf("login endpoint returned no auth token")
	}
	logging.AuthDebug("acquired auth token")
	return out.AuthToken, nil
}

// GetCookie exchanges the auth token for the long-lived cookie used on all
// subsequent API calls.
func GetCookie(ctx context.Context, hc *http.Client, baseURL, authToken string) (string, error) {
	payload := map[string]string{"auth_token": authToken}
	var out struct {
		Cookie string `json:"cookie"`
	}
	if err := postJSON(ctx, hc, baseURL+CookiePath, payload, &out); err != nil {
		return "", err
	}
	if out.Cookie == "" {
		return "", fmt.Errorf("cookie endpoint returned no cookie")
	}
	logging.AuthDebug("acquired cookie")
	return out.Cookie, nil
}

// postJSON performs one login step. A non-2xx status becomes a
// *StatusError carrying the remote status and body.
func postJSON(ctx context.Context, hc *http.Client, url string, payload, out interface{}) error {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", url, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := hc.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &StatusError{Status: resp.StatusCode, Body: strings.TrimSpace(string(respBody))}
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}
