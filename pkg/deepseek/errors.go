package deepseek

import "fmt"

// ConfigError is a missing-configuration failure raised before any network
// call is attempted.
type ConfigError struct {
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("configuration error: %s", e.Reason)
}

// AuthError is a non-success response from one of the three login steps.
// No retry is attempted; rate limiting, bad credentials and CAPTCHA
// challenges all surface the same way.
type AuthError struct {
	Step   string // "session", "login" or "cookie"
	Status int
	Body   string
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("authentication failed at %s step: status %d: %s", e.Step, e.Status, e.Body)
}

// APIError is a non-success response from a post-login API call.
type APIError struct {
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API request failed with status %d: %s", e.Status, e.Body)
}
