// Package client implements the consumer side of the payflow API: a typed
// HTTP client, an auth state store modeled as a state machine, and a route
// guard for deciding whether a navigation may proceed.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/nkarlsen/payflow/internal/auth"
)

// defaultTimeout bounds every API call when the caller's context has no
// deadline of its own.
const defaultTimeout = 10 * time.Second

// APIError is an error response from the server, decoded from the standard
// error envelope.
type APIError struct {
	StatusCode int
	Status     string `json:"status"`
	Message    string `json:"message"`
	Errors     []FieldError
}

// FieldError is a per-field validation message from the server.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d: %s", e.StatusCode, e.Message)
}

// API is a typed HTTP client for the auth endpoints.
type API struct {
	baseURL string
	http    *http.Client
}

// NewAPI creates an API client for the given base URL, e.g.
// "http://localhost:3000".
func NewAPI(baseURL string) *API {
	return &API{
		baseURL: baseURL,
		http:    &http.Client{Timeout: defaultTimeout},
	}
}

// Login exchanges credentials for a user record and access token.
func (a *API) Login(ctx context.Context, email, password string) (*auth.AuthResponse, error) {
	return a.postAuth(ctx, "/auth/login", auth.LoginRequest{
		Email:    email,
		Password: password,
	})
}

// Register creates a new account and returns the user record and access token.
func (a *API) Register(ctx context.Context, email, password, name string) (*auth.AuthResponse, error) {
	return a.postAuth(ctx, "/auth/register", auth.RegisterRequest{
		Email:    email,
		Password: password,
		Name:     name,
	})
}

// Protected calls the protected probe endpoint with the given token. Used to
// verify that a stored token is still accepted by the server.
func (a *API) Protected(ctx context.Context, token string) (*auth.User, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.baseURL+"/auth/protected", nil)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := a.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calling protected endpoint: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, decodeAPIError(resp)
	}

	var body struct {
		Message string     `json:"message"`
		User    *auth.User `json:"user"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}
	return body.User, nil
}

// postAuth sends a JSON request to a credential endpoint and decodes either
// the auth response or the error envelope.
func (a *API) postAuth(ctx context.Context, path string, payload any) (*auth.AuthResponse, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encoding request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calling %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return nil, decodeAPIError(resp)
	}

	var authResp auth.AuthResponse
	if err := json.NewDecoder(resp.Body).Decode(&authResp); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}
	return &authResp, nil
}

// decodeAPIError decodes the error envelope from a non-success response.
// An undecodable body still produces an APIError with the HTTP status.
func decodeAPIError(resp *http.Response) error {
	apiErr := &APIError{
		StatusCode: resp.StatusCode,
		Status:     "error",
		Message:    http.StatusText(resp.StatusCode),
	}

	var envelope struct {
		Status  string       `json:"status"`
		Message string       `json:"message"`
		Errors  []FieldError `json:"errors"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err == nil && envelope.Message != "" {
		apiErr.Status = envelope.Status
		apiErr.Message = envelope.Message
		apiErr.Errors = envelope.Errors
	}

	return apiErr
}
