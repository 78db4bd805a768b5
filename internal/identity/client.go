// Package identity provides a client for a GoTrue-compatible identity
// provider (the auth API the Eira app is deployed against).
package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/josephvutrinh/eira/internal/models"
)

// APIError is an error response from the identity provider.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("identity error %d: %s", e.Status, e.Message)
}

// Client is an identity provider API client. It holds the current access
// token after a successful sign-in, the way the hosted SDK's auth object
// does; GetSession answers from the provider using that token.
type Client struct {
	BaseURL    string
	AnonKey    string
	HTTPClient *http.Client

	// ServiceRoleKey enables the admin endpoints. Server-side only.
	ServiceRoleKey string

	mu          sync.Mutex
	accessToken string
}

// NewClient creates a new identity client.
func NewClient(baseURL, anonKey string) *Client {
	return &Client{
		BaseURL:    baseURL,
		AnonKey:    anonKey,
		HTTPClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// AccessToken returns the currently held bearer token, if any.
func (c *Client) AccessToken() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.accessToken
}

func (c *Client) setToken(token string) {
	c.mu.Lock()
	c.accessToken = token
	c.mu.Unlock()
}

// RestoreToken seeds the client with a previously issued access token,
// such as one persisted on the device across process restarts. The token
// is not validated here; the next provider call reports whether it is
// still good.
func (c *Client) RestoreToken(token string) {
	c.setToken(token)
}

// doRequest performs an HTTP request against the provider API.
// token selects the Authorization bearer; empty falls back to the anon key.
func (c *Client) doRequest(ctx context.Context, method, path string, body []byte, token string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("apikey", c.AnonKey)
	if token == "" {
		token = c.AnonKey
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode >= 400 {
		var errResp struct {
			Error       string `json:"error"`
			Description string `json:"error_description"`
			Msg         string `json:"msg"`
		}
		json.Unmarshal(respBody, &errResp)
		msg := errResp.Description
		if msg == "" {
			msg = errResp.Msg
		}
		if msg == "" {
			msg = errResp.Error
		}
		return nil, &APIError{Status: resp.StatusCode, Message: msg}
	}

	return respBody, nil
}

// userPayload is the provider's user record shape.
type userPayload struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	Metadata struct {
		FullName string `json:"full_name"`
	} `json:"user_metadata"`
}

func (u userPayload) toUser() models.User {
	return models.User{ID: u.ID, Email: u.Email, FullName: u.Metadata.FullName}
}

// tokenResponse is the response from token-issuing endpoints.
type tokenResponse struct {
	AccessToken string      `json:"access_token"`
	User        userPayload `json:"user"`
}

func (c *Client) sessionFromToken(resp tokenResponse) *models.Session {
	return &models.Session{
		User:        resp.User.toUser(),
		CreatedAt:   time.Now().UTC(),
		AccessToken: resp.AccessToken,
	}
}

// SignInWithPassword exchanges credentials for a session.
func (c *Client) SignInWithPassword(ctx context.Context, email, password string) (*models.Session, error) {
	body, _ := json.Marshal(map[string]string{"email": email, "password": password})

	respBody, err := c.doRequest(ctx, "POST", "/auth/v1/token?grant_type=password", body, "")
	if err != nil {
		return nil, err
	}

	var resp tokenResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, err
	}

	c.setToken(resp.AccessToken)
	return c.sessionFromToken(resp), nil
}

// signUpRequest is the request body for sign-up.
type signUpRequest struct {
	Email    string            `json:"email"`
	Password string            `json:"password"`
	Data     map[string]string `json:"data,omitempty"`
}

// SignUp registers a new user. When the provider requires email
// confirmation it issues no session; that case returns (nil, nil) and the
// caller shows a "check your inbox" notice.
func (c *Client) SignUp(ctx context.Context, email, password, fullName string) (*models.Session, error) {
	req := signUpRequest{Email: email, Password: password}
	if fullName != "" {
		req.Data = map[string]string{"full_name": fullName}
	}
	body, _ := json.Marshal(req)

	respBody, err := c.doRequest(ctx, "POST", "/auth/v1/signup", body, "")
	if err != nil {
		return nil, err
	}

	var resp tokenResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, err
	}

	if resp.AccessToken == "" {
		// Confirmation pending; no session yet.
		return nil, nil
	}

	c.setToken(resp.AccessToken)
	return c.sessionFromToken(resp), nil
}

// SignOut revokes the current session on the provider side and drops the
// held token.
func (c *Client) SignOut(ctx context.Context) error {
	token := c.AccessToken()
	if token == "" {
		return nil
	}

	_, err := c.doRequest(ctx, "POST", "/auth/v1/logout", nil, token)
	if err != nil {
		return err
	}

	c.setToken("")
	return nil
}

// GetSession returns the current remote session, or nil when signed out.
func (c *Client) GetSession(ctx context.Context) (*models.Session, error) {
	token := c.AccessToken()
	if token == "" {
		return nil, nil
	}

	user, err := c.GetUser(ctx)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, nil
	}

	return &models.Session{
		User:        *user,
		CreatedAt:   time.Now().UTC(),
		AccessToken: token,
	}, nil
}

// GetUser fetches the user record for the held token. Returns nil when no
// token is held.
func (c *Client) GetUser(ctx context.Context) (*models.User, error) {
	token := c.AccessToken()
	if token == "" {
		return nil, nil
	}

	respBody, err := c.doRequest(ctx, "GET", "/auth/v1/user", nil, token)
	if err != nil {
		return nil, err
	}

	var resp userPayload
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, err
	}

	user := resp.toUser()
	return &user, nil
}

// InvokeFunction calls a deployed edge function with the caller's bearer
// token. The function payload is JSON-encoded from body.
func (c *Client) InvokeFunction(ctx context.Context, name string, body interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}

	_, err = c.doRequest(ctx, "POST", "/functions/v1/"+name, payload, c.AccessToken())
	return err
}

// AdminDeleteUser removes an auth user. Requires the service role key and
// is only ever called server-side.
func (c *Client) AdminDeleteUser(ctx context.Context, userID string) error {
	if c.ServiceRoleKey == "" {
		return &APIError{Status: http.StatusInternalServerError, Message: "service role key not configured"}
	}

	_, err := c.doRequest(ctx, "DELETE", "/auth/v1/admin/users/"+userID, nil, c.ServiceRoleKey)
	return err
}

// VerifyToken asks the provider to resolve a caller-supplied bearer token
// to its user. Used by the deletion function to identify the caller.
func (c *Client) VerifyToken(ctx context.Context, token string) (*models.User, error) {
	respBody, err := c.doRequest(ctx, "GET", "/auth/v1/user", nil, token)
	if err != nil {
		return nil, err
	}

	var resp userPayload
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, err
	}

	user := resp.toUser()
	return &user, nil
}
