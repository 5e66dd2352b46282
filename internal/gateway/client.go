package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/aegis-response/aegis_console/internal/subscriber"
)

const usersPath = "/api/users"

// Client is a thin connector over the four persistence endpoints for
// subscriber records. Every call is a single round-trip; no caching and no
// retries happen here.
type Client struct {
	baseURL string
	httpc   *http.Client
	token   string
}

// NewClient builds a gateway client against the given base URL. A nil http
// client falls back to a default with a 30s timeout.
func NewClient(baseURL string, httpc *http.Client) *Client {
	if httpc == nil {
		httpc = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{baseURL: baseURL, httpc: httpc}
}

// SetToken installs the bearer token attached to every subsequent call.
func (c *Client) SetToken(token string) {
	c.token = token
}

// Login authenticates an operator and installs the returned access token.
func (c *Client) Login(ctx context.Context, email, password string) error {
	var out struct {
		AccessToken string `json:"access_token"`
	}
	payload := map[string]string{"email": email, "password": password}
	if err := c.do(ctx, http.MethodPost, "/api/auth/login", payload, &out, false); err != nil {
		return err
	}
	c.token = out.AccessToken
	return nil
}

// List fetches the full collection.
func (c *Client) List(ctx context.Context) ([]subscriber.Record, error) {
	var out struct {
		Users []subscriber.Record `json:"users"`
	}
	if err := c.do(ctx, http.MethodGet, usersPath, nil, &out, false); err != nil {
		return nil, err
	}
	return out.Users, nil
}

// Create stores a candidate record and returns the server-assigned row.
func (c *Client) Create(ctx context.Context, candidate subscriber.Record) (subscriber.Record, error) {
	var out struct {
		User subscriber.Record `json:"user"`
	}
	if err := c.do(ctx, http.MethodPost, usersPath, candidate, &out, true); err != nil {
		return subscriber.Record{}, err
	}
	return out.User, nil
}

// Update applies a partial update and returns the canonical record.
func (c *Client) Update(ctx context.Context, id string, patch subscriber.Patch) (subscriber.Record, error) {
	var out struct {
		User subscriber.Record `json:"user"`
	}
	payload := map[string]any{"id": id, "data": patch}
	if err := c.do(ctx, http.MethodPatch, usersPath, payload, &out, true); err != nil {
		return subscriber.Record{}, err
	}
	return out.User, nil
}

// Delete removes a record by id.
func (c *Client) Delete(ctx context.Context, id string) error {
	var out struct {
		OK bool `json:"ok"`
	}
	payload := map[string]string{"id": id}
	return c.do(ctx, http.MethodDelete, usersPath, payload, &out, true)
}

func (c *Client) do(ctx context.Context, method, path string, in, out any, mutation bool) error {
	var body *bytes.Reader
	if in != nil {
		encoded, err := json.Marshal(in)
		if err != nil {
			return &TransportError{Op: method + " " + path, Err: err}
		}
		body = bytes.NewReader(encoded)
	} else {
		body = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return &TransportError{Op: method + " " + path, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	if mutation {
		req.Header.Set("Idempotency-Key", uuid.NewString())
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return &TransportError{Op: method + " " + path, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		if out == nil {
			return nil
		}
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return &TransportError{Op: method + " " + path, Err: err}
		}
		return nil
	}

	var failure struct {
		Error string `json:"error"`
	}
	_ = json.NewDecoder(resp.Body).Decode(&failure)
	if failure.Error == "" {
		failure.Error = resp.Status
	}

	switch resp.StatusCode {
	case http.StatusNotFound:
		return ErrNotFound
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return &ValidationError{Message: failure.Error}
	default:
		return &TransportError{
			Op:  method + " " + path,
			Err: fmt.Errorf("status %d: %s", resp.StatusCode, failure.Error),
		}
	}
}

// IsNotFound reports whether err denotes a missing record.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
