package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/dengarop/herdbook/internal/session"
)

// Client is the typed client for the registry backend. All authoritative
// state lives behind it; the console only ever holds disposable copies of
// what it fetches.
type Client struct {
	baseURL string
	http    *http.Client
	session *session.Session
}

// New creates a backend client bound to an explicit session.
func New(sess *session.Session, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	base := ""
	if sess != nil {
		base = sess.APIBase
	}
	return &Client{
		baseURL: strings.TrimRight(strings.TrimSpace(base), "/"),
		http:    &http.Client{Timeout: timeout},
		session: sess,
	}
}

// newRequest builds a request with the bearer token attached. An expired or
// missing token fails here, before any bytes hit the wire.
func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	if err := c.session.Valid(time.Now()); err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.session.Token)
	req.Header.Set("Accept", "application/json")
	return req, nil
}

// doJSON performs an authenticated JSON request. A nil in sends no body;
// a nil out discards the response body. Non-2xx responses map into the
// error taxonomy: 401/403 into the authentication condition, everything
// else into an *APIError carrying any server-provided message.
func (c *Client) doJSON(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encoding request body: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := c.newRequest(ctx, method, path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("calling %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<20))

	if err := checkStatus(resp.StatusCode, raw); err != nil {
		return err
	}

	if out == nil || len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decoding %s %s response: %w", method, path, err)
	}
	return nil
}

// checkStatus maps a non-2xx status into the error taxonomy.
func checkStatus(status int, body []byte) error {
	if status >= 200 && status < 300 {
		return nil
	}
	if status == http.StatusUnauthorized || status == http.StatusForbidden {
		return fmt.Errorf("%w: status=%d", session.ErrNotAuthenticated, status)
	}
	return &APIError{Status: status, Message: serverMessage(body)}
}

// serverMessage extracts a human-readable message from an error body.
func serverMessage(body []byte) string {
	var parsed struct {
		Error   string `json:"error"`
		Message string `json:"message"`
		Detail  string `json:"detail"`
	}
	if err := json.Unmarshal(body, &parsed); err == nil {
		for _, m := range []string{parsed.Error, parsed.Message, parsed.Detail} {
			if m != "" {
				return m
			}
		}
	}
	return strings.TrimSpace(string(body))
}
