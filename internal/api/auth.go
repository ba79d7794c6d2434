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
)

// Login exchanges admin credentials for a bearer token. It is the only
// unauthenticated call and therefore does not go through Client.
func Login(ctx context.Context, apiBase, username, password string, timeout time.Duration) (string, error) {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	payload, err := json.Marshal(map[string]string{
		"username": username,
		"password": password,
	})
	if err != nil {
		return "", fmt.Errorf("encoding credentials: %w", err)
	}

	url := strings.TrimRight(strings.TrimSpace(apiBase), "/") + "/admin/login"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("building login request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	client := &http.Client{Timeout: timeout}
	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("calling login: %w", err)
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if resp.StatusCode != http.StatusOK {
		return "", &APIError{Status: resp.StatusCode, Message: serverMessage(raw)}
	}

	var parsed struct {
		Token       string `json:"token"`
		AccessToken string `json:"access_token"`
	}
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", fmt.Errorf("decoding login response: %w", err)
	}
	token := parsed.Token
	if token == "" {
		token = parsed.AccessToken
	}
	if token == "" {
		return "", fmt.Errorf("login response contained no token")
	}
	return token, nil
}
