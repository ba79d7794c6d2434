package classifier

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"
)

// ErrUnavailable means the validator service could not be reached or
// answered with a server error. It is infrastructure failure, reported
// distinctly from a content rejection.
var ErrUnavailable = errors.New("validator service unavailable")

// Result is the classifier's judgment of a single image.
type Result struct {
	IsCowNose  bool
	Confidence float64
}

// Client calls the external nose-print classifier. The service is a
// third-party best-effort deployment, so every call carries a hard timeout.
type Client struct {
	baseURL string
	http    *http.Client
}

// New creates a classifier client for the given base URL.
func New(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

// Validate submits one image and returns the classifier's judgment.
// Content rejections (including HTTP 422, which means "not classifiable")
// come back as a negative Result with a nil error; only infrastructure
// failures return ErrUnavailable.
func (c *Client) Validate(ctx context.Context, filename string, image []byte) (Result, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return Result{}, fmt.Errorf("building multipart body: %w", err)
	}
	if _, err := part.Write(image); err != nil {
		return Result{}, fmt.Errorf("writing image part: %w", err)
	}
	if err := mw.Close(); err != nil {
		return Result{}, fmt.Errorf("closing multipart body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/validate", &body)
	if err != nil {
		return Result{}, fmt.Errorf("building validate request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := c.http.Do(req)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))

	switch {
	case resp.StatusCode == http.StatusUnprocessableEntity:
		// Not classifiable: a judgment, not an error.
		return Result{}, nil
	case resp.StatusCode >= 500:
		return Result{}, fmt.Errorf("%w: status=%d", ErrUnavailable, resp.StatusCode)
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		// Other client errors mean the service looked at the image and
		// would not accept it.
		return Result{}, nil
	}

	var out struct {
		IsCow      *bool   `json:"is_cow"`
		Confidence float64 `json:"confidence"`
		Detail     string  `json:"detail"`
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		// Malformed response counts as not validated.
		return Result{}, nil
	}
	if out.Detail != "" || out.IsCow == nil {
		return Result{}, nil
	}

	return Result{IsCowNose: *out.IsCow, Confidence: out.Confidence}, nil
}

// Health checks the validator's health endpoint.
func (c *Client) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return fmt.Errorf("building health request: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: status=%d", ErrUnavailable, resp.StatusCode)
	}
	return nil
}
