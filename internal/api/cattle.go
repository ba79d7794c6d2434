package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"

	"github.com/dengarop/herdbook/internal/model"
)

// ListCows fetches the full herd and normalizes the payload's field
// variants into the canonical model.
func (c *Client) ListCows(ctx context.Context) ([]model.Cow, error) {
	var parsed struct {
		Cows []model.RawCow `json:"cows"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/cattle", nil, &parsed); err != nil {
		return nil, err
	}
	cows := make([]model.Cow, 0, len(parsed.Cows))
	for _, raw := range parsed.Cows {
		cows = append(cows, raw.Cow())
	}
	return cows, nil
}

// Registration carries everything a new cattle record needs: owner
// details, animal attributes, and the processed image payloads.
type Registration struct {
	OwnerFullName   string
	OwnerPhone      string
	OwnerEmail      string
	OwnerAddress    string
	OwnerNationalID string

	Breed string
	Color string
	Age   int

	NoseImages  [][]byte
	FacialImage []byte
}

// RegisterResult is the outcome of a registration attempt. Duplicate
// detection is a soft outcome, not an error: the backend recognized the
// nose prints as an already-registered animal.
type RegisterResult struct {
	Tag         string
	Duplicate   bool
	ExistingTag string
}

// Register submits a registration as a multipart form. Either duplicate
// response shape the backend is known to produce maps onto the same
// result: a populated existing tag means duplicate, whatever the flag
// fields say.
func (c *Client) Register(ctx context.Context, reg Registration) (RegisterResult, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	fields := map[string]string{
		"owner_full_name":   reg.OwnerFullName,
		"owner_phone":       reg.OwnerPhone,
		"owner_email":       reg.OwnerEmail,
		"owner_address":     reg.OwnerAddress,
		"owner_national_id": reg.OwnerNationalID,
		"breed":             reg.Breed,
		"color":             reg.Color,
		"age":               strconv.Itoa(reg.Age),
	}
	for name, value := range fields {
		if err := mw.WriteField(name, value); err != nil {
			return RegisterResult{}, fmt.Errorf("writing form field %q: %w", name, err)
		}
	}
	for i, img := range reg.NoseImages {
		part, err := mw.CreateFormFile("nose_print_images", fmt.Sprintf("nose_%d.jpg", i+1))
		if err != nil {
			return RegisterResult{}, fmt.Errorf("creating nose image part: %w", err)
		}
		if _, err := part.Write(img); err != nil {
			return RegisterResult{}, fmt.Errorf("writing nose image: %w", err)
		}
	}
	part, err := mw.CreateFormFile("facial_image", "facial.jpg")
	if err != nil {
		return RegisterResult{}, fmt.Errorf("creating facial image part: %w", err)
	}
	if _, err := part.Write(reg.FacialImage); err != nil {
		return RegisterResult{}, fmt.Errorf("writing facial image: %w", err)
	}
	if err := mw.Close(); err != nil {
		return RegisterResult{}, fmt.Errorf("finalizing form: %w", err)
	}

	req, err := c.newRequest(ctx, http.MethodPost, "/cattle", &buf)
	if err != nil {
		return RegisterResult{}, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := c.http.Do(req)
	if err != nil {
		return RegisterResult{}, fmt.Errorf("submitting registration: %w", err)
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))

	var parsed struct {
		Success        *bool  `json:"success"`
		CowTag         string `json:"cow_tag"`
		Tag            string `json:"tag"`
		ExistingCowTag string `json:"existing_cow_tag"`
		ExistingTag    string `json:"existing_tag"`
	}
	// Duplicates can arrive on 200 or 409 depending on backend revision,
	// so the body is inspected before the status. A bare success:false on
	// an error status is a hard failure, not a duplicate; only an existing
	// tag, or success:false on a 2xx, marks the animal as already
	// registered.
	if err := json.Unmarshal(raw, &parsed); err == nil {
		existing := parsed.ExistingCowTag
		if existing == "" {
			existing = parsed.ExistingTag
		}
		accepted := resp.StatusCode >= 200 && resp.StatusCode < 300
		if existing != "" || (accepted && parsed.Success != nil && !*parsed.Success) {
			return RegisterResult{Duplicate: true, ExistingTag: existing}, nil
		}
	}

	if err := checkStatus(resp.StatusCode, raw); err != nil {
		return RegisterResult{}, err
	}

	tag := parsed.CowTag
	if tag == "" {
		tag = parsed.Tag
	}
	return RegisterResult{Tag: tag}, nil
}

// DeleteCow removes a record by tag.
func (c *Client) DeleteCow(ctx context.Context, tag string) error {
	return c.doJSON(ctx, http.MethodDelete, "/cattle/"+url.PathEscape(tag), nil, nil)
}

// NextTag previews the tag the backend would assign to the next
// registration in the given region.
func (c *Client) NextTag(ctx context.Context) (string, error) {
	var parsed struct {
		NextTag string `json:"next_tag"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/cattle/tag-info", nil, &parsed); err != nil {
		return "", err
	}
	return parsed.NextTag, nil
}
