package api

import (
	"context"
	"net/http"

	"github.com/dengarop/herdbook/internal/model"
)

// ListVerifications fetches the field verification history.
func (c *Client) ListVerifications(ctx context.Context) ([]model.VerificationLog, error) {
	var parsed struct {
		Verifications []model.RawVerification `json:"verifications"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/verification-logs", nil, &parsed); err != nil {
		return nil, err
	}
	logs := make([]model.VerificationLog, 0, len(parsed.Verifications))
	for _, raw := range parsed.Verifications {
		logs = append(logs, raw.Verification())
	}
	return logs, nil
}
