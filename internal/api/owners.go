package api

import (
	"context"
	"net/http"

	"github.com/dengarop/herdbook/internal/model"
)

// ListOwners fetches all registered owners.
func (c *Client) ListOwners(ctx context.Context) ([]model.Owner, error) {
	var parsed struct {
		Owners []model.RawOwner `json:"owners"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/owners", nil, &parsed); err != nil {
		return nil, err
	}
	owners := make([]model.Owner, 0, len(parsed.Owners))
	for _, raw := range parsed.Owners {
		owners = append(owners, raw.Owner())
	}
	return owners, nil
}
