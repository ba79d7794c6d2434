package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/dengarop/herdbook/internal/model"
)

// ListReports fetches all field reports.
func (c *Client) ListReports(ctx context.Context) ([]model.Report, error) {
	var parsed struct {
		Reports []model.RawReport `json:"reports"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/reports", nil, &parsed); err != nil {
		return nil, err
	}
	reports := make([]model.Report, 0, len(parsed.Reports))
	for _, raw := range parsed.Reports {
		reports = append(reports, raw.Report())
	}
	return reports, nil
}

// ReplyReport posts an admin reply and moves the report to the given
// status in the same call.
func (c *Client) ReplyReport(ctx context.Context, reportID int64, reply, status string) error {
	if !model.ValidReportStatus(status) {
		return fmt.Errorf("invalid report status %q", status)
	}
	body := map[string]string{
		"reply":  reply,
		"status": status,
	}
	path := fmt.Sprintf("/reports/%s/reply", url.PathEscape(fmt.Sprint(reportID)))
	return c.doJSON(ctx, http.MethodPost, path, body, nil)
}
