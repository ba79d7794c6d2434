package api

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
)

// DownloadReceipt streams the registration receipt PDF for a tag into w
// and returns the number of bytes written.
func (c *Client) DownloadReceipt(ctx context.Context, tag string, w io.Writer) (int64, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/admin/receipt/"+url.PathEscape(tag), nil)
	if err != nil {
		return 0, err
	}
	req.Header.Set("Accept", "application/pdf")

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, fmt.Errorf("downloading receipt: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
		return 0, checkStatus(resp.StatusCode, raw)
	}
	n, err := io.Copy(w, resp.Body)
	if err != nil {
		return n, fmt.Errorf("writing receipt: %w", err)
	}
	return n, nil
}
