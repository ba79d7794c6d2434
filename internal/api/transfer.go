package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
)

// TransferRequest is the ownership-transfer payload. The notification
// flags only control whether the backend sends messages; they never gate
// the transfer itself.
type TransferRequest struct {
	NewOwnerFullName   string  `json:"new_owner_full_name"`
	NewOwnerPhone      string  `json:"new_owner_phone"`
	NewOwnerEmail      string  `json:"new_owner_email"`
	NewOwnerAddress    string  `json:"new_owner_address"`
	NewOwnerNationalID string  `json:"new_owner_national_id"`
	Reason             string  `json:"reason"`
	Fee                float64 `json:"transfer_fee"`
	Reference          string  `json:"reference"`
	SendSMS            bool    `json:"send_sms"`
	SendEmail          bool    `json:"send_email"`
	RequireApproval    bool    `json:"require_approval"`
}

// TransferOutcome reports what the backend did with the notifications.
type TransferOutcome struct {
	EmailSent bool `json:"email_sent"`
	SMSSent   bool `json:"sms_sent"`
}

// Transfer reassigns a cattle record to a new owner.
func (c *Client) Transfer(ctx context.Context, cowID int64, req TransferRequest) (TransferOutcome, error) {
	var out TransferOutcome
	path := fmt.Sprintf("/cattle/%s/transfer", url.PathEscape(fmt.Sprint(cowID)))
	if err := c.doJSON(ctx, http.MethodPost, path, req, &out); err != nil {
		return TransferOutcome{}, err
	}
	return out, nil
}
