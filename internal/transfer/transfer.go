// Package transfer assembles ownership-transfer requests: fee
// computation, reference generation and payload construction.
package transfer

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/dengarop/herdbook/internal/api"
	"github.com/dengarop/herdbook/internal/model"
)

// AssumedCattleValue stands in for a per-animal valuation until the
// registry exposes one. Fees are computed against this flat amount.
const AssumedCattleValue = 100000

// Fee rates by transfer reason.
const (
	RateSale        = 0.05
	RateGift        = 0.02
	RateInheritance = 0.01
	RateOther       = 0.03
)

// Fee returns the transfer fee for a reason. Unknown reasons are an
// error, not a default rate.
func Fee(reason string) (float64, error) {
	switch reason {
	case model.ReasonSale:
		return RateSale * AssumedCattleValue, nil
	case model.ReasonGift:
		return RateGift * AssumedCattleValue, nil
	case model.ReasonInheritance:
		return RateInheritance * AssumedCattleValue, nil
	case model.ReasonOther:
		return RateOther * AssumedCattleValue, nil
	default:
		return 0, fmt.Errorf("unknown transfer reason %q", reason)
	}
}

// NewReference generates a client-side transfer reference. The backend
// records it verbatim, so it must be unique per attempt.
func NewReference() string {
	return "TRF-" + strings.ToUpper(uuid.NewString()[:8])
}

// Request carries the operator-entered transfer inputs.
type Request struct {
	NewOwner        model.Owner
	Reason          string
	SendSMS         bool
	SendEmail       bool
	RequireApproval bool
}

// Build validates the inputs and produces the wire payload, with the fee
// computed and a fresh reference attached.
func Build(req Request) (api.TransferRequest, error) {
	if strings.TrimSpace(req.NewOwner.FullName) == "" {
		return api.TransferRequest{}, fmt.Errorf("new owner name is required")
	}
	if strings.TrimSpace(req.NewOwner.Phone) == "" {
		return api.TransferRequest{}, fmt.Errorf("new owner phone is required")
	}
	if !model.ValidReason(req.Reason) {
		return api.TransferRequest{}, fmt.Errorf("invalid transfer reason %q", req.Reason)
	}

	fee, err := Fee(req.Reason)
	if err != nil {
		return api.TransferRequest{}, err
	}

	return api.TransferRequest{
		NewOwnerFullName:   req.NewOwner.FullName,
		NewOwnerPhone:      req.NewOwner.Phone,
		NewOwnerEmail:      req.NewOwner.Email,
		NewOwnerAddress:    req.NewOwner.Address,
		NewOwnerNationalID: req.NewOwner.NationalID,
		Reason:             req.Reason,
		Fee:                fee,
		Reference:          NewReference(),
		SendSMS:            req.SendSMS,
		SendEmail:          req.SendEmail,
		RequireApproval:    req.RequireApproval,
	}, nil
}
