package model

import "time"

// Transfer represents an ownership change for a cow. Created only via a
// successful transfer submission and never edited client-side afterward.
type Transfer struct {
	ID        int64     `json:"id"`
	CowTag    string    `json:"cow_tag"`
	FromOwner string    `json:"from_owner"`
	ToOwner   string    `json:"to_owner"`
	Reason    string    `json:"reason"`
	Fee       int64     `json:"fee"`
	Reference string    `json:"reference"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

// Transfer reasons.
const (
	ReasonSale        = "sale"
	ReasonGift        = "gift"
	ReasonInheritance = "inheritance"
	ReasonOther       = "other"
)

// ValidReason reports whether reason is one of the accepted transfer reasons.
func ValidReason(reason string) bool {
	switch reason {
	case ReasonSale, ReasonGift, ReasonInheritance, ReasonOther:
		return true
	}
	return false
}
