package model

import "time"

// Owner represents a registered cattle owner. Phone and national ID are
// unique per owner in practice; the client only uses them for best-effort
// matching and never enforces uniqueness.
type Owner struct {
	ID         int64     `json:"id"`
	FullName   string    `json:"full_name"`
	Phone      string    `json:"phone"`
	Email      string    `json:"email,omitempty"`
	Address    string    `json:"address,omitempty"`
	NationalID string    `json:"national_id,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}
