package model

import "time"

// VerificationLog is an append-only entry produced by the backend's
// biometric matcher. The client only reads and filters these.
type VerificationLog struct {
	LogID           int64     `json:"log_id"`
	CowTag          string    `json:"cow_tag"`
	SimilarityScore float64   `json:"similarity_score"`
	Verified        bool      `json:"verified"`
	Location        string    `json:"location,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}
