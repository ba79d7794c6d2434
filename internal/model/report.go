package model

import "time"

// Report represents a user-submitted incident report. Status transitions
// happen only through an explicit admin reply.
type Report struct {
	ID            int64     `json:"id"`
	ReporterName  string    `json:"reporter_name"`
	ReporterPhone string    `json:"reporter_phone,omitempty"`
	ReporterEmail string    `json:"reporter_email,omitempty"`
	Type          string    `json:"report_type"`
	Status        string    `json:"status"`
	CowTag        string    `json:"cow_tag,omitempty"`
	Location      string    `json:"location,omitempty"`
	Message       string    `json:"message"`
	AdminReply    string    `json:"admin_reply,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

// Report statuses.
const (
	ReportStatusPending  = "pending"
	ReportStatusUrgent   = "urgent"
	ReportStatusResolved = "resolved"
)

// ValidReportStatus reports whether status is a known report status.
func ValidReportStatus(status string) bool {
	switch status {
	case ReportStatusPending, ReportStatusUrgent, ReportStatusResolved:
		return true
	}
	return false
}
