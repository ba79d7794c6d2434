package model

import (
	"bytes"
	"strconv"
	"strings"
	"time"
)

// The backend has shipped several revisions with diverging field names for
// the same record (cow_id vs id, owner_full_name vs full_name, string vs
// numeric ages). The Raw* types below accept every observed variant and map
// it into the typed entities exactly once, at the API boundary, so nothing
// downstream re-checks field names.

// FlexInt64 decodes from a JSON number, a quoted number, or null.
type FlexInt64 int64

func (f *FlexInt64) UnmarshalJSON(data []byte) error {
	data = bytes.Trim(bytes.TrimSpace(data), `"`)
	if len(data) == 0 || string(data) == "null" {
		*f = 0
		return nil
	}
	n, err := strconv.ParseInt(string(data), 10, 64)
	if err != nil {
		// Tolerate fractional ages like "2.0".
		fl, ferr := strconv.ParseFloat(string(data), 64)
		if ferr != nil {
			*f = 0
			return nil
		}
		n = int64(fl)
	}
	*f = FlexInt64(n)
	return nil
}

// FlexFloat decodes from a JSON number, a quoted number, or null.
type FlexFloat float64

func (f *FlexFloat) UnmarshalJSON(data []byte) error {
	data = bytes.Trim(bytes.TrimSpace(data), `"`)
	if len(data) == 0 || string(data) == "null" {
		*f = 0
		return nil
	}
	v, err := strconv.ParseFloat(string(data), 64)
	if err != nil {
		*f = 0
		return nil
	}
	*f = FlexFloat(v)
	return nil
}

// FlexTime decodes the timestamp layouts the backend has been seen to emit.
type FlexTime struct {
	time.Time
}

var timeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

func (t *FlexTime) UnmarshalJSON(data []byte) error {
	s := strings.Trim(strings.TrimSpace(string(data)), `"`)
	if s == "" || s == "null" {
		t.Time = time.Time{}
		return nil
	}
	for _, layout := range timeLayouts {
		if parsed, err := time.Parse(layout, s); err == nil {
			t.Time = parsed
			return nil
		}
	}
	t.Time = time.Time{}
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

// RawCow is a cattle row as the backend actually serializes it.
type RawCow struct {
	ID    FlexInt64 `json:"id"`
	CowID FlexInt64 `json:"cow_id"`
	Tag   string    `json:"cow_tag"`

	Breed string    `json:"breed"`
	Color string    `json:"color"`
	Age   FlexInt64 `json:"age"`

	OwnerID         FlexInt64 `json:"owner_id"`
	OwnerFullName   string    `json:"owner_full_name"`
	OwnerName       string    `json:"owner_name"`
	OwnerPhone      string    `json:"owner_phone"`
	OwnerEmail      string    `json:"owner_email"`
	OwnerAddress    string    `json:"owner_address"`
	OwnerNationalID string    `json:"owner_national_id"`

	CreatedAt  FlexTime `json:"created_at"`
	NoseImages []string `json:"nose_print_images"`
}

// Cow maps a raw row into the typed entity.
func (r RawCow) Cow() Cow {
	id := int64(r.CowID)
	if id == 0 {
		id = int64(r.ID)
	}
	return Cow{
		ID:        id,
		Tag:       r.Tag,
		Breed:     r.Breed,
		Color:     r.Color,
		Age:       int(r.Age),
		CreatedAt: r.CreatedAt.Time,
		Owner: Owner{
			ID:         int64(r.OwnerID),
			FullName:   firstNonEmpty(r.OwnerFullName, r.OwnerName),
			Phone:      r.OwnerPhone,
			Email:      r.OwnerEmail,
			Address:    r.OwnerAddress,
			NationalID: r.OwnerNationalID,
		},
		NoseImages: r.NoseImages,
	}
}

// RawOwner is an owner row as the backend actually serializes it.
type RawOwner struct {
	ID         FlexInt64 `json:"id"`
	OwnerID    FlexInt64 `json:"owner_id"`
	FullName   string    `json:"full_name"`
	AltName    string    `json:"owner_full_name"`
	Phone      string    `json:"phone"`
	AltPhone   string    `json:"owner_phone"`
	Email      string    `json:"email"`
	AltEmail   string    `json:"owner_email"`
	Address    string    `json:"address"`
	AltAddress string    `json:"owner_address"`
	NationalID string    `json:"national_id"`
	AltNatID   string    `json:"owner_national_id"`
	CreatedAt  FlexTime  `json:"created_at"`
}

// Owner maps a raw row into the typed entity.
func (r RawOwner) Owner() Owner {
	id := int64(r.OwnerID)
	if id == 0 {
		id = int64(r.ID)
	}
	return Owner{
		ID:         id,
		FullName:   firstNonEmpty(r.FullName, r.AltName),
		Phone:      firstNonEmpty(r.Phone, r.AltPhone),
		Email:      firstNonEmpty(r.Email, r.AltEmail),
		Address:    firstNonEmpty(r.Address, r.AltAddress),
		NationalID: firstNonEmpty(r.NationalID, r.AltNatID),
		CreatedAt:  r.CreatedAt.Time,
	}
}

// RawReport is a report row as the backend actually serializes it.
type RawReport struct {
	ID            FlexInt64 `json:"id"`
	ReporterName  string    `json:"reporter_name"`
	ReporterPhone string    `json:"reporter_phone"`
	ReporterEmail string    `json:"reporter_email"`
	Type          string    `json:"report_type"`
	AltType       string    `json:"type"`
	Status        string    `json:"status"`
	CowTag        string    `json:"cow_tag"`
	Location      string    `json:"location"`
	Message       string    `json:"message"`
	AltMessage    string    `json:"description"`
	AdminReply    string    `json:"admin_reply"`
	CreatedAt     FlexTime  `json:"created_at"`
}

// Report maps a raw row into the typed entity.
func (r RawReport) Report() Report {
	return Report{
		ID:            int64(r.ID),
		ReporterName:  r.ReporterName,
		ReporterPhone: r.ReporterPhone,
		ReporterEmail: r.ReporterEmail,
		Type:          firstNonEmpty(r.Type, r.AltType),
		Status:        r.Status,
		CowTag:        r.CowTag,
		Location:      r.Location,
		Message:       firstNonEmpty(r.Message, r.AltMessage),
		AdminReply:    r.AdminReply,
		CreatedAt:     r.CreatedAt.Time,
	}
}

// RawVerification is a verification-log row as the backend serializes it.
// The matcher reports verified as the strings "yes"/"no".
type RawVerification struct {
	LogID           FlexInt64 `json:"log_id"`
	CowTag          string    `json:"cow_tag"`
	SimilarityScore FlexFloat `json:"similarity_score"`
	Verified        string    `json:"verified"`
	Location        string    `json:"location"`
	CreatedAt       FlexTime  `json:"created_at"`
}

// Verification maps a raw row into the typed entity.
func (r RawVerification) Verification() VerificationLog {
	return VerificationLog{
		LogID:           int64(r.LogID),
		CowTag:          r.CowTag,
		SimilarityScore: float64(r.SimilarityScore),
		Verified:        strings.EqualFold(r.Verified, "yes"),
		Location:        r.Location,
		CreatedAt:       r.CreatedAt.Time,
	}
}
