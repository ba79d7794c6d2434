package transfer

import (
	"strings"
	"testing"

	"github.com/dengarop/herdbook/internal/model"
)

func TestFeeSchedule(t *testing.T) {
	tests := []struct {
		reason string
		want   float64
	}{
		{model.ReasonSale, 5000},
		{model.ReasonGift, 2000},
		{model.ReasonInheritance, 1000},
		{model.ReasonOther, 3000},
	}
	for _, tt := range tests {
		got, err := Fee(tt.reason)
		if err != nil {
			t.Errorf("Fee(%q) error = %v", tt.reason, err)
			continue
		}
		if got != tt.want {
			t.Errorf("Fee(%q) = %v, want %v", tt.reason, got, tt.want)
		}
	}

	if _, err := Fee("barter"); err == nil {
		t.Error("Fee() accepted unknown reason")
	}
}

func TestNewReferenceUniqueAndPrefixed(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		ref := NewReference()
		if !strings.HasPrefix(ref, "TRF-") || len(ref) != 12 {
			t.Fatalf("reference %q has wrong shape", ref)
		}
		if seen[ref] {
			t.Fatalf("duplicate reference %q", ref)
		}
		seen[ref] = true
	}
}

func TestBuild(t *testing.T) {
	req := Request{
		NewOwner: model.Owner{
			FullName: "Nyankiir Deng",
			Phone:    "0923456789",
			Email:    "nyankiir@example.com",
		},
		Reason:    model.ReasonSale,
		SendSMS:   true,
		SendEmail: true,
	}

	payload, err := Build(req)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if payload.NewOwnerFullName != "Nyankiir Deng" || payload.Fee != 5000 {
		t.Errorf("payload = %+v", payload)
	}
	if payload.Reference == "" {
		t.Error("payload has no reference")
	}
	if !payload.SendSMS || !payload.SendEmail || payload.RequireApproval {
		t.Errorf("notification flags = %+v", payload)
	}
}

func TestBuildValidation(t *testing.T) {
	base := Request{
		NewOwner: model.Owner{FullName: "Nyankiir Deng", Phone: "0923456789"},
		Reason:   model.ReasonGift,
	}

	tests := []struct {
		name   string
		mutate func(*Request)
	}{
		{"missing name", func(r *Request) { r.NewOwner.FullName = "  " }},
		{"missing phone", func(r *Request) { r.NewOwner.Phone = "" }},
		{"bad reason", func(r *Request) { r.Reason = "loan" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := base
			tt.mutate(&req)
			if _, err := Build(req); err == nil {
				t.Error("Build() accepted invalid request")
			}
		})
	}
}
