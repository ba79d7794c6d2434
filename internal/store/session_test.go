package store

import (
	"context"
	"testing"

	"github.com/dengarop/herdbook/internal/db"
)

func TestSaveAndGetSession(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	// No session initially.
	s, err := GetSession(ctx, database)
	if err != nil {
		t.Fatalf("GetSession: %v", err)
	}
	if s != nil {
		t.Fatal("expected no session")
	}

	if err := SaveSession(ctx, database, "token-1", "https://registry.example"); err != nil {
		t.Fatalf("SaveSession: %v", err)
	}

	s, err = GetSession(ctx, database)
	if err != nil {
		t.Fatalf("GetSession: %v", err)
	}
	if s == nil || s.Token != "token-1" || s.APIBase != "https://registry.example" {
		t.Errorf("unexpected session: %+v", s)
	}
}

func TestSaveSessionReplaces(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	SaveSession(ctx, database, "token-1", "https://a.example")
	SaveSession(ctx, database, "token-2", "https://b.example")

	s, err := GetSession(ctx, database)
	if err != nil {
		t.Fatalf("GetSession: %v", err)
	}
	if s.Token != "token-2" || s.APIBase != "https://b.example" {
		t.Errorf("expected replaced session, got %+v", s)
	}
}

func TestClearSession(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	SaveSession(ctx, database, "token-1", "https://a.example")
	if err := ClearSession(ctx, database); err != nil {
		t.Fatalf("ClearSession: %v", err)
	}

	s, _ := GetSession(ctx, database)
	if s != nil {
		t.Error("expected session to be cleared")
	}

	// Clearing again is a no-op.
	if err := ClearSession(ctx, database); err != nil {
		t.Errorf("second ClearSession: %v", err)
	}
}

func TestSettingsRoundTrip(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	value, err := GetSetting(ctx, database, "threshold", "0.70")
	if err != nil {
		t.Fatalf("GetSetting: %v", err)
	}
	if value != "0.70" {
		t.Errorf("expected fallback, got %q", value)
	}

	if err := SetSetting(ctx, database, "threshold", "0.80"); err != nil {
		t.Fatalf("SetSetting: %v", err)
	}

	value, _ = GetSetting(ctx, database, "threshold", "0.70")
	if value != "0.80" {
		t.Errorf("expected stored value, got %q", value)
	}

	// Overwrite.
	SetSetting(ctx, database, "threshold", "0.75")
	value, _ = GetSetting(ctx, database, "threshold", "0.70")
	if value != "0.75" {
		t.Errorf("expected overwritten value, got %q", value)
	}
}
