package store

import (
	"context"
	"testing"

	"github.com/dengarop/herdbook/internal/db"
	"github.com/dengarop/herdbook/internal/model"
)

func sampleOwners() []model.Owner {
	return []model.Owner{
		{ID: 1, FullName: "Deng Arop", Phone: "+211925000111", Email: "deng@example.com", NationalID: "SS-0001"},
		{ID: 2, FullName: "Ayen Bol", Phone: "+211925000222", Address: "Bor"},
		{ID: 3, FullName: "Nyandeng Kur", Phone: "+211925000333"},
	}
}

func TestReplaceAndListOwnerCache(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	if err := ReplaceOwnerCache(ctx, database, sampleOwners()); err != nil {
		t.Fatalf("ReplaceOwnerCache: %v", err)
	}

	owners, err := CachedOwners(ctx, database)
	if err != nil {
		t.Fatalf("CachedOwners: %v", err)
	}
	if len(owners) != 3 {
		t.Fatalf("expected 3 cached owners, got %d", len(owners))
	}
	// Ordered by name.
	if owners[0].FullName != "Ayen Bol" {
		t.Errorf("expected name ordering, got %q first", owners[0].FullName)
	}
}

func TestReplaceOwnerCacheDiscardPrevious(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	ReplaceOwnerCache(ctx, database, sampleOwners())
	if err := ReplaceOwnerCache(ctx, database, sampleOwners()[:1]); err != nil {
		t.Fatalf("second ReplaceOwnerCache: %v", err)
	}

	owners, _ := CachedOwners(ctx, database)
	if len(owners) != 1 {
		t.Errorf("expected snapshot replacement, got %d owners", len(owners))
	}
}

func TestCachedOwnerByPhone(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	ReplaceOwnerCache(ctx, database, sampleOwners())

	owner, err := CachedOwnerByPhone(ctx, database, "+211925000222")
	if err != nil {
		t.Fatalf("CachedOwnerByPhone: %v", err)
	}
	if owner == nil || owner.FullName != "Ayen Bol" {
		t.Errorf("unexpected owner: %+v", owner)
	}

	// Exact match only.
	owner, err = CachedOwnerByPhone(ctx, database, "+21192500")
	if err != nil {
		t.Fatalf("CachedOwnerByPhone prefix: %v", err)
	}
	if owner != nil {
		t.Error("expected no match for partial phone")
	}
}
