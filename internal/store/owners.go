package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dengarop/herdbook/internal/model"
)

// The owner cache is a disposable copy of the backend's owner list, refreshed
// whenever the list is fetched. It exists so that phone auto-fill during
// registration keeps working between runs without another fetch; it is never
// written back to the backend.

// ReplaceOwnerCache replaces the cached owner list with a fresh snapshot.
func ReplaceOwnerCache(ctx context.Context, db *sql.DB, owners []model.Owner) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("starting owner cache transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM owner_cache`); err != nil {
		return fmt.Errorf("clearing owner cache: %w", err)
	}

	for _, o := range owners {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO owner_cache (id, full_name, phone, email, address, national_id)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			o.ID, o.FullName, o.Phone, o.Email, o.Address, o.NationalID,
		)
		if err != nil {
			return fmt.Errorf("caching owner %d: %w", o.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing owner cache: %w", err)
	}
	return nil
}

// CachedOwners returns the cached owner list.
func CachedOwners(ctx context.Context, db *sql.DB) ([]model.Owner, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT id, full_name, phone, email, address, national_id
		 FROM owner_cache ORDER BY full_name`,
	)
	if err != nil {
		return nil, fmt.Errorf("listing cached owners: %w", err)
	}
	defer rows.Close()

	var owners []model.Owner
	for rows.Next() {
		var o model.Owner
		var email, address, nationalID sql.NullString
		if err := rows.Scan(&o.ID, &o.FullName, &o.Phone, &email, &address, &nationalID); err != nil {
			return nil, fmt.Errorf("scanning cached owner: %w", err)
		}
		o.Email = email.String
		o.Address = address.String
		o.NationalID = nationalID.String
		owners = append(owners, o)
	}
	return owners, rows.Err()
}

// CachedOwnerByPhone returns the cached owner with exactly this phone
// number, or nil if there is no match.
func CachedOwnerByPhone(ctx context.Context, db *sql.DB, phone string) (*model.Owner, error) {
	o := &model.Owner{}
	var email, address, nationalID sql.NullString
	err := db.QueryRowContext(ctx,
		`SELECT id, full_name, phone, email, address, national_id
		 FROM owner_cache WHERE phone = ?`, phone,
	).Scan(&o.ID, &o.FullName, &o.Phone, &email, &address, &nationalID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("looking up cached owner: %w", err)
	}
	o.Email = email.String
	o.Address = address.String
	o.NationalID = nationalID.String
	return o, nil
}
