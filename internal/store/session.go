package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// SavedSession is the persisted bearer-token session row.
type SavedSession struct {
	Token   string
	APIBase string
	SavedAt time.Time
}

// SaveSession stores the single admin session, replacing any previous one.
func SaveSession(ctx context.Context, db *sql.DB, token, apiBase string) error {
	_, err := db.ExecContext(ctx,
		`INSERT INTO session (id, token, api_base, saved_at) VALUES (1, ?, ?, CURRENT_TIMESTAMP)
		 ON CONFLICT(id) DO UPDATE SET token = excluded.token, api_base = excluded.api_base, saved_at = CURRENT_TIMESTAMP`,
		token, apiBase,
	)
	if err != nil {
		return fmt.Errorf("saving session: %w", err)
	}
	return nil
}

// GetSession returns the persisted session, or nil if none is stored.
func GetSession(ctx context.Context, db *sql.DB) (*SavedSession, error) {
	s := &SavedSession{}
	err := db.QueryRowContext(ctx,
		`SELECT token, api_base, saved_at FROM session WHERE id = 1`,
	).Scan(&s.Token, &s.APIBase, &s.SavedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting session: %w", err)
	}
	return s, nil
}

// ClearSession removes the persisted session (logout).
func ClearSession(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `DELETE FROM session WHERE id = 1`)
	if err != nil {
		return fmt.Errorf("clearing session: %w", err)
	}
	return nil
}
