package db

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// Open opens the local client-state database. WAL and the busy timeout
// keep concurrent herdbook invocations (for example a register run while
// a list command refreshes the owner cache) from tripping over each
// other's writes.
func Open(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	for _, pragma := range []string{
		"journal_mode=WAL",
		"busy_timeout=5000",
		"foreign_keys=ON",
		"synchronous=NORMAL",
	} {
		if _, err := db.Exec("PRAGMA " + pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("setting pragma %q: %w", pragma, err)
		}
	}

	return db, nil
}
