package repository

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// InitDB opens (or creates) a SQLite database at the given path and ensures
// all required tables exist. Pass ":memory:" for an in-memory database.
func InitDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	// Enable WAL mode for better concurrent read performance.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set wal mode: %w", err)
	}

	if err := createTables(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("create tables: %w", err)
	}

	return db, nil
}

func createTables(db *sql.DB) error {
	// transaction_id is UNIQUE: concurrent duplicate submissions race safely
	// with exactly one winner. receipt_number is deliberately not a key -
	// it is a human-readable label, and a same-millisecond collision between
	// two different transactions must not reject either donation. The ledger
	// is append-only; no UPDATE or DELETE statement exists anywhere in this
	// package.
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS donations (
			receipt_number TEXT NOT NULL,
			transaction_id TEXT UNIQUE NOT NULL,
			amount REAL NOT NULL,
			currency TEXT NOT NULL,
			donor_name TEXT NOT NULL,
			donor_email TEXT NOT NULL,
			donor_phone TEXT,
			recurring INTEGER NOT NULL DEFAULT 0,
			frequency TEXT,
			payment_method TEXT NOT NULL,
			created_at DATETIME NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_donations_receipt ON donations(receipt_number)`,
		`CREATE INDEX IF NOT EXISTS idx_donations_method ON donations(payment_method)`,
		`CREATE INDEX IF NOT EXISTS idx_donations_email ON donations(donor_email)`,
		`CREATE INDEX IF NOT EXISTS idx_donations_created_at ON donations(created_at)`,
	}

	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("exec %q: %w", stmt[:40], err)
		}
	}

	return nil
}
