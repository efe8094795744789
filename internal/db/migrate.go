package db

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

type migration struct {
	version    int
	statements []string
}

// Types are kept to the intersection of SQLite and Postgres; timestamps are
// RFC3339 strings in UTC.
var migrations = []migration{
	{
		version: 1,
		statements: []string{
			`CREATE TABLE IF NOT EXISTS pix_transactions (
				id                  TEXT PRIMARY KEY,
				external_id         TEXT NOT NULL UNIQUE,
				reference           TEXT NOT NULL,
				gateway             TEXT NOT NULL,
				amount_cents        BIGINT NOT NULL,
				currency            TEXT NOT NULL DEFAULT 'BRL',
				status              TEXT NOT NULL,
				description         TEXT NOT NULL DEFAULT '',
				client_name         TEXT NOT NULL DEFAULT '',
				client_email        TEXT NOT NULL DEFAULT '',
				client_document     TEXT NOT NULL DEFAULT '',
				client_phone        TEXT,
				payment_code        TEXT NOT NULL,
				payment_code_base64 TEXT NOT NULL DEFAULT '',
				raw_webhook         TEXT,
				created_at          TEXT NOT NULL,
				updated_at          TEXT NOT NULL,
				paid_at             TEXT
			)`,
			`CREATE TABLE IF NOT EXISTS vip_access (
				id             TEXT PRIMARY KEY,
				transaction_id TEXT NOT NULL UNIQUE REFERENCES pix_transactions(id),
				client_email   TEXT NOT NULL DEFAULT '',
				access_type    TEXT NOT NULL,
				created_at     TEXT NOT NULL
			)`,
			`CREATE TABLE IF NOT EXISTS vip_tokens (
				id                   TEXT PRIMARY KEY,
				transaction_id       TEXT NOT NULL UNIQUE REFERENCES pix_transactions(id),
				client_email         TEXT NOT NULL DEFAULT '',
				token                TEXT NOT NULL UNIQUE,
				status               TEXT NOT NULL DEFAULT 'unused',
				used_at              TEXT,
				redeemed_by_user_id  TEXT,
				redeemed_by_username TEXT,
				created_at           TEXT NOT NULL
			)`,
		},
	},
	{
		version: 2,
		statements: []string{
			`CREATE TABLE IF NOT EXISTS transaction_events (
				id             TEXT PRIMARY KEY,
				transaction_id TEXT NOT NULL REFERENCES pix_transactions(id),
				old_status     TEXT NOT NULL DEFAULT '',
				new_status     TEXT NOT NULL DEFAULT '',
				reason         TEXT NOT NULL,
				detail         TEXT NOT NULL DEFAULT '',
				created_at     TEXT NOT NULL
			)`,
			`CREATE INDEX IF NOT EXISTS idx_transaction_events_tx ON transaction_events(transaction_id)`,
		},
	},
	{
		version: 3,
		statements: []string{
			`ALTER TABLE pix_transactions ADD COLUMN split_user_id TEXT`,
			`ALTER TABLE pix_transactions ADD COLUMN split_percentage TEXT`,
		},
	},
}

// Migrate applies pending migrations, each inside its own transaction.
func Migrate(d *DB) error {
	if _, err := d.Exec(`CREATE TABLE IF NOT EXISTS schema_migrations (
		version    INTEGER PRIMARY KEY,
		applied_at TEXT NOT NULL
	)`); err != nil {
		return fmt.Errorf("create schema_migrations: %w", err)
	}

	for _, m := range migrations {
		var n int
		if err := d.QueryRow(d.Rebind(`SELECT COUNT(*) FROM schema_migrations WHERE version = ?`), m.version).Scan(&n); err != nil {
			return fmt.Errorf("check migration %d: %w", m.version, err)
		}
		if n > 0 {
			continue
		}

		tx, err := d.Begin()
		if err != nil {
			return fmt.Errorf("begin migration %d: %w", m.version, err)
		}
		for _, stmt := range m.statements {
			if _, err := tx.Exec(stmt); err != nil {
				tx.Rollback()
				return fmt.Errorf("migration %d: %w", m.version, err)
			}
		}
		if _, err := tx.Exec(d.Rebind(`INSERT INTO schema_migrations (version, applied_at) VALUES (?, ?)`),
			m.version, time.Now().UTC().Format(time.RFC3339)); err != nil {
			tx.Rollback()
			return fmt.Errorf("record migration %d: %w", m.version, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit migration %d: %w", m.version, err)
		}
	}
	return nil
}

// OpenAndMigrate opens the configured database, creating the directory of a
// SQLite file when needed, and applies pending migrations.
func OpenAndMigrate(driver, dsn string) (*DB, error) {
	if driver == DriverSQLite && dsn != ":memory:" && !strings.HasPrefix(dsn, "file:") {
		if err := os.MkdirAll(filepath.Dir(dsn), 0755); err != nil {
			return nil, fmt.Errorf("erro ao criar diretório de dados: %w", err)
		}
	}
	d, err := Open(driver, dsn)
	if err != nil {
		return nil, err
	}
	if err := Migrate(d); err != nil {
		d.Close()
		return nil, fmt.Errorf("erro ao executar migrações: %w", err)
	}
	return d, nil
}
