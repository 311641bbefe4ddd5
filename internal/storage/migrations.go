package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
)

// ExpectedSchemaVersion is the latest schema version that the
// application expects. If the database cannot be migrated to this
// version, it's a fatal error.
const ExpectedSchemaVersion = 2

// Migration represents a database schema migration.
type Migration struct {
	Up          func(*sql.Tx) error
	Description string
	Version     int
}

var migrations = []Migration{
	{
		Version:     1,
		Description: "Initial schema",
		Up: func(tx *sql.Tx) error {
			queries := []string{
				`CREATE TABLE IF NOT EXISTS canonical_records (
					document TEXT NOT NULL,
					batch_code TEXT NOT NULL,
					company_code TEXT NOT NULL,
					vendor_code TEXT NOT NULL,
					vendor_name TEXT,
					invoice_type TEXT NOT NULL,
					invoice_number TEXT,
					invoice_date TEXT,
					gl_date TEXT,
					invoice_amount_cents INTEGER,
					amount_before_taxes_cents INTEGER,
					tax_amount_cents INTEGER,
					shipping_charges_cents INTEGER,
					po_number TEXT,
					job_number TEXT,
					wo_number TEXT,
					remarks TEXT,
					gl_account TEXT NOT NULL,
					phase_code TEXT,
					cost_type TEXT,
					wo_flag TEXT,
					routing_code TEXT,
					created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
					PRIMARY KEY (document, batch_code)
				)`,
				`CREATE INDEX idx_canonical_records_batch ON canonical_records(batch_code)`,
				`CREATE INDEX idx_canonical_records_vendor ON canonical_records(vendor_code)`,

				`CREATE TABLE IF NOT EXISTS skipped_documents (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					document TEXT NOT NULL,
					batch_code TEXT NOT NULL,
					reason TEXT NOT NULL,
					detail TEXT,
					raw_payload TEXT,
					created_at DATETIME DEFAULT CURRENT_TIMESTAMP
				)`,
				`CREATE INDEX idx_skipped_documents_batch ON skipped_documents(batch_code)`,
			}

			for _, query := range queries {
				if _, err := tx.Exec(query); err != nil {
					return fmt.Errorf("failed to execute query: %w", err)
				}
			}
			return nil
		},
	},
	{
		Version:     2,
		Description: "Add batch runs table for audit trail",
		Up: func(tx *sql.Tx) error {
			queries := []string{
				`CREATE TABLE IF NOT EXISTS batch_runs (
					run_id TEXT PRIMARY KEY,
					batch_code TEXT NOT NULL,
					started_at DATETIME NOT NULL,
					completed_at DATETIME,
					documents_total INTEGER DEFAULT 0,
					documents_saved INTEGER DEFAULT 0,
					documents_skipped INTEGER DEFAULT 0,
					po_gate_bypassed BOOLEAN DEFAULT 0
				)`,
				`CREATE INDEX idx_batch_runs_batch ON batch_runs(batch_code)`,
			}

			for _, query := range queries {
				if _, err := tx.Exec(query); err != nil {
					return fmt.Errorf("failed to execute query '%s': %w", query, err)
				}
			}
			return nil
		},
	},
}

// Migrate applies all pending database migrations.
func (s *SQLiteStorage) Migrate(ctx context.Context) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	var currentVersion int
	err := s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&currentVersion)
	if err != nil {
		return fmt.Errorf("failed to get schema version: %w", err)
	}

	for _, migration := range migrations {
		if migration.Version <= currentVersion {
			continue
		}

		tx, txErr := s.db.BeginTx(ctx, nil)
		if txErr != nil {
			return fmt.Errorf("failed to begin transaction: %w", txErr)
		}

		if upErr := migration.Up(tx); upErr != nil {
			_ = tx.Rollback()
			return fmt.Errorf("migration %d failed: %w", migration.Version, upErr)
		}

		if _, execErr := tx.Exec(fmt.Sprintf("PRAGMA user_version = %d", migration.Version)); execErr != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to update schema version: %w", execErr)
		}

		if commitErr := tx.Commit(); commitErr != nil {
			return fmt.Errorf("failed to commit migration %d: %w", migration.Version, commitErr)
		}

		slog.Info("Applied migration",
			"version", migration.Version,
			"description", migration.Description)
	}

	var finalVersion int
	err = s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&finalVersion)
	if err != nil {
		return fmt.Errorf("failed to verify final schema version: %w", err)
	}

	if finalVersion != ExpectedSchemaVersion {
		return fmt.Errorf("database schema version mismatch: expected %d, got %d", ExpectedSchemaVersion, finalVersion)
	}

	return nil
}
