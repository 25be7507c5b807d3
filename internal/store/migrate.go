package store

import (
	"database/sql"
	"fmt"
	"log/slog"
)

// runMigrations applies every migration whose version is not yet recorded
// in schema_migrations, in order, each inside its own transaction.
func runMigrations(db *sql.DB) error {
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS schema_migrations (
		version INTEGER PRIMARY KEY,
		applied_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%fZ','now'))
	)`); err != nil {
		return fmt.Errorf("creating schema_migrations: %w", err)
	}

	applied := map[int]bool{}
	rows, err := db.Query(`SELECT version FROM schema_migrations`)
	if err != nil {
		return fmt.Errorf("reading schema_migrations: %w", err)
	}
	for rows.Next() {
		var v int
		if err := rows.Scan(&v); err != nil {
			rows.Close()
			return fmt.Errorf("scanning schema_migrations: %w", err)
		}
		applied[v] = true
	}
	rows.Close()

	for _, m := range migrations {
		if applied[m.version] {
			continue
		}
		tx, err := db.Begin()
		if err != nil {
			return fmt.Errorf("beginning migration %d: %w", m.version, err)
		}
		if err := applyMigration(tx, m); err != nil {
			tx.Rollback()
			return fmt.Errorf("applying migration %d (%s): %w", m.version, m.name, err)
		}
		if _, err := tx.Exec(`INSERT INTO schema_migrations (version) VALUES (?)`, m.version); err != nil {
			tx.Rollback()
			return fmt.Errorf("recording migration %d: %w", m.version, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("committing migration %d: %w", m.version, err)
		}
		slog.Debug("applied migration", "version", m.version, "name", m.name)
	}
	return nil
}

func applyMigration(tx *sql.Tx, m migration) error {
	switch m.version {
	case 2:
		return migrateAddTemporaryColumn(tx)
	case 3:
		return migrateLegacyWatchedDirs(tx)
	default:
		for _, stmt := range m.stmts {
			if _, err := tx.Exec(stmt); err != nil {
				return err
			}
		}
		return nil
	}
}

// migrateAddTemporaryColumn adds files.temporary when it is missing, i.e.
// when migrating an lv.db predating the column. A database created fresh by
// schemaV1 already has it, so this is a no-op there.
func migrateAddTemporaryColumn(tx *sql.Tx) error {
	has, err := columnExists(tx, "files", "temporary")
	if err != nil {
		return err
	}
	if has {
		return nil
	}
	_, err = tx.Exec(`ALTER TABLE files ADD COLUMN temporary INTEGER NOT NULL DEFAULT 0`)
	return err
}

// migrateLegacyWatchedDirs merges an older standalone "watched directories"
// table into the unified directories table. Older snapshots tracked watch
// state in a separate table keyed only by path; once merged that table is
// dropped so directories is the single source of truth, per spec.md §3's
// Directory entity.
func migrateLegacyWatchedDirs(tx *sql.Tx) error {
	has, err := tableExists(tx, "watched_dirs")
	if err != nil {
		return err
	}
	if !has {
		return nil
	}

	rows, err := tx.Query(`SELECT path FROM watched_dirs`)
	if err != nil {
		return err
	}
	var paths []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			rows.Close()
			return err
		}
		paths = append(paths, p)
	}
	rows.Close()

	for _, p := range paths {
		if _, err := tx.Exec(
			`INSERT INTO directories (path, tracked, watched, recursive)
			 VALUES (?, 1, 1, 1)
			 ON CONFLICT(path) DO UPDATE SET watched = 1`,
			p,
		); err != nil {
			return err
		}
	}

	_, err = tx.Exec(`DROP TABLE watched_dirs`)
	return err
}

func columnExists(tx *sql.Tx, table, column string) (bool, error) {
	rows, err := tx.Query(fmt.Sprintf(`PRAGMA table_info(%s)`, table))
	if err != nil {
		return false, err
	}
	defer rows.Close()
	cols, err := rows.Columns()
	if err != nil {
		return false, err
	}
	nameIdx := -1
	for i, c := range cols {
		if c == "name" {
			nameIdx = i
		}
	}
	if nameIdx < 0 {
		return false, fmt.Errorf("unexpected PRAGMA table_info shape")
	}
	dest := make([]any, len(cols))
	holder := make([]any, len(cols))
	for i := range dest {
		dest[i] = &holder[i]
	}
	for rows.Next() {
		if err := rows.Scan(dest...); err != nil {
			return false, err
		}
		if name, ok := holder[nameIdx].(string); ok && name == column {
			return true, nil
		}
	}
	return false, rows.Err()
}

func tableExists(tx *sql.Tx, name string) (bool, error) {
	var n int
	err := tx.QueryRow(`SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?`, name).Scan(&n)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
