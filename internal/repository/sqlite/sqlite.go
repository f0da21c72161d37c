// Package sqlite implements the repository interfaces on SQLite.
//
// The driver is modernc.org/sqlite — a pure-Go translation of the SQLite C
// code, so no CGo and no C toolchain for cross-compilation. It registers
// itself with database/sql under the name "sqlite".
//
// The schema is created by idempotent CREATE TABLE IF NOT EXISTS migrations
// at startup. WAL mode keeps reads concurrent with the provisioning write
// transaction, and foreign keys are switched on (SQLite defaults them off).
package sqlite

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/rs/xid"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// DB wraps a sql.DB connection pool and implements
// repository.ActorRepository and repository.ProfileRepository.
type DB struct {
	conn *sql.DB
}

// New opens the database at dbPath (":memory:" for tests) and runs
// migrations. sql.Open alone doesn't connect, so Ping forces the first
// connection and surfaces bad paths immediately.
func New(dbPath string) (*DB, error) {
	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}

	// One connection: SQLite serializes writers anyway, and a pool of
	// distinct connections to ":memory:" would each get their own database.
	conn.SetMaxOpenConns(1)

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}

	// WAL lets reads proceed while a provisioning transaction is writing.
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: setting WAL mode: %w", err)
	}

	if _, err := conn.Exec("PRAGMA foreign_keys=ON"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: enabling foreign keys: %w", err)
	}

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: running migrations: %w", err)
	}
	return db, nil
}

// Close closes the connection pool. The server defers this on shutdown so
// the WAL is flushed and the file lock released.
func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) migrate() error {
	stmts := []struct {
		name string
		sql  string
	}{
		{"users", `
			CREATE TABLE IF NOT EXISTS users (
				id            TEXT PRIMARY KEY,
				email         TEXT NOT NULL UNIQUE,
				username      TEXT NOT NULL UNIQUE,
				profile_image TEXT NOT NULL DEFAULT '',
				birthday      TEXT NOT NULL DEFAULT '',
				phone_number  TEXT NOT NULL DEFAULT '',
				github_handle TEXT NOT NULL DEFAULT '',
				created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
				updated_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
			);`},
		{"organizations", `
			CREATE TABLE IF NOT EXISTS organizations (
				id         TEXT PRIMARY KEY,
				email      TEXT NOT NULL UNIQUE,
				org_name   TEXT NOT NULL,
				website    TEXT NOT NULL DEFAULT '',
				created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
				updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
			);`},
		// The CHECK encodes the actor invariant: exactly one role reference
		// for USER/ORG, none at all for ADMIN.
		{"actors", `
			CREATE TABLE IF NOT EXISTS actors (
				id         TEXT PRIMARY KEY,
				actor_type TEXT NOT NULL CHECK (actor_type IN ('USER','ORG','ADMIN')),
				user_id    TEXT REFERENCES users(id),
				org_id     TEXT REFERENCES organizations(id),
				created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
				CHECK (
					(actor_type = 'USER'  AND user_id IS NOT NULL AND org_id IS NULL) OR
					(actor_type = 'ORG'   AND org_id IS NOT NULL  AND user_id IS NULL) OR
					(actor_type = 'ADMIN' AND user_id IS NULL     AND org_id IS NULL)
				)
			);`},
		// UNIQUE(provider, provider_user_id) is what arbitrates concurrent
		// first-time sign-ins of the same external identity.
		{"account_identities", `
			CREATE TABLE IF NOT EXISTS account_identities (
				actor_id         TEXT NOT NULL REFERENCES actors(id),
				provider         TEXT NOT NULL,
				provider_user_id TEXT NOT NULL,
				email            TEXT NOT NULL,
				is_verified      INTEGER NOT NULL DEFAULT 0,
				created_at       DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
				UNIQUE (provider, provider_user_id)
			);
			CREATE INDEX IF NOT EXISTS idx_identities_actor_id ON account_identities(actor_id);`},
		{"skill catalog", `
			CREATE TABLE IF NOT EXISTS skill_categories (
				id   TEXT PRIMARY KEY,
				name TEXT NOT NULL UNIQUE
			);
			CREATE TABLE IF NOT EXISTS skills (
				id          TEXT PRIMARY KEY,
				category_id TEXT NOT NULL REFERENCES skill_categories(id),
				name        TEXT NOT NULL,
				is_custom   INTEGER NOT NULL DEFAULT 0,
				UNIQUE (category_id, name)
			);`},
		{"user skills", `
			CREATE TABLE IF NOT EXISTS user_skills (
				id          TEXT PRIMARY KEY,
				user_id     TEXT NOT NULL REFERENCES users(id),
				skill_id    TEXT NOT NULL REFERENCES skills(id),
				proficiency TEXT NOT NULL,
				UNIQUE (user_id, skill_id)
			);`},
		{"security records", `
			CREATE TABLE IF NOT EXISTS security_records (
				id          TEXT PRIMARY KEY,
				user_id     TEXT NOT NULL REFERENCES users(id),
				category    TEXT NOT NULL,
				title       TEXT NOT NULL,
				target      TEXT NOT NULL,
				description TEXT NOT NULL DEFAULT '',
				url         TEXT NOT NULL DEFAULT '',
				created_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
			);
			CREATE INDEX IF NOT EXISTS idx_security_records_user_id ON security_records(user_id);`},
		{"work experiences", `
			CREATE TABLE IF NOT EXISTS user_work_experiences (
				id           TEXT PRIMARY KEY,
				user_id      TEXT NOT NULL REFERENCES users(id),
				company_name TEXT NOT NULL,
				role         TEXT NOT NULL,
				start_date   TEXT NOT NULL,
				end_date     TEXT NOT NULL DEFAULT '',
				description  TEXT NOT NULL DEFAULT '',
				created_at   DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
			);
			CREATE INDEX IF NOT EXISTS idx_work_experiences_user_id ON user_work_experiences(user_id);`},
		{"privacy settings", `
			CREATE TABLE IF NOT EXISTS user_privacy_settings (
				user_id      TEXT NOT NULL REFERENCES users(id),
				setting_name TEXT NOT NULL,
				is_public    INTEGER NOT NULL DEFAULT 0,
				UNIQUE (user_id, setting_name)
			);`},
	}

	for _, m := range stmts {
		if _, err := db.conn.Exec(m.sql); err != nil {
			return fmt.Errorf("creating %s tables: %w", m.name, err)
		}
	}

	return db.seedSkillCatalog()
}

// seedSkillCatalog inserts the default categories and skills. OR IGNORE
// keys off the unique names, so re-running on an existing database is a
// no-op and operator-added entries are preserved.
func (db *DB) seedSkillCatalog() error {
	catalog := map[string][]string{
		"Web":        {"XSS", "SQL Injection", "CSRF", "SSRF"},
		"System":     {"Reverse Engineering", "Pwnable", "Fuzzing"},
		"Network":    {"Packet Analysis", "Infrastructure Audit"},
		"Mobile":     {"Android", "iOS"},
		"Blockchain": {"Smart Contract Audit"},
	}

	for category, skills := range catalog {
		if _, err := db.conn.Exec(
			`INSERT OR IGNORE INTO skill_categories (id, name) VALUES (?, ?)`,
			xid.New().String(), category,
		); err != nil {
			return fmt.Errorf("seeding skill category %q: %w", category, err)
		}

		var categoryID string
		if err := db.conn.QueryRow(
			`SELECT id FROM skill_categories WHERE name = ?`, category,
		).Scan(&categoryID); err != nil {
			return fmt.Errorf("reading back skill category %q: %w", category, err)
		}

		for _, skill := range skills {
			if _, err := db.conn.Exec(
				`INSERT OR IGNORE INTO skills (id, category_id, name, is_custom) VALUES (?, ?, ?, 0)`,
				xid.New().String(), categoryID, skill,
			); err != nil {
				return fmt.Errorf("seeding skill %q: %w", skill, err)
			}
		}
	}
	return nil
}

// isUniqueViolation reports whether err is a SQLite unique-constraint
// failure, using the driver's extended result codes rather than matching
// error strings.
func isUniqueViolation(err error) bool {
	var se *sqlite.Error
	if errors.As(err, &se) {
		code := se.Code()
		return code == sqlite3.SQLITE_CONSTRAINT_UNIQUE ||
			code == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY
	}
	return false
}
