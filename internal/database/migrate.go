package database

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Migration represents a database migration.
type Migration struct {
	Version     int
	Description string
	UpSQL       string
	DownSQL     string
	Applied     bool
	AppliedAt   time.Time
}

// MigrationResult contains the result of running migrations.
type MigrationResult struct {
	Applied        []Migration
	CurrentVersion int
	TargetVersion  int
}

// Migrator handles database schema migrations.
type Migrator struct {
	db         *DB
	migrations []Migration
}

// NewMigrator creates a new Migrator for the given database.
func NewMigrator(db *DB) (*Migrator, error) {
	m := &Migrator{db: db}

	if err := m.loadMigrations(); err != nil {
		return nil, fmt.Errorf("loading migrations: %w", err)
	}

	if err := m.ensureMigrationsTable(); err != nil {
		return nil, fmt.Errorf("creating migrations table: %w", err)
	}

	return m, nil
}

// Migrate opens a migrator and applies every pending migration.
func Migrate(ctx context.Context, db *DB) (*MigrationResult, error) {
	m, err := NewMigrator(db)
	if err != nil {
		return nil, err
	}
	return m.MigrateUp(ctx)
}

// loadMigrations reads all migration files from the embedded filesystem.
func (m *Migrator) loadMigrations() error {
	entries, err := fs.ReadDir(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	// Pattern: NNN_description.sql
	pattern := regexp.MustCompile(`^(\d{3})_(.+)\.sql$`)

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		matches := pattern.FindStringSubmatch(entry.Name())
		if matches == nil {
			m.db.logger.Warn("skipping invalid migration filename", zap.String("name", entry.Name()))
			continue
		}

		version, _ := strconv.Atoi(matches[1])
		description := strings.ReplaceAll(matches[2], "_", " ")

		content, err := fs.ReadFile(migrationsFS, path.Join("migrations", entry.Name()))
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", entry.Name(), err)
		}

		upSQL, downSQL := parseMigration(string(content))

		m.migrations = append(m.migrations, Migration{
			Version:     version,
			Description: description,
			UpSQL:       upSQL,
			DownSQL:     downSQL,
		})
	}

	sort.Slice(m.migrations, func(i, j int) bool {
		return m.migrations[i].Version < m.migrations[j].Version
	})

	return nil
}

// parseMigration extracts UP and DOWN SQL from migration content.
// Format:
//
//	-- +migrate Up
//	SQL statements...
//	-- +migrate Down
//	SQL statements...
func parseMigration(content string) (upSQL, downSQL string) {
	upMarker := "-- +migrate Up"
	downMarker := "-- +migrate Down"

	upIdx := strings.Index(content, upMarker)
	downIdx := strings.Index(content, downMarker)

	if upIdx == -1 {
		// No markers, treat entire content as UP
		return strings.TrimSpace(content), ""
	}

	if downIdx == -1 {
		return strings.TrimSpace(content[upIdx+len(upMarker):]), ""
	}

	if upIdx < downIdx {
		upSQL = strings.TrimSpace(content[upIdx+len(upMarker) : downIdx])
		downSQL = strings.TrimSpace(content[downIdx+len(downMarker):])
	} else {
		downSQL = strings.TrimSpace(content[downIdx+len(downMarker) : upIdx])
		upSQL = strings.TrimSpace(content[upIdx+len(upMarker):])
	}

	return upSQL, downSQL
}

func (m *Migrator) ensureMigrationsTable() error {
	_, err := m.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			description TEXT NOT NULL,
			applied_at TEXT NOT NULL DEFAULT (datetime('now'))
		)
	`)
	return err
}

// CurrentVersion returns the current schema version.
func (m *Migrator) CurrentVersion(ctx context.Context) (int, error) {
	var version int
	if err := m.db.GetContext(ctx, &version, "SELECT COALESCE(MAX(version), 0) FROM schema_migrations"); err != nil {
		return 0, fmt.Errorf("querying current version: %w", err)
	}
	return version, nil
}

// PendingMigrations returns migrations that haven't been applied yet.
func (m *Migrator) PendingMigrations(ctx context.Context) ([]Migration, error) {
	current, err := m.CurrentVersion(ctx)
	if err != nil {
		return nil, err
	}

	var pending []Migration
	for _, mig := range m.migrations {
		if mig.Version > current {
			pending = append(pending, mig)
		}
	}

	return pending, nil
}

// MigrateUp runs all pending migrations.
func (m *Migrator) MigrateUp(ctx context.Context) (*MigrationResult, error) {
	current, err := m.CurrentVersion(ctx)
	if err != nil {
		return nil, err
	}

	result := &MigrationResult{CurrentVersion: current, TargetVersion: current}

	pending, err := m.PendingMigrations(ctx)
	if err != nil {
		return nil, err
	}

	if len(pending) == 0 {
		m.db.logger.Debug("database is up to date", zap.Int("version", current))
		return result, nil
	}

	result.TargetVersion = pending[len(pending)-1].Version

	for _, mig := range pending {
		m.db.logger.Info("applying migration",
			zap.Int("version", mig.Version),
			zap.String("description", mig.Description))

		if err := m.applyMigration(ctx, mig); err != nil {
			return result, fmt.Errorf("migration %d failed: %w", mig.Version, err)
		}

		mig.Applied = true
		mig.AppliedAt = time.Now()
		result.Applied = append(result.Applied, mig)
	}

	return result, nil
}

func (m *Migrator) applyMigration(ctx context.Context, mig Migration) error {
	return m.db.WithTransaction(ctx, func(tx *sqlx.Tx) error {
		if err := execStatements(ctx, tx, mig.UpSQL); err != nil {
			return err
		}

		if _, err := tx.ExecContext(ctx,
			"INSERT INTO schema_migrations (version, description) VALUES (?, ?)",
			mig.Version, mig.Description,
		); err != nil {
			return fmt.Errorf("recording migration: %w", err)
		}

		return nil
	})
}

// MigrateDown rolls back the last migration.
func (m *Migrator) MigrateDown(ctx context.Context) (*MigrationResult, error) {
	current, err := m.CurrentVersion(ctx)
	if err != nil {
		return nil, err
	}

	result := &MigrationResult{CurrentVersion: current, TargetVersion: current}

	if current == 0 {
		return result, errors.New("no migrations to roll back")
	}

	var mig *Migration
	for i := range m.migrations {
		if m.migrations[i].Version == current {
			mig = &m.migrations[i]
			break
		}
	}

	if mig == nil {
		return result, fmt.Errorf("migration %d not found", current)
	}

	if mig.DownSQL == "" {
		return result, fmt.Errorf("migration %d has no rollback SQL", current)
	}

	m.db.logger.Info("rolling back migration",
		zap.Int("version", mig.Version),
		zap.String("description", mig.Description))

	err = m.db.WithTransaction(ctx, func(tx *sqlx.Tx) error {
		if err := execStatements(ctx, tx, mig.DownSQL); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, "DELETE FROM schema_migrations WHERE version = ?", mig.Version); err != nil {
			return fmt.Errorf("removing migration record: %w", err)
		}
		return nil
	})
	if err != nil {
		return result, fmt.Errorf("rollback %d failed: %w", mig.Version, err)
	}

	result.TargetVersion = current - 1
	result.Applied = append(result.Applied, *mig)
	return result, nil
}

// Status returns the status of all migrations.
func (m *Migrator) Status(ctx context.Context) ([]Migration, error) {
	var rows []struct {
		Version   int    `db:"version"`
		AppliedAt string `db:"applied_at"`
	}
	if err := m.db.SelectContext(ctx, &rows, "SELECT version, applied_at FROM schema_migrations ORDER BY version"); err != nil {
		return nil, fmt.Errorf("querying applied migrations: %w", err)
	}

	applied := make(map[int]time.Time, len(rows))
	for _, r := range rows {
		t, _ := time.Parse(time.DateTime, r.AppliedAt)
		applied[r.Version] = t
	}

	result := make([]Migration, len(m.migrations))
	for i, mig := range m.migrations {
		result[i] = mig
		if t, ok := applied[mig.Version]; ok {
			result[i].Applied = true
			result[i].AppliedAt = t
		}
	}

	return result, nil
}

func execStatements(ctx context.Context, tx *sqlx.Tx, sqlText string) error {
	for _, stmt := range splitStatements(sqlText) {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("executing statement: %w\nSQL: %s", err, stmt)
		}
	}
	return nil
}

// splitStatements splits SQL content into individual statements.
// Semicolons inside quoted strings and line comments are ignored.
func splitStatements(sql string) []string {
	var statements []string
	var current strings.Builder
	inString := false
	inComment := false
	stringChar := rune(0)
	prev := rune(0)

	for _, ch := range sql {
		switch {
		case inComment:
			if ch == '\n' {
				inComment = false
				current.WriteRune(ch)
			}
		case inString:
			current.WriteRune(ch)
			if ch == stringChar {
				inString = false
			}
		case ch == '-' && prev == '-':
			// Drop the first dash already written
			s := current.String()
			current.Reset()
			current.WriteString(s[:len(s)-1])
			inComment = true
		case ch == '\'' || ch == '"':
			inString = true
			stringChar = ch
			current.WriteRune(ch)
		case ch == ';':
			if stmt := strings.TrimSpace(current.String()); stmt != "" {
				statements = append(statements, stmt)
			}
			current.Reset()
		default:
			current.WriteRune(ch)
		}
		prev = ch
	}

	if stmt := strings.TrimSpace(current.String()); stmt != "" {
		statements = append(statements, stmt)
	}

	return statements
}
