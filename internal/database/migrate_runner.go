package database

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"strings"

	"hymnbook/internal/middleware"

	"gorm.io/gorm"
)

// migrationLockKey serializes migrators across processes through
// pg_advisory_xact_lock. The lock is released when the transaction ends.
const migrationLockKey int64 = 0x68796d6e // "hymn"

const createSchemaMigrationsSQL = `
CREATE TABLE IF NOT EXISTS schema_migrations (
	version BIGINT PRIMARY KEY,
	name VARCHAR(255) NOT NULL,
	checksum CHAR(64) NOT NULL,
	applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`

// appliedMigration is one row of schema_migrations.
type appliedMigration struct {
	Version  int
	Name     string
	Checksum string
}

// Checksum fingerprints the up script so edits to an applied migration are
// caught on the next run.
func (m *Migration) Checksum() string {
	sum := sha256.Sum256([]byte(m.UpScript))
	return hex.EncodeToString(sum[:])
}

func ensureMigrationTable(ctx context.Context, db *gorm.DB) error {
	if err := db.WithContext(ctx).Exec(createSchemaMigrationsSQL).Error; err != nil {
		return fmt.Errorf("failed to ensure schema_migrations table: %w", err)
	}
	return nil
}

func lockMigrations(tx *gorm.DB) error {
	if err := tx.Exec("SELECT pg_advisory_xact_lock(?)", migrationLockKey).Error; err != nil {
		return fmt.Errorf("failed to take migration lock: %w", err)
	}
	return nil
}

func loadApplied(db *gorm.DB) ([]appliedMigration, error) {
	var rows []appliedMigration
	err := db.Raw("SELECT version, name, checksum FROM schema_migrations ORDER BY version").Scan(&rows).Error
	if err != nil {
		if isMissingTableError(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read schema_migrations: %w", err)
	}
	return rows, nil
}

func isMissingTableError(err error) bool {
	msg := err.Error()
	return (strings.Contains(msg, "relation") && strings.Contains(msg, "does not exist")) ||
		strings.Contains(msg, "no such table")
}

// AppliedVersions lists the recorded migration versions in ascending order.
// A database that was never migrated has none.
func AppliedVersions(ctx context.Context, db *gorm.DB) ([]int, error) {
	rows, err := loadApplied(db.WithContext(ctx))
	if err != nil {
		return nil, err
	}
	versions := make([]int, 0, len(rows))
	for _, r := range rows {
		versions = append(versions, r.Version)
	}
	return versions, nil
}

// verifyApplied fails when the database knows versions this binary does not,
// or when an applied script has since been edited.
func verifyApplied(applied []appliedMigration, registered []Migration) error {
	known := make(map[int]*Migration, len(registered))
	for i := range registered {
		known[registered[i].Version] = &registered[i]
	}

	var unknown, edited []string
	for _, a := range applied {
		m, ok := known[a.Version]
		if !ok {
			unknown = append(unknown, fmt.Sprintf("%06d", a.Version))
			continue
		}
		if strings.TrimSpace(a.Checksum) != m.Checksum() {
			edited = append(edited, m.String())
		}
	}

	switch {
	case len(unknown) > 0:
		return fmt.Errorf("schema_migrations contains versions unknown to this build: %s", strings.Join(unknown, ", "))
	case len(edited) > 0:
		return fmt.Errorf("applied migrations were modified afterwards: %s", strings.Join(edited, ", "))
	}
	return nil
}

// RunMigrations applies every pending PostgreSQL migration in one
// transaction under an advisory lock.
func RunMigrations(ctx context.Context, db *gorm.DB) error {
	if err := ensureMigrationTable(ctx, db); err != nil {
		return err
	}

	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockMigrations(tx); err != nil {
			return err
		}
		applied, err := loadApplied(tx)
		if err != nil {
			return err
		}
		if err := verifyApplied(applied, migrations); err != nil {
			return err
		}

		done := make(map[int]bool, len(applied))
		for _, a := range applied {
			done[a.Version] = true
		}

		for i := range migrations {
			m := &migrations[i]
			if done[m.Version] {
				continue
			}
			if err := tx.Exec(m.UpScript).Error; err != nil {
				return fmt.Errorf("migration %s failed: %w", m, err)
			}
			if err := tx.Exec("INSERT INTO schema_migrations (version, name, checksum) VALUES (?, ?, ?)",
				m.Version, m.Name, m.Checksum()).Error; err != nil {
				return fmt.Errorf("failed to record migration %s: %w", m, err)
			}
			middleware.Logger.InfoContext(ctx, "Migration applied", slog.String("migration", m.String()))
		}
		return nil
	})
}

// RollbackMigration reverts version, which must be the latest applied one.
func RollbackMigration(ctx context.Context, db *gorm.DB, version int) error {
	m := GetMigrationByVersion(version)
	if m == nil {
		return fmt.Errorf("migration version %d not found", version)
	}
	if err := ensureMigrationTable(ctx, db); err != nil {
		return err
	}

	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockMigrations(tx); err != nil {
			return err
		}
		applied, err := loadApplied(tx)
		if err != nil {
			return err
		}
		if len(applied) == 0 || !containsVersion(applied, version) {
			return fmt.Errorf("migration %d has not been applied", version)
		}
		if latest := applied[len(applied)-1].Version; latest != version {
			return fmt.Errorf("migration %d is not the latest applied (%06d)", version, latest)
		}

		if err := tx.Exec(m.DownScript).Error; err != nil {
			return fmt.Errorf("rollback of %s failed: %w", m, err)
		}
		if err := tx.Exec("DELETE FROM schema_migrations WHERE version = ?", version).Error; err != nil {
			return fmt.Errorf("failed to forget migration %s: %w", m, err)
		}
		middleware.Logger.InfoContext(ctx, "Migration rolled back", slog.String("migration", m.String()))
		return nil
	})
}

func containsVersion(applied []appliedMigration, version int) bool {
	for _, a := range applied {
		if a.Version == version {
			return true
		}
	}
	return false
}
