package db

import (
	"database/sql"
	"embed"
	"path"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/teranos/harvest/errors"
	"github.com/teranos/harvest/sym"
)

//go:embed sqlite/migrations/*.sql
var migrations embed.FS

// migrationFiles lists the embedded migrations in apply order
// (000_create_schema_migrations.sql first).
func migrationFiles() ([]string, error) {
	entries, err := migrations.ReadDir("sqlite/migrations")
	if err != nil {
		return nil, errors.Wrap(err, "read migrations")
	}
	var files []string
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".sql") {
			files = append(files, entry.Name())
		}
	}
	sort.Strings(files)
	return files, nil
}

// Migrate applies every embedded migration not yet recorded in
// schema_migrations, each in its own transaction. A nil logger is silent.
func Migrate(db *sql.DB, logger *zap.SugaredLogger) error {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	files, err := migrationFiles()
	if err != nil {
		return err
	}
	done, err := appliedVersions(db)
	if err != nil {
		return err
	}

	applied := 0
	for _, name := range files {
		version := migrationVersion(name)
		if done[version] {
			logger.Debugw("Migration already applied", "migration", name)
			continue
		}
		logger.Infow("Applying migration", "migration", name, "version", version)
		if err := applyMigration(db, name, version); err != nil {
			return err
		}
		applied++
	}

	logger.Infow("Migrations complete",
		"symbol", sym.DB,
		"total_migrations", len(files),
		"applied", applied,
	)
	return nil
}

// migrationVersion is the numeric prefix of a migration file name.
func migrationVersion(name string) string {
	version, _, _ := strings.Cut(name, "_")
	return version
}

// appliedVersions reads schema_migrations. A database without the table
// has nothing applied yet; 000 creates it.
func appliedVersions(db *sql.DB) (map[string]bool, error) {
	rows, err := db.Query("SELECT version FROM schema_migrations")
	if err != nil {
		if strings.Contains(err.Error(), "no such table") {
			return map[string]bool{}, nil
		}
		return nil, errors.Wrap(err, "read applied migrations")
	}
	defer rows.Close()

	done := make(map[string]bool)
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, errors.Wrap(err, "scan applied migration")
		}
		done[v] = true
	}
	return done, errors.Wrap(rows.Err(), "read applied migrations")
}

func applyMigration(db *sql.DB, name, version string) error {
	body, err := migrations.ReadFile(path.Join("sqlite/migrations", name))
	if err != nil {
		return errors.Wrapf(err, "read %s", name)
	}

	tx, err := db.Begin()
	if err != nil {
		return errors.Wrapf(err, "begin tx for %s", name)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(string(body)); err != nil {
		return errors.Wrapf(err, "execute %s", name)
	}
	if _, err := tx.Exec("INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
		return errors.Wrapf(err, "record %s", name)
	}
	return errors.Wrapf(tx.Commit(), "commit %s", name)
}

// Version returns the highest applied migration version, or "" on a fresh
// database.
func Version(db *sql.DB) (string, error) {
	var version sql.NullString
	err := db.QueryRow("SELECT MAX(version) FROM schema_migrations").Scan(&version)
	if err != nil {
		if strings.Contains(err.Error(), "no such table") {
			return "", nil
		}
		return "", errors.Wrap(err, "read schema version")
	}
	return version.String, nil
}
