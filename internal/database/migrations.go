package database

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"log"
	"path"
	"sort"
	"strings"
)

// Schemas owned by each service. A single database may host more than one.
const (
	SchemaGame   = "game"
	SchemaUser   = "user"
	SchemaEvents = "events"
)

//go:embed migrations
var migrationFiles embed.FS

// RunMigrations executes the embedded migrations for schema in filename order.
// Each file is recorded as schema/filename so schemas can share one database.
func (db *DB) RunMigrations(ctx context.Context, schema string) error {
	return db.runMigrations(ctx, migrationFiles, path.Join("migrations", schema, db.Dialect.MigrationsSubdir()), schema)
}

func (db *DB) runMigrations(ctx context.Context, fsys fs.FS, dir, schema string) error {
	if _, err := db.ExecContext(ctx, db.Dialect.CreateMigrationsTableQuery()); err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	files, err := fs.Glob(fsys, path.Join(dir, "*.sql"))
	if err != nil {
		return fmt.Errorf("failed to read migration files: %w", err)
	}
	if len(files) == 0 {
		return fmt.Errorf("no migrations found for schema %s in %s", schema, dir)
	}
	sort.Strings(files)

	for _, file := range files {
		name := schema + "/" + path.Base(file)

		hasRun, err := db.hasMigrationRun(ctx, name)
		if err != nil {
			return fmt.Errorf("failed to check migration status: %w", err)
		}
		if hasRun {
			continue
		}

		content, err := fs.ReadFile(fsys, file)
		if err != nil {
			return fmt.Errorf("failed to read migration file %s: %w", name, err)
		}

		if err := db.executeMigration(ctx, name, string(content)); err != nil {
			return fmt.Errorf("failed to execute migration %s: %w", name, err)
		}

		log.Printf("Migration completed: %s", name)
	}

	return nil
}

func (db *DB) hasMigrationRun(ctx context.Context, name string) (bool, error) {
	var count int
	err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM migrations WHERE filename = ?", name).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// executeMigration runs every statement of a migration and records it in one transaction.
// Statements are split on semicolons since not every driver accepts multi-statement Exec.
func (db *DB) executeMigration(ctx context.Context, name, content string) error {
	return db.WithTx(ctx, func(tx *Tx) error {
		for _, stmt := range splitStatements(content) {
			if _, err := tx.ExecContext(ctx, stmt); err != nil {
				return err
			}
		}
		_, err := tx.ExecContext(ctx, "INSERT INTO migrations (filename) VALUES (?)", name)
		return err
	})
}

func splitStatements(content string) []string {
	var stmts []string
	for _, part := range strings.Split(content, ";") {
		var lines []string
		for _, line := range strings.Split(part, "\n") {
			if strings.HasPrefix(strings.TrimSpace(line), "--") {
				continue
			}
			lines = append(lines, line)
		}
		stmt := strings.TrimSpace(strings.Join(lines, "\n"))
		if stmt != "" {
			stmts = append(stmts, stmt)
		}
	}
	return stmts
}
