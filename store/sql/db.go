package sqlstore

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"

	persistence "github.com/goliatone/go-persistence-bun"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"

	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

//go:embed migrations/postgres/*.sql migrations/sqlite/*.sql
var migrationsFS embed.FS

// GetMigrationsFS returns the embedded client_sessions migration tree, one
// dialect flavor per subdirectory.
func GetMigrationsFS() fs.FS {
	return migrationsFS
}

// OpenSQLite opens an on-disk (or :memory:) sqlite database for the session
// store. SQLite is the default medium for single-user client deployments.
func OpenSQLite(dsn string) (*bun.DB, error) {
	dsn = normalizeDSN(dsn)
	if dsn == "" {
		return nil, fmt.Errorf("sqlstore: sqlite dsn is required")
	}
	sqlDB, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlstore: open sqlite db: %w", err)
	}
	sqlDB.SetMaxOpenConns(1)
	return bun.NewDB(sqlDB, sqlitedialect.New()), nil
}

// OpenPostgres opens a postgres-backed session store for deployments where
// several processes share one logical client session.
func OpenPostgres(dsn string) (*bun.DB, error) {
	dsn = normalizeDSN(dsn)
	if dsn == "" {
		return nil, fmt.Errorf("sqlstore: postgres dsn is required")
	}
	sqlDB, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlstore: open postgres db: %w", err)
	}
	return bun.NewDB(sqlDB, pgdialect.New()), nil
}

// EnsureSchema creates the client_sessions table when it does not exist.
// Hosts driving migrations through go-persistence-bun should prefer
// RegisterMigrations.
func EnsureSchema(ctx context.Context, db *bun.DB) error {
	if db == nil {
		return fmt.Errorf("sqlstore: bun db is required")
	}
	_, err := db.NewCreateTable().
		Model((*sessionRecord)(nil)).
		IfNotExists().
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("sqlstore: ensure client_sessions schema: %w", err)
	}
	return nil
}

// RegisterMigrations wires the embedded migration tree into a
// go-persistence-bun client; the host still invokes client.Migrate.
func RegisterMigrations(client *persistence.Client, dialect string) error {
	if client == nil {
		return fmt.Errorf("sqlstore: persistence client is required")
	}
	var root string
	switch dialect {
	case "sqlite", "sqlite3":
		root = "migrations/sqlite"
	case "postgres", "pg":
		root = "migrations/postgres"
	default:
		return fmt.Errorf("sqlstore: unsupported migration dialect %q", dialect)
	}
	sub, err := fs.Sub(migrationsFS, root)
	if err != nil {
		return fmt.Errorf("sqlstore: resolve %s migrations: %w", dialect, err)
	}
	client.RegisterSQLMigrations(sub)
	return nil
}
