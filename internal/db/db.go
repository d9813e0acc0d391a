package db

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/go-sql-driver/mysql"
	embedsql "github.com/ldi/todolist/embed/sql"
	_ "modernc.org/sqlite"
)

// Dialect selects the SQL driver and the statements that differ between engines.
type Dialect string

const (
	SQLite Dialect = "sqlite"
	MySQL  Dialect = "mysql"
)

func (d Dialect) schema() string {
	if d == MySQL {
		return embedsql.MySQLSchema
	}
	return embedsql.SQLiteSchema
}

func (d Dialect) upsert() string {
	if d == MySQL {
		return `INSERT INTO kv (store_key, store_value) VALUES (?, ?)
			ON DUPLICATE KEY UPDATE store_value = VALUES(store_value), updated_at = CURRENT_TIMESTAMP`
	}
	return `INSERT INTO kv (store_key, store_value) VALUES (?, ?)
		ON CONFLICT(store_key) DO UPDATE SET store_value = excluded.store_value, updated_at = CURRENT_TIMESTAMP`
}

type DB struct {
	*sql.DB
	Dialect Dialect
}

// Open opens a SQLite database at the given path.
func Open(path string) (*DB, error) {
	if path != ":memory:" {
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// WAL mode for better concurrency
	if _, err := db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	// SQLite works best with a single writer.
	db.SetMaxOpenConns(1)

	return &DB{DB: db, Dialect: SQLite}, nil
}

// OpenMySQL connects to a MySQL server using a go-sql-driver DSN.
func OpenMySQL(ctx context.Context, dsn string) (*DB, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to reach database: %w", err)
	}
	return &DB{DB: db, Dialect: MySQL}, nil
}

func (db *DB) Migrate(ctx context.Context, schema string) error {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}
	return nil
}

// Init creates the key-value table for the database's dialect.
func (db *DB) Init(ctx context.Context) error {
	return db.Migrate(ctx, db.Dialect.schema())
}
