// Package db opens the DuckDB database that backs the feature store.
package db

import (
	"database/sql"
	"os"
	"path/filepath"

	_ "github.com/marcboeker/go-duckdb"
	"github.com/rotisserie/eris"
)

// Config holds database configuration.
// An empty DataDir opens an in-memory database.
type Config struct {
	DataDir string
	DBName  string
}

// Path returns the database file path, or "" for in-memory.
func (c Config) Path() string {
	if c.DataDir == "" {
		return ""
	}
	return filepath.Join(c.DataDir, "duckdb", c.DBName+".duckdb")
}

// Open opens a DuckDB connection, creating the duckdb directory if needed.
func Open(cfg Config) (*sql.DB, error) {
	path := cfg.Path()
	if path != "" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, eris.Wrap(err, "create duckdb directory")
		}
	}

	conn, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, eris.Wrapf(err, "open duckdb %q", path)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, eris.Wrapf(err, "ping duckdb %q", path)
	}
	return conn, nil
}
