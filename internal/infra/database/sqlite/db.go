// Package sqlite is the embedded watchlist store used for local runs and tests.
package sqlite

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/wonny/sectorwatch/internal/infra/database"

	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

//go:embed schema.sql
var schemaSQL string

// MemoryPath opens a private in-memory database
const MemoryPath = ":memory:"

// DB wraps the sql.DB handle
type DB struct {
	conn *sql.DB
	path string
}

// Open opens (and creates if needed) the database at path and applies the schema
func Open(ctx context.Context, path string) (*DB, error) {
	if path != MemoryPath {
		absPath, err := filepath.Abs(path)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve database path: %w", err)
		}
		if err := os.MkdirAll(filepath.Dir(absPath), 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
		path = absPath
	}

	conn, err := sql.Open("sqlite", buildConnectionString(path))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite allows one writer; a single connection also keeps :memory: shared
	conn.SetMaxOpenConns(1)
	conn.SetConnMaxIdleTime(0)
	conn.SetConnMaxLifetime(0)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := conn.PingContext(pingCtx); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if _, err := conn.ExecContext(ctx, schemaSQL); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	log.Info().Str("path", path).Msg("✅ SQLite opened")

	return &DB{conn: conn, path: path}, nil
}

func buildConnectionString(path string) string {
	connStr := "file:" + path + "?_pragma=foreign_keys(1)"
	connStr += "&_pragma=busy_timeout(5000)"
	if path != MemoryPath {
		connStr += "&_pragma=journal_mode(WAL)"
		connStr += "&_pragma=synchronous(NORMAL)"
	}
	return connStr
}

// Close closes the database
func (db *DB) Close() error {
	return db.conn.Close()
}

// Conn returns the underlying sql.DB
func (db *DB) Conn() *sql.DB {
	return db.conn
}

// Health pings the database
func (db *DB) Health(ctx context.Context) *database.HealthStatus {
	start := time.Now()
	status := &database.HealthStatus{
		Driver:    "sqlite",
		Status:    database.StatusHealthy,
		CheckedAt: start,
	}

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	if err := db.conn.PingContext(pingCtx); err != nil {
		status.Status = database.StatusUnhealthy
		status.Error = fmt.Sprintf("ping failed: %v", err)
	}

	stats := db.conn.Stats()
	status.ActiveConns = int32(stats.InUse)
	status.IdleConns = int32(stats.Idle)
	status.TotalConns = int32(stats.OpenConnections)
	status.MaxConns = int32(stats.MaxOpenConnections)
	status.ResponseTime = time.Since(start).String()

	return status
}
