// Package sqlite provides the SQLite storage backend for profiles,
// conversation history, and per-user onboarding state.
//
// SQLite is a lightweight, file-based database suitable for local
// development and single-instance deployments. Profile fields are stored
// as JSON strings in TEXT columns.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/bwmarrin/snowflake"
	_ "github.com/mattn/go-sqlite3"
)

// Client owns the SQLite connection shared by the per-concern stores.
type Client struct {
	// db is the SQLite database connection.
	db *sql.DB

	// node generates unique IDs for history entries.
	node *snowflake.Node
}

// Config contains configuration for creating a SQLite storage client.
type Config struct {
	// DBPath is the path to the SQLite database file.
	DBPath string
}

// NewClient creates a new SQLite storage client and initializes the
// table structure.
func NewClient(cfg *Config) (*Client, error) {
	// Create parent directory if it doesn't exist
	dbDir := filepath.Dir(cfg.DBPath)
	if dbDir != "" && dbDir != "." {
		if err := os.MkdirAll(dbDir, 0755); err != nil {
			return nil, fmt.Errorf("NewSQLiteClient: failed to create directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", cfg.DBPath+"?_foreign_keys=1&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("NewSQLiteClient: %w", err)
	}

	// Test connection
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("NewSQLiteClient: %w", err)
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		return nil, fmt.Errorf("NewSQLiteClient: %w", err)
	}

	client := &Client{db: db, node: node}

	if err := client.initTables(context.Background()); err != nil {
		return nil, err
	}

	return client, nil
}

// initTables initializes the database table structure.
func (c *Client) initTables(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS user_profiles (
			user_id TEXT PRIMARY KEY,
			fields TEXT NOT NULL DEFAULT '{}',
			summary TEXT NOT NULL DEFAULT '',
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS chat_history (
			id INTEGER PRIMARY KEY,
			user_id TEXT NOT NULL,
			user_message TEXT,
			bot_reply TEXT,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS idx_chat_history_user_time
			ON chat_history(user_id, created_at)`,
		`CREATE TABLE IF NOT EXISTS user_states (
			user_id TEXT PRIMARY KEY,
			state TEXT NOT NULL,
			code TEXT NOT NULL DEFAULT '',
			approved INTEGER NOT NULL DEFAULT 0,
			code_attempts INTEGER NOT NULL DEFAULT 0,
			message_count INTEGER NOT NULL DEFAULT 0,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,
	}

	for _, stmt := range statements {
		if _, err := c.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("initTables: %w", err)
		}
	}
	return nil
}

// Profiles returns the profile store backed by this client.
func (c *Client) Profiles() *ProfileStore {
	return &ProfileStore{db: c.db}
}

// History returns the history store backed by this client.
func (c *Client) History() *HistoryStore {
	return &HistoryStore{db: c.db, node: c.node}
}

// States returns the onboarding state store backed by this client.
func (c *Client) States() *StateStore {
	return &StateStore{db: c.db}
}

// Close closes the database connection.
func (c *Client) Close() error {
	if c.db != nil {
		return c.db.Close()
	}
	return nil
}
