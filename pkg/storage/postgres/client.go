// Package postgres provides the PostgreSQL storage backend for
// profiles, conversation history, and per-user onboarding state.
//
// PostgreSQL is the recommended backend for production deployments.
// Profile fields are stored as JSONB.
package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/bwmarrin/snowflake"
	_ "github.com/lib/pq"
)

// Client owns the PostgreSQL connection shared by the per-concern
// stores.
type Client struct {
	// db is the PostgreSQL database connection.
	db *sql.DB

	// node generates unique IDs for history entries.
	node *snowflake.Node
}

// Config contains configuration for creating a PostgreSQL storage
// client.
type Config struct {
	// Host is the database server host.
	Host string

	// Port is the database server port.
	Port int

	// User is the database user.
	User string

	// Password is the database password.
	Password string

	// DBName is the database name.
	DBName string

	// SSLMode is the SSL mode (disable, require, verify-ca, verify-full).
	SSLMode string
}

// NewClient creates a new PostgreSQL storage client and initializes the
// table structure.
func NewClient(cfg *Config) (*Client, error) {
	sslMode := cfg.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}

	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName, sslMode)

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("NewPostgresClient: %w", err)
	}

	// Test connection
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("NewPostgresClient: %w", err)
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		return nil, fmt.Errorf("NewPostgresClient: %w", err)
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
			fields JSONB NOT NULL DEFAULT '{}',
			summary TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ DEFAULT NOW(),
			updated_at TIMESTAMPTZ DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS chat_history (
			id BIGINT PRIMARY KEY,
			user_id TEXT NOT NULL,
			user_message TEXT,
			bot_reply TEXT,
			created_at TIMESTAMPTZ DEFAULT NOW()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_chat_history_user_time
			ON chat_history(user_id, created_at)`,
		`CREATE TABLE IF NOT EXISTS user_states (
			user_id TEXT PRIMARY KEY,
			state TEXT NOT NULL,
			code TEXT NOT NULL DEFAULT '',
			approved BOOLEAN NOT NULL DEFAULT FALSE,
			code_attempts INT NOT NULL DEFAULT 0,
			message_count INT NOT NULL DEFAULT 0,
			created_at TIMESTAMPTZ DEFAULT NOW(),
			updated_at TIMESTAMPTZ DEFAULT NOW()
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
