// Package mysql provides the MySQL storage backend for profiles,
// conversation history, and per-user onboarding state.
//
// The backend also works against MySQL-compatible databases such as
// MariaDB. Profile fields are stored as JSON text.
package mysql

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/bwmarrin/snowflake"
	_ "github.com/go-sql-driver/mysql"
)

// Client owns the MySQL connection shared by the per-concern stores.
type Client struct {
	// db is the MySQL database connection.
	db *sql.DB

	// node generates unique IDs for history entries.
	node *snowflake.Node
}

// Config contains configuration for creating a MySQL storage client.
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
}

// NewClient creates a new MySQL storage client and initializes the
// table structure.
func NewClient(cfg *Config) (*Client, error) {
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=true",
		cfg.User, cfg.Password, cfg.Host, cfg.Port, cfg.DBName)

	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("NewMySQLClient: %w", err)
	}

	// Test connection
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("NewMySQLClient: %w", err)
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		return nil, fmt.Errorf("NewMySQLClient: %w", err)
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
			user_id VARCHAR(255) PRIMARY KEY,
			fields TEXT NOT NULL,
			summary TEXT NOT NULL,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS chat_history (
			id BIGINT PRIMARY KEY,
			user_id VARCHAR(255) NOT NULL,
			user_message TEXT,
			bot_reply TEXT,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			INDEX idx_chat_history_user_time (user_id, created_at)
		)`,
		`CREATE TABLE IF NOT EXISTS user_states (
			user_id VARCHAR(255) PRIMARY KEY,
			state VARCHAR(64) NOT NULL,
			code VARCHAR(255) NOT NULL DEFAULT '',
			approved TINYINT(1) NOT NULL DEFAULT 0,
			code_attempts INT NOT NULL DEFAULT 0,
			message_count INT NOT NULL DEFAULT 0,
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
