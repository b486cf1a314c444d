package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/bwmarrin/snowflake"

	"github.com/haven-labs/coachbot-go/pkg/history"
)

// HistoryStore persists conversation exchanges in PostgreSQL.
type HistoryStore struct {
	db   *sql.DB
	node *snowflake.Node
}

// Append stores a single exchange. A zero ID is replaced with a
// generated one; a zero timestamp is replaced with the current time.
func (s *HistoryStore) Append(ctx context.Context, entry *history.Entry) error {
	if entry.ID == 0 {
		entry.ID = s.node.Generate().Int64()
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO chat_history (id, user_id, user_message, bot_reply, created_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		entry.ID, entry.UserID, entry.UserMessage, entry.BotReply, entry.Timestamp)
	if err != nil {
		return fmt.Errorf("history.Append: %w", err)
	}
	return nil
}

// RecentEntries returns the most recent exchanges for a user in
// chronological order, at most limit entries.
func (s *HistoryStore) RecentEntries(ctx context.Context, userID string, limit int) ([]*history.Entry, error) {
	if limit <= 0 {
		return nil, nil
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, user_id, user_message, bot_reply, created_at
		 FROM chat_history WHERE user_id = $1
		 ORDER BY created_at DESC, id DESC LIMIT $2`,
		userID, limit)
	if err != nil {
		return nil, fmt.Errorf("history.RecentEntries: %w", err)
	}
	defer rows.Close()

	var entries []*history.Entry
	for rows.Next() {
		var e history.Entry
		var userMsg, botReply sql.NullString
		if err := rows.Scan(&e.ID, &e.UserID, &userMsg, &botReply, &e.Timestamp); err != nil {
			return nil, fmt.Errorf("history.RecentEntries: %w", err)
		}
		e.UserMessage = userMsg.String
		e.BotReply = botReply.String
		entries = append(entries, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("history.RecentEntries: %w", err)
	}

	// Query returns newest first; callers want oldest first.
	for i, j := 0, len(entries)-1; i < j; i, j = i+1, j-1 {
		entries[i], entries[j] = entries[j], entries[i]
	}
	return entries, nil
}

// Recent returns the most recent exchanges flattened into turns,
// oldest first.
func (s *HistoryStore) Recent(ctx context.Context, userID string, limit int) ([]history.Turn, error) {
	entries, err := s.RecentEntries(ctx, userID, limit)
	if err != nil {
		return nil, err
	}
	return history.Turns(entries), nil
}

// Stats reports aggregate history figures for a user.
func (s *HistoryStore) Stats(ctx context.Context, userID string) (*history.Stats, error) {
	var count int
	var first, last sql.NullTime
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*), MIN(created_at), MAX(created_at)
		 FROM chat_history WHERE user_id = $1`, userID).Scan(&count, &first, &last)
	if err != nil {
		return nil, fmt.Errorf("history.Stats: %w", err)
	}

	stats := &history.Stats{TotalMessages: count}
	if first.Valid {
		stats.FirstSeen = first.Time
	}
	if last.Valid {
		stats.LastSeen = last.Time
	}
	return stats, nil
}

// Purge removes all history for a user.
func (s *HistoryStore) Purge(ctx context.Context, userID string) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM chat_history WHERE user_id = $1`, userID)
	if err != nil {
		return fmt.Errorf("history.Purge: %w", err)
	}
	return nil
}
