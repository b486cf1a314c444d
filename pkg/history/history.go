// Package history defines the append-only per-user conversation log and its
// storage contract.
//
// The raw log is never truncated at write time. Retention is applied at
// read time only: callers ask for a bounded, most-recent window shaped for
// direct inclusion in an LLM message list.
package history

import (
	"context"
	"strings"
	"time"
)

// Entry is one completed message exchange.
type Entry struct {
	// ID is the unique entry identifier.
	ID int64 `json:"id"`

	// UserID identifies the user the exchange belongs to.
	UserID string `json:"user_id"`

	// UserMessage is the text the user sent. May be empty for malformed rows.
	UserMessage string `json:"user_message"`

	// BotReply is the stored form of the bot's reply. Long replies are
	// stored as a short first-person summary, not verbatim.
	BotReply string `json:"bot_reply"`

	// Timestamp is when the exchange completed.
	Timestamp time.Time `json:"timestamp"`
}

// Turn is a single role-tagged message suitable for an LLM message list.
type Turn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Stats summarizes a user's history for scheduling decisions.
type Stats struct {
	// TotalMessages is the number of exchanges recorded for the user.
	TotalMessages int `json:"total_messages"`

	// FirstSeen is the timestamp of the oldest exchange (zero if none).
	FirstSeen time.Time `json:"first_seen"`

	// LastSeen is the timestamp of the newest exchange (zero if none).
	LastSeen time.Time `json:"last_seen"`
}

// Store is the persistence contract for conversation history.
//
// Implementations live under pkg/storage.
type Store interface {
	// Append adds one entry. It never overwrites or removes prior entries.
	Append(ctx context.Context, entry *Entry) error

	// Recent returns a role-tagged view of the most recent `limit`
	// exchanges, oldest-first, at most 2*limit turns. Malformed or partial
	// entries are skipped, never fatal.
	Recent(ctx context.Context, userID string, limit int) ([]Turn, error)

	// RecentEntries returns the most recent `limit` raw entries,
	// oldest-first. Used by the periodic deep-extraction pass.
	RecentEntries(ctx context.Context, userID string, limit int) ([]*Entry, error)

	// Stats returns message counts and first/last-seen timestamps.
	Stats(ctx context.Context, userID string) (*Stats, error)

	// Purge removes all entries for the user. This is an explicit,
	// access-gated administrative operation.
	Purge(ctx context.Context, userID string) error
}

// Turns converts raw entries into role-tagged turns, oldest-first.
//
// Blank sides of an exchange are skipped so a partially written row
// degrades to a shorter window instead of injecting empty messages into
// the prompt.
func Turns(entries []*Entry) []Turn {
	turns := make([]Turn, 0, 2*len(entries))
	for _, e := range entries {
		if e == nil {
			continue
		}
		if msg := strings.TrimSpace(e.UserMessage); msg != "" {
			turns = append(turns, Turn{Role: "user", Content: msg})
		}
		if reply := strings.TrimSpace(e.BotReply); reply != "" {
			turns = append(turns, Turn{Role: "assistant", Content: reply})
		}
	}
	return turns
}
