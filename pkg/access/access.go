// Package access defines the onboarding state machine vocabulary, the
// per-user state storage contract, and the access-code registry.
package access

import (
	"context"
	"strings"
	"time"
)

// State is a user's position in the onboarding state machine.
type State string

const (
	// StateNew marks a user with no state row yet (first contact).
	StateNew State = "new_user"

	// StateAwaitingCode marks a user who has been onboarded and must
	// present a valid access code.
	StateAwaitingCode State = "awaiting_access_code"

	// StateAwaitingApproval marks a user who entered a valid code and must
	// approve the terms.
	StateAwaitingApproval State = "awaiting_terms_approval"

	// StateActive marks a fully approved user; the full message pipeline
	// runs for every message.
	StateActive State = "active"
)

// Status is the stored per-user state row.
type Status struct {
	UserID       string    `json:"user_id"`
	State        State     `json:"state"`
	Code         string    `json:"code"`
	Approved     bool      `json:"approved"`
	CodeAttempts int       `json:"code_attempts"`
	MessageCount int       `json:"message_count"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// StateStore is the persistence contract for per-user onboarding state.
//
// Implementations live under pkg/storage. All mutations are scoped to a
// single user's key.
type StateStore interface {
	// Get returns the state row for the user, or (nil, nil) if none exists.
	Get(ctx context.Context, userID string) (*Status, error)

	// Create inserts a fresh state row in StateAwaitingCode.
	Create(ctx context.Context, userID string) (*Status, error)

	// SetState transitions the user to the given state.
	SetState(ctx context.Context, userID string, state State) error

	// SetCode records the access code the user registered with.
	SetCode(ctx context.Context, userID, code string) error

	// Approve marks the user as having accepted the terms.
	Approve(ctx context.Context, userID string) error

	// BumpCodeAttempts increments the failed-code counter and returns the
	// new value.
	BumpCodeAttempts(ctx context.Context, userID string) (int, error)

	// BumpMessageCount increments the processed-message counter and
	// returns the new value. The counter drives the periodic
	// deep-extraction schedule.
	BumpMessageCount(ctx context.Context, userID string) (int, error)
}

// Registry validates candidate access codes.
type Registry interface {
	ValidateCode(ctx context.Context, code string) (bool, error)
}

// StaticRegistry validates codes against a fixed configured list.
type StaticRegistry struct {
	codes map[string]struct{}
}

// NewStaticRegistry builds a registry from a list of codes. Codes are
// matched after trimming surrounding whitespace, case-insensitively.
func NewStaticRegistry(codes []string) *StaticRegistry {
	set := make(map[string]struct{}, len(codes))
	for _, c := range codes {
		c = normalizeCode(c)
		if c == "" {
			continue
		}
		set[c] = struct{}{}
	}
	return &StaticRegistry{codes: set}
}

// ValidateCode reports whether the candidate matches a registered code.
func (r *StaticRegistry) ValidateCode(_ context.Context, code string) (bool, error) {
	_, ok := r.codes[normalizeCode(code)]
	return ok, nil
}

func normalizeCode(code string) string {
	return strings.ToLower(strings.TrimSpace(code))
}
