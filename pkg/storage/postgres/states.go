package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/haven-labs/coachbot-go/pkg/access"
)

// StateStore persists per-user onboarding state in PostgreSQL.
type StateStore struct {
	db *sql.DB
}

// Get retrieves the onboarding status for a user. An unknown user
// yields (nil, nil).
func (s *StateStore) Get(ctx context.Context, userID string) (*access.Status, error) {
	query := `SELECT user_id, state, code, approved, code_attempts, message_count, created_at, updated_at
		FROM user_states WHERE user_id = $1`

	var st access.Status
	var stateStr string
	err := s.db.QueryRowContext(ctx, query, userID).Scan(
		&st.UserID, &stateStr, &st.Code, &st.Approved,
		&st.CodeAttempts, &st.MessageCount, &st.CreatedAt, &st.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("states.Get: %w", err)
	}
	st.State = access.State(stateStr)
	return &st, nil
}

// Create inserts a fresh status for a first-time user, already waiting
// for an access code.
func (s *StateStore) Create(ctx context.Context, userID string) (*access.Status, error) {
	now := time.Now().UTC()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO user_states (user_id, state, created_at, updated_at)
		 VALUES ($1, $2, $3, $4)`,
		userID, string(access.StateAwaitingCode), now, now)
	if err != nil {
		return nil, fmt.Errorf("states.Create: %w", err)
	}
	return &access.Status{
		UserID:    userID,
		State:     access.StateAwaitingCode,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// SetState transitions the user to the given state.
func (s *StateStore) SetState(ctx context.Context, userID string, state access.State) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE user_states SET state = $1, updated_at = $2 WHERE user_id = $3`,
		string(state), time.Now().UTC(), userID)
	if err != nil {
		return fmt.Errorf("states.SetState: %w", err)
	}
	return nil
}

// SetCode records the access code the user authenticated with.
func (s *StateStore) SetCode(ctx context.Context, userID, code string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE user_states SET code = $1, updated_at = $2 WHERE user_id = $3`,
		code, time.Now().UTC(), userID)
	if err != nil {
		return fmt.Errorf("states.SetCode: %w", err)
	}
	return nil
}

// Approve marks the user as having accepted the terms.
func (s *StateStore) Approve(ctx context.Context, userID string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE user_states SET approved = TRUE, updated_at = $1 WHERE user_id = $2`,
		time.Now().UTC(), userID)
	if err != nil {
		return fmt.Errorf("states.Approve: %w", err)
	}
	return nil
}

// BumpCodeAttempts increments the failed-code counter and returns the
// new value.
func (s *StateStore) BumpCodeAttempts(ctx context.Context, userID string) (int, error) {
	var attempts int
	err := s.db.QueryRowContext(ctx,
		`UPDATE user_states SET code_attempts = code_attempts + 1, updated_at = $1
		 WHERE user_id = $2 RETURNING code_attempts`,
		time.Now().UTC(), userID).Scan(&attempts)
	if err != nil {
		return 0, fmt.Errorf("states.BumpCodeAttempts: %w", err)
	}
	return attempts, nil
}

// BumpMessageCount increments the processed-message counter and returns
// the new value.
func (s *StateStore) BumpMessageCount(ctx context.Context, userID string) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`UPDATE user_states SET message_count = message_count + 1, updated_at = $1
		 WHERE user_id = $2 RETURNING message_count`,
		time.Now().UTC(), userID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("states.BumpMessageCount: %w", err)
	}
	return count, nil
}
