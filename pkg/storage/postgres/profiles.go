package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/haven-labs/coachbot-go/pkg/profile"
)

// ProfileStore persists user profiles in PostgreSQL.
type ProfileStore struct {
	db *sql.DB
}

// Get retrieves the profile for a user. A user without a stored profile
// gets an empty profile, not an error; a malformed fields record is
// treated the same way.
func (s *ProfileStore) Get(ctx context.Context, userID string) (*profile.Profile, error) {
	query := `SELECT fields, summary, updated_at FROM user_profiles WHERE user_id = $1`

	var fieldsJSON []byte
	var summary string
	var updatedAt time.Time
	err := s.db.QueryRowContext(ctx, query, userID).Scan(&fieldsJSON, &summary, &updatedAt)
	if err == sql.ErrNoRows {
		return profile.Empty(userID), nil
	}
	if err != nil {
		return nil, fmt.Errorf("profiles.Get: %w", err)
	}

	fields := make(map[string]string)
	if err := json.Unmarshal(fieldsJSON, &fields); err != nil {
		return profile.Empty(userID), nil
	}

	return &profile.Profile{
		UserID:    userID,
		Fields:    fields,
		Summary:   summary,
		UpdatedAt: updatedAt,
	}, nil
}

// Save merges the given fields into the stored profile and regenerates
// the summary line.
func (s *ProfileStore) Save(ctx context.Context, userID string, fields map[string]string) (*profile.Profile, error) {
	existing, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	merged := make(map[string]string, len(existing.Fields)+len(fields))
	for k, v := range existing.Fields {
		merged[k] = v
	}
	for k, v := range fields {
		merged[k] = v
	}

	summary := profile.Summarize(merged)
	fieldsJSON, err := json.Marshal(merged)
	if err != nil {
		return nil, fmt.Errorf("profiles.Save: %w", err)
	}

	now := time.Now().UTC()

	var exists int
	err = s.db.QueryRowContext(ctx,
		`SELECT 1 FROM user_profiles WHERE user_id = $1`, userID).Scan(&exists)
	switch {
	case err == sql.ErrNoRows:
		_, err = s.db.ExecContext(ctx,
			`INSERT INTO user_profiles (user_id, fields, summary, created_at, updated_at)
			 VALUES ($1, $2, $3, $4, $5)`,
			userID, fieldsJSON, summary, now, now)
	case err == nil:
		_, err = s.db.ExecContext(ctx,
			`UPDATE user_profiles SET fields = $1, summary = $2, updated_at = $3 WHERE user_id = $4`,
			fieldsJSON, summary, now, userID)
	}
	if err != nil {
		return nil, fmt.Errorf("profiles.Save: %w", err)
	}

	return &profile.Profile{
		UserID:    userID,
		Fields:    merged,
		Summary:   summary,
		UpdatedAt: now,
	}, nil
}

// Summary returns the stored summary line without loading the full
// field map. A user without a profile gets an empty string.
func (s *ProfileStore) Summary(ctx context.Context, userID string) (string, error) {
	var summary string
	err := s.db.QueryRowContext(ctx,
		`SELECT summary FROM user_profiles WHERE user_id = $1`, userID).Scan(&summary)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("profiles.Summary: %w", err)
	}
	return summary, nil
}

// Delete removes the stored profile for a user. Deleting an absent
// profile is a no-op.
func (s *ProfileStore) Delete(ctx context.Context, userID string) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM user_profiles WHERE user_id = $1`, userID)
	if err != nil {
		return fmt.Errorf("profiles.Delete: %w", err)
	}
	return nil
}
