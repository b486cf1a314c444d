package profile

import "context"

// Store is the persistence contract for user profiles.
//
// Implementations live under pkg/storage. Writes must be durable before the
// call returns: the summary is read back almost immediately for prompt
// assembly, so fire-and-forget persistence is not acceptable here.
type Store interface {
	// Get returns the current profile for the user.
	//
	// A missing user is not an error: implementations return an empty
	// profile so the caller never has to special-case first contact.
	Get(ctx context.Context, userID string) (*Profile, error)

	// Save merges the given fields into the stored profile (a shallow
	// update, not a full-document replace), then regenerates and persists
	// the summary from the full updated field set. The updated profile is
	// returned.
	Save(ctx context.Context, userID string, fields map[string]string) (*Profile, error)

	// Summary returns only the cached summary string, used for per-message
	// prompt assembly without loading the full field map.
	Summary(ctx context.Context, userID string) (string, error)

	// Delete removes the profile entirely. This is an explicit,
	// access-gated administrative operation.
	Delete(ctx context.Context, userID string) error
}
