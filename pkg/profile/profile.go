// Package profile defines the per-user structured profile and its storage contract.
//
// A profile is an open set of registered field values plus a derived
// natural-language summary. The summary is regenerated by the store on
// every save so that the fast-path Summary accessor never observes a
// stale rendering.
package profile

import "time"

// Profile is the structured model of a user built from conversation.
type Profile struct {
	// UserID is the opaque user identifier. It is always treated as text,
	// never parsed as an integer.
	UserID string `json:"user_id"`

	// Fields maps registered field names to their current values.
	Fields map[string]string `json:"fields"`

	// Summary is the derived natural-language condensation of Fields.
	Summary string `json:"summary"`

	// UpdatedAt is when the profile was last modified.
	UpdatedAt time.Time `json:"updated_at"`
}

// Empty returns a fresh profile with no fields for the given user.
func Empty(userID string) *Profile {
	return &Profile{
		UserID: userID,
		Fields: map[string]string{},
	}
}

// Clone returns a copy of the field map, never nil.
func (p *Profile) Clone() map[string]string {
	out := make(map[string]string, len(p.Fields))
	for k, v := range p.Fields {
		out[k] = v
	}
	return out
}
