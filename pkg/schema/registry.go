// Package schema defines the fixed registry of profile fields the bot may
// accumulate about a user.
//
// Every component that touches profile data validates field names against
// this registry. Unknown field names are never stored: the merge policy
// drops them at its boundary, so a misbehaving extraction pass cannot grow
// the profile schema at runtime.
package schema

import (
	"fmt"
	"strconv"
	"strings"
)

// Field names accepted by the registry.
const (
	FieldAge              = "age"
	FieldOccupation       = "occupation"
	FieldRelationshipType = "relationship_type"
	FieldReligiosityLevel = "religiosity_level"
	FieldClosetStatus     = "closet_status"
	FieldAttraction       = "attraction"
	FieldWhoKnows         = "who_knows"
	FieldTherapyStatus    = "therapy_status"
	FieldPrimaryConflict  = "primary_conflict"
	FieldFears            = "fears"
	FieldGoals            = "goals"
)

// Age bounds for the policy-protected age field.
const (
	AgeMin = 18
	AgeMax = 99
)

// Field describes one registered profile field.
type Field struct {
	// Name is the canonical field name used as the storage key.
	Name string

	// Label is the short human-readable label used when rendering summaries.
	Label string

	// Hint describes the expected value for extraction prompts.
	Hint string

	// Summarized indicates whether the field participates in the rendered
	// profile summary.
	Summarized bool
}

// registry lists every allowed field in canonical summary order.
var registry = []Field{
	{Name: FieldAge, Label: "Age", Hint: "integer between 18 and 99", Summarized: true},
	{Name: FieldOccupation, Label: "Work", Hint: "occupation or field of work", Summarized: true},
	{Name: FieldRelationshipType, Label: "Relationship", Hint: "relationship status, e.g. single, married, divorced", Summarized: true},
	{Name: FieldReligiosityLevel, Label: "Religiosity", Hint: "level of religious observance", Summarized: true},
	{Name: FieldClosetStatus, Label: "Closet", Hint: "how open the user is about their orientation", Summarized: true},
	{Name: FieldAttraction, Label: "Attraction", Hint: "who the user is attracted to", Summarized: true},
	{Name: FieldWhoKnows, Label: "Knows", Hint: "who in the user's life already knows", Summarized: true},
	{Name: FieldTherapyStatus, Label: "Therapy", Hint: "whether the user is or was in therapy", Summarized: true},
	{Name: FieldPrimaryConflict, Label: "Conflict", Hint: "the main inner conflict the user struggles with", Summarized: true},
	{Name: FieldGoals, Label: "Goals", Hint: "what the user wants to achieve", Summarized: true},
	{Name: FieldFears, Label: "Fears", Hint: "what the user is afraid of", Summarized: false},
}

// byName indexes the registry for lookups.
var byName = func() map[string]Field {
	m := make(map[string]Field, len(registry))
	for _, f := range registry {
		m[f.Name] = f
	}
	return m
}()

// Canonical returns every registered field in canonical summary order.
//
// The returned slice is a copy; callers may reorder it freely.
func Canonical() []Field {
	out := make([]Field, len(registry))
	copy(out, registry)
	return out
}

// Known reports whether name is a registered field.
func Known(name string) bool {
	_, ok := byName[name]
	return ok
}

// Lookup returns the registered field definition for name.
func Lookup(name string) (Field, bool) {
	f, ok := byName[name]
	return f, ok
}

// Validate checks a candidate value against the field's constraints.
//
// Only the age field carries a hard constraint: it must parse as an integer
// in [AgeMin, AgeMax]. Every other registered field accepts any non-empty
// string. Unknown field names are rejected.
func Validate(name, value string) error {
	if !Known(name) {
		return fmt.Errorf("schema: unknown field %q", name)
	}
	value = strings.TrimSpace(value)
	if value == "" {
		return fmt.Errorf("schema: empty value for field %q", name)
	}
	if name == FieldAge {
		if _, err := ParseAge(value); err != nil {
			return err
		}
	}
	return nil
}

// ParseAge parses an age value and enforces the plausibility bounds.
func ParseAge(value string) (int, error) {
	age, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return 0, fmt.Errorf("schema: age %q is not an integer", value)
	}
	if age < AgeMin || age > AgeMax {
		return 0, fmt.Errorf("schema: age %d outside [%d, %d]", age, AgeMin, AgeMax)
	}
	return age, nil
}

// PromptCatalog renders the field registry as a bullet list for inclusion
// in extraction prompts.
func PromptCatalog() string {
	var b strings.Builder
	for _, f := range registry {
		fmt.Fprintf(&b, "- %s: %s\n", f.Name, f.Hint)
	}
	return strings.TrimRight(b.String(), "\n")
}
