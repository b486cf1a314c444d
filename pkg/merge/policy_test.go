package merge_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/haven-labs/coachbot-go/pkg/merge"
	"github.com/haven-labs/coachbot-go/pkg/schema"
)

func TestMerge_AddsNewFields(t *testing.T) {
	policy := merge.NewPolicy(nil)

	merged, changed := policy.Merge(
		map[string]string{schema.FieldAge: "35"},
		map[string]string{schema.FieldOccupation: "nurse"},
	)

	assert.True(t, changed)
	assert.Equal(t, "35", merged[schema.FieldAge])
	assert.Equal(t, "nurse", merged[schema.FieldOccupation])
}

func TestMerge_NewestWins(t *testing.T) {
	policy := merge.NewPolicy(nil)

	merged, changed := policy.Merge(
		map[string]string{schema.FieldOccupation: "student"},
		map[string]string{schema.FieldOccupation: "nurse"},
	)

	assert.True(t, changed)
	assert.Equal(t, "nurse", merged[schema.FieldOccupation])
}

func TestMerge_EmptyCandidateIsNonDestructive(t *testing.T) {
	policy := merge.NewPolicy(nil)
	existing := map[string]string{
		schema.FieldAge:        "35",
		schema.FieldOccupation: "nurse",
	}

	merged, changed := policy.Merge(existing, map[string]string{
		schema.FieldAge:        "",
		schema.FieldOccupation: "   ",
	})

	assert.False(t, changed)
	assert.Equal(t, existing, merged)
}

func TestMerge_DropsUnknownFields(t *testing.T) {
	policy := merge.NewPolicy(nil)

	merged, changed := policy.Merge(nil, map[string]string{
		"favorite_color": "blue",
		schema.FieldAge:  "35",
	})

	assert.True(t, changed)
	assert.Equal(t, "35", merged[schema.FieldAge])
	assert.NotContains(t, merged, "favorite_color")
}

func TestMerge_AgeBoundsProtected(t *testing.T) {
	policy := merge.NewPolicy(nil)
	existing := map[string]string{schema.FieldAge: "35"}

	for _, bad := range []string{"12", "150", "old"} {
		merged, changed := policy.Merge(existing,
			map[string]string{schema.FieldAge: bad})
		assert.False(t, changed, "age %q must not merge", bad)
		assert.Equal(t, "35", merged[schema.FieldAge])
	}
}

func TestMerge_EquivalentValueIsNoOp(t *testing.T) {
	policy := merge.NewPolicy(nil)
	existing := map[string]string{schema.FieldOccupation: "Registered Nurse"}

	// Case/whitespace folding.
	merged, changed := policy.Merge(existing,
		map[string]string{schema.FieldOccupation: "registered  nurse"})
	assert.False(t, changed)
	assert.Equal(t, "Registered Nurse", merged[schema.FieldOccupation])

	// Candidate already contained in the stored value.
	_, changed = policy.Merge(existing,
		map[string]string{schema.FieldOccupation: "nurse"})
	assert.False(t, changed)
}

func TestMerge_Idempotent(t *testing.T) {
	policy := merge.NewPolicy(nil)
	candidate := map[string]string{
		schema.FieldAge:   "35",
		schema.FieldGoals: "come out to my parents",
	}

	merged, changed := policy.Merge(nil, candidate)
	assert.True(t, changed)

	again, changed := policy.Merge(merged, candidate)
	assert.False(t, changed)
	assert.Equal(t, merged, again)
}

func TestMerge_DoesNotMutateInputs(t *testing.T) {
	policy := merge.NewPolicy(nil)
	existing := map[string]string{schema.FieldAge: "35"}
	candidate := map[string]string{schema.FieldOccupation: "nurse"}

	policy.Merge(existing, candidate)

	assert.Equal(t, map[string]string{schema.FieldAge: "35"}, existing)
	assert.Equal(t, map[string]string{schema.FieldOccupation: "nurse"}, candidate)
}
