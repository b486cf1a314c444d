// Package merge decides how newly extracted profile fields fold into an
// existing profile.
//
// The policy is deliberately non-destructive: an extraction pass that
// finds nothing never erases what earlier passes learned, and unknown
// field names are dropped rather than stored.
package merge

import (
	"strings"

	"go.uber.org/zap"

	"github.com/haven-labs/coachbot-go/pkg/schema"
)

// Policy merges candidate field values into existing profile fields.
type Policy struct {
	logger *zap.Logger
}

// NewPolicy creates a merge policy. A nil logger disables logging.
func NewPolicy(logger *zap.Logger) *Policy {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Policy{logger: logger}
}

// Merge folds candidate values into existing fields and returns the
// merged map along with whether anything changed. Neither input map is
// modified.
//
// Rules, per candidate field:
//   - empty or whitespace-only values are skipped
//   - names outside the profile schema are dropped with a warning
//   - values that fail schema validation (e.g. an out-of-range age)
//     are dropped, keeping the stored value
//   - values equal to the stored one after case and whitespace folding,
//     or already contained in it, are a no-op
//   - otherwise the candidate wins, newest information replacing old
func (p *Policy) Merge(existing, candidate map[string]string) (map[string]string, bool) {
	merged := make(map[string]string, len(existing)+len(candidate))
	for k, v := range existing {
		merged[k] = v
	}

	changed := false
	for name, raw := range candidate {
		value := strings.TrimSpace(raw)
		if value == "" {
			continue
		}

		if !schema.Known(name) {
			p.logger.Warn("dropping unknown profile field",
				zap.String("field", name))
			continue
		}

		if err := schema.Validate(name, value); err != nil {
			p.logger.Warn("dropping invalid profile field value",
				zap.String("field", name),
				zap.Error(err))
			continue
		}

		current, ok := merged[name]
		if ok && sameValue(current, value) {
			continue
		}

		merged[name] = value
		changed = true
	}

	return merged, changed
}

// sameValue reports whether the candidate adds nothing over the stored
// value: equal after case/whitespace folding, or already contained in it.
func sameValue(current, candidate string) bool {
	a := strings.ToLower(strings.Join(strings.Fields(current), " "))
	b := strings.ToLower(strings.Join(strings.Fields(candidate), " "))
	if a == b {
		return true
	}
	return b != "" && strings.Contains(a, b)
}
