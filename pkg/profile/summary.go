package profile

import (
	"strings"

	"github.com/haven-labs/coachbot-go/pkg/schema"
)

// SummaryMaxLen is the upper character bound for a rendered summary.
// Keeping the summary short keeps per-message prompt cost predictable.
const SummaryMaxLen = 100

// Summarize renders a deterministic, human-readable condensation of the
// field set in canonical schema order, omitting empty fields.
//
// If the full rendering would exceed SummaryMaxLen, a short form limited to
// the highest-value fields (age, work, conflict) is used instead, and the
// result is hard-truncated as a last resort.
func Summarize(fields map[string]string) string {
	full := render(fields, func(schema.Field) bool { return true })
	if len([]rune(full)) <= SummaryMaxLen {
		return full
	}

	shortForm := render(fields, func(f schema.Field) bool {
		switch f.Name {
		case schema.FieldAge, schema.FieldOccupation, schema.FieldPrimaryConflict:
			return true
		}
		return false
	})
	return truncateRunes(shortForm, SummaryMaxLen)
}

// render joins "Label: value" parts for every summarized, non-empty field
// that the include filter accepts.
func render(fields map[string]string, include func(schema.Field) bool) string {
	var parts []string
	for _, f := range schema.Canonical() {
		if !f.Summarized || !include(f) {
			continue
		}
		v := strings.TrimSpace(fields[f.Name])
		if v == "" {
			continue
		}
		parts = append(parts, f.Label+": "+v)
	}
	return strings.Join(parts, "; ")
}

func truncateRunes(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max-1]) + "…"
}
