package extract

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/haven-labs/coachbot-go/pkg/schema"
)

var (
	agePattern1 = regexp.MustCompile(`(?i)\b(?:i'?m|i am)\s*(\d{2})\b`)
	agePattern2 = regexp.MustCompile(`(?i)\b(\d{2})\s*(?:years?\s*old|y/?o)\b`)
)

// parseFieldsResponse parses a model response expected to contain a JSON
// object of field name to value. Markdown code fences are stripped
// first. A response that is not valid JSON yields an empty map.
func parseFieldsResponse(response string) map[string]string {
	cleaned := stripCodeFences(response)

	var raw map[string]any
	if err := json.Unmarshal([]byte(cleaned), &raw); err != nil {
		return map[string]string{}
	}

	fields := make(map[string]string, len(raw))
	for name, value := range raw {
		str, ok := value.(string)
		if !ok {
			continue
		}
		str = strings.TrimSpace(str)
		if str == "" || strings.EqualFold(str, "null") || strings.EqualFold(str, "unknown") {
			continue
		}
		fields[strings.ToLower(strings.TrimSpace(name))] = str
	}
	return fields
}

// stripCodeFences removes markdown code fences from LLM responses, which
// often wrap JSON output in ```json ... ``` blocks.
func stripCodeFences(response string) string {
	response = strings.TrimSpace(response)

	if strings.HasPrefix(response, "```") {
		// Remove opening fence with optional language tag
		if idx := strings.Index(response, "\n"); idx != -1 {
			response = response[idx+1:]
		} else {
			response = strings.TrimPrefix(response, "```json")
			response = strings.TrimPrefix(response, "```")
		}
		// Remove closing fence
		if idx := strings.LastIndex(response, "```"); idx != -1 {
			response = response[:idx]
		}
	}

	return strings.TrimSpace(response)
}

// fallbackAge scans a message for a stated age ("I'm 35", "35 years
// old") and returns it if it passes the age bounds. Used when the model
// call fails or returns nothing, so an explicitly stated age is never
// lost to a transient outage.
func fallbackAge(text string) (string, bool) {
	for _, re := range []*regexp.Regexp{agePattern1, agePattern2} {
		m := re.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		if _, err := schema.ParseAge(m[1]); err == nil {
			return m[1], true
		}
	}
	return "", false
}
