package extract

import (
	"strings"
	"unicode"
)

// lowInfoPhrases are short conversational fillers that carry no profile
// information. Matching is exact after normalization, so "ok then, here
// is my story" still goes through extraction.
var lowInfoPhrases = map[string]struct{}{
	"ok":           {},
	"okay":         {},
	"k":            {},
	"kk":           {},
	"yes":          {},
	"yeah":         {},
	"yep":          {},
	"yup":          {},
	"no":           {},
	"nope":         {},
	"nah":          {},
	"thanks":       {},
	"thank you":    {},
	"thx":          {},
	"ty":           {},
	"hi":           {},
	"hello":        {},
	"hey":          {},
	"bye":          {},
	"goodbye":      {},
	"good morning": {},
	"good night":   {},
	"sure":         {},
	"fine":         {},
	"cool":         {},
	"nice":         {},
	"great":        {},
	"got it":       {},
	"i see":        {},
	"hmm":          {},
	"hm":           {},
	"lol":          {},
	"haha":         {},
	"wow":          {},
}

// ShouldExtract reports whether a message is worth an extraction call.
// The check is recall-biased: only messages that are clearly empty of
// profile information are filtered out, anything ambiguous goes to the
// model.
func ShouldExtract(text string) bool {
	if !hasInformation(text) {
		return false
	}
	normalized := normalizeForFilter(text)
	if normalized == "" {
		return false
	}
	if _, ok := lowInfoPhrases[normalized]; ok {
		return false
	}
	return true
}

// hasInformation reports whether the text contains at least one letter
// or digit. Pure emoji or punctuation runs of any length carry nothing
// to extract.
func hasInformation(text string) bool {
	for _, r := range text {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return true
		}
	}
	return false
}

// normalizeForFilter lowercases, collapses whitespace, and strips
// trailing punctuation plus at most one trailing emoji, so "Thanks!! 🙏"
// normalizes to "thanks".
func normalizeForFilter(text string) string {
	s := strings.ToLower(strings.Join(strings.Fields(text), " "))

	runes := []rune(s)
	// Trailing punctuation first, then one emoji, then punctuation again
	// ("thanks! 🙏" and "thanks 🙏!" both reduce to "thanks").
	runes = trimTrailing(runes, isFilterPunct)
	if n := len(runes); n > 0 && isEmoji(runes[n-1]) {
		runes = runes[:n-1]
	}
	runes = trimTrailing(runes, isFilterPunct)

	return strings.TrimSpace(string(runes))
}

func trimTrailing(runes []rune, drop func(rune) bool) []rune {
	for len(runes) > 0 && drop(runes[len(runes)-1]) {
		runes = runes[:len(runes)-1]
	}
	return runes
}

func isFilterPunct(r rune) bool {
	return unicode.IsPunct(r) || unicode.IsSpace(r)
}

func isEmoji(r rune) bool {
	return (r >= 0x1F300 && r <= 0x1FAFF) ||
		(r >= 0x2600 && r <= 0x27BF) ||
		r == 0xFE0F
}
