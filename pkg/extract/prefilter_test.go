package extract_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/haven-labs/coachbot-go/pkg/extract"
)

func TestShouldExtract_FiltersLowInfo(t *testing.T) {
	for _, msg := range []string{
		"ok",
		"OK",
		"okay",
		"thanks",
		"Thanks!!",
		"thanks 🙏",
		"Thanks!! 🙏",
		"hi",
		"yes.",
		"lol",
		"",
		"   ",
		"!!!",
		"👍",
	} {
		assert.False(t, extract.ShouldExtract(msg), "message %q should be filtered", msg)
	}
}

func TestShouldExtract_FiltersSymbolRuns(t *testing.T) {
	// Emoji and punctuation runs of any length carry no information.
	for _, msg := range []string{
		"👍👍",
		"😂😂😂",
		"🙏🙏!!",
		"👍 👍 👍",
		"?!?!…",
	} {
		assert.False(t, extract.ShouldExtract(msg), "message %q should be filtered", msg)
	}
}

func TestShouldExtract_KeepsSubstantiveMessages(t *testing.T) {
	for _, msg := range []string{
		"I'm 35 and I work as a nurse",
		"ok then, here is my story",
		"thanks, that actually helped me realize something about my marriage",
		"no, my parents don't know yet",
		"35",
	} {
		assert.True(t, extract.ShouldExtract(msg), "message %q should pass", msg)
	}
}
