package history_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/haven-labs/coachbot-go/pkg/history"
)

func TestTurns_OrderAndRoles(t *testing.T) {
	entries := []*history.Entry{
		{UserMessage: "first question", BotReply: "first answer"},
		{UserMessage: "second question", BotReply: "second answer"},
	}

	turns := history.Turns(entries)
	assert.Equal(t, []history.Turn{
		{Role: "user", Content: "first question"},
		{Role: "assistant", Content: "first answer"},
		{Role: "user", Content: "second question"},
		{Role: "assistant", Content: "second answer"},
	}, turns)
}

func TestTurns_SkipsBlankSides(t *testing.T) {
	entries := []*history.Entry{
		{UserMessage: "question", BotReply: "   "},
		{UserMessage: "", BotReply: "answer"},
		nil,
	}

	turns := history.Turns(entries)
	assert.Equal(t, []history.Turn{
		{Role: "user", Content: "question"},
		{Role: "assistant", Content: "answer"},
	}, turns)
}

func TestTurns_Empty(t *testing.T) {
	assert.Empty(t, history.Turns(nil))
	assert.Empty(t, history.Turns([]*history.Entry{}))
}
