package extract_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/haven-labs/coachbot-go/pkg/extract"
	"github.com/haven-labs/coachbot-go/pkg/history"
	"github.com/haven-labs/coachbot-go/pkg/llm"
	"github.com/haven-labs/coachbot-go/pkg/schema"
)

// fakeProvider returns a scripted completion and records the messages
// it was called with.
type fakeProvider struct {
	response string
	err      error
	calls    [][]llm.Message
}

func (f *fakeProvider) Complete(_ context.Context, messages []llm.Message, _ ...llm.Option) (*llm.Completion, error) {
	f.calls = append(f.calls, messages)
	if f.err != nil {
		return nil, f.err
	}
	return &llm.Completion{
		Text:  f.response,
		Usage: llm.Usage{PromptTokens: 10, CompletionTokens: 5, TotalTokens: 15},
	}, nil
}

func (f *fakeProvider) Close() error { return nil }

func TestExtractor_ParsesFields(t *testing.T) {
	provider := &fakeProvider{response: `{"age": "35", "occupation": "nurse"}`}
	extractor := extract.NewExtractor(provider, nil)

	fields, usage := extractor.Extract(context.Background(), "I'm 35, working as a nurse", "")

	assert.Equal(t, "35", fields[schema.FieldAge])
	assert.Equal(t, "nurse", fields[schema.FieldOccupation])
	assert.Equal(t, 15, usage.TotalTokens)
}

func TestExtractor_IncludesPriorBotMessage(t *testing.T) {
	provider := &fakeProvider{response: `{"age": "35"}`}
	extractor := extract.NewExtractor(provider, nil)

	extractor.Extract(context.Background(), "35", "How old are you?")

	require.Len(t, provider.calls, 1)
	userMsg := provider.calls[0][len(provider.calls[0])-1]
	assert.Contains(t, userMsg.Content, "Assistant asked: How old are you?")
	assert.Contains(t, userMsg.Content, "User replied: 35")
}

func TestExtractor_ProviderFailureFallsBackToAge(t *testing.T) {
	provider := &fakeProvider{err: errors.New("upstream timeout")}
	extractor := extract.NewExtractor(provider, nil)

	fields, usage := extractor.Extract(context.Background(), "I'm 35 and stressed", "")

	assert.Equal(t, map[string]string{schema.FieldAge: "35"}, fields)
	assert.Zero(t, usage.TotalTokens)
}

func TestExtractor_ProviderFailureNoAge(t *testing.T) {
	provider := &fakeProvider{err: errors.New("upstream timeout")}
	extractor := extract.NewExtractor(provider, nil)

	fields, _ := extractor.Extract(context.Background(), "things are hard lately", "")
	assert.Empty(t, fields)
}

func TestExtractor_MalformedResponseFallsBackToAge(t *testing.T) {
	provider := &fakeProvider{response: "Sure! The user seems to be 35."}
	extractor := extract.NewExtractor(provider, nil)

	fields, _ := extractor.Extract(context.Background(), "I'm 35", "")
	assert.Equal(t, map[string]string{schema.FieldAge: "35"}, fields)
}

func TestDeepExtractor_BuildsTranscript(t *testing.T) {
	provider := &fakeProvider{response: `{"goals": "come out to my parents"}`}
	deep := extract.NewDeepExtractor(provider, nil)

	entries := []*history.Entry{
		{UserMessage: "I keep circling the same thing", BotReply: "What thing is that?"},
		{UserMessage: "Telling my parents. I want to do it this year."},
	}

	fields, _ := deep.Extract(context.Background(), entries, "Age: 35")

	assert.Equal(t, "come out to my parents", fields[schema.FieldGoals])
	require.Len(t, provider.calls, 1)
	prompt := provider.calls[0][len(provider.calls[0])-1].Content
	assert.Contains(t, prompt, "Current profile: Age: 35")
	assert.Contains(t, prompt, "User: I keep circling the same thing")
	assert.Contains(t, prompt, "Assistant: What thing is that?")
}

func TestDeepExtractor_EmptyWindow(t *testing.T) {
	provider := &fakeProvider{response: `{"age": "35"}`}
	deep := extract.NewDeepExtractor(provider, nil)

	fields, _ := deep.Extract(context.Background(), nil, "")
	assert.Empty(t, fields)
	assert.Empty(t, provider.calls)
}

func TestDeepExtractor_ProviderFailure(t *testing.T) {
	provider := &fakeProvider{err: errors.New("upstream timeout")}
	deep := extract.NewDeepExtractor(provider, nil)

	entries := []*history.Entry{{UserMessage: "hello there, long story"}}
	fields, _ := deep.Extract(context.Background(), entries, "")
	assert.Empty(t, fields)
}
