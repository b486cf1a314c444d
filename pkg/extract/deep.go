package extract

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/haven-labs/coachbot-go/pkg/history"
	"github.com/haven-labs/coachbot-go/pkg/llm"
	"github.com/haven-labs/coachbot-go/pkg/schema"
)

const (
	// DeepPassInterval is how many user messages pass between deep
	// extraction runs.
	DeepPassInterval = 10

	// DeepPassWindow is how many recent exchanges a deep pass reads.
	DeepPassWindow = 15
)

const deepSystemPrompt = `You extract personal profile facts from a coaching conversation transcript.

Known profile fields:
%s

The user's current profile summary is given for reference; prefer facts from the transcript when they differ. Return a JSON object mapping field names to values, using only the field names listed above. Include a field only when the transcript clearly supports its value. If nothing is supported, return {}.

Return only the JSON object, no explanations.`

// DeepExtractor reviews a window of conversation history in one model
// call, catching facts that per-message extraction missed or that only
// emerge across several exchanges.
type DeepExtractor struct {
	provider llm.Provider
	logger   *zap.Logger
}

// NewDeepExtractor creates a deep extractor. A nil logger disables
// logging.
func NewDeepExtractor(provider llm.Provider, logger *zap.Logger) *DeepExtractor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DeepExtractor{provider: provider, logger: logger}
}

// Extract runs a deep pass over the given exchanges. The current
// profile summary goes into the prompt as context. Like the
// per-message path it never returns an error: failures degrade to an
// empty map.
func (e *DeepExtractor) Extract(ctx context.Context, entries []*history.Entry, profileSummary string) (map[string]string, llm.Usage) {
	if len(entries) == 0 {
		return map[string]string{}, llm.Usage{}
	}

	system := fmt.Sprintf(deepSystemPrompt, schema.PromptCatalog())

	var transcript strings.Builder
	if profileSummary != "" {
		fmt.Fprintf(&transcript, "Current profile: %s\n\n", profileSummary)
	}
	transcript.WriteString("Transcript:\n")
	for _, entry := range entries {
		if entry.UserMessage != "" {
			fmt.Fprintf(&transcript, "User: %s\n", entry.UserMessage)
		}
		if entry.BotReply != "" {
			fmt.Fprintf(&transcript, "Assistant: %s\n", entry.BotReply)
		}
	}

	messages := []llm.Message{
		{Role: llm.RoleSystem, Content: system},
		{Role: llm.RoleUser, Content: transcript.String()},
	}

	completion, err := e.provider.Complete(ctx, messages,
		llm.WithTemperature(0.1),
		llm.WithMaxTokens(500),
	)
	if err != nil {
		e.logger.Warn("deep extraction call failed", zap.Error(err))
		return map[string]string{}, llm.Usage{}
	}

	return parseFieldsResponse(completion.Text), completion.Usage
}
