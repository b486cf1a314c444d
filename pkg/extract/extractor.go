// Package extract pulls structured profile fields out of free-form
// conversation using an LLM, with a cheap pre-filter in front of the
// model call and a regex fallback behind it.
package extract

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/haven-labs/coachbot-go/pkg/llm"
	"github.com/haven-labs/coachbot-go/pkg/schema"
)

const extractSystemPrompt = `You extract personal profile facts from a user's message in a coaching conversation.

Known profile fields:
%s

Return a JSON object mapping field names to values, using only the field names listed above. Include a field only when the user's message clearly states or implies its value. If the message contains no profile information, return {}.

Return only the JSON object, no explanations.`

// Extractor runs single-message profile extraction against an LLM.
type Extractor struct {
	provider llm.Provider
	logger   *zap.Logger
}

// NewExtractor creates an extractor on top of the given provider. A nil
// logger disables logging.
func NewExtractor(provider llm.Provider, logger *zap.Logger) *Extractor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Extractor{provider: provider, logger: logger}
}

// Extract pulls profile fields from a user message. The prior bot
// message, when present, is given to the model as context so short
// answers ("35", "yes, she knows") resolve against the question asked.
//
// Extract never returns an error: a failed or unparseable model call
// degrades to the regex age fallback, and failing that, an empty map.
func (e *Extractor) Extract(ctx context.Context, userMessage, priorBotMessage string) (map[string]string, llm.Usage) {
	system := fmt.Sprintf(extractSystemPrompt, schema.PromptCatalog())

	var user strings.Builder
	if priorBotMessage != "" {
		fmt.Fprintf(&user, "Assistant asked: %s\n", priorBotMessage)
		fmt.Fprintf(&user, "User replied: %s", userMessage)
	} else {
		user.WriteString(userMessage)
	}

	messages := []llm.Message{
		{Role: llm.RoleSystem, Content: system},
		{Role: llm.RoleUser, Content: user.String()},
	}

	completion, err := e.provider.Complete(ctx, messages,
		llm.WithTemperature(0.1),
		llm.WithMaxTokens(300),
	)
	if err != nil {
		e.logger.Warn("extraction call failed, falling back to pattern match",
			zap.Error(err))
		return e.fallback(userMessage), llm.Usage{}
	}

	fields := parseFieldsResponse(completion.Text)
	if len(fields) == 0 {
		// JSON came back empty or malformed; an explicitly stated age
		// is still recoverable.
		if fb := e.fallback(userMessage); len(fb) > 0 {
			return fb, completion.Usage
		}
	}
	return fields, completion.Usage
}

func (e *Extractor) fallback(userMessage string) map[string]string {
	fields := map[string]string{}
	if age, ok := fallbackAge(userMessage); ok {
		fields[schema.FieldAge] = age
	}
	return fields
}
