// Package llm provides interfaces and utilities for Large Language Model (LLM) providers.
//
// It defines the Provider interface that all LLM implementations must satisfy,
// along with message types, token usage accounting, and generation options.
package llm

import "context"

// Message roles used in conversation history.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Provider defines the interface for LLM providers.
//
// All LLM implementations (OpenAI, DeepSeek, Ollama, etc.) must implement
// this interface. Callers are expected to pass a context with a deadline;
// providers do not impose timeouts of their own.
type Provider interface {
	// Complete generates a completion from a conversation history.
	//
	// Parameters:
	//   - ctx: Context for cancellation and timeout
	//   - messages: Conversation history (system, user, assistant messages)
	//   - opts: Optional generation parameters (temperature, max tokens, etc.)
	//
	// Returns the completion, including text, model name, and token usage.
	Complete(ctx context.Context, messages []Message, opts ...Option) (*Completion, error)

	// Close closes the provider and releases resources.
	Close() error
}

// Message represents a single message in a conversation.
type Message struct {
	// Role is the message role: "system", "user", or "assistant".
	Role string `json:"role"`

	// Content is the message content text.
	Content string `json:"content"`
}

// Usage carries the token counts reported by a provider for one call.
//
// It replaces ad hoc positional token tuples: every consumer refers to
// fields by name.
type Usage struct {
	// PromptTokens is the number of tokens in the prompt.
	PromptTokens int `json:"prompt_tokens"`

	// CompletionTokens is the number of tokens in the generated completion.
	CompletionTokens int `json:"completion_tokens"`

	// TotalTokens is the total number of tokens billed for the call.
	TotalTokens int `json:"total_tokens"`
}

// Add returns the component-wise sum of two usage records.
func (u Usage) Add(other Usage) Usage {
	return Usage{
		PromptTokens:     u.PromptTokens + other.PromptTokens,
		CompletionTokens: u.CompletionTokens + other.CompletionTokens,
		TotalTokens:      u.TotalTokens + other.TotalTokens,
	}
}

// Completion is the result of a single Complete call.
type Completion struct {
	// Text is the generated completion text.
	Text string `json:"text"`

	// Model is the model name the provider reported serving the request.
	Model string `json:"model"`

	// Usage contains the token counts for the call.
	Usage Usage `json:"usage"`
}

// Options contains options for text generation.
type Options struct {
	// Temperature controls randomness (0.0-2.0). Higher = more random.
	Temperature float64

	// MaxTokens limits the maximum number of tokens in the response.
	MaxTokens int

	// TopP controls nucleus sampling (0.0-1.0). Higher = more diverse.
	TopP float64

	// Stop contains stop sequences that will end generation.
	Stop []string
}

// Option is a function type for configuring generation options.
type Option func(*Options)

// WithTemperature sets the temperature for text generation.
//
// Temperature controls randomness: 0.0 = deterministic, 2.0 = very random.
func WithTemperature(temp float64) Option {
	return func(opts *Options) {
		opts.Temperature = temp
	}
}

// WithMaxTokens sets the maximum number of tokens in the response.
func WithMaxTokens(max int) Option {
	return func(opts *Options) {
		opts.MaxTokens = max
	}
}

// WithTopP sets the top-p (nucleus sampling) parameter.
func WithTopP(topP float64) Option {
	return func(opts *Options) {
		opts.TopP = topP
	}
}

// WithStop sets stop sequences that end generation.
func WithStop(stop ...string) Option {
	return func(opts *Options) {
		opts.Stop = stop
	}
}

// ApplyOptions applies a slice of Option functions to create Options.
//
// This is a helper function used internally by LLM implementations.
// Default values: Temperature=0.7, MaxTokens=1000, TopP=1.0.
func ApplyOptions(opts []Option) *Options {
	options := &Options{
		Temperature: 0.7,
		MaxTokens:   1000,
		TopP:        1.0,
	}
	for _, opt := range opts {
		opt(options)
	}
	return options
}
