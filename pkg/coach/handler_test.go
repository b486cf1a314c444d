package coach

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/haven-labs/coachbot-go/pkg/access"
	"github.com/haven-labs/coachbot-go/pkg/llm"
	sqliteStore "github.com/haven-labs/coachbot-go/pkg/storage/sqlite"
)

// scriptedProvider returns queued responses in order, repeating the
// last one once the queue is exhausted.
type scriptedProvider struct {
	mu        sync.Mutex
	responses []string
	err       error
	calls     int
}

func (p *scriptedProvider) Complete(_ context.Context, _ []llm.Message, _ ...llm.Option) (*llm.Completion, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	if p.err != nil {
		return nil, p.err
	}
	idx := p.calls - 1
	if idx >= len(p.responses) {
		idx = len(p.responses) - 1
	}
	return &llm.Completion{
		Text:  p.responses[idx],
		Usage: llm.Usage{PromptTokens: 10, CompletionTokens: 5, TotalTokens: 15},
	}, nil
}

func (p *scriptedProvider) Close() error { return nil }

func (p *scriptedProvider) callCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}

func setupHandlerTest(t *testing.T, provider llm.Provider) (*Handler, *sqliteStore.Client, func()) {
	dbPath := filepath.Join(t.TempDir(), "coachbot_test.db")
	client, err := sqliteStore.NewClient(&sqliteStore.Config{DBPath: dbPath})
	require.NoError(t, err)

	handler, err := NewHandler(&HandlerConfig{
		Provider: provider,
		Profiles: client.Profiles(),
		History:  client.History(),
		States:   client.States(),
		Registry: access.NewStaticRegistry([]string{"EARLY2026"}),
	})
	require.NoError(t, err)

	cleanup := func() {
		_ = handler.Close()
		_ = client.Close()
	}
	return handler, client, cleanup
}

// activate walks a user through onboarding so tests can start from the
// active state.
func activate(t *testing.T, handler *Handler, userID string) {
	ctx := context.Background()
	require.Equal(t, msgWelcome, handler.HandleMessage(ctx, userID, "hello"))
	require.Equal(t, msgTerms, handler.HandleMessage(ctx, userID, "EARLY2026"))
	require.Equal(t, msgActivated, handler.HandleMessage(ctx, userID, ApprovalPhrase))
}

func TestHandleMessage_Onboarding(t *testing.T) {
	provider := &scriptedProvider{responses: []string{"hi"}}
	handler, _, cleanup := setupHandlerTest(t, provider)
	defer cleanup()

	ctx := context.Background()

	// First contact gets the welcome, whatever the text was.
	assert.Equal(t, msgWelcome, handler.HandleMessage(ctx, "user1", "I'm 35, help me"))

	// A valid code moves to the terms step; case and whitespace are
	// forgiven.
	assert.Equal(t, msgTerms, handler.HandleMessage(ctx, "user1", "  early2026 "))

	// Anything but the exact phrases repeats the terms.
	assert.Equal(t, msgTermsRepeat, handler.HandleMessage(ctx, "user1", "sounds good"))
	assert.Equal(t, msgTermsRepeat, handler.HandleMessage(ctx, "user1", "i approve"))

	assert.Equal(t, msgActivated, handler.HandleMessage(ctx, "user1", ApprovalPhrase))

	// No model calls during onboarding.
	assert.Zero(t, provider.callCount())
}

func TestHandleMessage_CodeAttemptsExhausted(t *testing.T) {
	handler, _, cleanup := setupHandlerTest(t, &scriptedProvider{responses: []string{"hi"}})
	defer cleanup()

	ctx := context.Background()
	handler.HandleMessage(ctx, "user1", "hello")

	assert.Equal(t, codeRetryMessage(1), handler.HandleMessage(ctx, "user1", "wrong1"))
	assert.Equal(t, codeRetryMessage(2), handler.HandleMessage(ctx, "user1", "wrong2"))
	assert.Equal(t, codeRetryMessage(3), handler.HandleMessage(ctx, "user1", "wrong3"))
	assert.Equal(t, msgCodeDenied, handler.HandleMessage(ctx, "user1", "wrong4"))

	// Denied stays denied, even for the right code.
	assert.Equal(t, msgCodeDenied, handler.HandleMessage(ctx, "user1", "EARLY2026"))
}

func TestHandleMessage_Decline(t *testing.T) {
	handler, _, cleanup := setupHandlerTest(t, &scriptedProvider{responses: []string{"hi"}})
	defer cleanup()

	ctx := context.Background()
	handler.HandleMessage(ctx, "user1", "hello")
	handler.HandleMessage(ctx, "user1", "EARLY2026")

	declined := handler.HandleMessage(ctx, "user1", DeclinePhrase)
	assert.Equal(t, msgDeclined, declined)

	// The decline message still shows the exact phrases, so the user
	// can recover without rereading the terms.
	assert.Contains(t, declined, ApprovalPhrase)

	// A later approval still activates.
	assert.Equal(t, msgActivated, handler.HandleMessage(ctx, "user1", ApprovalPhrase))
}

func TestHandleMessage_ActiveReplyAndEnrichment(t *testing.T) {
	provider := &scriptedProvider{responses: []string{
		"That sounds heavy. How long have you been carrying it?",
		`{"age": "35", "occupation": "nurse"}`,
	}}
	handler, client, cleanup := setupHandlerTest(t, provider)
	defer cleanup()

	ctx := context.Background()
	activate(t, handler, "user1")

	reply := handler.HandleMessage(ctx, "user1", "I'm 35, I work as a nurse, and I can't talk to my parents")
	assert.Equal(t, "That sounds heavy. How long have you been carrying it?", reply)

	// Extraction merged into the stored profile.
	summary, err := client.Profiles().Summary(ctx, "user1")
	require.NoError(t, err)
	assert.Contains(t, summary, "Age: 35")
	assert.Contains(t, summary, "Work: nurse")

	// The exchange landed in history.
	entries, err := client.History().RecentEntries(ctx, "user1", 10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, reply, entries[0].BotReply)
}

func TestHandleMessage_LowInfoSkipsExtraction(t *testing.T) {
	provider := &scriptedProvider{responses: []string{"Anytime."}}
	handler, _, cleanup := setupHandlerTest(t, provider)
	defer cleanup()

	ctx := context.Background()
	activate(t, handler, "user1")

	handler.HandleMessage(ctx, "user1", "thanks 🙏")

	// Only the reply call, no extraction call.
	assert.Equal(t, 1, provider.callCount())
}

func TestHandleMessage_ProviderFailureApologizes(t *testing.T) {
	provider := &scriptedProvider{err: errors.New("upstream down")}
	handler, client, cleanup := setupHandlerTest(t, provider)
	defer cleanup()

	ctx := context.Background()
	activate(t, handler, "user1")

	assert.Equal(t, msgApology, handler.HandleMessage(ctx, "user1", "I'm 35 and struggling"))

	// Nothing stored for the failed exchange.
	entries, err := client.History().RecentEntries(ctx, "user1", 10)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestHandleMessage_EmptyInput(t *testing.T) {
	handler, _, cleanup := setupHandlerTest(t, &scriptedProvider{responses: []string{"hi"}})
	defer cleanup()

	assert.Equal(t, msgApology, handler.HandleMessage(context.Background(), "user1", "   "))
}

func TestHandleMessage_LongReplySummarizedForStorage(t *testing.T) {
	longReply := ""
	for i := 0; i < 80; i++ {
		longReply += "word "
	}
	provider := &scriptedProvider{responses: []string{
		longReply,
		"I suggested you start small and talk to your sister first.",
		"{}",
	}}
	handler, client, cleanup := setupHandlerTest(t, provider)
	defer cleanup()

	ctx := context.Background()
	activate(t, handler, "user1")

	reply := handler.HandleMessage(ctx, "user1", "I don't know where to start with my family")

	// The user gets the full reply; storage gets the condensed form.
	assert.Equal(t, 80, len(splitWords(reply)))
	entries, err := client.History().RecentEntries(ctx, "user1", 10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "I suggested you start small and talk to your sister first.", entries[0].BotReply)
}

func TestHandleMessage_DeepPassRunsOnSchedule(t *testing.T) {
	// Low-info messages keep the per-message extractor quiet, so the
	// call after the ten replies is the deep pass.
	responses := make([]string, 0, 11)
	for i := 0; i < 10; i++ {
		responses = append(responses, "Mm-hm.")
	}
	responses = append(responses, `{"goals": "come out to my parents"}`)
	provider := &scriptedProvider{responses: responses}
	handler, client, cleanup := setupHandlerTest(t, provider)
	defer cleanup()

	ctx := context.Background()
	activate(t, handler, "user1")

	for i := 0; i < 10; i++ {
		handler.HandleMessage(ctx, "user1", "ok")
	}

	// Close waits for the background pass.
	require.NoError(t, handler.Close())

	assert.Equal(t, 11, provider.callCount())
	summary, err := client.Profiles().Summary(ctx, "user1")
	require.NoError(t, err)
	assert.Contains(t, summary, "come out to my parents")
}

func TestHandleMessage_ConcurrentWithClose(t *testing.T) {
	provider := &scriptedProvider{responses: []string{"Mm-hm."}}
	handler, _, cleanup := setupHandlerTest(t, provider)
	defer cleanup()

	ctx := context.Background()
	activate(t, handler, "user1")

	// Messages racing Close either complete normally or get the
	// apology; nothing may panic or hit the closed telemetry queue.
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			userID := "user1"
			if n%2 == 0 {
				userID = "user2"
			}
			reply := handler.HandleMessage(ctx, userID, "ok")
			assert.NotEmpty(t, reply)
		}(i)
	}

	require.NoError(t, handler.Close())
	wg.Wait()

	assert.Equal(t, msgApology, handler.HandleMessage(ctx, "user1", "ok"))
}

func splitWords(s string) []string {
	var words []string
	word := ""
	for _, r := range s {
		if r == ' ' {
			if word != "" {
				words = append(words, word)
				word = ""
			}
			continue
		}
		word += string(r)
	}
	if word != "" {
		words = append(words, word)
	}
	return words
}
