package coach

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/haven-labs/coachbot-go/pkg/access"
	"github.com/haven-labs/coachbot-go/pkg/extract"
	"github.com/haven-labs/coachbot-go/pkg/history"
	"github.com/haven-labs/coachbot-go/pkg/llm"
	"github.com/haven-labs/coachbot-go/pkg/merge"
	"github.com/haven-labs/coachbot-go/pkg/profile"
)

const (
	// HistoryWindow is the default number of recent exchanges included
	// in each reply prompt.
	HistoryWindow = 15

	// replySummaryWordLimit is the reply length above which the stored
	// copy is summarized instead of kept verbatim.
	replySummaryWordLimit = 50

	replyTimeout   = 45 * time.Second
	extractTimeout = 15 * time.Second
	deepTimeout    = 60 * time.Second
)

const defaultSystemPrompt = `You are a warm, direct personal coach. You help the user think through their situation with short, concrete replies. Ask at most one question per reply. Never give medical or legal advice.`

// Sender delivers a reply to the user out-of-band. When a Sender is
// configured the handler dispatches the reply before running profile
// enrichment, so the user never waits on extraction.
type Sender interface {
	Send(ctx context.Context, userID, text string) error
}

// Handler processes one user message end to end: onboarding state
// machine, reply generation, and profile enrichment.
//
// A Handler is safe for concurrent use. Messages from the same user are
// serialized; different users proceed in parallel.
type Handler struct {
	provider llm.Provider
	profiles profile.Store
	history  history.Store
	states   access.StateStore
	registry access.Registry

	extractor *extract.Extractor
	deep      *extract.DeepExtractor
	policy    *merge.Policy

	sender        Sender
	systemPrompt  string
	historyWindow int

	locks     *userLocks
	telemetry *telemetry
	logger    *zap.Logger

	wg sync.WaitGroup

	mu     sync.Mutex
	closed bool
}

// HandlerConfig contains the dependencies and knobs for a Handler.
type HandlerConfig struct {
	// Provider is the LLM used for replies and extraction.
	Provider llm.Provider

	// Profiles, History, and States are the storage backends.
	Profiles profile.Store
	History  history.Store
	States   access.StateStore

	// Registry validates access codes during onboarding.
	Registry access.Registry

	// Sender, when set, delivers replies before enrichment runs
	// (optional).
	Sender Sender

	// Sink receives telemetry records (optional).
	Sink TelemetrySink

	// SystemPrompt overrides the default coaching persona (optional).
	SystemPrompt string

	// HistoryWindow overrides the default reply context window
	// (optional).
	HistoryWindow int

	// Logger is used for structured logging. A nil logger disables
	// logging.
	Logger *zap.Logger
}

// NewHandler creates a message handler from the given configuration.
func NewHandler(cfg *HandlerConfig) (*Handler, error) {
	if cfg.Provider == nil || cfg.Profiles == nil || cfg.History == nil ||
		cfg.States == nil || cfg.Registry == nil {
		return nil, NewCoachError("NewHandler", ErrInvalidConfig)
	}

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	systemPrompt := cfg.SystemPrompt
	if systemPrompt == "" {
		systemPrompt = defaultSystemPrompt
	}

	window := cfg.HistoryWindow
	if window <= 0 {
		window = HistoryWindow
	}

	return &Handler{
		provider:      cfg.Provider,
		profiles:      cfg.Profiles,
		history:       cfg.History,
		states:        cfg.States,
		registry:      cfg.Registry,
		extractor:     extract.NewExtractor(cfg.Provider, logger),
		deep:          extract.NewDeepExtractor(cfg.Provider, logger),
		policy:        merge.NewPolicy(logger),
		sender:        cfg.Sender,
		systemPrompt:  systemPrompt,
		historyWindow: window,
		locks:         newUserLocks(),
		telemetry:     newTelemetry(cfg.Sink, logger),
		logger:        logger,
	}, nil
}

// HandleMessage processes a single incoming message and returns the
// reply text. It never returns an error: every internal failure
// degrades to a canned apology so the user always gets an answer.
func (h *Handler) HandleMessage(ctx context.Context, userID, text string) (reply string) {
	defer func() {
		if r := recover(); r != nil {
			h.logger.Error("panic while handling message",
				zap.String("user_id", userID),
				zap.Any("panic", r))
			reply = msgApology
		}
	}()

	// Register as in-flight under the same lock that Close uses to set
	// closed: once Close observes the flag it can wait for the
	// WaitGroup knowing no new message will join it, and the telemetry
	// queue stays open until every in-flight message has finished.
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return msgApology
	}
	h.wg.Add(1)
	h.mu.Unlock()
	defer h.wg.Done()

	text = strings.TrimSpace(text)
	if text == "" {
		return msgApology
	}

	unlock := h.locks.acquire(userID)
	defer unlock()

	status, err := h.states.Get(ctx, userID)
	if err != nil {
		h.logger.Error("state lookup failed",
			zap.String("user_id", userID), zap.Error(err))
		return msgApology
	}

	if status == nil {
		if _, err := h.states.Create(ctx, userID); err != nil {
			h.logger.Error("state create failed",
				zap.String("user_id", userID), zap.Error(err))
			return msgApology
		}
		return msgWelcome
	}

	switch status.State {
	case access.StateAwaitingCode:
		return h.handleCode(ctx, status, text)
	case access.StateAwaitingApproval:
		return h.handleApproval(ctx, status, text)
	case access.StateActive:
		return h.handleActive(ctx, status, text)
	default:
		// Unknown state in storage; restart onboarding rather than
		// locking the user out.
		h.logger.Warn("unknown onboarding state, restarting",
			zap.String("user_id", status.UserID),
			zap.String("state", string(status.State)))
		if err := h.states.SetState(ctx, status.UserID, access.StateAwaitingCode); err != nil {
			return msgApology
		}
		return msgWelcome
	}
}

// handleCode validates an access code attempt.
func (h *Handler) handleCode(ctx context.Context, status *access.Status, text string) string {
	if status.CodeAttempts >= MaxCodeAttempts {
		return msgCodeDenied
	}

	valid, err := h.registry.ValidateCode(ctx, text)
	if err != nil {
		h.logger.Error("access code validation failed",
			zap.String("user_id", status.UserID), zap.Error(err))
		return msgApology
	}
	if valid {
		if err := h.states.SetCode(ctx, status.UserID, strings.TrimSpace(text)); err != nil {
			h.logger.Error("storing access code failed",
				zap.String("user_id", status.UserID), zap.Error(err))
			return msgApology
		}
		if err := h.states.SetState(ctx, status.UserID, access.StateAwaitingApproval); err != nil {
			h.logger.Error("state transition failed",
				zap.String("user_id", status.UserID), zap.Error(err))
			return msgApology
		}
		return msgTerms
	}

	attempts, err := h.states.BumpCodeAttempts(ctx, status.UserID)
	if err != nil {
		h.logger.Error("bumping code attempts failed",
			zap.String("user_id", status.UserID), zap.Error(err))
		return msgApology
	}
	if attempts >= MaxCodeAttempts {
		h.logger.Info("access denied after exhausted code attempts",
			zap.String("user_id", status.UserID))
		return msgCodeDenied
	}
	return codeRetryMessage(attempts)
}

// handleApproval waits for the exact approval or decline phrase.
func (h *Handler) handleApproval(ctx context.Context, status *access.Status, text string) string {
	switch strings.TrimSpace(text) {
	case ApprovalPhrase:
		if err := h.states.Approve(ctx, status.UserID); err != nil {
			h.logger.Error("recording approval failed",
				zap.String("user_id", status.UserID), zap.Error(err))
			return msgApology
		}
		if err := h.states.SetState(ctx, status.UserID, access.StateActive); err != nil {
			h.logger.Error("state transition failed",
				zap.String("user_id", status.UserID), zap.Error(err))
			return msgApology
		}
		return msgActivated
	case DeclinePhrase:
		// The user stays at the terms step; a later approval still works.
		return msgDeclined
	default:
		return msgTermsRepeat
	}
}

// handleActive generates a coaching reply, then enriches the profile
// and history from the exchange.
func (h *Handler) handleActive(ctx context.Context, status *access.Status, text string) string {
	started := time.Now()
	var usage llm.Usage

	// Context for the reply: profile summary plus recent exchanges.
	// Either lookup failing degrades to less context, never to a
	// failed reply.
	summary, err := h.profiles.Summary(ctx, status.UserID)
	if err != nil {
		h.logger.Warn("profile summary lookup failed",
			zap.String("user_id", status.UserID), zap.Error(err))
		summary = ""
	}
	turns, err := h.history.Recent(ctx, status.UserID, h.historyWindow)
	if err != nil {
		h.logger.Warn("history lookup failed",
			zap.String("user_id", status.UserID), zap.Error(err))
		turns = nil
	}

	reply, replyUsage, err := h.generateReply(ctx, summary, turns, text)
	if err != nil {
		h.logger.Error("reply generation failed",
			zap.String("user_id", status.UserID), zap.Error(err))
		return msgApology
	}
	usage = usage.Add(replyUsage)

	// With a sender configured the reply goes out before enrichment.
	if h.sender != nil {
		if err := h.sender.Send(ctx, status.UserID, reply); err != nil {
			h.logger.Error("reply dispatch failed",
				zap.String("user_id", status.UserID), zap.Error(err))
		}
	}

	storedReply, summaryUsage := h.replyForStorage(ctx, reply)
	usage = usage.Add(summaryUsage)

	extractUsage := h.enrichProfile(ctx, status.UserID, text, turns)
	usage = usage.Add(extractUsage)

	if err := h.history.Append(ctx, &history.Entry{
		UserID:      status.UserID,
		UserMessage: text,
		BotReply:    storedReply,
	}); err != nil {
		h.logger.Error("history append failed",
			zap.String("user_id", status.UserID), zap.Error(err))
	}

	count, err := h.states.BumpMessageCount(ctx, status.UserID)
	if err != nil {
		h.logger.Error("bumping message count failed",
			zap.String("user_id", status.UserID), zap.Error(err))
	} else if count%extract.DeepPassInterval == 0 {
		h.spawnDeepPass(status.UserID)
	}

	h.telemetry.enqueue(&TelemetryRecord{
		UserID:    status.UserID,
		Input:     text,
		Output:    reply,
		Usage:     usage,
		Duration:  time.Since(started),
		Timestamp: time.Now().UTC(),
	})

	return reply
}

// generateReply runs the primary model call.
func (h *Handler) generateReply(ctx context.Context, profileSummary string, turns []history.Turn, text string) (string, llm.Usage, error) {
	system := h.systemPrompt
	if profileSummary != "" {
		system = fmt.Sprintf("%s\n\nWhat you know about this user: %s", system, profileSummary)
	}

	messages := make([]llm.Message, 0, len(turns)+2)
	messages = append(messages, llm.Message{Role: llm.RoleSystem, Content: system})
	for _, turn := range turns {
		messages = append(messages, llm.Message{Role: turn.Role, Content: turn.Content})
	}
	messages = append(messages, llm.Message{Role: llm.RoleUser, Content: text})

	callCtx, cancel := context.WithTimeout(ctx, replyTimeout)
	defer cancel()

	completion, err := h.provider.Complete(callCtx, messages)
	if err != nil {
		return "", llm.Usage{}, NewCoachError("generateReply", err)
	}
	return strings.TrimSpace(completion.Text), completion.Usage, nil
}

// replyForStorage returns the reply as it should be stored in history.
// Long replies are summarized to first person so the stored history
// stays compact; a failed summarization call falls back to word-level
// truncation.
func (h *Handler) replyForStorage(ctx context.Context, reply string) (string, llm.Usage) {
	words := strings.Fields(reply)
	if len(words) <= replySummaryWordLimit {
		return reply, llm.Usage{}
	}

	callCtx, cancel := context.WithTimeout(ctx, extractTimeout)
	defer cancel()

	messages := []llm.Message{
		{Role: llm.RoleSystem, Content: "Condense the following coaching reply to at most 50 words, keeping the first person voice and the core advice. Return only the condensed text."},
		{Role: llm.RoleUser, Content: reply},
	}
	completion, err := h.provider.Complete(callCtx, messages,
		llm.WithTemperature(0.3),
		llm.WithMaxTokens(120),
	)
	if err != nil || strings.TrimSpace(completion.Text) == "" {
		h.logger.Warn("reply summarization failed, truncating", zap.Error(err))
		return strings.Join(words[:replySummaryWordLimit], " ") + "…", llm.Usage{}
	}
	return strings.TrimSpace(completion.Text), completion.Usage
}

// enrichProfile runs per-message extraction and merges the result into
// the stored profile. All failures degrade to a no-op.
func (h *Handler) enrichProfile(ctx context.Context, userID, text string, turns []history.Turn) llm.Usage {
	if !extract.ShouldExtract(text) {
		return llm.Usage{}
	}

	// The last assistant turn gives short answers their question.
	priorBot := ""
	for i := len(turns) - 1; i >= 0; i-- {
		if turns[i].Role == llm.RoleAssistant {
			priorBot = turns[i].Content
			break
		}
	}

	callCtx, cancel := context.WithTimeout(ctx, extractTimeout)
	defer cancel()

	fields, usage := h.extractor.Extract(callCtx, text, priorBot)
	if len(fields) == 0 {
		return usage
	}

	h.mergeAndSave(ctx, userID, fields)
	return usage
}

// mergeAndSave folds candidate fields into the stored profile through
// the merge policy.
func (h *Handler) mergeAndSave(ctx context.Context, userID string, fields map[string]string) {
	current, err := h.profiles.Get(ctx, userID)
	if err != nil {
		h.logger.Warn("profile read failed, skipping merge",
			zap.String("user_id", userID), zap.Error(err))
		return
	}

	merged, changed := h.policy.Merge(current.Fields, fields)
	if !changed {
		return
	}

	if _, err := h.profiles.Save(ctx, userID, merged); err != nil {
		h.logger.Error("profile save failed",
			zap.String("user_id", userID), zap.Error(err))
		return
	}
	h.logger.Info("profile updated",
		zap.String("user_id", userID),
		zap.Int("fields", len(merged)))
}

// spawnDeepPass reviews recent history in the background. The pass is
// tracked so Close can wait for it, and its own panic never reaches
// the message path.
func (h *Handler) spawnDeepPass(userID string) {
	h.wg.Add(1)
	go func() {
		defer h.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				h.logger.Error("panic in deep extraction pass",
					zap.String("user_id", userID),
					zap.Any("panic", r))
			}
		}()

		ctx, cancel := context.WithTimeout(context.Background(), deepTimeout)
		defer cancel()

		entries, err := h.history.RecentEntries(ctx, userID, extract.DeepPassWindow)
		if err != nil {
			h.logger.Warn("deep pass history lookup failed",
				zap.String("user_id", userID), zap.Error(err))
			return
		}
		summary, err := h.profiles.Summary(ctx, userID)
		if err != nil {
			summary = ""
		}

		fields, _ := h.deep.Extract(ctx, entries, summary)
		if len(fields) == 0 {
			return
		}

		// Deep findings go through the same merge policy as the
		// per-message path; a deep pass refines, never resets.
		h.mergeAndSave(ctx, userID, fields)
	}()
}

// Close waits for in-flight messages and background enrichment to
// finish, then shuts down the telemetry queue. Messages arriving after
// Close get the apology reply. The storage backends and provider are
// owned by the caller and stay open.
func (h *Handler) Close() error {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return nil
	}
	h.closed = true
	h.mu.Unlock()

	h.wg.Wait()
	h.telemetry.close()
	return nil
}
