package coach

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/haven-labs/coachbot-go/pkg/llm"
)

// telemetryQueueSize bounds the in-flight telemetry queue. When the
// queue is full new records are dropped rather than blocking the
// message path.
const telemetryQueueSize = 256

// TelemetryRecord captures one handled exchange for observability.
type TelemetryRecord struct {
	// ID uniquely identifies the record.
	ID string

	// UserID is the user whose message was handled.
	UserID string

	// Input is the user's message text.
	Input string

	// Output is the reply sent back.
	Output string

	// Usage aggregates token usage across all model calls made while
	// handling the message.
	Usage llm.Usage

	// Duration is the wall-clock handling time.
	Duration time.Duration

	// Timestamp is when handling finished.
	Timestamp time.Time
}

// TelemetrySink receives records drained from the queue. Implementations
// must be safe for use from a single background goroutine.
type TelemetrySink interface {
	Record(rec *TelemetryRecord)
}

// telemetry is a bounded, non-blocking record queue with a single
// drain goroutine.
type telemetry struct {
	queue  chan *TelemetryRecord
	sink   TelemetrySink
	logger *zap.Logger

	closeOnce sync.Once
	done      chan struct{}
}

func newTelemetry(sink TelemetrySink, logger *zap.Logger) *telemetry {
	t := &telemetry{
		queue:  make(chan *TelemetryRecord, telemetryQueueSize),
		sink:   sink,
		logger: logger,
		done:   make(chan struct{}),
	}
	go t.drain()
	return t
}

// enqueue adds a record without blocking. A full queue drops the record
// and logs the drop.
func (t *telemetry) enqueue(rec *TelemetryRecord) {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	select {
	case t.queue <- rec:
	default:
		t.logger.Warn("telemetry queue full, dropping record",
			zap.String("user_id", rec.UserID))
	}
}

func (t *telemetry) drain() {
	defer close(t.done)
	for rec := range t.queue {
		if t.sink != nil {
			t.sink.Record(rec)
		}
		t.logger.Info("exchange handled",
			zap.String("record_id", rec.ID),
			zap.String("user_id", rec.UserID),
			zap.Int("prompt_tokens", rec.Usage.PromptTokens),
			zap.Int("completion_tokens", rec.Usage.CompletionTokens),
			zap.Duration("duration", rec.Duration))
	}
}

// close stops the drain goroutine after the queue empties.
func (t *telemetry) close() {
	t.closeOnce.Do(func() {
		close(t.queue)
	})
	<-t.done
}
