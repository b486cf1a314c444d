package coach

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

type countingSink struct {
	mu      sync.Mutex
	records []*TelemetryRecord
}

func (s *countingSink) Record(rec *TelemetryRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, rec)
}

func (s *countingSink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}

func TestTelemetry_DeliversRecords(t *testing.T) {
	sink := &countingSink{}
	tel := newTelemetry(sink, zap.NewNop())

	for i := 0; i < 10; i++ {
		tel.enqueue(&TelemetryRecord{
			UserID:    "user1",
			Input:     "hello",
			Output:    "hi",
			Duration:  time.Millisecond,
			Timestamp: time.Now(),
		})
	}
	tel.close()

	assert.Equal(t, 10, sink.count())
	for _, rec := range sink.records {
		assert.NotEmpty(t, rec.ID)
	}
}

func TestTelemetry_EnqueueNeverBlocks(t *testing.T) {
	// A slow sink backs the queue up; enqueue must drop rather than
	// stall the caller.
	block := make(chan struct{})
	tel := newTelemetry(blockingSink{block}, zap.NewNop())

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 2*telemetryQueueSize; i++ {
			tel.enqueue(&TelemetryRecord{UserID: "user1"})
		}
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("enqueue blocked on a full queue")
	}

	close(block)
	tel.close()
}

type blockingSink struct {
	block chan struct{}
}

func (s blockingSink) Record(*TelemetryRecord) { <-s.block }

func TestTelemetry_CloseIsIdempotent(t *testing.T) {
	tel := newTelemetry(nil, zap.NewNop())
	tel.close()
	tel.close()
}
