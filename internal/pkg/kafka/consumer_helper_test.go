package kafka

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"Lumen/internal/pkg/mq"

	"github.com/IBM/sarama"
)

type fakeSession struct {
	ctx     context.Context
	mu      sync.Mutex
	marked  []int64
	commits int
}

func (f *fakeSession) Claims() map[string][]int32               { return nil }
func (f *fakeSession) MemberID() string                         { return "member" }
func (f *fakeSession) GenerationID() int32                      { return 1 }
func (f *fakeSession) MarkOffset(string, int32, int64, string)  {}
func (f *fakeSession) ResetOffset(string, int32, int64, string) {}
func (f *fakeSession) Context() context.Context                 { return f.ctx }
func (f *fakeSession) Commit()                                  { f.mu.Lock(); f.commits++; f.mu.Unlock() }
func (f *fakeSession) MarkMessage(msg *sarama.ConsumerMessage, _ string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.marked = append(f.marked, msg.Offset)
}

func msgs(bodies ...string) []*sarama.ConsumerMessage {
	out := make([]*sarama.ConsumerMessage, len(bodies))
	for i, b := range bodies {
		out[i] = &sarama.ConsumerMessage{Topic: "q", Offset: int64(i), Value: []byte(b)}
	}
	return out
}

func TestProcessBatchMarksProcessedMessages(t *testing.T) {
	var mu sync.Mutex
	var deadLetters []string
	h := &groupHandler{
		queue:     "q",
		batchSize: 3,
		handler: func(_ context.Context, d *mq.Delivery) error {
			switch string(d.Body) {
			case "poison":
				return d.Nack(false)
			case "flaky":
				if d.Attempt < 2 {
					return errors.New("transient")
				}
			}
			return d.Ack()
		},
		deadLetter: func(_ context.Context, queue string, body []byte) error {
			mu.Lock()
			defer mu.Unlock()
			if queue != "q.dlq" {
				t.Errorf("dead-letter queue = %q, want q.dlq", queue)
			}
			deadLetters = append(deadLetters, string(body))
			return nil
		},
	}

	session := &fakeSession{ctx: context.Background()}
	h.processBatch(session, msgs("ok", "poison", "flaky"))

	if len(session.marked) != 3 {
		t.Errorf("marked offsets = %v, want all 3", session.marked)
	}
	if session.commits != 1 {
		t.Errorf("commits = %d, want 1", session.commits)
	}
	if len(deadLetters) != 1 || deadLetters[0] != "poison" {
		t.Errorf("dead letters = %v, want [poison]", deadLetters)
	}
}

func TestProcessBatchStopsAtFirstUnprocessed(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()

	h := &groupHandler{
		queue:     "q",
		batchSize: 3,
		handler: func(_ context.Context, d *mq.Delivery) error {
			if string(d.Body) == "down" {
				return errors.New("store unavailable")
			}
			return d.Ack()
		},
		deadLetter: func(context.Context, string, []byte) error { return nil },
	}

	session := &fakeSession{ctx: ctx}
	h.processBatch(session, msgs("ok", "down", "ok"))

	if len(session.marked) != 1 || session.marked[0] != 0 {
		t.Errorf("marked offsets = %v, want [0]", session.marked)
	}
}
