package metrics

import (
	"Lumen/internal/pkg/mq"
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestInstrumentRecordsOutcome(t *testing.T) {
	tests := []struct {
		name    string
		queue   string
		handler mq.HandlerFunc
		outcome mq.Outcome
	}{
		{"ack", "metrics-ack", func(_ context.Context, d *mq.Delivery) error { return d.Ack() }, mq.OutcomeAck},
		{"implicit ack", "metrics-implicit", func(context.Context, *mq.Delivery) error { return nil }, mq.OutcomeAck},
		{"requeue", "metrics-requeue", func(context.Context, *mq.Delivery) error { return errors.New("down") }, mq.OutcomeRequeue},
		{"dead letter", "metrics-dlq", func(_ context.Context, d *mq.Delivery) error { return d.Nack(false) }, mq.OutcomeDeadLetter},
		{"panic", "metrics-panic", func(context.Context, *mq.Delivery) error { panic("boom") }, mq.OutcomeRequeue},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := mq.Dispatch(context.Background(), Instrument(tt.queue, tt.handler), mq.NewDelivery(tt.queue, nil, 1))
			if got != tt.outcome {
				t.Fatalf("Dispatch() = %v, want %v", got, tt.outcome)
			}
			c := ConsumerMessagesTotal.WithLabelValues(tt.queue, tt.outcome.String())
			if v := testutil.ToFloat64(c); v != 1 {
				t.Errorf("counter = %v, want 1", v)
			}
		})
	}
}

type stubPublisher struct{ err error }

func (s stubPublisher) Publish(context.Context, string, []byte) error { return s.err }

func TestInstrumentPublisher(t *testing.T) {
	ok := InstrumentPublisher(stubPublisher{})
	bad := InstrumentPublisher(stubPublisher{err: errors.New("no confirm")})

	_ = ok.Publish(context.Background(), "metrics-pub", nil)
	if err := bad.Publish(context.Background(), "metrics-pub", nil); err == nil {
		t.Fatal("Publish() should pass the error through")
	}
	if v := testutil.ToFloat64(PublishTotal.WithLabelValues("metrics-pub", "confirmed")); v != 1 {
		t.Errorf("confirmed = %v, want 1", v)
	}
	if v := testutil.ToFloat64(PublishTotal.WithLabelValues("metrics-pub", "failed")); v != 1 {
		t.Errorf("failed = %v, want 1", v)
	}
}
