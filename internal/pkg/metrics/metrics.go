package metrics

import (
	"Lumen/internal/pkg/mq"
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	RelayModeRoom      = "room"
	RelayModeBroadcast = "broadcast"
	RelayModeDropped   = "dropped"
)

var (
	// ConsumerMessagesTotal 按队列与处理结果统计消息数
	ConsumerMessagesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lumen_consumer_messages_total",
			Help: "Messages handled by queue consumers, by outcome",
		},
		[]string{"queue", "outcome"},
	)

	ConsumerHandleSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "lumen_consumer_handle_seconds",
			Help:    "Time spent handling one message",
			Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 15, 60},
		},
		[]string{"queue"},
	)

	RelayDeliveriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lumen_relay_deliveries_total",
			Help: "Realtime frames queued to clients, by delivery mode",
		},
		[]string{"mode"},
	)

	RelayConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "lumen_relay_connections",
			Help: "Currently connected realtime clients",
		},
	)

	PublishTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lumen_publish_total",
			Help: "Broker publish attempts, by confirm result",
		},
		[]string{"queue", "result"},
	)
)

// Handler 暴露 /metrics
func Handler() http.Handler {
	return promhttp.Handler()
}

// Instrument 包装消费处理函数，记录耗时与结果
func Instrument(queue string, next mq.HandlerFunc) mq.HandlerFunc {
	return func(ctx context.Context, d *mq.Delivery) (err error) {
		start := time.Now()
		defer func() {
			ConsumerHandleSeconds.WithLabelValues(queue).Observe(time.Since(start).Seconds())
			if r := recover(); r != nil {
				ConsumerMessagesTotal.WithLabelValues(queue, mq.OutcomeRequeue.String()).Inc()
				panic(r)
			}
			ConsumerMessagesTotal.WithLabelValues(queue, outcomeOf(d, err).String()).Inc()
		}()
		return next(ctx, d)
	}
}

func outcomeOf(d *mq.Delivery, err error) mq.Outcome {
	if o, ok := d.Settled(); ok {
		return o
	}
	if err != nil {
		return mq.OutcomeRequeue
	}
	return mq.OutcomeAck
}

type instrumentedPublisher struct {
	next mq.Publisher
}

// InstrumentPublisher 统计发布确认结果
func InstrumentPublisher(next mq.Publisher) mq.Publisher {
	return &instrumentedPublisher{next: next}
}

func (s *instrumentedPublisher) Publish(ctx context.Context, queue string, body []byte) error {
	err := s.next.Publish(ctx, queue, body)
	result := "confirmed"
	if err != nil {
		result = "failed"
	}
	PublishTotal.WithLabelValues(queue, result).Inc()
	return err
}
