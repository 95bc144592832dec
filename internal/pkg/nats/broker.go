package nats

import (
	"Lumen/internal/api/config"
	"Lumen/internal/pkg/logger"
	"Lumen/internal/pkg/mq"
	"context"
	log "log/slog"
	"strings"
	"sync"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/pkg/errors"
	"golang.org/x/sync/semaphore"
)

// Broker 基于 NATS JetStream 的 mq.Broker 实现，每个队列对应一个文件存储的 stream
type Broker struct {
	cfg config.NatsConfig
	nc  *nats.Conn
	js  jetstream.JetStream
}

func NewBroker(cfg config.NatsConfig) (*Broker, error) {
	nc, err := nats.Connect(cfg.URL,
		nats.Name("lumen"),
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				log.Warn("NATS disconnected", "err", err)
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			log.Info("NATS reconnected", "url", c.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, errors.Wrap(err, "connect nats")
	}
	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, errors.Wrap(err, "create jetstream context")
	}
	log.Info("NATS broker connected", "url", cfg.URL)
	return &Broker{cfg: cfg, nc: nc, js: js}, nil
}

// streamName stream 名称不允许出现 . * > 等字符
func (s *Broker) streamName(queue string) string {
	r := strings.NewReplacer(".", "_", "-", "_", "*", "_", ">", "_")
	return strings.ToUpper(s.cfg.StreamPrefix + "_" + r.Replace(queue))
}

func (s *Broker) Declare(ctx context.Context, queues ...string) error {
	replicas := s.cfg.Replicas
	if replicas <= 0 {
		replicas = 1
	}
	for _, q := range queues {
		for _, name := range []string{q, mq.DeadLetterQueue(q)} {
			_, err := s.js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
				Name:      s.streamName(name),
				Subjects:  []string{name},
				Retention: jetstream.WorkQueuePolicy,
				Storage:   jetstream.FileStorage,
				Replicas:  replicas,
				Discard:   jetstream.DiscardOld,
			})
			if err != nil {
				return errors.Wrapf(err, "declare stream for %s", name)
			}
		}
	}
	return nil
}

// Publish 返回 PubAck 即代表已持久化
func (s *Broker) Publish(ctx context.Context, queue string, body []byte) error {
	_, err := s.js.Publish(ctx, queue, body)
	return errors.Wrapf(err, "publish to %s", queue)
}

// Consume 使用持久化 pull consumer，信号量限制同时处理的消息数
func (s *Broker) Consume(ctx context.Context, queue string, concurrency int, handler mq.HandlerFunc) error {
	if concurrency < 1 {
		concurrency = 1
	}
	durable := strings.ToLower(s.streamName(queue)) + "_worker"
	cons, err := s.js.CreateOrUpdateConsumer(ctx, s.streamName(queue), jetstream.ConsumerConfig{
		Durable:       durable,
		AckPolicy:     jetstream.AckExplicitPolicy,
		FilterSubject: queue,
		MaxAckPending: concurrency,
		AckWait:       2 * time.Minute,
	})
	if err != nil {
		return errors.Wrapf(err, "create consumer %s", durable)
	}

	sem := semaphore.NewWeighted(int64(concurrency))
	var wg sync.WaitGroup

	cc, err := cons.Consume(func(msg jetstream.Msg) {
		if err := sem.Acquire(ctx, 1); err != nil {
			return
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer sem.Release(1)
			s.handle(ctx, queue, msg, handler)
		}()
	}, jetstream.PullMaxMessages(concurrency))
	if err != nil {
		return errors.Wrapf(err, "start consumer %s", durable)
	}

	log.Info("NATS consumer started", "queue", queue, "durable", durable, "concurrency", concurrency)
	<-ctx.Done()
	cc.Stop()
	wg.Wait()
	return nil
}

func (s *Broker) handle(parent context.Context, queue string, msg jetstream.Msg, handler mq.HandlerFunc) {
	ctx := logger.WithTrace(parent, "consumer-"+queue)
	attempt := 1
	if meta, err := msg.Metadata(); err == nil {
		attempt = int(meta.NumDelivered)
	}

	var err error
	switch mq.Dispatch(ctx, handler, mq.NewDelivery(queue, msg.Data(), attempt)) {
	case mq.OutcomeAck:
		err = msg.Ack()
	case mq.OutcomeRequeue:
		err = msg.NakWithDelay(mq.Backoff(attempt))
	case mq.OutcomeDeadLetter:
		if err = s.Publish(ctx, mq.DeadLetterQueue(queue), msg.Data()); err != nil {
			// 死信投递失败则重投原消息，避免丢失
			err = msg.NakWithDelay(mq.Backoff(attempt))
			break
		}
		log.WarnContext(ctx, "message dead-lettered", "queue", queue)
		err = msg.Term()
	}
	if err != nil {
		log.ErrorContext(ctx, "NATS settle failed", "queue", queue, "err", err)
	}
}

func (s *Broker) Close() error {
	return s.nc.Drain()
}
