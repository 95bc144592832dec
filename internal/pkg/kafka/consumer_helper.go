package kafka

import (
	"Lumen/internal/pkg/logger"
	"Lumen/internal/pkg/mq"
	"context"
	log "log/slog"
	"sync"
	"time"

	"github.com/IBM/sarama"
)

const batchTimeout = 1 * time.Second

// groupHandler 将 sarama 的消费组回调适配到 mq.HandlerFunc
type groupHandler struct {
	queue      string
	batchSize  int
	handler    mq.HandlerFunc
	deadLetter func(ctx context.Context, queue string, body []byte) error
}

func (s *groupHandler) Setup(sarama.ConsumerGroupSession) error {
	log.Info("kafka consumer setup", "queue", s.queue)
	return nil
}

func (s *groupHandler) Cleanup(sarama.ConsumerGroupSession) error {
	log.Info("kafka consumer cleanup", "queue", s.queue)
	return nil
}

func (s *groupHandler) ConsumeClaim(session sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	log.Info("kafka consume claim", "queue", s.queue, "partition", claim.Partition())
	return s.pullMessageBatch(session, claim)
}

// pullMessageBatch 攒批拉取消息，批大小即消费并发度
func (s *groupHandler) pullMessageBatch(session sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	batch := make([]*sarama.ConsumerMessage, 0, s.batchSize)
	ticker := time.NewTicker(batchTimeout)
	defer ticker.Stop()
	for {
		select {
		case msg, ok := <-claim.Messages():
			if !ok {
				if len(batch) > 0 {
					s.processBatch(session, batch)
				}
				return nil
			}
			batch = append(batch, msg)
			if len(batch) >= s.batchSize {
				s.processBatch(session, batch)
				// 清空缓冲区 & 重置定时器
				batch = make([]*sarama.ConsumerMessage, 0, s.batchSize)
				ticker.Reset(batchTimeout)
			}
		case <-ticker.C:
			if len(batch) > 0 {
				s.processBatch(session, batch)
				batch = make([]*sarama.ConsumerMessage, 0, s.batchSize)
			}
		case <-session.Context().Done():
			return nil
		}
	}
}

// processBatch 并发处理一批消息，只提交连续处理成功的前缀位点
func (s *groupHandler) processBatch(session sarama.ConsumerGroupSession, messages []*sarama.ConsumerMessage) {
	var wg sync.WaitGroup
	done := make([]bool, len(messages))

	for i, msg := range messages {
		wg.Add(1)
		go func(i int, m *sarama.ConsumerMessage) {
			defer wg.Done()
			done[i] = s.handleWithRetry(session.Context(), m)
		}(i, msg)
	}
	wg.Wait()

	marked := 0
	for i, msg := range messages {
		if !done[i] {
			break
		}
		session.MarkMessage(msg, "")
		marked++
	}
	if marked > 0 {
		session.Commit()
	}
}

// handleWithRetry kafka 无法单条重投，requeue 在原地退避重试直到成功或会话结束
func (s *groupHandler) handleWithRetry(sessionCtx context.Context, m *sarama.ConsumerMessage) bool {
	for attempt := 1; ; attempt++ {
		ctx := logger.WithTrace(sessionCtx, "consumer-"+s.queue)
		d := mq.NewDelivery(s.queue, m.Value, attempt)

		switch mq.Dispatch(ctx, s.handler, d) {
		case mq.OutcomeAck:
			return true
		case mq.OutcomeDeadLetter:
			return s.forwardDeadLetter(ctx, m)
		}

		if !mq.Sleep(sessionCtx, mq.Backoff(attempt)) {
			return false
		}
	}
}

func (s *groupHandler) forwardDeadLetter(ctx context.Context, m *sarama.ConsumerMessage) bool {
	dlq := mq.DeadLetterQueue(s.queue)
	for attempt := 1; ; attempt++ {
		err := s.deadLetter(ctx, dlq, m.Value)
		if err == nil {
			log.WarnContext(ctx, "message dead-lettered", "queue", s.queue, "offset", m.Offset, "partition", m.Partition)
			return true
		}
		log.ErrorContext(ctx, "dead-letter publish failed", "queue", dlq, "err", err)
		if !mq.Sleep(ctx, mq.Backoff(attempt)) {
			return false
		}
	}
}
