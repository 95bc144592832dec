package mq

import (
	"context"
	log "log/slog"
	"sync"

	"github.com/pkg/errors"
)

var ErrBrokerClosed = errors.New("broker closed")

type memoryMessage struct {
	body    []byte
	attempt int
}

type memoryQueue struct {
	items  []memoryMessage
	notify chan struct{}
}

// MemoryBroker 进程内 broker，用于本地开发与测试
type MemoryBroker struct {
	mu     sync.Mutex
	queues map[string]*memoryQueue
	closed bool
	// FailPublish 不为 nil 时 Publish 直接返回该错误，模拟 broker 未确认
	FailPublish error
	// MaxAttempts 大于 0 时，超过次数的重投消息转入死信队列
	MaxAttempts int
}

func NewMemoryBroker() *MemoryBroker {
	return &MemoryBroker{queues: make(map[string]*memoryQueue)}
}

func (s *MemoryBroker) queue(name string) *memoryQueue {
	q, ok := s.queues[name]
	if !ok {
		q = &memoryQueue{notify: make(chan struct{}, 1)}
		s.queues[name] = q
	}
	return q
}

func (s *MemoryBroker) Declare(_ context.Context, queues ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, name := range queues {
		s.queue(name)
		s.queue(DeadLetterQueue(name))
	}
	return nil
}

func (s *MemoryBroker) Publish(_ context.Context, queue string, body []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrBrokerClosed
	}
	if s.FailPublish != nil {
		return s.FailPublish
	}
	s.push(queue, memoryMessage{body: append([]byte(nil), body...), attempt: 1})
	return nil
}

func (s *MemoryBroker) push(queue string, m memoryMessage) {
	q := s.queue(queue)
	q.items = append(q.items, m)
	select {
	case q.notify <- struct{}{}:
	default:
	}
}

func (s *MemoryBroker) pop(queue string) (memoryMessage, chan struct{}, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	q := s.queue(queue)
	if len(q.items) == 0 {
		return memoryMessage{}, q.notify, false
	}
	m := q.items[0]
	q.items = q.items[1:]
	if len(q.items) > 0 {
		select {
		case q.notify <- struct{}{}:
		default:
		}
	}
	return m, q.notify, true
}

// Consume 启动 concurrency 个 worker，每个 worker 一次只处理一条消息
func (s *MemoryBroker) Consume(ctx context.Context, queue string, concurrency int, handler HandlerFunc) error {
	if concurrency < 1 {
		concurrency = 1
	}
	var wg sync.WaitGroup
	for i := 0; i < concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for ctx.Err() == nil {
				m, notify, ok := s.pop(queue)
				if !ok {
					select {
					case <-ctx.Done():
						return
					case <-notify:
						continue
					}
				}
				outcome := Dispatch(ctx, handler, NewDelivery(queue, m.body, m.attempt))
				if outcome == OutcomeRequeue {
					Sleep(ctx, Backoff(m.attempt))
				}
				s.settle(queue, m, outcome)
			}
		}()
	}
	wg.Wait()
	return nil
}

// Drain 同步处理调用时队列中已有的消息，重投的消息留到下一次 Drain，返回处理条数
func (s *MemoryBroker) Drain(ctx context.Context, queue string, handler HandlerFunc) int {
	s.mu.Lock()
	total := len(s.queue(queue).items)
	s.mu.Unlock()

	n := 0
	for ; n < total && ctx.Err() == nil; n++ {
		m, _, ok := s.pop(queue)
		if !ok {
			break
		}
		s.settle(queue, m, Dispatch(ctx, handler, NewDelivery(queue, m.body, m.attempt)))
	}
	return n
}

func (s *MemoryBroker) settle(queue string, m memoryMessage, outcome Outcome) {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch outcome {
	case OutcomeRequeue:
		m.attempt++
		if s.MaxAttempts > 0 && m.attempt > s.MaxAttempts {
			log.Warn("memory broker: max attempts exceeded, dead-lettering", "queue", queue, "attempt", m.attempt)
			s.push(DeadLetterQueue(queue), m)
			return
		}
		s.push(queue, m)
	case OutcomeDeadLetter:
		s.push(DeadLetterQueue(queue), m)
	}
}

// Pending 返回队列中未消费的消息
func (s *MemoryBroker) Pending(queue string) [][]byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	q := s.queue(queue)
	out := make([][]byte, 0, len(q.items))
	for _, m := range q.items {
		out = append(out, m.body)
	}
	return out
}

func (s *MemoryBroker) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}
