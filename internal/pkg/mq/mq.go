package mq

import (
	"context"
	"fmt"
	log "log/slog"
	"runtime/debug"
	"sync"
	"time"

	"github.com/pkg/errors"
)

// Outcome 消息处理结果
type Outcome int

const (
	// OutcomeAck 处理成功，确认消息
	OutcomeAck Outcome = iota
	// OutcomeRequeue 暂时性失败，重新投递
	OutcomeRequeue
	// OutcomeDeadLetter 永久性失败，转入死信队列后确认
	OutcomeDeadLetter
)

func (o Outcome) String() string {
	switch o {
	case OutcomeAck:
		return "ack"
	case OutcomeRequeue:
		return "requeue"
	case OutcomeDeadLetter:
		return "dead_letter"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

// DeadLetterSuffix 死信队列后缀
const DeadLetterSuffix = ".dlq"

var ErrAlreadySettled = errors.New("delivery already settled")

// DeadLetterQueue 返回死信队列名称
func DeadLetterQueue(queue string) string {
	return queue + DeadLetterSuffix
}

// Publisher 持久化发布，只有在 broker 确认后才返回 nil
type Publisher interface {
	Publish(ctx context.Context, queue string, body []byte) error
}

// Consumer 阻塞消费直到 ctx 结束
type Consumer interface {
	Consume(ctx context.Context, queue string, concurrency int, handler HandlerFunc) error
}

// Broker 消息中间件的统一抽象
type Broker interface {
	Publisher
	Consumer
	// Declare 声明持久化队列（同时声明对应的死信队列）
	Declare(ctx context.Context, queues ...string) error
	Close() error
}

// HandlerFunc 消费回调，需显式调用 Ack / Nack；返回 error 或 panic 视为暂时性失败
type HandlerFunc func(ctx context.Context, d *Delivery) error

// Delivery 单条投递
type Delivery struct {
	Queue   string
	Body    []byte
	Attempt int

	once    sync.Once
	outcome Outcome
	settled bool
	mu      sync.Mutex
}

// NewDelivery 构造一条投递，Attempt 从 1 开始
func NewDelivery(queue string, body []byte, attempt int) *Delivery {
	if attempt < 1 {
		attempt = 1
	}
	return &Delivery{Queue: queue, Body: body, Attempt: attempt}
}

// Ack 确认消息
func (d *Delivery) Ack() error {
	return d.settle(OutcomeAck)
}

// Nack 拒绝消息，requeue 为 false 时进入死信队列
func (d *Delivery) Nack(requeue bool) error {
	if requeue {
		return d.settle(OutcomeRequeue)
	}
	return d.settle(OutcomeDeadLetter)
}

// Settled 返回是否已确认以及结果
func (d *Delivery) Settled() (Outcome, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.outcome, d.settled
}

func (d *Delivery) settle(o Outcome) error {
	err := ErrAlreadySettled
	d.once.Do(func() {
		d.mu.Lock()
		d.outcome, d.settled = o, true
		d.mu.Unlock()
		err = nil
	})
	return err
}

// Dispatch 执行 handler 并得出最终结果：
// 返回 error 或 panic 且未显式确认时重新投递，正常返回且未确认时视为 Ack
func Dispatch(ctx context.Context, handler HandlerFunc, d *Delivery) (outcome Outcome) {
	defer func() {
		if r := recover(); r != nil {
			log.ErrorContext(ctx, "consumer handler panic",
				"queue", d.Queue, "attempt", d.Attempt, "panic", r, "stack", string(debug.Stack()))
			_ = d.Nack(true)
			outcome, _ = d.Settled()
		}
	}()

	err := handler(ctx, d)
	if err != nil {
		log.WarnContext(ctx, "consumer handler failed", "queue", d.Queue, "attempt", d.Attempt, "err", err)
		_ = d.Nack(true)
	} else {
		_ = d.Ack()
	}
	outcome, _ = d.Settled()
	return outcome
}

// Backoff 重试间隔，100ms 起步翻倍，上限 5s
func Backoff(attempt int) time.Duration {
	interval := 100 * time.Millisecond
	for i := 1; i < attempt; i++ {
		interval *= 2
		if interval >= 5*time.Second {
			return 5 * time.Second
		}
	}
	return interval
}

// Sleep 可被 ctx 打断的等待
func Sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
