package consumer

import (
	"Lumen/internal/pkg/logger"
	"Lumen/internal/pkg/metrics"
	"Lumen/internal/pkg/mq"
	"context"
	"fmt"
	log "log/slog"

	"golang.org/x/sync/errgroup"
)

// 消费者名称，对应 worker 的 -consumer 参数
const (
	NameInteraction = "interaction"
	NameProfileSync = "profile-sync"
	NameMediaTag    = "media-tag"
	NameRealtime    = "realtime"
)

// Spec 一个队列的消费配置
type Spec struct {
	Name        string
	Queue       string
	Concurrency int
	Handler     mq.HandlerFunc
}

// Manager 统一启动并托管各个消费者
type Manager struct {
	consumer mq.Consumer
	specs    []Spec
}

func NewManager(consumer mq.Consumer, specs ...Spec) *Manager {
	return &Manager{consumer: consumer, specs: specs}
}

// Select 只保留指定名称的消费者，names 为空时保留全部
func (m *Manager) Select(names ...string) (*Manager, error) {
	if len(names) == 0 {
		return m, nil
	}
	byName := make(map[string]Spec, len(m.specs))
	for _, spec := range m.specs {
		byName[spec.Name] = spec
	}
	selected := make([]Spec, 0, len(names))
	for _, name := range names {
		spec, ok := byName[name]
		if !ok {
			return nil, fmt.Errorf("unknown consumer %q", name)
		}
		selected = append(selected, spec)
	}
	return &Manager{consumer: m.consumer, specs: selected}, nil
}

// Specs 当前托管的消费者
func (m *Manager) Specs() []Spec {
	return m.specs
}

// Queues 需要声明的队列
func (m *Manager) Queues() []string {
	queues := make([]string, 0, len(m.specs))
	for _, spec := range m.specs {
		queues = append(queues, spec.Queue)
	}
	return queues
}

// Start 阻塞直到 ctx 结束或某个消费者返回错误
func (m *Manager) Start(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	for _, spec := range m.specs {
		g.Go(func() error {
			concurrency := max(spec.Concurrency, 1)
			log.Info("consumer started", "name", spec.Name, "queue", spec.Queue, "concurrency", concurrency)
			err := m.consumer.Consume(ctx, spec.Queue, concurrency, Traced(spec.Queue, metrics.Instrument(spec.Queue, spec.Handler)))
			if err != nil {
				return fmt.Errorf("consumer %s: %w", spec.Name, err)
			}
			log.Info("consumer stopped", "name", spec.Name)
			return nil
		})
	}
	return g.Wait()
}

// Traced 为没有 trace_id 的投递补一个
func Traced(queue string, next mq.HandlerFunc) mq.HandlerFunc {
	return func(ctx context.Context, d *mq.Delivery) error {
		if logger.TraceID(ctx) == "" {
			ctx = logger.WithTrace(ctx, "consumer-"+queue)
		}
		return next(ctx, d)
	}
}
