package consumer

import (
	"Lumen/internal/pkg/events"
	"Lumen/internal/pkg/mq"
	"context"
	log "log/slog"
)

// Emitter 把实时事件推给在线连接，返回送达的连接数
type Emitter interface {
	Emit(event events.RealtimeEvent) int
}

// RealtimeConsumer 至多一次推送，不论是否有人在线都确认
type RealtimeConsumer struct {
	emitter Emitter
}

func NewRealtimeConsumer(emitter Emitter) *RealtimeConsumer {
	return &RealtimeConsumer{emitter: emitter}
}

func (s *RealtimeConsumer) Handle(ctx context.Context, d *mq.Delivery) error {
	event, err := events.ParseRealtimeEvent(d.Body)
	if err != nil {
		log.WarnContext(ctx, "drop malformed realtime event", "queue", d.Queue, "err", err)
		return d.Nack(false)
	}

	n := s.emitter.Emit(event)
	log.DebugContext(ctx, "realtime event emitted", "event", event.Event, "room", event.RoomID, "receivers", n)
	return d.Ack()
}
