package service

import (
	"Lumen/internal/pkg/events"
	"Lumen/internal/pkg/mq"
	"context"
	log "log/slog"
)

// realtimeNotifier 发布实时事件，失败只记录日志
type realtimeNotifier struct {
	publisher mq.Publisher
	queue     string
}

func (s realtimeNotifier) notify(ctx context.Context, event string, data any, room string) {
	if s.publisher == nil || s.queue == "" {
		return
	}
	e, err := events.NewRealtimeEvent(event, data, room)
	if err != nil {
		log.WarnContext(ctx, "build realtime event failed", "event", event, "err", err)
		return
	}
	body, err := events.EncodeRealtimeEvent(e)
	if err != nil {
		log.WarnContext(ctx, "encode realtime event failed", "event", event, "err", err)
		return
	}
	if err = s.publisher.Publish(ctx, s.queue, body); err != nil {
		log.WarnContext(ctx, "publish realtime event failed", "event", event, "room", room, "err", err)
	}
}
