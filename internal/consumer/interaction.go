package consumer

import (
	"Lumen/internal/pkg/events"
	"Lumen/internal/pkg/graph"
	"Lumen/internal/pkg/mq"
	"context"
	"fmt"
	log "log/slog"

	"github.com/pkg/errors"
)

// InteractionConsumer 将点赞 / 关注事件落到图存储
type InteractionConsumer struct {
	graphRepo graph.Repo
}

func NewInteractionConsumer(graphRepo graph.Repo) *InteractionConsumer {
	return &InteractionConsumer{graphRepo: graphRepo}
}

// Handle 图存储写入都是 merge / delete，失败直接返回错误让 broker 重投
func (s *InteractionConsumer) Handle(ctx context.Context, d *mq.Delivery) error {
	event, err := events.ParseInteraction(d.Body)
	if err != nil {
		log.WarnContext(ctx, "drop malformed interaction", "queue", d.Queue, "err", err)
		return d.Nack(false)
	}

	if err = s.apply(ctx, event); err != nil {
		return err
	}
	return d.Ack()
}

func (s *InteractionConsumer) apply(ctx context.Context, event events.Interaction) error {
	switch e := event.(type) {
	case events.LikeEvent:
		if e.Liked {
			return errors.Wrap(s.graphRepo.UpsertLike(ctx, e.UserID, e.ContentID), "upsert like")
		}
		return errors.Wrap(s.graphRepo.RemoveLike(ctx, e.UserID, e.ContentID), "remove like")
	case events.FollowEvent:
		if e.Following {
			return errors.Wrap(s.graphRepo.UpsertFollow(ctx, e.FollowerID, e.FollowedID), "upsert follow")
		}
		return errors.Wrap(s.graphRepo.RemoveFollow(ctx, e.FollowerID, e.FollowedID), "remove follow")
	default:
		return fmt.Errorf("unknown interaction %T", event)
	}
}
