package service

import (
	"Lumen/internal/api/config"
	"Lumen/internal/api/dto"
	"Lumen/internal/pkg/events"
	"Lumen/internal/pkg/graph"
	"Lumen/internal/pkg/mongo"
	"Lumen/internal/pkg/mq"
	"context"
	"errors"
	log "log/slog"

	mongodrv "go.mongodb.org/mongo-driver/mongo"
)

type LikeService interface {
	ToggleLike(ctx context.Context, userID uint64, contentID string) (*dto.LikeResultDTO, error)
}

type LikeServiceImpl struct {
	contentRepo mongo.ContentRepo
	graphRepo   graph.Repo
	publisher   mq.Publisher
	queues      config.QueueNames
	realtime    realtimeNotifier
}

func NewLikeService(contentRepo mongo.ContentRepo, graphRepo graph.Repo, publisher mq.Publisher, queues config.QueueNames) LikeService {
	return &LikeServiceImpl{
		contentRepo: contentRepo,
		graphRepo:   graphRepo,
		publisher:   publisher,
		queues:      queues,
		realtime:    realtimeNotifier{publisher: publisher, queue: queues.Realtime},
	}
}

// ToggleLike 文档库中的点赞集合是权威数据，图中的 LIKED 边由事件异步同步
// 事件发布失败时直接同步写边，请求仍然成功
func (s *LikeServiceImpl) ToggleLike(ctx context.Context, userID uint64, contentID string) (*dto.LikeResultDTO, error) {
	if userID == 0 || contentID == "" {
		return nil, ErrParamInvalid
	}

	content, err := s.contentRepo.GetByID(ctx, contentID)
	if err != nil {
		return nil, err
	}
	if content == nil {
		return nil, ErrContentNotFound
	}

	liked, count, err := s.contentRepo.ToggleLike(ctx, contentID, userID)
	if err != nil {
		if errors.Is(err, mongodrv.ErrNoDocuments) {
			return nil, ErrContentNotFound
		}
		return nil, err
	}

	event := events.NewLikeEvent(userID, contentID, liked)
	if pubErr := s.publishInteraction(ctx, event); pubErr != nil {
		log.WarnContext(ctx, "publish like event failed, applying edge inline",
			"user_id", userID, "content_id", contentID, "liked", liked, "err", pubErr)
		var applyErr error
		if liked {
			applyErr = s.graphRepo.UpsertLike(ctx, userID, contentID)
		} else {
			applyErr = s.graphRepo.RemoveLike(ctx, userID, contentID)
		}
		if applyErr != nil {
			log.ErrorContext(ctx, "inline like edge apply failed, left for reconcile",
				"user_id", userID, "content_id", contentID, "err", applyErr)
		}
	}

	if liked && content.AuthorID != userID {
		s.realtime.notify(ctx, events.RealtimePostLiked, map[string]any{
			"contentId": contentID,
			"userId":    userID,
			"likeCount": count,
		}, events.UserRoom(content.AuthorID))
	}

	return &dto.LikeResultDTO{Liked: liked, LikeCount: count}, nil
}

func (s *LikeServiceImpl) publishInteraction(ctx context.Context, e events.Interaction) error {
	body, err := events.EncodeInteraction(e)
	if err != nil {
		return err
	}
	return s.publisher.Publish(ctx, s.queues.Interactions, body)
}
