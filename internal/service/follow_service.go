package service

import (
	"Lumen/internal/api/config"
	"Lumen/internal/api/dto"
	"Lumen/internal/pkg/events"
	"Lumen/internal/pkg/graph"
	"Lumen/internal/pkg/mq"
	"context"
	"fmt"
	log "log/slog"

	"golang.org/x/sync/errgroup"
)

type FollowService interface {
	ToggleFollow(ctx context.Context, followerID, followedID uint64) (*dto.FollowToggleDTO, error)
	GetFollowStatus(ctx context.Context, viewerID, targetID uint64) (*dto.FollowStatusDTO, error)
	ListFollowing(ctx context.Context, userID uint64) ([]uint64, error)
}

type FollowServiceImpl struct {
	graphRepo graph.Repo
	publisher mq.Publisher
	queues    config.QueueNames
	realtime  realtimeNotifier
}

func NewFollowService(graphRepo graph.Repo, publisher mq.Publisher, queues config.QueueNames) FollowService {
	return &FollowServiceImpl{
		graphRepo: graphRepo,
		publisher: publisher,
		queues:    queues,
		realtime:  realtimeNotifier{publisher: publisher, queue: queues.Realtime},
	}
}

// ToggleFollow 同步切换关系边，并发布已决议的 FOLLOW / UNFOLLOW 事件
// 边写入失败时由消费者重放事件补齐，两者都失败才返回错误
func (s *FollowServiceImpl) ToggleFollow(ctx context.Context, followerID, followedID uint64) (*dto.FollowToggleDTO, error) {
	if followerID == followedID {
		return nil, ErrUserFollowSelf
	}
	if followerID == 0 || followedID == 0 {
		return nil, ErrParamInvalid
	}

	exists, err := s.graphRepo.FollowExists(ctx, followerID, followedID)
	if err != nil {
		return nil, fmt.Errorf("resolve follow state: %w", err)
	}
	following := !exists

	var applyErr error
	if following {
		applyErr = s.graphRepo.UpsertFollow(ctx, followerID, followedID)
	} else {
		applyErr = s.graphRepo.RemoveFollow(ctx, followerID, followedID)
	}
	if applyErr != nil {
		log.WarnContext(ctx, "follow edge apply failed, relying on event replay",
			"follower", followerID, "followed", followedID, "following", following, "err", applyErr)
	}

	pubErr := s.publishInteraction(ctx, events.NewFollowEvent(followerID, followedID, following))
	if pubErr != nil {
		log.ErrorContext(ctx, "publish follow event failed",
			"follower", followerID, "followed", followedID, "err", pubErr)
		if applyErr != nil {
			return nil, ErrEventPublish
		}
	}

	if following {
		s.realtime.notify(ctx, events.RealtimeNewFollower,
			map[string]uint64{"followerId": followerID}, events.UserRoom(followedID))
	}
	return &dto.FollowToggleDTO{Following: following}, nil
}

// GetFollowStatus 读时遍历图计算，不做缓存
func (s *FollowServiceImpl) GetFollowStatus(ctx context.Context, viewerID, targetID uint64) (*dto.FollowStatusDTO, error) {
	if targetID == 0 {
		return nil, ErrParamInvalid
	}
	status := &dto.FollowStatusDTO{}

	g, gCtx := errgroup.WithContext(ctx)
	if viewerID != 0 && viewerID != targetID {
		g.Go(func() error {
			ok, err := s.graphRepo.FollowExists(gCtx, viewerID, targetID)
			status.Following = ok
			return err
		})
	}
	g.Go(func() error {
		n, err := s.graphRepo.CountFollowers(gCtx, targetID)
		status.FollowerCount = n
		return err
	})
	g.Go(func() error {
		n, err := s.graphRepo.CountFollowing(gCtx, targetID)
		status.FollowingCount = n
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return status, nil
}

func (s *FollowServiceImpl) ListFollowing(ctx context.Context, userID uint64) ([]uint64, error) {
	ids, err := s.graphRepo.ListFollowing(ctx, userID)
	if err != nil {
		return nil, err
	}
	if ids == nil {
		ids = []uint64{}
	}
	return ids, nil
}

func (s *FollowServiceImpl) publishInteraction(ctx context.Context, e events.Interaction) error {
	body, err := events.EncodeInteraction(e)
	if err != nil {
		return err
	}
	return s.publisher.Publish(ctx, s.queues.Interactions, body)
}
