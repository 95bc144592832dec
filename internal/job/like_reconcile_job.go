package job

import (
	"Lumen/internal/pkg/consts"
	"Lumen/internal/pkg/events"
	"Lumen/internal/pkg/graph"
	"Lumen/internal/pkg/logger"
	"Lumen/internal/pkg/mongo"
	"Lumen/internal/pkg/mq"
	"Lumen/internal/pkg/redis"
	"context"
	"fmt"
	log "log/slog"
	"time"

	"github.com/google/uuid"
)

const likeReconcileLockTTL = 5 * time.Minute

// LikeReconcileJob 对比内容上的点赞集合与图存储 LIKED 边，为漂移补发已解析的交互事件
type LikeReconcileJob struct {
	contentRepo mongo.ContentRepo
	graphRepo   graph.Repo
	publisher   mq.Publisher
	cache       redis.Cache
	queue       string
	window      time.Duration
	limit       int64
	Now         func() time.Time
}

func NewLikeReconcileJob(
	contentRepo mongo.ContentRepo,
	graphRepo graph.Repo,
	publisher mq.Publisher,
	cache redis.Cache,
	queue string,
	window time.Duration,
	limit int64,
) *LikeReconcileJob {
	return &LikeReconcileJob{
		contentRepo: contentRepo,
		graphRepo:   graphRepo,
		publisher:   publisher,
		cache:       cache,
		queue:       queue,
		window:      window,
		limit:       limit,
		Now:         time.Now,
	}
}

func (s *LikeReconcileJob) Run() {
	ctx := logger.WithTrace(context.Background(), "job-like-reconcile")
	n, err := s.Reconcile(ctx)
	if err != nil {
		log.ErrorContext(ctx, "like reconcile failed", "published", n, "err", err)
		return
	}
	log.InfoContext(ctx, "like reconcile finished", "published", n)
}

// Reconcile 返回补发的事件数，未抢到锁时直接返回 0
func (s *LikeReconcileJob) Reconcile(ctx context.Context) (int, error) {
	lockValue := uuid.NewString()
	ok, err := s.cache.TryLock(ctx, consts.LikeReconcileLock, lockValue, likeReconcileLockTTL)
	if err != nil {
		return 0, fmt.Errorf("acquire reconcile lock: %w", err)
	}
	if !ok {
		log.InfoContext(ctx, "like reconcile already running elsewhere")
		return 0, nil
	}
	defer s.cache.UnLock(ctx, consts.LikeReconcileLock, lockValue)

	contents, err := s.contentRepo.ListSince(ctx, s.Now().Add(-s.window), s.limit)
	if err != nil {
		return 0, fmt.Errorf("list recent contents: %w", err)
	}

	published := 0
	for _, content := range contents {
		contentID := content.ID.Hex()
		likers, err := s.graphRepo.ListLikers(ctx, contentID)
		if err != nil {
			log.WarnContext(ctx, "list graph likers failed", "content_id", contentID, "err", err)
			continue
		}

		drift := likeDrift(contentID, content.Likes, likers)
		if len(drift) == 0 {
			continue
		}
		drift, err = s.confirmDrift(ctx, contentID, likers, drift)
		if err != nil {
			log.WarnContext(ctx, "re-read content failed", "content_id", contentID, "err", err)
			continue
		}
		for _, e := range drift {
			body, err := events.EncodeInteraction(e)
			if err != nil {
				return published, err
			}
			if err = s.publisher.Publish(ctx, s.queue, body); err != nil {
				return published, fmt.Errorf("publish reconcile event: %w", err)
			}
			published++
		}
		if len(drift) > 0 {
			log.InfoContext(ctx, "like drift repaired", "content_id", contentID, "events", len(drift))
		}
	}
	return published, nil
}

// confirmDrift 发布前重读内容，只保留两次读取都存在的漂移，内容已删除时不补发
func (s *LikeReconcileJob) confirmDrift(ctx context.Context, contentID string, likers []uint64, drift []events.Interaction) ([]events.Interaction, error) {
	fresh, err := s.contentRepo.GetByID(ctx, contentID)
	if err != nil || fresh == nil {
		return nil, err
	}
	still := make(map[events.Interaction]struct{})
	for _, e := range likeDrift(contentID, fresh.Likes, likers) {
		still[e] = struct{}{}
	}
	confirmed := drift[:0]
	for _, e := range drift {
		if _, ok := still[e]; ok {
			confirmed = append(confirmed, e)
		}
	}
	return confirmed, nil
}

// likeDrift 点赞集合为准：集合中有而图中没有的补 LIKE，图中多出来的补 UNLIKE
func likeDrift(contentID string, likes, likers []uint64) []events.Interaction {
	inGraph := make(map[uint64]struct{}, len(likers))
	for _, u := range likers {
		inGraph[u] = struct{}{}
	}
	inDoc := make(map[uint64]struct{}, len(likes))

	var drift []events.Interaction
	for _, u := range likes {
		inDoc[u] = struct{}{}
		if _, ok := inGraph[u]; !ok {
			drift = append(drift, events.NewLikeEvent(u, contentID, true))
		}
	}
	for _, u := range likers {
		if _, ok := inDoc[u]; !ok {
			drift = append(drift, events.NewLikeEvent(u, contentID, false))
		}
	}
	return drift
}
