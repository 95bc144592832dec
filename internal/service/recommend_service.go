package service

import (
	"Lumen/internal/api/config"
	"Lumen/internal/api/dto"
	"Lumen/internal/pkg/consts"
	"Lumen/internal/pkg/graph"
	"Lumen/internal/pkg/mongo"
	"Lumen/internal/pkg/redis"
	"Lumen/internal/pkg/util"
	"context"
	"errors"
	"fmt"
	log "log/slog"
	"math/rand/v2"
	"time"

	"github.com/goccy/go-json"
	"github.com/sony/gobreaker/v2"
)

type RecommendService interface {
	GetRecommendations(ctx context.Context, userID uint64, q *dto.RecommendationQuery) (*dto.RecommendationPage, error)
	// GetExplore 额外排除已关注作者的内容
	GetExplore(ctx context.Context, userID uint64, q *dto.RecommendationQuery) (*dto.RecommendationPage, error)
}

// BackfillSource 补量候选来源，GetByIDs 用于剔除图中残留的已删除内容
type BackfillSource interface {
	Sample(ctx context.Context, filter mongo.SampleFilter, n int, seed *uint64, pool int) ([]string, error)
	GetByIDs(ctx context.Context, ids []string) ([]*mongo.ContentModel, error)
}

type RecommendServiceImpl struct {
	graphRepo graph.Repo
	backfill  BackfillSource
	cache     redis.Cache
	cfg       config.RecommendConfig
	breaker   *gobreaker.CircuitBreaker[[]graph.ScoredContent]
}

func NewRecommendService(graphRepo graph.Repo, backfill BackfillSource, cache redis.Cache, cfg config.RecommendConfig) RecommendService {
	maxFailures := cfg.Breaker.MaxFailures
	if maxFailures == 0 {
		maxFailures = 5
	}
	breaker := gobreaker.NewCircuitBreaker[[]graph.ScoredContent](gobreaker.Settings{
		Name:        "recommend-graph",
		MaxRequests: 1,
		Timeout:     time.Duration(cfg.Breaker.Timeout) * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= maxFailures
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn("circuit breaker state changed", "name", name, "from", from.String(), "to", to.String())
		},
	})

	return &RecommendServiceImpl{
		graphRepo: graphRepo,
		backfill:  backfill,
		cache:     cache,
		cfg:       cfg,
		breaker:   breaker,
	}
}

func (s *RecommendServiceImpl) GetRecommendations(ctx context.Context, userID uint64, q *dto.RecommendationQuery) (*dto.RecommendationPage, error) {
	return s.recommend(ctx, userID, q, false)
}

func (s *RecommendServiceImpl) GetExplore(ctx context.Context, userID uint64, q *dto.RecommendationQuery) (*dto.RecommendationPage, error) {
	return s.recommend(ctx, userID, q, true)
}

func (s *RecommendServiceImpl) recommend(ctx context.Context, userID uint64, q *dto.RecommendationQuery, explore bool) (*dto.RecommendationPage, error) {
	if q == nil {
		q = &dto.RecommendationQuery{}
	}
	if err := util.ValidateDTO(q); err != nil {
		return nil, ErrRecommendSessionBad
	}
	page, pageSize := normalizePage(q.Page, q.PageSize, s.cfg.DefaultPageSize, s.cfg.MaxPageSize)

	var seed *uint64
	cacheKey := ""
	if s.cfg.Policy == consts.RecommendPolicySession && q.SessionID != "" {
		v := util.SessionSeed(userID, q.SessionID)
		seed = &v
		cacheKey = sessionPageKey(userID, q.SessionID, page, pageSize, explore)
		if cached := s.loadPage(ctx, cacheKey); cached != nil {
			return cached, nil
		}
	}

	items := s.scored(ctx, userID, page, pageSize)

	if len(items) < pageSize {
		filler := s.backfillItems(ctx, userID, items, pageSize-len(items), seed, explore)
		items = append(items, filler...)
	}

	shuffle(items, seed)

	result := &dto.RecommendationPage{
		Items:   items,
		HasMore: len(items) > 0 && len(items) >= pageSize,
	}
	if cacheKey != "" {
		s.storePage(ctx, cacheKey, result)
	}
	return result, nil
}

// scored 图读取失败或熔断打开时返回空集，整页依赖补量
func (s *RecommendServiceImpl) scored(ctx context.Context, userID uint64, page, pageSize int) []string {
	candidates, err := s.breaker.Execute(func() ([]graph.ScoredContent, error) {
		return s.graphRepo.ScoreCandidates(ctx, userID, graph.ScoreQuery{
			Lambda:      s.cfg.Lambda,
			FallbackAge: time.Duration(s.cfg.FallbackAge) * time.Second,
			Skip:        (page - 1) * pageSize,
			Limit:       pageSize,
		})
	})
	if err != nil {
		log.WarnContext(ctx, "recommend scoring degraded to backfill", "user_id", userID, "err", err)
		return make([]string, 0, pageSize)
	}

	items := make([]string, 0, pageSize)
	for _, c := range candidates {
		items = append(items, c.ContentID)
	}
	return s.existing(ctx, items)
}

// existing 过滤掉文档库中已不存在的内容，查询失败时原样返回
func (s *RecommendServiceImpl) existing(ctx context.Context, ids []string) []string {
	if len(ids) == 0 {
		return ids
	}
	list, err := s.backfill.GetByIDs(ctx, ids)
	if err != nil {
		log.WarnContext(ctx, "recommend existence check failed", "err", err)
		return ids
	}
	alive := make(map[string]struct{}, len(list))
	for _, c := range list {
		alive[c.ID.Hex()] = struct{}{}
	}
	out := ids[:0]
	for _, id := range ids {
		if _, ok := alive[id]; ok {
			out = append(out, id)
		} else {
			log.DebugContext(ctx, "drop scored content missing from store", "content_id", id)
		}
	}
	return out
}

func (s *RecommendServiceImpl) backfillItems(ctx context.Context, userID uint64, selected []string, n int, seed *uint64, explore bool) []string {
	filter := mongo.SampleFilter{
		ExcludeIDs:     append([]string(nil), selected...),
		ExcludeAuthors: []uint64{userID},
		NotLikedBy:     userID,
	}
	if explore {
		following, err := s.graphRepo.ListFollowing(ctx, userID)
		if err != nil {
			log.WarnContext(ctx, "explore following lookup failed", "user_id", userID, "err", err)
		}
		filter.ExcludeAuthors = append(filter.ExcludeAuthors, following...)
	}

	ids, err := s.backfill.Sample(ctx, filter, n, seed, s.cfg.BackfillPool)
	if err != nil {
		log.WarnContext(ctx, "recommend backfill failed", "user_id", userID, "err", err)
		return nil
	}

	seen := make(map[string]struct{}, len(selected)+len(ids))
	for _, id := range selected {
		seen[id] = struct{}{}
	}
	out := make([]string, 0, n)
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
		if len(out) == n {
			break
		}
	}
	return out
}

func (s *RecommendServiceImpl) loadPage(ctx context.Context, key string) *dto.RecommendationPage {
	value, err := s.cache.Get(ctx, key)
	if err != nil || value == "" {
		return nil
	}
	var page dto.RecommendationPage
	if err = json.Unmarshal([]byte(value), &page); err != nil {
		return nil
	}
	return &page
}

func (s *RecommendServiceImpl) storePage(ctx context.Context, key string, page *dto.RecommendationPage) {
	value, err := json.Marshal(page)
	if err != nil {
		return
	}
	if err = s.cache.Set(ctx, key, string(value), time.Duration(s.cfg.SessionTTL)*time.Second); err != nil {
		log.WarnContext(ctx, "recommend page cache write failed", "key", key, "err", err)
	}
}

func sessionPageKey(userID uint64, sessionID string, page, pageSize int, explore bool) string {
	prefix := consts.RecommendPageKey
	if explore {
		prefix = consts.RecommendExploreKey
	}
	return fmt.Sprintf("%s%d:%s:%d:%d", prefix, userID, sessionID, page, pageSize)
}

// shuffle 会话模式下使用固定种子，保证同一会话同一页顺序稳定
func shuffle(items []string, seed *uint64) {
	swap := func(i, j int) { items[i], items[j] = items[j], items[i] }
	if seed == nil {
		rand.Shuffle(len(items), swap)
		return
	}
	rand.New(rand.NewPCG(*seed, ^*seed)).Shuffle(len(items), swap)
}
