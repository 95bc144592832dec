package service

import (
	"Lumen/internal/api/config"
	"Lumen/internal/api/dto"
	"Lumen/internal/consumer"
	"Lumen/internal/pkg/consts"
	"Lumen/internal/pkg/graph"
	"Lumen/internal/pkg/mq"
	"Lumen/internal/pkg/redis"
	"context"
	"errors"
	"testing"
	"time"
)

func testRecommendConfig() config.RecommendConfig {
	return config.RecommendConfig{
		Lambda:          graph.DefaultLambda,
		FallbackAge:     30 * 24 * 3600,
		DefaultPageSize: 15,
		MaxPageSize:     50,
		Policy:          consts.RecommendPolicyFresh,
		SessionTTL:      60,
		BackfillPool:    100,
		Breaker:         config.BreakerConfig{MaxFailures: 3, Timeout: 30},
	}
}

// seedScored 构造 me 的两个协同过滤候选 (scoredA 共同点赞者更多)
func seedScored(t *testing.T, g *graph.MemoryRepo, contents *fakeContentRepo, me uint64) (liked, scoredA, scoredB string) {
	t.Helper()
	ctx := context.Background()
	liked = contents.add(50, me, 2, 3)
	scoredA = contents.add(60, 2, 3)
	scoredB = contents.add(60, 2)
	_ = g.UpsertLike(ctx, me, liked)
	_ = g.UpsertLike(ctx, 2, liked)
	_ = g.UpsertLike(ctx, 3, liked)
	_ = g.UpsertLike(ctx, 2, scoredA)
	_ = g.UpsertLike(ctx, 3, scoredA)
	_ = g.UpsertLike(ctx, 2, scoredB)
	now := time.Now()
	_ = g.UpsertContent(ctx, scoredA, 60, now)
	_ = g.UpsertContent(ctx, scoredB, 60, now)
	return liked, scoredA, scoredB
}

func TestRecommendBackfillCompleteness(t *testing.T) {
	ctx := context.Background()
	const me = uint64(1)
	g := graph.NewMemoryRepo()
	contents := newFakeContentRepo()
	liked, scoredA, scoredB := seedScored(t, g, contents, me)

	own := map[string]bool{}
	for i := 0; i < 5; i++ {
		own[contents.add(me)] = true
	}
	for i := 0; i < 30; i++ {
		contents.add(uint64(100 + i))
	}

	svc := NewRecommendService(g, contents, redis.NewMemoryCache(), testRecommendConfig())
	page, err := svc.GetRecommendations(ctx, me, &dto.RecommendationQuery{Page: 1, PageSize: 15})
	if err != nil {
		t.Fatalf("GetRecommendations() error = %v", err)
	}
	if len(page.Items) != 15 || !page.HasMore {
		t.Fatalf("page = %d items, hasMore %v; want 15, true", len(page.Items), page.HasMore)
	}

	seen := map[string]bool{}
	backfilled := 0
	for _, id := range page.Items {
		if seen[id] {
			t.Errorf("duplicate id %s", id)
		}
		seen[id] = true
		if id == liked || own[id] {
			t.Errorf("id %s must be excluded (liked or own content)", id)
		}
		if id != scoredA && id != scoredB {
			backfilled++
		}
	}
	if !seen[scoredA] || !seen[scoredB] {
		t.Error("scored candidates missing from the page")
	}
	if backfilled != 13 {
		t.Errorf("backfilled = %d, want 13", backfilled)
	}
}

func TestRecommendShortPageEndsStream(t *testing.T) {
	ctx := context.Background()
	g := graph.NewMemoryRepo()
	contents := newFakeContentRepo()
	seedScored(t, g, contents, 1)
	contents.add(200)

	svc := NewRecommendService(g, contents, redis.NewMemoryCache(), testRecommendConfig())
	page, err := svc.GetRecommendations(ctx, 1, &dto.RecommendationQuery{PageSize: 15})
	if err != nil {
		t.Fatal(err)
	}
	if len(page.Items) != 3 || page.HasMore {
		t.Errorf("page = %+v, want 3 items and hasMore false", page)
	}
}

func TestRecommendEverythingLiked(t *testing.T) {
	contents := newFakeContentRepo()
	contents.add(2, 1)
	contents.add(3, 1)
	svc := NewRecommendService(graph.NewMemoryRepo(), contents, redis.NewMemoryCache(), testRecommendConfig())

	page, err := svc.GetRecommendations(context.Background(), 1, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(page.Items) != 0 || page.HasMore {
		t.Errorf("page = %+v, want empty and hasMore false", page)
	}
}

func TestRecommendGraphDownFallsBackToBackfill(t *testing.T) {
	g := graph.NewMemoryRepo()
	g.SetErr(errors.New("neo4j unavailable"))
	contents := newFakeContentRepo()
	for i := 0; i < 20; i++ {
		contents.add(uint64(100 + i))
	}
	svc := NewRecommendService(g, contents, redis.NewMemoryCache(), testRecommendConfig())

	for i := 0; i < 5; i++ {
		page, err := svc.GetRecommendations(context.Background(), 1, &dto.RecommendationQuery{PageSize: 10})
		if err != nil {
			t.Fatalf("call %d error = %v", i, err)
		}
		if len(page.Items) != 10 {
			t.Fatalf("call %d items = %d, want 10 from backfill", i, len(page.Items))
		}
	}
}

func TestExploreExcludesFollowedAuthors(t *testing.T) {
	ctx := context.Background()
	g := graph.NewMemoryRepo()
	_ = g.UpsertFollow(ctx, 1, 7)
	contents := newFakeContentRepo()
	followed := contents.add(7)
	other := contents.add(8)

	svc := NewRecommendService(g, contents, redis.NewMemoryCache(), testRecommendConfig())

	feed, _ := svc.GetRecommendations(ctx, 1, &dto.RecommendationQuery{PageSize: 5})
	if len(feed.Items) != 2 {
		t.Errorf("recommendations = %v, want both items", feed.Items)
	}
	explore, err := svc.GetExplore(ctx, 1, &dto.RecommendationQuery{PageSize: 5})
	if err != nil {
		t.Fatal(err)
	}
	if len(explore.Items) != 1 || explore.Items[0] != other {
		t.Errorf("explore = %v, want only %s (not %s)", explore.Items, other, followed)
	}
}

func TestRecommendSessionPolicyIsStable(t *testing.T) {
	ctx := context.Background()
	contents := newFakeContentRepo()
	for i := 0; i < 12; i++ {
		contents.add(uint64(100 + i))
	}
	cfg := testRecommendConfig()
	cfg.Policy = consts.RecommendPolicySession
	cache := redis.NewMemoryCache()
	svc := NewRecommendService(graph.NewMemoryRepo(), contents, cache, cfg)

	q := &dto.RecommendationQuery{Page: 1, PageSize: 10, SessionID: "s-1"}
	first, err := svc.GetRecommendations(ctx, 1, q)
	if err != nil {
		t.Fatal(err)
	}
	contents.add(999)
	second, _ := svc.GetRecommendations(ctx, 1, q)
	if len(first.Items) != len(second.Items) {
		t.Fatalf("session pages differ in size: %d vs %d", len(first.Items), len(second.Items))
	}
	for i := range first.Items {
		if first.Items[i] != second.Items[i] {
			t.Fatalf("session page not stable at %d: %v vs %v", i, first.Items, second.Items)
		}
	}
	if v, _ := cache.Get(ctx, sessionPageKey(1, "s-1", 1, 10, false)); v == "" {
		t.Error("session page should be cached")
	}
}

func TestRecommendPageSizeNormalization(t *testing.T) {
	contents := newFakeContentRepo()
	for i := 0; i < 80; i++ {
		contents.add(uint64(100 + i))
	}
	svc := NewRecommendService(graph.NewMemoryRepo(), contents, redis.NewMemoryCache(), testRecommendConfig())

	page, _ := svc.GetRecommendations(context.Background(), 1, &dto.RecommendationQuery{Page: -3, PageSize: 500})
	if len(page.Items) != 50 {
		t.Errorf("items = %d, want capped at 50", len(page.Items))
	}
	page, _ = svc.GetRecommendations(context.Background(), 1, &dto.RecommendationQuery{})
	if len(page.Items) != 15 {
		t.Errorf("items = %d, want default 15", len(page.Items))
	}
}

func TestLikeFlowsIntoCoLikerRecommendations(t *testing.T) {
	ctx := context.Background()
	const (
		userA = uint64(1)
		userB = uint64(2)
		userC = uint64(3)
	)
	g := graph.NewMemoryRepo()
	contents := newFakeContentRepo()
	broker := mq.NewMemoryBroker()
	_ = broker.Declare(ctx, testQueues.Interactions)

	shared := contents.add(userB)
	post := contents.add(userB)
	_ = g.UpsertContent(ctx, post, userB, time.Now().Add(-time.Hour))

	likes := NewLikeService(contents, g, broker, testQueues)
	for _, l := range []struct {
		user    uint64
		content string
	}{{userA, shared}, {userA, post}, {userC, shared}} {
		if res, err := likes.ToggleLike(ctx, l.user, l.content); err != nil || !res.Liked {
			t.Fatalf("ToggleLike(%d, %s) = %+v, %v", l.user, l.content, res, err)
		}
	}
	if g.LikeCount() != 0 {
		t.Fatalf("edges before consuming = %d, want 0", g.LikeCount())
	}

	if n := broker.Drain(ctx, testQueues.Interactions, consumer.NewInteractionConsumer(g).Handle); n != 3 {
		t.Fatalf("drained %d interaction events, want 3", n)
	}
	if !g.HasLike(userA, post) || g.LikeCount() != 3 {
		t.Fatalf("edges after consuming = %d, want 3 including A->post", g.LikeCount())
	}

	scored, err := g.ScoreCandidates(ctx, userC, graph.ScoreQuery{Lambda: graph.DefaultLambda, Limit: 10})
	if err != nil {
		t.Fatalf("ScoreCandidates() error = %v", err)
	}
	if len(scored) != 1 || scored[0].ContentID != post || scored[0].CoLikers != 1 {
		t.Fatalf("scored for C = %+v, want post with one co-liker", scored)
	}
	if s := scored[0].Score; s <= 0 || s >= 1 {
		t.Errorf("score = %v, want decayed into (0, 1) by the post's age", s)
	}

	svc := NewRecommendService(g, contents, redis.NewMemoryCache(), testRecommendConfig())
	page, err := svc.GetRecommendations(ctx, userC, &dto.RecommendationQuery{Page: 1, PageSize: 15})
	if err != nil {
		t.Fatalf("GetRecommendations() error = %v", err)
	}
	if len(page.Items) != 1 || page.Items[0] != post || page.HasMore {
		t.Errorf("page for C = %+v, want [post] without more", page)
	}
}

func TestRecommendSkipsContentDeletedFromStore(t *testing.T) {
	ctx := context.Background()
	const me = uint64(1)
	g := graph.NewMemoryRepo()
	contents := newFakeContentRepo()
	_, scoredA, scoredB := seedScored(t, g, contents, me)

	if ok, _ := contents.Delete(ctx, scoredA, 60); !ok {
		t.Fatal("delete scoredA failed")
	}
	_ = g.RemoveContent(ctx, scoredA)
	// 删除后迟到的 LIKE 事件会重新 MERGE 出内容节点
	_ = g.UpsertLike(ctx, 2, scoredA)
	_ = g.UpsertLike(ctx, 3, scoredA)

	svc := NewRecommendService(g, contents, redis.NewMemoryCache(), testRecommendConfig())
	page, err := svc.GetRecommendations(ctx, me, &dto.RecommendationQuery{PageSize: 15})
	if err != nil {
		t.Fatal(err)
	}
	found := false
	for _, id := range page.Items {
		if id == scoredA {
			t.Errorf("deleted content %s recommended", scoredA)
		}
		found = found || id == scoredB
	}
	if !found {
		t.Errorf("page = %v, want %s kept", page.Items, scoredB)
	}
}
