package graph

import (
	"context"
	"math"
	"strings"
	"testing"
	"time"
)

func TestDecayScore(t *testing.T) {
	tests := []struct {
		name     string
		coLikers int64
		age      float64
		want     float64
	}{
		{"fresh", 10, 0, 10},
		{"negative age clamps", 3, -100, 3},
		{"one half-life", 2, math.Ln2 / DefaultLambda, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DecayScore(tt.coLikers, tt.age, DefaultLambda)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("DecayScore() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestLikeIdempotency(t *testing.T) {
	ctx := context.Background()
	g := NewMemoryRepo()

	for i := 0; i < 2; i++ {
		if err := g.UpsertLike(ctx, 1, "p"); err != nil {
			t.Fatalf("UpsertLike() error = %v", err)
		}
	}
	if n := g.LikeCount(); n != 1 {
		t.Errorf("edges after duplicate LIKE = %d, want 1", n)
	}

	if err := g.RemoveLike(ctx, 2, "p"); err != nil {
		t.Errorf("RemoveLike() on missing edge error = %v, want nil", err)
	}
	if err := g.RemoveLike(ctx, 1, "p"); err != nil {
		t.Fatalf("RemoveLike() error = %v", err)
	}
	if err := g.RemoveLike(ctx, 1, "p"); err != nil {
		t.Errorf("second RemoveLike() error = %v, want nil", err)
	}
	if g.HasLike(1, "p") {
		t.Error("edge should be gone")
	}
}

func TestFollowEdgesAreDirected(t *testing.T) {
	ctx := context.Background()
	g := NewMemoryRepo()
	_ = g.UpsertFollow(ctx, 1, 2)
	_ = g.UpsertFollow(ctx, 1, 2)
	_ = g.UpsertFollow(ctx, 3, 2)

	if ok, _ := g.FollowExists(ctx, 2, 1); ok {
		t.Error("reverse edge must not exist")
	}
	if n, _ := g.CountFollowers(ctx, 2); n != 2 {
		t.Errorf("CountFollowers(2) = %d, want 2", n)
	}
	if n, _ := g.CountFollowing(ctx, 1); n != 1 {
		t.Errorf("CountFollowing(1) = %d, want 1", n)
	}
	ids, _ := g.ListFollowing(ctx, 1)
	if len(ids) != 1 || ids[0] != 2 {
		t.Errorf("ListFollowing(1) = %v, want [2]", ids)
	}
}

func TestScoreCandidatesRanking(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	g := NewMemoryRepo()
	g.Now = func() time.Time { return now }

	// 用户 1 点赞了 seed，其余 10 个用户也点赞了 seed
	const me = uint64(1)
	_ = g.UpsertLike(ctx, me, "seed")
	for u := uint64(2); u <= 11; u++ {
		_ = g.UpsertLike(ctx, u, "seed")
		_ = g.UpsertLike(ctx, u, "popular")
	}
	for u := uint64(2); u <= 4; u++ {
		_ = g.UpsertLike(ctx, u, "niche")
	}
	// 已点赞内容不应出现
	_ = g.UpsertLike(ctx, 2, "mine")
	_ = g.UpsertLike(ctx, me, "mine")
	// 与我没有共同点赞的用户不参与
	_ = g.UpsertLike(ctx, 99, "unrelated")

	created := now.Add(-time.Hour)
	_ = g.UpsertContent(ctx, "popular", 50, created)
	_ = g.UpsertContent(ctx, "niche", 50, created)

	got, err := g.ScoreCandidates(ctx, me, ScoreQuery{Lambda: DefaultLambda, FallbackAge: 30 * 24 * time.Hour, Limit: 10})
	if err != nil {
		t.Fatalf("ScoreCandidates() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("ScoreCandidates() = %+v, want 2 candidates", got)
	}
	if got[0].ContentID != "popular" || got[0].CoLikers != 10 {
		t.Errorf("first = %+v, want popular with 10 co-likers", got[0])
	}
	if got[1].ContentID != "niche" || got[1].CoLikers != 3 {
		t.Errorf("second = %+v, want niche with 3 co-likers", got[1])
	}
	if got[0].AgeSeconds != 3600 {
		t.Errorf("AgeSeconds = %v, want 3600", got[0].AgeSeconds)
	}

	page2, _ := g.ScoreCandidates(ctx, me, ScoreQuery{Skip: 1, Limit: 1})
	if len(page2) != 1 || page2[0].ContentID != "niche" {
		t.Errorf("page 2 = %+v, want [niche]", page2)
	}
	beyond, _ := g.ScoreCandidates(ctx, me, ScoreQuery{Skip: 5, Limit: 1})
	if len(beyond) != 0 {
		t.Errorf("skip beyond end = %+v, want empty", beyond)
	}
}

func TestScoreCandidatesRecencyAndFallbackAge(t *testing.T) {
	ctx := context.Background()
	now := time.Now()
	g := NewMemoryRepo()
	g.Now = func() time.Time { return now }

	_ = g.UpsertLike(ctx, 1, "seed")
	_ = g.UpsertLike(ctx, 2, "seed")
	_ = g.UpsertLike(ctx, 2, "new")
	_ = g.UpsertLike(ctx, 2, "undated")
	_ = g.UpsertContent(ctx, "new", 9, now.Add(-time.Minute))

	got, _ := g.ScoreCandidates(ctx, 1, ScoreQuery{FallbackAge: 7 * 24 * time.Hour, Limit: 5})
	if len(got) != 2 || got[0].ContentID != "new" {
		t.Fatalf("ScoreCandidates() = %+v, want new before undated", got)
	}
	if got[1].AgeSeconds != float64(7*24*3600) {
		t.Errorf("undated AgeSeconds = %v, want fallback age", got[1].AgeSeconds)
	}
}

func TestNoLikeHistoryYieldsEmpty(t *testing.T) {
	g := NewMemoryRepo()
	_ = g.UpsertLike(context.Background(), 2, "x")
	got, err := g.ScoreCandidates(context.Background(), 1, ScoreQuery{Limit: 10})
	if err != nil || len(got) != 0 {
		t.Errorf("ScoreCandidates() = %v, %v; want empty", got, err)
	}
}

func TestScoreCandidatesFutureCreatedAtClampsAge(t *testing.T) {
	ctx := context.Background()
	now := time.Now()
	g := NewMemoryRepo()
	g.Now = func() time.Time { return now }

	_ = g.UpsertLike(ctx, 1, "seed")
	_ = g.UpsertLike(ctx, 2, "seed")
	_ = g.UpsertLike(ctx, 3, "seed")
	_ = g.UpsertLike(ctx, 2, "skewed")
	_ = g.UpsertLike(ctx, 3, "skewed")
	_ = g.UpsertContent(ctx, "skewed", 9, now.Add(10*time.Minute))

	got, err := g.ScoreCandidates(ctx, 1, ScoreQuery{Limit: 5})
	if err != nil || len(got) != 1 {
		t.Fatalf("ScoreCandidates() = %+v, %v", got, err)
	}
	if got[0].AgeSeconds != 0 || got[0].Score != 2 {
		t.Errorf("skewed candidate = %+v, want age 0 and score 2", got[0])
	}
}

func TestScoreCandidatesCypherClampsNegativeAge(t *testing.T) {
	for _, want := range []string{
		"CASE WHEN rawAge < 0 THEN 0 ELSE rawAge END AS ageSeconds",
		"exp(-$lambda * ageSeconds)",
	} {
		if !strings.Contains(scoreCandidatesCypher, want) {
			t.Errorf("scoring query missing %q", want)
		}
	}
}
