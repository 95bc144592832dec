package graph

import (
	"context"
	"math"
	"time"
)

// DefaultLambda 默认衰减系数，半衰期约两天
const DefaultLambda = 0.000004

// ScoreQuery 推荐打分参数
type ScoreQuery struct {
	Lambda float64
	// FallbackAge 内容节点缺少 createdAt 时使用的年龄
	FallbackAge time.Duration
	Skip        int
	Limit       int
}

// ScoredContent 候选内容及其得分
type ScoredContent struct {
	ContentID  string
	CoLikers   int64
	AgeSeconds float64
	Score      float64
}

// Repo 图存储适配器，所有写操作都是 merge / delete，可乱序、可重复执行
type Repo interface {
	EnsureSchema(ctx context.Context) error

	UpsertFollow(ctx context.Context, followerID, followedID uint64) error
	RemoveFollow(ctx context.Context, followerID, followedID uint64) error
	UpsertLike(ctx context.Context, userID uint64, contentID string) error
	RemoveLike(ctx context.Context, userID uint64, contentID string) error
	UpsertContent(ctx context.Context, contentID string, authorID uint64, createdAt time.Time) error
	RemoveContent(ctx context.Context, contentID string) error

	ListFollowing(ctx context.Context, userID uint64) ([]uint64, error)
	ListLikers(ctx context.Context, contentID string) ([]uint64, error)
	CountFollowers(ctx context.Context, userID uint64) (int64, error)
	CountFollowing(ctx context.Context, userID uint64) (int64, error)
	FollowExists(ctx context.Context, followerID, followedID uint64) (bool, error)

	// ScoreCandidates 协同过滤：我点赞的内容 -> 同样点赞的其他用户 -> 他们点赞而我没点赞的内容
	ScoreCandidates(ctx context.Context, userID uint64, q ScoreQuery) ([]ScoredContent, error)
}

// DecayScore coLikers * exp(-lambda * ageSeconds)，年龄为负按 0 处理
func DecayScore(coLikers int64, ageSeconds, lambda float64) float64 {
	if ageSeconds < 0 {
		ageSeconds = 0
	}
	return float64(coLikers) * math.Exp(-lambda*ageSeconds)
}
