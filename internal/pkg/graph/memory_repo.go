package graph

import (
	"context"
	"sort"
	"sync"
	"time"
)

type followKey struct{ follower, followed uint64 }

type likeKey struct {
	user    uint64
	content string
}

type contentNode struct {
	authorID  uint64
	createdAt time.Time
}

// MemoryRepo 进程内图存储，语义与 Neo4jRepo 一致，用于本地开发与测试
type MemoryRepo struct {
	mu       sync.RWMutex
	follows  map[followKey]time.Time
	likes    map[likeKey]time.Time
	contents map[string]contentNode
	// Now 可替换的时钟
	Now func() time.Time
	// Err 不为 nil 时所有操作返回该错误，模拟图库不可用
	Err error
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		follows:  make(map[followKey]time.Time),
		likes:    make(map[likeKey]time.Time),
		contents: make(map[string]contentNode),
		Now:      time.Now,
	}
}

func (s *MemoryRepo) fail() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.Err
}

// SetErr 设置或清除模拟故障
func (s *MemoryRepo) SetErr(err error) {
	s.mu.Lock()
	s.Err = err
	s.mu.Unlock()
}

func (s *MemoryRepo) EnsureSchema(context.Context) error { return s.fail() }

func (s *MemoryRepo) UpsertFollow(_ context.Context, followerID, followedID uint64) error {
	if err := s.fail(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	k := followKey{followerID, followedID}
	if _, ok := s.follows[k]; !ok {
		s.follows[k] = s.Now()
	}
	return nil
}

func (s *MemoryRepo) RemoveFollow(_ context.Context, followerID, followedID uint64) error {
	if err := s.fail(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.follows, followKey{followerID, followedID})
	return nil
}

func (s *MemoryRepo) UpsertLike(_ context.Context, userID uint64, contentID string) error {
	if err := s.fail(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	k := likeKey{userID, contentID}
	if _, ok := s.likes[k]; !ok {
		s.likes[k] = s.Now()
	}
	return nil
}

func (s *MemoryRepo) RemoveLike(_ context.Context, userID uint64, contentID string) error {
	if err := s.fail(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.likes, likeKey{userID, contentID})
	return nil
}

func (s *MemoryRepo) UpsertContent(_ context.Context, contentID string, authorID uint64, createdAt time.Time) error {
	if err := s.fail(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.contents[contentID] = contentNode{authorID: authorID, createdAt: createdAt}
	return nil
}

func (s *MemoryRepo) RemoveContent(_ context.Context, contentID string) error {
	if err := s.fail(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.contents, contentID)
	for k := range s.likes {
		if k.content == contentID {
			delete(s.likes, k)
		}
	}
	return nil
}

func (s *MemoryRepo) ListFollowing(_ context.Context, userID uint64) ([]uint64, error) {
	if err := s.fail(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []uint64
	for k := range s.follows {
		if k.follower == userID {
			out = append(out, k.followed)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out, nil
}

func (s *MemoryRepo) ListLikers(_ context.Context, contentID string) ([]uint64, error) {
	if err := s.fail(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []uint64
	for k := range s.likes {
		if k.content == contentID {
			out = append(out, k.user)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out, nil
}

func (s *MemoryRepo) CountFollowers(_ context.Context, userID uint64) (int64, error) {
	if err := s.fail(); err != nil {
		return 0, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	var n int64
	for k := range s.follows {
		if k.followed == userID {
			n++
		}
	}
	return n, nil
}

func (s *MemoryRepo) CountFollowing(_ context.Context, userID uint64) (int64, error) {
	if err := s.fail(); err != nil {
		return 0, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	var n int64
	for k := range s.follows {
		if k.follower == userID {
			n++
		}
	}
	return n, nil
}

func (s *MemoryRepo) FollowExists(_ context.Context, followerID, followedID uint64) (bool, error) {
	if err := s.fail(); err != nil {
		return false, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.follows[followKey{followerID, followedID}]
	return ok, nil
}

// LikeCount 边数量，测试用
func (s *MemoryRepo) LikeCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.likes)
}

// HasLike 判断点赞边是否存在，测试用
func (s *MemoryRepo) HasLike(userID uint64, contentID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.likes[likeKey{userID, contentID}]
	return ok
}

func (s *MemoryRepo) ScoreCandidates(_ context.Context, userID uint64, q ScoreQuery) ([]ScoredContent, error) {
	if err := s.fail(); err != nil {
		return nil, err
	}
	if q.Limit <= 0 {
		return nil, nil
	}
	lambda := q.Lambda
	if lambda <= 0 {
		lambda = DefaultLambda
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	mine := make(map[string]struct{})
	for k := range s.likes {
		if k.user == userID {
			mine[k.content] = struct{}{}
		}
	}

	others := make(map[uint64]struct{})
	for k := range s.likes {
		if _, ok := mine[k.content]; ok && k.user != userID {
			others[k.user] = struct{}{}
		}
	}

	coLikers := make(map[string]int64)
	for k := range s.likes {
		if _, ok := others[k.user]; !ok {
			continue
		}
		if _, liked := mine[k.content]; liked {
			continue
		}
		coLikers[k.content]++
	}

	now := s.Now()
	out := make([]ScoredContent, 0, len(coLikers))
	for id, n := range coLikers {
		createdAt := now.Add(-q.FallbackAge)
		if node, ok := s.contents[id]; ok && !node.createdAt.IsZero() {
			createdAt = node.createdAt
		}
		age := max(float64(int64(now.Sub(createdAt).Seconds())), 0)
		out = append(out, ScoredContent{ContentID: id, CoLikers: n, AgeSeconds: age, Score: DecayScore(n, age, lambda)})
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].ContentID < out[j].ContentID
	})

	if q.Skip >= len(out) {
		return []ScoredContent{}, nil
	}
	out = out[q.Skip:]
	if len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out, nil
}
