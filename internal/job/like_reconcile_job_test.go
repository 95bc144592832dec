package job

import (
	"Lumen/internal/pkg/consts"
	"Lumen/internal/pkg/events"
	"Lumen/internal/pkg/graph"
	"Lumen/internal/pkg/mongo"
	"Lumen/internal/pkg/mq"
	"Lumen/internal/pkg/redis"
	"context"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type recentContents struct {
	mongo.ContentRepo
	items []*mongo.ContentModel
	since time.Time
	// reread 覆盖 GetByID 的结果，模拟两次读取之间的并发写
	reread map[string]*mongo.ContentModel
}

func (f *recentContents) GetByID(_ context.Context, id string) (*mongo.ContentModel, error) {
	if c, ok := f.reread[id]; ok {
		return c, nil
	}
	for _, c := range f.items {
		if c.ID.Hex() == id {
			return c, nil
		}
	}
	return nil, nil
}

func (f *recentContents) ListSince(_ context.Context, since time.Time, limit int64) ([]*mongo.ContentModel, error) {
	f.since = since
	if int64(len(f.items)) > limit {
		return f.items[:limit], nil
	}
	return f.items, nil
}

func TestReconcileRepairsDrift(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	p := &mongo.ContentModel{ID: primitive.NewObjectID(), Likes: []uint64{1, 2}}
	q := &mongo.ContentModel{ID: primitive.NewObjectID(), Likes: []uint64{3}}
	contents := &recentContents{items: []*mongo.ContentModel{p, q}}

	g := graph.NewMemoryRepo()
	_ = g.UpsertLike(ctx, 1, p.ID.Hex())
	_ = g.UpsertLike(ctx, 9, p.ID.Hex())
	_ = g.UpsertLike(ctx, 3, q.ID.Hex())

	b := mq.NewMemoryBroker()
	j := NewLikeReconcileJob(contents, g, b, redis.NewMemoryCache(), "interactions", time.Hour, 100)
	j.Now = func() time.Time { return now }

	n, err := j.Reconcile(ctx)
	if err != nil {
		t.Fatalf("Reconcile() error = %v", err)
	}
	if n != 2 {
		t.Fatalf("published = %d, want 2", n)
	}
	if !contents.since.Equal(now.Add(-time.Hour)) {
		t.Errorf("window start = %v", contents.since)
	}

	want := map[events.LikeEvent]bool{
		events.NewLikeEvent(2, p.ID.Hex(), true):  true,
		events.NewLikeEvent(9, p.ID.Hex(), false): true,
	}
	for _, body := range b.Pending("interactions") {
		e, err := events.ParseInteraction(body)
		if err != nil {
			t.Fatalf("ParseInteraction() error = %v", err)
		}
		if !want[e.(events.LikeEvent)] {
			t.Errorf("unexpected event %+v", e)
		}
	}
}

func TestReconcileSkipsWhenLocked(t *testing.T) {
	ctx := context.Background()
	cache := redis.NewMemoryCache()
	if ok, _ := cache.TryLock(ctx, consts.LikeReconcileLock, "other-worker", time.Minute); !ok {
		t.Fatal("TryLock() should succeed on an empty cache")
	}

	p := &mongo.ContentModel{ID: primitive.NewObjectID(), Likes: []uint64{1}}
	b := mq.NewMemoryBroker()
	j := NewLikeReconcileJob(&recentContents{items: []*mongo.ContentModel{p}}, graph.NewMemoryRepo(), b, cache, "interactions", time.Hour, 100)

	n, err := j.Reconcile(ctx)
	if err != nil || n != 0 {
		t.Errorf("Reconcile() = %d, %v; want 0, nil", n, err)
	}
	if len(b.Pending("interactions")) != 0 {
		t.Error("locked run must not publish")
	}
}

func TestReconcileStopsOnPublishFailure(t *testing.T) {
	ctx := context.Background()
	p := &mongo.ContentModel{ID: primitive.NewObjectID(), Likes: []uint64{1, 2}}
	b := mq.NewMemoryBroker()
	b.FailPublish = context.DeadlineExceeded
	cache := redis.NewMemoryCache()
	j := NewLikeReconcileJob(&recentContents{items: []*mongo.ContentModel{p}}, graph.NewMemoryRepo(), b, cache, "interactions", time.Hour, 100)

	if _, err := j.Reconcile(ctx); err == nil {
		t.Fatal("Reconcile() should surface the publish failure")
	}
	if ok, _ := cache.TryLock(ctx, consts.LikeReconcileLock, "next", time.Minute); !ok {
		t.Error("lock should be released after a failed run")
	}
}

func TestReconcileRereadsBeforePublishing(t *testing.T) {
	ctx := context.Background()
	p := &mongo.ContentModel{ID: primitive.NewObjectID(), Likes: []uint64{1, 2}}
	gone := &mongo.ContentModel{ID: primitive.NewObjectID(), Likes: []uint64{5}}

	tests := []struct {
		name   string
		reread map[string]*mongo.ContentModel
		want   []events.LikeEvent
	}{
		{
			name:   "unchanged",
			reread: nil,
			want: []events.LikeEvent{
				events.NewLikeEvent(2, p.ID.Hex(), true),
				events.NewLikeEvent(5, gone.ID.Hex(), true),
			},
		},
		{
			name: "unliked between reads",
			reread: map[string]*mongo.ContentModel{
				p.ID.Hex(): {ID: p.ID, Likes: []uint64{1}},
			},
			want: []events.LikeEvent{events.NewLikeEvent(5, gone.ID.Hex(), true)},
		},
		{
			name: "deleted between reads",
			reread: map[string]*mongo.ContentModel{
				gone.ID.Hex(): nil,
			},
			want: []events.LikeEvent{events.NewLikeEvent(2, p.ID.Hex(), true)},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := graph.NewMemoryRepo()
			_ = g.UpsertLike(ctx, 1, p.ID.Hex())
			contents := &recentContents{items: []*mongo.ContentModel{p, gone}, reread: tt.reread}
			b := mq.NewMemoryBroker()
			j := NewLikeReconcileJob(contents, g, b, redis.NewMemoryCache(), "interactions", time.Hour, 100)

			n, err := j.Reconcile(ctx)
			if err != nil {
				t.Fatalf("Reconcile() error = %v", err)
			}
			if n != len(tt.want) {
				t.Fatalf("published = %d, want %d", n, len(tt.want))
			}
			want := make(map[events.LikeEvent]bool, len(tt.want))
			for _, e := range tt.want {
				want[e] = true
			}
			for _, body := range b.Pending("interactions") {
				e, err := events.ParseInteraction(body)
				if err != nil {
					t.Fatalf("ParseInteraction() error = %v", err)
				}
				if !want[e.(events.LikeEvent)] {
					t.Errorf("unexpected event %+v", e)
				}
			}
		})
	}
}
