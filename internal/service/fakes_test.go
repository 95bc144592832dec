package service

import (
	"Lumen/internal/api/config"
	"Lumen/internal/model"
	"Lumen/internal/pkg/es"
	"Lumen/internal/pkg/mongo"
	"Lumen/internal/repository"
	"context"
	"slices"
	"sort"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	mongodrv "go.mongodb.org/mongo-driver/mongo"
)

var testQueues = config.QueueNames{
	Interactions: "interactions",
	ProfileSync:  "profile-sync",
	MediaTagging: "media-tagging",
	Realtime:     "realtime-events",
}

type fakeContentRepo struct {
	mu       sync.Mutex
	items    map[string]*mongo.ContentModel
	profiles []uint64
}

func newFakeContentRepo() *fakeContentRepo {
	return &fakeContentRepo{items: make(map[string]*mongo.ContentModel)}
}

// add 直接插入一条内容，返回 id
func (f *fakeContentRepo) add(authorID uint64, likes ...uint64) string {
	c := &mongo.ContentModel{AuthorID: authorID, Likes: likes, CreatedAt: time.Now()}
	id, _ := f.Create(context.Background(), c)
	return id
}

func (f *fakeContentRepo) Create(_ context.Context, c *mongo.ContentModel) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if c.ID.IsZero() {
		c.ID = primitive.NewObjectID()
	}
	f.items[c.ID.Hex()] = c
	return c.ID.Hex(), nil
}

func (f *fakeContentRepo) GetByID(_ context.Context, id string) (*mongo.ContentModel, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.items[id]
	if !ok {
		return nil, nil
	}
	cp := *c
	cp.Likes = append([]uint64(nil), c.Likes...)
	return &cp, nil
}

func (f *fakeContentRepo) GetByIDs(ctx context.Context, ids []string) ([]*mongo.ContentModel, error) {
	out := make([]*mongo.ContentModel, 0, len(ids))
	for _, id := range ids {
		if c, _ := f.GetByID(ctx, id); c != nil {
			out = append(out, c)
		}
	}
	return out, nil
}

func (f *fakeContentRepo) ListByAuthor(_ context.Context, authorID uint64, limit, offset int64) ([]*mongo.ContentModel, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*mongo.ContentModel
	for _, c := range f.sorted() {
		if c.AuthorID == authorID {
			out = append(out, c)
		}
	}
	if offset >= int64(len(out)) {
		return []*mongo.ContentModel{}, nil
	}
	out = out[offset:]
	if int64(len(out)) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeContentRepo) ListByAuthors(_ context.Context, authorIDs []uint64, limit, offset int64) ([]*mongo.ContentModel, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*mongo.ContentModel
	for _, c := range f.sorted() {
		if slices.Contains(authorIDs, c.AuthorID) {
			out = append(out, c)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	total := int64(len(out))
	if offset >= total {
		return []*mongo.ContentModel{}, total, nil
	}
	out = out[offset:]
	if int64(len(out)) > limit {
		out = out[:limit]
	}
	return out, total, nil
}

func (f *fakeContentRepo) ListSince(_ context.Context, since time.Time, limit int64) ([]*mongo.ContentModel, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*mongo.ContentModel
	for _, c := range f.sorted() {
		if !c.CreatedAt.Before(since) && int64(len(out)) < limit {
			out = append(out, c)
		}
	}
	return out, nil
}

func (f *fakeContentRepo) Delete(_ context.Context, id string, authorID uint64) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.items[id]
	if !ok || c.AuthorID != authorID {
		return false, nil
	}
	delete(f.items, id)
	return true, nil
}

func (f *fakeContentRepo) ToggleLike(_ context.Context, id string, userID uint64) (bool, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.items[id]
	if !ok {
		return false, 0, mongodrv.ErrNoDocuments
	}
	for i, u := range c.Likes {
		if u == userID {
			c.Likes = append(c.Likes[:i], c.Likes[i+1:]...)
			return false, len(c.Likes), nil
		}
	}
	c.Likes = append(c.Likes, userID)
	return true, len(c.Likes), nil
}

func (f *fakeContentRepo) UpdateAuthorProfile(_ context.Context, authorID uint64, name, photo *string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.profiles = append(f.profiles, authorID)
	var n int64
	for _, c := range f.items {
		if c.AuthorID != authorID {
			continue
		}
		if name != nil {
			c.AuthorName = *name
		}
		if photo != nil {
			c.AuthorPhoto = *photo
		}
		n++
	}
	return n, nil
}

func (f *fakeContentRepo) AddAutoTags(_ context.Context, id string, tags []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.items[id]
	if !ok {
		return mongodrv.ErrNoDocuments
	}
	for _, t := range tags {
		found := false
		for _, e := range c.AutoTags {
			found = found || e == t
		}
		if !found {
			c.AutoTags = append(c.AutoTags, t)
		}
	}
	return nil
}

// Sample 按 id 排序后过滤，保证测试可复现
func (f *fakeContentRepo) Sample(_ context.Context, filter mongo.SampleFilter, n int, _ *uint64, _ int) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	excludeID := make(map[string]bool)
	for _, id := range filter.ExcludeIDs {
		excludeID[id] = true
	}
	excludeAuthor := make(map[uint64]bool)
	for _, a := range filter.ExcludeAuthors {
		excludeAuthor[a] = true
	}

	out := make([]string, 0, n)
	for _, c := range f.sorted() {
		if len(out) == n {
			break
		}
		id := c.ID.Hex()
		if excludeID[id] || excludeAuthor[c.AuthorID] {
			continue
		}
		if filter.NotLikedBy != 0 && c.LikedBy(filter.NotLikedBy) {
			continue
		}
		out = append(out, id)
	}
	return out, nil
}

func (f *fakeContentRepo) sorted() []*mongo.ContentModel {
	list := make([]*mongo.ContentModel, 0, len(f.items))
	for _, c := range f.items {
		list = append(list, c)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].ID.Hex() < list[j].ID.Hex() })
	return list
}

type fakeCommentRepo struct {
	mu       sync.Mutex
	items    []*mongo.CommentModel
	profiles []uint64
}

func (f *fakeCommentRepo) Create(_ context.Context, c *mongo.CommentModel) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if c.ID.IsZero() {
		c.ID = primitive.NewObjectID()
	}
	f.items = append(f.items, c)
	return c.ID.Hex(), nil
}

func (f *fakeCommentRepo) ListByContent(_ context.Context, contentID string, limit, offset int64) ([]*mongo.CommentModel, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*mongo.CommentModel, 0)
	for _, c := range f.items {
		if c.ContentID == contentID {
			out = append(out, c)
		}
	}
	if offset >= int64(len(out)) {
		return []*mongo.CommentModel{}, nil
	}
	out = out[offset:]
	if int64(len(out)) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeCommentRepo) DeleteByContent(_ context.Context, contentID string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	kept := f.items[:0]
	var n int64
	for _, c := range f.items {
		if c.ContentID == contentID {
			n++
			continue
		}
		kept = append(kept, c)
	}
	f.items = kept
	return n, nil
}

func (f *fakeCommentRepo) UpdateAuthorProfile(_ context.Context, userID uint64, name, photo *string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.profiles = append(f.profiles, userID)
	var n int64
	for _, c := range f.items {
		if c.UserID != userID {
			continue
		}
		if name != nil {
			c.UserName = *name
		}
		if photo != nil {
			c.UserPhoto = *photo
		}
		n++
	}
	return n, nil
}

type fakeUserRepo struct {
	mu    sync.Mutex
	users map[uint64]*model.User
	err   error
}

func newFakeUserRepo(users ...*model.User) *fakeUserRepo {
	f := &fakeUserRepo{users: make(map[uint64]*model.User)}
	for _, u := range users {
		f.users[u.ID] = u
	}
	return f
}

func testUser(id uint64, nickname, avatar string) *model.User {
	return &model.User{ID: id, UserDetail: model.UserDetail{UserID: id, Nickname: nickname, AvatarURL: avatar}}
}

func (f *fakeUserRepo) GetUserById(_ context.Context, id uint64) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	u, ok := f.users[id]
	if !ok {
		return nil, nil
	}
	cp := *u
	return &cp, nil
}

func (f *fakeUserRepo) GetUserSimpleInfoByIds(_ context.Context, ids []uint64) ([]*model.UserDetail, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*model.UserDetail, 0, len(ids))
	for _, id := range ids {
		if u, ok := f.users[id]; ok {
			d := u.UserDetail
			out = append(out, &d)
		}
	}
	return out, nil
}

func (f *fakeUserRepo) UpdateUserDetail(_ context.Context, id uint64, update *repository.UserDetailUpdate) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	u, ok := f.users[id]
	if !ok {
		return nil
	}
	if update.Nickname != nil {
		u.UserDetail.Nickname = *update.Nickname
	}
	if update.AvatarURL != nil {
		u.UserDetail.AvatarURL = *update.AvatarURL
	}
	if update.BannerURL != nil {
		u.UserDetail.BannerURL = *update.BannerURL
	}
	return nil
}

type fakeSearchRepo struct {
	mu      sync.Mutex
	indexed []string
	deleted []string
}

func (f *fakeSearchRepo) IndexContent(_ context.Context, c *es.ContentES) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.indexed = append(f.indexed, c.ID)
	return nil
}

func (f *fakeSearchRepo) DeleteContent(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakeSearchRepo) UpdateAuthorDetail(context.Context, uint64, *string, *string) error {
	return nil
}

func (f *fakeSearchRepo) AddAutoTags(context.Context, string, []string) error {
	return nil
}
