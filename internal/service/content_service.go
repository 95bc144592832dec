package service

import (
	"Lumen/internal/api/config"
	"Lumen/internal/api/dto"
	"Lumen/internal/pkg/consts"
	"Lumen/internal/pkg/es"
	"Lumen/internal/pkg/events"
	"Lumen/internal/pkg/graph"
	"Lumen/internal/pkg/mongo"
	"Lumen/internal/pkg/mq"
	"Lumen/internal/pkg/util"
	"context"
	log "log/slog"
	"mime"
	"path"
	"strings"
	"time"
)

const (
	defaultListSize = 20
	defaultFeedSize = 15
	maxListSize     = 100
)

type ContentService interface {
	CreateContent(ctx context.Context, authorID uint64, req *dto.CreateContentDTO) (*dto.ContentDTO, error)
	DeleteContent(ctx context.Context, authorID uint64, contentID string) error
	GetContent(ctx context.Context, viewerID uint64, contentID string) (*dto.ContentDTO, error)
	ListByAuthor(ctx context.Context, viewerID, authorID uint64, page, pageSize int) ([]*dto.ContentDTO, error)
	ListFeed(ctx context.Context, viewerID uint64, page, pageSize int) (*dto.FeedPage, error)
}

type ContentServiceImpl struct {
	contentRepo mongo.ContentRepo
	commentRepo mongo.CommentRepo
	searchRepo  es.ContentRepo
	graphRepo   graph.Repo
	userService UserService
	publisher   mq.Publisher
	queues      config.QueueNames
	realtime    realtimeNotifier
}

// NewContentService searchRepo 可为 nil (未启用搜索镜像)
func NewContentService(
	contentRepo mongo.ContentRepo,
	commentRepo mongo.CommentRepo,
	searchRepo es.ContentRepo,
	graphRepo graph.Repo,
	userService UserService,
	publisher mq.Publisher,
	queues config.QueueNames,
) ContentService {
	return &ContentServiceImpl{
		contentRepo: contentRepo,
		commentRepo: commentRepo,
		searchRepo:  searchRepo,
		graphRepo:   graphRepo,
		userService: userService,
		publisher:   publisher,
		queues:      queues,
		realtime:    realtimeNotifier{publisher: publisher, queue: queues.Realtime},
	}
}

// CreateContent 文档写入成功即视为发布成功，图节点、搜索镜像与打标均为尽力而为
func (s *ContentServiceImpl) CreateContent(ctx context.Context, authorID uint64, req *dto.CreateContentDTO) (*dto.ContentDTO, error) {
	if err := util.ValidateDTO(req); err != nil {
		return nil, ErrParamInvalid
	}

	author, err := s.userService.GetUserSimpleInfo(ctx, authorID)
	if err != nil {
		return nil, err
	}

	content := &mongo.ContentModel{
		AuthorID:    authorID,
		AuthorName:  author.Nickname,
		AuthorPhoto: author.AvatarURL,
		Description: strings.TrimSpace(req.Description),
		Media:       make([]mongo.Media, 0, len(req.Media)),
		CreatedAt:   time.Now().UTC().Truncate(time.Millisecond),
	}
	for _, m := range req.Media {
		content.Media = append(content.Media, mongo.Media{
			URL:      m.URL,
			Type:     m.Type,
			MimeType: detectMime(m),
		})
	}

	id, err := s.contentRepo.Create(ctx, content)
	if err != nil {
		return nil, err
	}

	if err = s.graphRepo.UpsertContent(ctx, id, authorID, content.CreatedAt); err != nil {
		log.WarnContext(ctx, "graph content node upsert failed", "content_id", id, "err", err)
	}
	if s.searchRepo != nil {
		if err = s.searchRepo.IndexContent(ctx, toContentES(content)); err != nil {
			log.WarnContext(ctx, "search mirror index failed", "content_id", id, "err", err)
		}
	}

	for _, m := range content.Media {
		if m.Type != mongo.MediaTypeImage {
			continue
		}
		body, err := events.EncodeMediaEvent(events.MediaEvent{ContentID: id, MediaRef: m.URL, MimeType: m.MimeType})
		if err == nil {
			err = s.publisher.Publish(ctx, s.queues.MediaTagging, body)
		}
		if err != nil {
			log.WarnContext(ctx, "publish media tagging event failed", "content_id", id, "ref", m.URL, "err", err)
		}
	}

	s.realtime.notify(ctx, events.RealtimeNewPost, map[string]any{
		"contentId": id,
		"authorId":  authorID,
	}, "")

	return toContentDTO(content, authorID), nil
}

func (s *ContentServiceImpl) DeleteContent(ctx context.Context, authorID uint64, contentID string) error {
	content, err := s.contentRepo.GetByID(ctx, contentID)
	if err != nil {
		return err
	}
	if content == nil {
		return ErrContentNotFound
	}
	if content.AuthorID != authorID {
		return UnauthorizedError
	}

	deleted, err := s.contentRepo.Delete(ctx, contentID, authorID)
	if err != nil {
		return err
	}
	if !deleted {
		return ErrContentNotFound
	}

	if n, err := s.commentRepo.DeleteByContent(ctx, contentID); err != nil {
		log.WarnContext(ctx, "delete comments failed", "content_id", contentID, "err", err)
	} else if n > 0 {
		log.InfoContext(ctx, "comments removed with content", "content_id", contentID, "count", n)
	}
	if err = s.graphRepo.RemoveContent(ctx, contentID); err != nil {
		log.WarnContext(ctx, "graph content node removal failed", "content_id", contentID, "err", err)
	}
	if s.searchRepo != nil {
		if err = s.searchRepo.DeleteContent(ctx, contentID); err != nil {
			log.WarnContext(ctx, "search mirror delete failed", "content_id", contentID, "err", err)
		}
	}

	s.realtime.notify(ctx, events.RealtimeDeletePost, map[string]string{"contentId": contentID}, "")
	return nil
}

func (s *ContentServiceImpl) GetContent(ctx context.Context, viewerID uint64, contentID string) (*dto.ContentDTO, error) {
	content, err := s.contentRepo.GetByID(ctx, contentID)
	if err != nil {
		return nil, err
	}
	if content == nil {
		return nil, ErrContentNotFound
	}
	return toContentDTO(content, viewerID), nil
}

func (s *ContentServiceImpl) ListByAuthor(ctx context.Context, viewerID, authorID uint64, page, pageSize int) ([]*dto.ContentDTO, error) {
	page, pageSize = normalizePage(page, pageSize, defaultListSize, maxListSize)
	list, err := s.contentRepo.ListByAuthor(ctx, authorID, int64(pageSize), int64((page-1)*pageSize))
	if err != nil {
		return nil, err
	}
	out := make([]*dto.ContentDTO, 0, len(list))
	for _, c := range list {
		out = append(out, toContentDTO(c, viewerID))
	}
	return out, nil
}

// ListFeed 首页：关注的作者与自己的内容，关注列表读取失败时只返回自己的内容
func (s *ContentServiceImpl) ListFeed(ctx context.Context, viewerID uint64, page, pageSize int) (*dto.FeedPage, error) {
	page, pageSize = normalizePage(page, pageSize, defaultFeedSize, maxListSize)

	authors := []uint64{viewerID}
	following, err := s.graphRepo.ListFollowing(ctx, viewerID)
	if err != nil {
		log.WarnContext(ctx, "list following for feed failed, falling back to own content", "user_id", viewerID, "err", err)
	} else {
		authors = append(authors, following...)
	}

	offset := int64((page - 1) * pageSize)
	list, total, err := s.contentRepo.ListByAuthors(ctx, authors, int64(pageSize), offset)
	if err != nil {
		return nil, err
	}

	items := make([]*dto.ContentDTO, 0, len(list))
	for _, c := range list {
		items = append(items, toContentDTO(c, viewerID))
	}
	return &dto.FeedPage{
		Items:   items,
		Page:    page,
		HasMore: offset+int64(len(list)) < total,
	}, nil
}

// detectMime 未显式给出 mime 时按扩展名推断
func detectMime(m dto.MediaDTO) string {
	if m.MimeType != "" {
		return m.MimeType
	}
	if t := mime.TypeByExtension(strings.ToLower(path.Ext(m.URL))); t != "" {
		return t
	}
	if m.Type == mongo.MediaTypeVideo {
		return consts.MimePrefixVideo + "/mp4"
	}
	return consts.MimePrefixImage + "/jpeg"
}

func normalizePage(page, pageSize, def, maxSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = def
	}
	if maxSize > 0 && pageSize > maxSize {
		pageSize = maxSize
	}
	return page, pageSize
}

func toContentDTO(c *mongo.ContentModel, viewerID uint64) *dto.ContentDTO {
	media := make([]dto.MediaDTO, 0, len(c.Media))
	for _, m := range c.Media {
		media = append(media, dto.MediaDTO{URL: m.URL, Type: m.Type, MimeType: m.MimeType})
	}
	tags := c.AutoTags
	if tags == nil {
		tags = []string{}
	}
	return &dto.ContentDTO{
		ID:          c.ID.Hex(),
		AuthorID:    c.AuthorID,
		AuthorName:  c.AuthorName,
		AuthorPhoto: c.AuthorPhoto,
		Description: c.Description,
		Media:       media,
		AutoTags:    tags,
		LikeCount:   len(c.Likes),
		Liked:       viewerID != 0 && c.LikedBy(viewerID),
		CreatedAt:   c.CreatedAt,
	}
}

func toContentES(c *mongo.ContentModel) *es.ContentES {
	media := make([]es.ContentMediaES, 0, len(c.Media))
	for _, m := range c.Media {
		media = append(media, es.ContentMediaES{Type: m.Type, URL: m.URL})
	}
	return &es.ContentES{
		ID:          c.ID.Hex(),
		AuthorID:    c.AuthorID,
		AuthorName:  c.AuthorName,
		AuthorPhoto: c.AuthorPhoto,
		Description: c.Description,
		AutoTags:    c.AutoTags,
		Media:       media,
		CreatedAt:   c.CreatedAt,
	}
}
