package service

import (
	"Lumen/internal/api/config"
	"Lumen/internal/api/dto"
	"Lumen/internal/pkg/events"
	"Lumen/internal/pkg/mongo"
	"Lumen/internal/pkg/mq"
	"Lumen/internal/pkg/util"
	"context"
	"strings"
	"time"
)

type CommentService interface {
	CreateComment(ctx context.Context, userID uint64, contentID string, req *dto.CreateCommentDTO) (*dto.CommentDTO, error)
	ListComments(ctx context.Context, contentID string, page, pageSize int) ([]*dto.CommentDTO, error)
}

type CommentServiceImpl struct {
	commentRepo mongo.CommentRepo
	contentRepo mongo.ContentRepo
	userService UserService
	realtime    realtimeNotifier
}

func NewCommentService(commentRepo mongo.CommentRepo, contentRepo mongo.ContentRepo, userService UserService, publisher mq.Publisher, queues config.QueueNames) CommentService {
	return &CommentServiceImpl{
		commentRepo: commentRepo,
		contentRepo: contentRepo,
		userService: userService,
		realtime:    realtimeNotifier{publisher: publisher, queue: queues.Realtime},
	}
}

func (s *CommentServiceImpl) CreateComment(ctx context.Context, userID uint64, contentID string, req *dto.CreateCommentDTO) (*dto.CommentDTO, error) {
	if err := util.ValidateDTO(req); err != nil {
		return nil, ErrParamInvalid
	}
	text := strings.TrimSpace(req.Text)
	if text == "" {
		return nil, ErrParamInvalid
	}

	content, err := s.contentRepo.GetByID(ctx, contentID)
	if err != nil {
		return nil, err
	}
	if content == nil {
		return nil, ErrContentNotFound
	}

	user, err := s.userService.GetUserSimpleInfo(ctx, userID)
	if err != nil {
		return nil, err
	}

	comment := &mongo.CommentModel{
		ContentID: contentID,
		UserID:    userID,
		UserName:  user.Nickname,
		UserPhoto: user.AvatarURL,
		Text:      text,
		ParentID:  req.ParentID,
		CreatedAt: time.Now().UTC().Truncate(time.Millisecond),
	}
	if _, err = s.commentRepo.Create(ctx, comment); err != nil {
		return nil, err
	}

	if content.AuthorID != userID {
		s.realtime.notify(ctx, events.RealtimeNewComment, map[string]any{
			"contentId": contentID,
			"commentId": comment.ID.Hex(),
			"userId":    userID,
		}, events.UserRoom(content.AuthorID))
	}
	return toCommentDTO(comment), nil
}

func (s *CommentServiceImpl) ListComments(ctx context.Context, contentID string, page, pageSize int) ([]*dto.CommentDTO, error) {
	page, pageSize = normalizePage(page, pageSize, defaultListSize, maxListSize)
	list, err := s.commentRepo.ListByContent(ctx, contentID, int64(pageSize), int64((page-1)*pageSize))
	if err != nil {
		return nil, err
	}
	out := make([]*dto.CommentDTO, 0, len(list))
	for _, c := range list {
		out = append(out, toCommentDTO(c))
	}
	return out, nil
}

func toCommentDTO(c *mongo.CommentModel) *dto.CommentDTO {
	return &dto.CommentDTO{
		ID:        c.ID.Hex(),
		ContentID: c.ContentID,
		UserID:    c.UserID,
		UserName:  c.UserName,
		UserPhoto: c.UserPhoto,
		Text:      c.Text,
		ParentID:  c.ParentID,
		CreatedAt: c.CreatedAt,
	}
}
