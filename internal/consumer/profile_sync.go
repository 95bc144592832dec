package consumer

import (
	"Lumen/internal/pkg/es"
	"Lumen/internal/pkg/events"
	"Lumen/internal/pkg/mongo"
	"Lumen/internal/pkg/mq"
	"context"
	log "log/slog"

	"github.com/pkg/errors"
)

// ProfileSyncConsumer 把用户昵称 / 头像同步到内容与评论的冗余字段
type ProfileSyncConsumer struct {
	contentRepo mongo.ContentRepo
	commentRepo mongo.CommentRepo
	searchRepo  es.ContentRepo
}

// NewProfileSyncConsumer searchRepo 可为 nil
func NewProfileSyncConsumer(contentRepo mongo.ContentRepo, commentRepo mongo.CommentRepo, searchRepo es.ContentRepo) *ProfileSyncConsumer {
	return &ProfileSyncConsumer{
		contentRepo: contentRepo,
		commentRepo: commentRepo,
		searchRepo:  searchRepo,
	}
}

func (s *ProfileSyncConsumer) Handle(ctx context.Context, d *mq.Delivery) error {
	change, err := events.ParseProfileChange(d.Body)
	if err != nil {
		log.WarnContext(ctx, "drop malformed profile change", "queue", d.Queue, "err", err)
		return d.Nack(false)
	}
	if change.Empty() {
		return d.Ack()
	}

	contents, err := s.contentRepo.UpdateAuthorProfile(ctx, change.UserID, change.Name, change.Photo)
	if err != nil {
		return errors.Wrap(err, "sync content author")
	}
	comments, err := s.commentRepo.UpdateAuthorProfile(ctx, change.UserID, change.Name, change.Photo)
	if err != nil {
		return errors.Wrap(err, "sync comment author")
	}
	if s.searchRepo != nil {
		if err = s.searchRepo.UpdateAuthorDetail(ctx, change.UserID, change.Name, change.Photo); err != nil {
			return errors.Wrap(err, "sync search author")
		}
	}

	log.InfoContext(ctx, "profile synced", "user_id", change.UserID, "contents", contents, "comments", comments)
	return d.Ack()
}
