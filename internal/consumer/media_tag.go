package consumer

import (
	"Lumen/internal/pkg/es"
	"Lumen/internal/pkg/events"
	"Lumen/internal/pkg/llm"
	"Lumen/internal/pkg/media"
	"Lumen/internal/pkg/mongo"
	"Lumen/internal/pkg/mq"
	"Lumen/internal/pkg/util"
	"context"
	log "log/slog"

	"github.com/pkg/errors"
)

// MediaTagConsumer 调用标签提取能力并合并到内容的 autoTags，单进程只跑一个 worker
type MediaTagConsumer struct {
	contentRepo mongo.ContentRepo
	searchRepo  es.ContentRepo
	fetcher     media.Fetcher
	extractor   llm.Extractor
	maxLabels   int
}

func NewMediaTagConsumer(contentRepo mongo.ContentRepo, searchRepo es.ContentRepo, fetcher media.Fetcher, extractor llm.Extractor, maxLabels int) *MediaTagConsumer {
	return &MediaTagConsumer{
		contentRepo: contentRepo,
		searchRepo:  searchRepo,
		fetcher:     fetcher,
		extractor:   extractor,
		maxLabels:   maxLabels,
	}
}

// Handle 提取失败或无标签都直接确认，只有合并写入失败才重投
func (s *MediaTagConsumer) Handle(ctx context.Context, d *mq.Delivery) error {
	event, err := events.ParseMediaEvent(d.Body)
	if err != nil {
		log.WarnContext(ctx, "drop malformed media event", "queue", d.Queue, "err", err)
		return d.Nack(false)
	}

	tags := s.extract(ctx, event)
	if len(tags) == 0 {
		return d.Ack()
	}

	content, err := s.contentRepo.GetByID(ctx, event.ContentID)
	if err != nil {
		return errors.Wrap(err, "load content")
	}
	if content == nil {
		log.InfoContext(ctx, "content gone before tagging", "content_id", event.ContentID)
		return d.Ack()
	}

	if err = s.contentRepo.AddAutoTags(ctx, event.ContentID, tags); err != nil {
		return errors.Wrap(err, "merge auto tags")
	}
	if s.searchRepo != nil {
		if err = s.searchRepo.AddAutoTags(ctx, event.ContentID, tags); err != nil {
			log.WarnContext(ctx, "search mirror tag merge failed", "content_id", event.ContentID, "err", err)
		}
	}

	log.InfoContext(ctx, "content tagged", "content_id", event.ContentID, "tags", tags)
	return d.Ack()
}

func (s *MediaTagConsumer) extract(ctx context.Context, event events.MediaEvent) []string {
	data, mimeType := event.MediaBytes, event.MimeType
	if len(data) == 0 {
		fetched, fetchedMime, err := s.fetcher.Fetch(ctx, event.MediaRef)
		if err != nil {
			log.WarnContext(ctx, "fetch media failed", "content_id", event.ContentID, "ref", event.MediaRef, "err", err)
			return nil
		}
		data = fetched
		if mimeType == "" {
			mimeType = fetchedMime
		}
	}

	tags, err := s.extractor.Extract(ctx, data, mimeType)
	if err != nil {
		log.WarnContext(ctx, "tag extraction failed", "content_id", event.ContentID, "err", err)
		return nil
	}
	return util.NormalizeTags(tags, s.maxLabels)
}
