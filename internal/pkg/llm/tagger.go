package llm

import (
	"Lumen/internal/pkg/media"
	"Lumen/internal/pkg/util"
	"context"
	log "log/slog"
	"time"

	"github.com/tmc/langchaingo/llms"
)

// Extractor 从媒体中提取标签
type Extractor interface {
	Extract(ctx context.Context, data []byte, mimeType string) ([]string, error)
}

type VisionTagger struct {
	model     llms.Model
	modelName string
	prompt    string
	maxSide   int
	maxLabels int
	timeout   time.Duration
}

func NewVisionTagger(model llms.Model, modelName, prompt string, maxSide, maxLabels int, timeout time.Duration) *VisionTagger {
	return &VisionTagger{
		model:     model,
		modelName: modelName,
		prompt:    prompt,
		maxSide:   maxSide,
		maxLabels: maxLabels,
		timeout:   timeout,
	}
}

// Extract 非图片媒体直接返回空标签
func (s *VisionTagger) Extract(ctx context.Context, data []byte, mimeType string) ([]string, error) {
	if !media.IsImage(mimeType) {
		log.InfoContext(ctx, "skip tagging for non-image media", "mime", mimeType)
		return nil, nil
	}

	img, imgMime, err := media.PrepareImage(data, s.maxSide)
	if err != nil {
		return nil, err
	}

	if err = ImageSem.Acquire(ctx, ImageWeight); err != nil {
		return nil, err
	}
	defer ImageSem.Release(ImageWeight)

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	messages := []llms.MessageContent{
		{
			Role: llms.ChatMessageTypeSystem,
			Parts: []llms.ContentPart{
				llms.TextPart(s.prompt),
			},
		},
		{
			Role: llms.ChatMessageTypeHuman,
			Parts: []llms.ContentPart{
				llms.BinaryPart(imgMime, img),
			},
		},
	}

	start := time.Now()
	resp, err := s.model.GenerateContent(ctx, messages,
		llms.WithModel(s.modelName),
		llms.WithTemperature(0.1),
	)
	if err != nil {
		return nil, err
	}
	if len(resp.Choices) == 0 {
		return nil, ErrEmptyResponse
	}

	raw, err := ParseTags(resp.Choices[0].Content)
	if err != nil {
		return nil, err
	}
	tags := util.NormalizeTags(raw, s.maxLabels)
	log.InfoContext(ctx, "image tagged", "tags", len(tags), "cost", time.Since(start).String())
	return tags, nil
}
