package llm

import (
	"Lumen/internal/api/config"
	log "log/slog"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

const defaultTagPrompt = `You label images. Reply with a JSON array of short lowercase English labels describing the visible subjects, scene and style. Reply with the array only.`

// NewVisionModel 创建视觉模型客户端，进程启动时调用一次
func NewVisionModel(cfg config.LLMConfig) (llms.Model, error) {
	llm, err := openai.New(
		openai.WithModel(cfg.VisionModel),
		openai.WithToken(cfg.ApiKey),
		openai.WithBaseURL(cfg.URL),
	)
	if err != nil {
		log.Error("视觉模型初始化失败", "err", err)
		return nil, err
	}
	return llm, nil
}

// LoadTagPrompt 读取打标 prompt，文件缺失时使用内置 prompt
func LoadTagPrompt(file string) string {
	if file == "" {
		return defaultTagPrompt
	}
	if p := readPrompt(file); p != "" {
		return p
	}
	return defaultTagPrompt
}
