package llm

import (
	"errors"
	log "log/slog"
	"os"
	"strings"

	"github.com/goccy/go-json"
)

var ErrEmptyResponse = errors.New("模型返回数据为空")

func readPrompt(file string) string {
	data, err := os.ReadFile(file)
	if err != nil {
		log.Error("读取prompt文件失败", "file", file, "err", err)
		return ""
	}
	return strings.TrimSpace(string(data))
}

// ParseTags 解析模型输出，支持 JSON 数组、{"tags": [...]} 与逗号分隔文本
func ParseTags(s string) ([]string, error) {
	cleaned := strings.TrimSpace(s)
	cleaned = strings.TrimPrefix(cleaned, "```json")
	cleaned = strings.TrimPrefix(cleaned, "```")
	cleaned = strings.TrimSuffix(cleaned, "```")
	cleaned = strings.TrimSpace(cleaned)
	if cleaned == "" {
		return nil, ErrEmptyResponse
	}

	var tags []string
	if strings.HasPrefix(cleaned, "[") {
		if err := json.Unmarshal([]byte(cleaned), &tags); err != nil {
			return nil, err
		}
		return tags, nil
	}
	if strings.HasPrefix(cleaned, "{") {
		var wrapped struct {
			Tags   []string `json:"tags"`
			Labels []string `json:"labels"`
		}
		if err := json.Unmarshal([]byte(cleaned), &wrapped); err != nil {
			return nil, err
		}
		return append(wrapped.Tags, wrapped.Labels...), nil
	}
	return strings.FieldsFunc(cleaned, func(r rune) bool {
		return r == ',' || r == '，' || r == '\n'
	}), nil
}
