package util

import (
	"strings"
	"unicode/utf8"
)

// NormalizeTags 去空白、转小写、去重，最多保留 limit 个 (limit <= 0 不限制)
func NormalizeTags(raw []string, limit int) []string {
	tagSet := make(map[string]struct{}, len(raw))
	tags := make([]string, 0, len(raw))

	for _, t := range raw {
		tagName := strings.ToLower(strings.TrimSpace(t))
		tagName = strings.Trim(tagName, "#.,，。!?！？\"'")
		if tagName == "" || utf8.RuneCountInString(tagName) > 40 {
			continue
		}
		if _, exists := tagSet[tagName]; exists {
			continue
		}
		tagSet[tagName] = struct{}{}
		tags = append(tags, tagName)
		if limit > 0 && len(tags) >= limit {
			break
		}
	}

	return tags
}

// PtrStr 用于将 string 转换为 *string
func PtrStr(s string) *string {
	return &s
}
