package es

import "time"

// ContentES 写入 ES 的内容镜像文档
type ContentES struct {
	ID          string           `json:"id"`
	AuthorID    uint64           `json:"author_id"`
	AuthorName  string           `json:"author_name"`
	AuthorPhoto string           `json:"author_photo"`
	Description string           `json:"description"`
	AutoTags    []string         `json:"auto_tags"`
	Media       []ContentMediaES `json:"media"`
	CreatedAt   time.Time        `json:"created_at"`
}

type ContentMediaES struct {
	Type string `json:"type"`
	URL  string `json:"url"`
}
