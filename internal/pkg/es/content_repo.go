package es

import (
	"context"
	"errors"
	"fmt"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/typedapi/types"
	"github.com/elastic/go-elasticsearch/v8/typedapi/types/enums/conflicts"
	"github.com/goccy/go-json"
)

// ContentRepo 内容搜索镜像，只负责保持冗余字段同步
type ContentRepo interface {
	IndexContent(ctx context.Context, content *ContentES) error
	DeleteContent(ctx context.Context, id string) error
	UpdateAuthorDetail(ctx context.Context, authorID uint64, name, photo *string) error
	AddAutoTags(ctx context.Context, id string, tags []string) error
}

type ContentRepoImpl struct {
	client *elasticsearch.TypedClient
	index  string
}

func NewContentRepo(client *elasticsearch.TypedClient, index string) ContentRepo {
	return &ContentRepoImpl{client: client, index: index}
}

func (s *ContentRepoImpl) IndexContent(ctx context.Context, content *ContentES) error {
	_, err := s.client.Index(s.index).
		Id(content.ID).
		Document(content).
		Do(ctx)
	if err != nil {
		var e *types.ElasticsearchError
		if errors.As(err, &e) && e.Status == ConflictCode {
			return nil
		}
		return err
	}
	return nil
}

func (s *ContentRepoImpl) DeleteContent(ctx context.Context, id string) error {
	_, err := s.client.Delete(s.index, id).Do(ctx)
	if err != nil {
		var e *types.ElasticsearchError
		if errors.As(err, &e) && e.Status == NotFoundCode {
			return nil
		}
		return err
	}
	return nil
}

// UpdateAuthorDetail 只覆盖传入的字段
func (s *ContentRepoImpl) UpdateAuthorDetail(ctx context.Context, authorID uint64, name, photo *string) error {
	source, params := AuthorDetailScript(name, photo)
	if source == "" {
		return nil
	}

	resp, err := s.client.UpdateByQuery(s.index).
		Query(&types.Query{
			Term: map[string]types.TermQuery{
				"author_id": {Value: authorID},
			},
		}).
		Script(&types.Script{
			Source: &source,
			Params: params,
		}).
		Conflicts(conflicts.Proceed).
		Do(ctx)
	if err != nil {
		return fmt.Errorf("content index: update author detail failed: %w", err)
	}
	if len(resp.Failures) != 0 {
		return fmt.Errorf("content index: update author detail has failures, count: %d", len(resp.Failures))
	}
	return nil
}

// AddAutoTags 标签按集合语义合并
func (s *ContentRepoImpl) AddAutoTags(ctx context.Context, id string, tags []string) error {
	if len(tags) == 0 {
		return nil
	}
	tagsJSON, err := json.Marshal(tags)
	if err != nil {
		return err
	}
	source := "if (ctx._source.auto_tags == null) { ctx._source.auto_tags = [] } " +
		"for (t in params.tags) { if (!ctx._source.auto_tags.contains(t)) { ctx._source.auto_tags.add(t) } }"

	resp, err := s.client.UpdateByQuery(s.index).
		Query(&types.Query{
			Ids: &types.IdsQuery{Values: []string{id}},
		}).
		Script(&types.Script{
			Source: &source,
			Params: map[string]json.RawMessage{"tags": tagsJSON},
		}).
		Conflicts(conflicts.Proceed).
		Do(ctx)
	if err != nil {
		return fmt.Errorf("content index: add auto tags failed: %w", err)
	}
	if len(resp.Failures) != 0 {
		return fmt.Errorf("content index: add auto tags has failures, count: %d", len(resp.Failures))
	}
	return nil
}

// AuthorDetailScript 根据传入字段生成 painless 脚本，两者都为空时返回空脚本
func AuthorDetailScript(name, photo *string) (string, map[string]json.RawMessage) {
	source := ""
	params := map[string]json.RawMessage{}
	if name != nil {
		b, _ := json.Marshal(*name)
		params["author_name"] = b
		source += "ctx._source.author_name = params.author_name;"
	}
	if photo != nil {
		b, _ := json.Marshal(*photo)
		params["author_photo"] = b
		source += "ctx._source.author_photo = params.author_photo;"
	}
	return source, params
}
