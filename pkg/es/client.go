// Package es 提供了与 Elasticsearch 交互的客户端功能：文章索引的维护和全文检索。
package es

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
	"nnews-go/internal/config"
	"nnews-go/internal/model"
	"nnews-go/pkg/log"
)

var ESClient *elasticsearch.Client

// articleMapping 是文章索引的结构。roles 为空表示所有人可见。
const articleMapping = `{
	"mappings": {
		"properties": {
			"article_id":  { "type": "long" },
			"category_id": { "type": "long" },
			"title":       { "type": "text" },
			"content":     { "type": "text" },
			"tags":        { "type": "keyword" },
			"roles":       { "type": "keyword" },
			"status":      { "type": "integer" },
			"date_at":     { "type": "date" }
		}
	}
}`

// InitES 初始化 Elasticsearch 客户端并确保文章索引存在。
func InitES(esCfg config.ElasticsearchConfig) error {
	cfg := elasticsearch.Config{
		Addresses: strings.Split(esCfg.Addresses, ","),
		Username:  esCfg.Username,
		Password:  esCfg.Password,
		Transport: &http.Transport{
			TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
		},
	}
	client, err := elasticsearch.NewClient(cfg)
	if err != nil {
		return err
	}
	ESClient = client
	return createIndexIfNotExists(client, esCfg.IndexName)
}

// createIndexIfNotExists 检查索引是否存在，如果不存在则创建它
func createIndexIfNotExists(client *elasticsearch.Client, indexName string) error {
	res, err := client.Indices.Exists([]string{indexName})
	if err != nil {
		log.Errorf("检查索引是否存在时出错: %v", err)
		return err
	}
	if res.Body != nil {
		res.Body.Close()
	}
	if res.StatusCode == http.StatusOK {
		log.Infof("索引 '%s' 已存在", indexName)
		return nil
	}
	if res.StatusCode != http.StatusNotFound {
		log.Errorf("检查索引 '%s' 是否存在时收到意外的状态码: %d", indexName, res.StatusCode)
		return fmt.Errorf("检查索引是否存在时收到意外的状态码: %d", res.StatusCode)
	}

	res, err = client.Indices.Create(
		indexName,
		client.Indices.Create.WithBody(strings.NewReader(articleMapping)),
	)
	if err != nil {
		log.Errorf("创建索引 '%s' 失败: %v", indexName, err)
		return err
	}
	defer res.Body.Close()
	if res.IsError() {
		log.Errorf("创建索引 '%s' 时 Elasticsearch 返回错误: %s", indexName, res.String())
		return errors.New("创建索引时 Elasticsearch 返回错误")
	}

	log.Infof("索引 '%s' 创建成功", indexName)
	return nil
}

// ArticleIndex 封装了对文章索引的读写。
type ArticleIndex struct {
	client *elasticsearch.Client
	index  string
}

// NewArticleIndex 创建 ArticleIndex。
func NewArticleIndex(client *elasticsearch.Client, indexName string) *ArticleIndex {
	return &ArticleIndex{client: client, index: indexName}
}

// IndexArticle 写入（或覆盖）一篇文章的索引文档。
func (i *ArticleIndex) IndexArticle(ctx context.Context, doc model.ArticleDocument) error {
	docBytes, err := json.Marshal(doc)
	if err != nil {
		return err
	}

	req := esapi.IndexRequest{
		Index:      i.index,
		DocumentID: strconv.FormatInt(doc.ArticleID, 10),
		Body:       bytes.NewReader(docBytes),
		Refresh:    "true",
	}
	res, err := req.Do(ctx, i.client)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.IsError() {
		log.Errorf("索引文章到 Elasticsearch 出错: %s", res.String())
		return fmt.Errorf("failed to index article %d", doc.ArticleID)
	}
	return nil
}

// DeleteArticle 删除一篇文章的索引文档，文档不存在时视为成功。
func (i *ArticleIndex) DeleteArticle(ctx context.Context, articleID int64) error {
	req := esapi.DeleteRequest{
		Index:      i.index,
		DocumentID: strconv.FormatInt(articleID, 10),
		Refresh:    "true",
	}
	res, err := req.Do(ctx, i.client)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.IsError() && res.StatusCode != http.StatusNotFound {
		log.Errorf("从 Elasticsearch 删除文章出错: %s", res.String())
		return fmt.Errorf("failed to delete article %d from index", articleID)
	}
	return nil
}

// searchQuery 构造关键字检索语句：只匹配已发布、且没有角色限制或角色有交集的文章。
func searchQuery(keyword string, roles []string, offset, limit int) map[string]interface{} {
	visibility := []map[string]interface{}{
		{"bool": map[string]interface{}{
			"must_not": map[string]interface{}{"exists": map[string]interface{}{"field": "roles"}},
		}},
	}
	if len(roles) > 0 {
		lowered := make([]string, 0, len(roles))
		for _, r := range roles {
			lowered = append(lowered, strings.ToLower(strings.TrimSpace(r)))
		}
		visibility = append(visibility, map[string]interface{}{
			"terms": map[string]interface{}{"roles": lowered},
		})
	}

	return map[string]interface{}{
		"from":    offset,
		"size":    limit,
		"_source": []string{"article_id"},
		"query": map[string]interface{}{
			"bool": map[string]interface{}{
				"must": map[string]interface{}{
					"multi_match": map[string]interface{}{
						"query":  keyword,
						"fields": []string{"title^2", "content"},
					},
				},
				"filter": []map[string]interface{}{
					{"term": map[string]interface{}{"status": int(model.StatusPublished)}},
					{"bool": map[string]interface{}{
						"should":               visibility,
						"minimum_should_match": 1,
					}},
				},
			},
		},
		"sort": []interface{}{"_score", map[string]interface{}{"date_at": "desc"}},
	}
}

// SearchArticles 按相关度返回对 roles 可见的已发布文章 ID。
func (i *ArticleIndex) SearchArticles(ctx context.Context, keyword string, roles []string, offset, limit int) (*model.SearchHits, error) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(searchQuery(keyword, roles, offset, limit)); err != nil {
		return nil, fmt.Errorf("encode search query: %w", err)
	}

	res, err := i.client.Search(
		i.client.Search.WithContext(ctx),
		i.client.Search.WithIndex(i.index),
		i.client.Search.WithBody(&buf),
		i.client.Search.WithTrackTotalHits(true),
	)
	if err != nil {
		return nil, fmt.Errorf("elasticsearch search failed: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		bodyBytes, _ := io.ReadAll(res.Body)
		log.Errorf("[ArticleIndex] Elasticsearch 返回错误, status: %s, body: %s", res.Status(), string(bodyBytes))
		return nil, fmt.Errorf("elasticsearch returned an error: %s", res.Status())
	}

	var esResponse struct {
		Hits struct {
			Total struct {
				Value int64 `json:"value"`
			} `json:"total"`
			Hits []struct {
				Source struct {
					ArticleID int64 `json:"article_id"`
				} `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&esResponse); err != nil {
		return nil, fmt.Errorf("failed to decode es response: %w", err)
	}

	hits := &model.SearchHits{
		ArticleIDs: make([]int64, 0, len(esResponse.Hits.Hits)),
		Total:      esResponse.Hits.Total.Value,
	}
	for _, h := range esResponse.Hits.Hits {
		hits.ArticleIDs = append(hits.ArticleIDs, h.Source.ArticleID)
	}
	return hits, nil
}
