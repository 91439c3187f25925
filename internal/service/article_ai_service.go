package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"
	"nnews-go/internal/model"
	"nnews-go/pkg/llm"
)

// ChatCompleter 是聊天补全能力的抽象，llm.Client 实现了它。
type ChatCompleter interface {
	SendConversation(ctx context.Context, messages []llm.Message) (string, error)
}

// CategoryLister 提供提示词中使用的分类列表。
type CategoryLister interface {
	FindAll(ctx context.Context) ([]model.Category, error)
}

// TagLister 提供提示词中使用的已有标签。
type TagLister interface {
	FindAll(ctx context.Context) ([]model.Tag, error)
}

// ArticleStore 是 AI 流程依赖的文章读写能力，ArticleService 实现了它。
type ArticleStore interface {
	GetByID(ctx context.Context, id int64) (*model.ArticleInfo, error)
	Insert(ctx context.Context, cmd model.ArticleInsertCommand) (*model.ArticleInfo, error)
	Update(ctx context.Context, cmd model.ArticleUpdateCommand) (*model.ArticleInfo, error)
}

// ImageUploader 把图片提示词变成已上传图片的 URL，ImageService 实现了它。
type ImageUploader interface {
	GenerateAndUpload(ctx context.Context, prompt string) (string, error)
}

// ArticleAIService 用大模型根据自然语言提示创建或修改文章。
type ArticleAIService interface {
	GenerateNewArticle(ctx context.Context, prompt string, generateImage bool) (*model.ArticleInfo, error)
	ApplyAIUpdate(ctx context.Context, articleID int64, prompt string, generateImage bool) (*model.ArticleInfo, error)
}

type articleAIService struct {
	articles   ArticleStore
	categories CategoryLister
	tags       TagLister
	chat       ChatCompleter
	images     ImageUploader
	logger     *zap.SugaredLogger
	now        func() time.Time
}

// NewArticleAIService 创建 ArticleAIService。logger 为 nil 时不输出日志。
func NewArticleAIService(articles ArticleStore, categories CategoryLister, tags TagLister, chat ChatCompleter, images ImageUploader, logger *zap.SugaredLogger) ArticleAIService {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &articleAIService{
		articles:   articles,
		categories: categories,
		tags:       tags,
		chat:       chat,
		images:     images,
		logger:     logger,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

const insertSystemPrompt = `You are a professional content writer assistant. Generate a complete article based on the user's request.

IMPORTANT INSTRUCTIONS:
1. Return ONLY a valid JSON object with the exact structure shown below
2. The 'content' field MUST be in HTML format with proper semantic tags (<h2>, <h3>, <p>, <ul>, <li>, <strong>, <em>, etc.)
3. Choose the most appropriate categoryId from the provided list
4. For tagList, use existing tags when possible, but you can create new ones if needed (comma-separated list of tag names)
5. If generateImage is true, provide a detailed imagePrompt in Portuguese describing the desired image
6. Write in a professional, engaging style appropriate for a news/blog article
7. DO NOT include markdown formatting - use HTML only

Response JSON structure:
{
    "title": "Article title here",
    "content": "<h2>Introduction</h2><p>First paragraph...</p><h2>Main Content</h2><p>More content...</p>",
    "categoryId": 1,
    "tagList": "Technology, Innovation, AI",
    "imagePrompt": "Detailed image description in Portuguese"
}`

const updateSystemPrompt = `You are a professional content editor assistant. Update or improve an existing article based on the user's request.

IMPORTANT INSTRUCTIONS:
1. Return ONLY a valid JSON object with the exact structure shown below
2. The 'content' field MUST be in HTML format with proper semantic tags (<h2>, <h3>, <p>, <ul>, <li>, <strong>, <em>, etc.)
3. You will receive the CURRENT article data - use it as context for your updates
4. Apply the requested changes while maintaining quality and coherence
5. Choose the most appropriate categoryId from the provided list (you can change it if needed)
6. For tagList, use existing tags when possible, but you can create new ones if needed (comma-separated list of tag names)
7. If generateImage is true, provide a detailed imagePrompt in Portuguese describing the desired image
8. Improve and enhance the content while maintaining or improving the original intent
9. DO NOT include markdown formatting - use HTML only
10. ALWAYS return the articleId that was provided

Response JSON structure:
{
    "articleId": 123,
    "title": "Updated article title here",
    "content": "<h2>Introduction</h2><p>First paragraph...</p><h2>Main Content</h2><p>More content...</p>",
    "categoryId": 1,
    "tagList": "Technology, Innovation, AI",
    "imagePrompt": "Detailed image description in Portuguese"
}`

// currentArticle 是放进更新提示词里的现有文章快照。
type currentArticle struct {
	ArticleID    int64               `json:"articleId"`
	Title        string              `json:"title"`
	Content      string              `json:"content"`
	CategoryID   int64               `json:"categoryId"`
	CategoryName string              `json:"categoryName"`
	Tags         []string            `json:"tags"`
	Status       model.ArticleStatus `json:"status"`
	DateAt       time.Time           `json:"dateAt"`
	HasImage     bool                `json:"hasImage"`
}

func (s *articleAIService) GenerateNewArticle(ctx context.Context, prompt string, generateImage bool) (*model.ArticleInfo, error) {
	if strings.TrimSpace(prompt) == "" {
		return nil, invalidArgument("prompt cannot be empty")
	}
	s.logger.Infow("ai article generation started",
		"promptLength", utf8.RuneCountInString(prompt),
		"generateImage", generateImage,
	)

	categoriesJSON, tagTitles, err := s.loadContext(ctx)
	if err != nil {
		return nil, err
	}

	userMessage := fmt.Sprintf(`Generate an article based on this request: %s

Available categories:
%s

Existing tags you can use (feel free to suggest new ones):
%s

Remember: Return ONLY the JSON object, no additional text or markdown formatting.`,
		prompt, categoriesJSON, strings.Join(tagTitles, ", "))

	raw, err := s.complete(ctx, 0, insertSystemPrompt, userMessage)
	if err != nil {
		return nil, err
	}
	resp, err := ParseAIArticleResponse(raw)
	if err != nil {
		s.logger.Errorw("ai response rejected", "responseLength", len(raw), "error", err)
		return nil, err
	}

	imageName := ""
	if generateImage && resp.ImagePromptText() != "" {
		// 下载或上传失败直接返回，不会创建文章
		imageName, err = s.images.GenerateAndUpload(ctx, resp.ImagePromptText())
		if err != nil {
			return nil, fmt.Errorf("generate article image: %w", err)
		}
		if imageName == "" {
			s.logger.Warnw("image generation produced no image, continuing without one")
		}
	}

	created, err := s.articles.Insert(ctx, model.ArticleInsertCommand{
		CategoryID: resp.CategoryID,
		Title:      resp.Title,
		Content:    resp.Content,
		TagList:    resp.TagList,
		Status:     model.StatusDraft,
		DateAt:     s.now(),
		ImageName:  imageName,
	})
	if err != nil {
		return nil, err
	}
	s.logger.Infow("article created via ai", "articleId", created.ArticleID, "title", created.Title)
	return created, nil
}

func (s *articleAIService) ApplyAIUpdate(ctx context.Context, articleID int64, prompt string, generateImage bool) (*model.ArticleInfo, error) {
	if articleID <= 0 {
		return nil, invalidArgument("article id must be greater than zero")
	}
	if strings.TrimSpace(prompt) == "" {
		return nil, invalidArgument("prompt cannot be empty")
	}
	s.logger.Infow("ai article update started",
		"articleId", articleID,
		"promptLength", utf8.RuneCountInString(prompt),
		"generateImage", generateImage,
	)

	existing, err := s.articles.GetByID(ctx, articleID)
	if err != nil {
		return nil, err
	}

	categoriesJSON, tagTitles, err := s.loadContext(ctx)
	if err != nil {
		return nil, err
	}
	currentJSON, err := json.MarshalIndent(snapshotOf(existing), "", "  ")
	if err != nil {
		return nil, err
	}

	userMessage := fmt.Sprintf(`Update the following article based on this request: %s

CURRENT ARTICLE DATA:
%s

Available categories:
%s

Existing tags you can use (feel free to suggest new ones):
%s

REMEMBER:
- Return the articleId=%d in your response
- Return ONLY the JSON object, no additional text or markdown formatting
- Apply the requested changes to the current article content`,
		prompt, currentJSON, categoriesJSON, strings.Join(tagTitles, ", "), articleID)

	raw, err := s.complete(ctx, articleID, updateSystemPrompt, userMessage)
	if err != nil {
		return nil, err
	}
	resp, err := ParseAIArticleUpdateResponse(raw)
	if err != nil {
		s.logger.Errorw("ai response rejected", "articleId", articleID, "responseLength", len(raw), "error", err)
		return nil, err
	}
	if resp.ArticleID != articleID {
		s.logger.Warnw("ai returned a different article id, using the requested one",
			"articleId", articleID,
			"receivedArticleId", resp.ArticleID,
		)
		resp.ArticleID = articleID
	}

	imageName := existing.ImageName
	if generateImage && resp.ImagePromptText() != "" {
		newImage, err := s.images.GenerateAndUpload(ctx, resp.ImagePromptText())
		if err != nil {
			return nil, fmt.Errorf("generate article image: %w", err)
		}
		if newImage != "" {
			imageName = newImage
		} else {
			s.logger.Warnw("image generation produced no image, keeping existing one", "articleId", articleID)
		}
	}

	// 状态和生效时间来自现有文章，AI 不能通过这条路径修改它们
	updated, err := s.articles.Update(ctx, model.ArticleUpdateCommand{
		ArticleID: articleID,
		ArticleInsertCommand: model.ArticleInsertCommand{
			CategoryID: resp.CategoryID,
			AuthorID:   existing.AuthorID,
			Title:      resp.Title,
			Content:    resp.Content,
			TagList:    resp.TagList,
			Status:     existing.Status,
			DateAt:     existing.DateAt,
			ImageName:  imageName,
			Roles:      roleSlugs(existing.Roles),
		},
	})
	if err != nil {
		return nil, err
	}
	s.logger.Infow("article updated via ai", "articleId", updated.ArticleID, "title", updated.Title)
	return updated, nil
}

// loadContext 读取分类（JSON）和已有标签标题，只读。
func (s *articleAIService) loadContext(ctx context.Context) (string, []string, error) {
	categories, err := s.categories.FindAll(ctx)
	if err != nil {
		return "", nil, fmt.Errorf("list categories: %w", err)
	}
	summaries := make([]model.AICategorySummary, 0, len(categories))
	for _, c := range categories {
		summaries = append(summaries, model.AICategorySummary{CategoryID: c.ID, Title: c.Title, ParentID: c.ParentID})
	}
	categoriesJSON, err := json.MarshalIndent(summaries, "", "  ")
	if err != nil {
		return "", nil, err
	}

	tags, err := s.tags.FindAll(ctx)
	if err != nil {
		return "", nil, fmt.Errorf("list tags: %w", err)
	}
	titles := make([]string, 0, len(tags))
	for _, t := range tags {
		titles = append(titles, t.Title)
	}
	return string(categoriesJSON), titles, nil
}

func (s *articleAIService) complete(ctx context.Context, articleID int64, systemPrompt, userMessage string) (string, error) {
	raw, err := s.chat.SendConversation(ctx, []llm.Message{
		{Role: llm.RoleSystem, Content: systemPrompt},
		{Role: llm.RoleUser, Content: userMessage},
	})
	if err != nil {
		return "", fmt.Errorf("send conversation: %w", err)
	}
	s.logger.Infow("ai response received", "articleId", articleID, "responseLength", len(raw))
	if strings.TrimSpace(raw) == "" {
		return "", invalidResponse("AI did not return a valid response")
	}
	return raw, nil
}

func snapshotOf(a *model.ArticleInfo) currentArticle {
	snap := currentArticle{
		ArticleID:    a.ArticleID,
		Title:        a.Title,
		Content:      a.Content,
		CategoryID:   a.CategoryID,
		CategoryName: "Unknown",
		Tags:         make([]string, 0, len(a.Tags)),
		Status:       a.Status,
		DateAt:       a.DateAt,
		HasImage:     strings.TrimSpace(a.ImageName) != "",
	}
	if a.Category != nil {
		snap.CategoryName = a.Category.Title
	}
	for _, t := range a.Tags {
		snap.Tags = append(snap.Tags, t.Title)
	}
	return snap
}

func roleSlugs(roles []model.RoleInfo) []string {
	if len(roles) == 0 {
		return nil
	}
	out := make([]string, 0, len(roles))
	for _, r := range roles {
		out = append(out, r.Slug)
	}
	return out
}

// CleanAIResponse 去掉首尾空白；以 ```json 开头时去掉一个前导 fence 和一个结尾 ```。
func CleanAIResponse(raw string) string {
	s := strings.TrimSpace(raw)
	if strings.HasPrefix(s, "```json") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimSuffix(s, "```")
		s = strings.TrimSpace(s)
	}
	return s
}

// ParseAIArticleResponse 把模型输出解析为 AIArticleResponse。
// 键名大小写不敏感，未知字段忽略；不做任何部分恢复。
func ParseAIArticleResponse(raw string) (*model.AIArticleResponse, error) {
	var resp model.AIArticleResponse
	if err := decodeAIResponse(raw, &resp); err != nil {
		return nil, err
	}
	if err := validateAIArticle(resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ParseAIArticleUpdateResponse 与 ParseAIArticleResponse 相同，额外带回 articleId。
func ParseAIArticleUpdateResponse(raw string) (*model.AIArticleUpdateResponse, error) {
	var resp model.AIArticleUpdateResponse
	if err := decodeAIResponse(raw, &resp); err != nil {
		return nil, err
	}
	if err := validateAIArticle(resp.AIArticleResponse); err != nil {
		return nil, err
	}
	return &resp, nil
}

func decodeAIResponse(raw string, out interface{}) error {
	clean := CleanAIResponse(raw)
	if clean == "" {
		return invalidResponse("AI did not return a valid response")
	}
	if err := json.Unmarshal([]byte(clean), out); err != nil {
		return invalidResponse("failed to deserialize AI response: %v", err)
	}
	return nil
}

func validateAIArticle(r model.AIArticleResponse) error {
	switch {
	case strings.TrimSpace(r.Title) == "":
		return invalidResponse("AI response is missing the title")
	case strings.TrimSpace(r.Content) == "":
		return invalidResponse("AI response is missing the content")
	case r.CategoryID <= 0:
		return invalidResponse("AI response is missing a valid categoryId")
	}
	return nil
}
