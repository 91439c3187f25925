package model

import "strings"

// AIArticleRequest 是 insertWithAI / updateWithAI 接口的请求体。
type AIArticleRequest struct {
	ArticleID     *int64 `json:"articleId"`
	Prompt        string `json:"prompt"`
	GenerateImage bool   `json:"generateImage"`
}

// AIArticleResponse 是模型必须返回的 JSON 结构。
type AIArticleResponse struct {
	Title       string  `json:"title"`
	Content     string  `json:"content"`
	CategoryID  int64   `json:"categoryId"`
	TagList     string  `json:"tagList"`
	ImagePrompt *string `json:"imagePrompt"`
}

// AIArticleUpdateResponse 在 AIArticleResponse 前加上模型回显的 articleId。
type AIArticleUpdateResponse struct {
	ArticleID int64 `json:"articleId"`
	AIArticleResponse
}

// AICategorySummary 是放进提示词里的分类摘要。
type AICategorySummary struct {
	CategoryID int64  `json:"categoryId"`
	Title      string `json:"title"`
	ParentID   *int64 `json:"parentId"`
}

// ImagePromptText 返回去掉首尾空白的图片提示词，nil 视为空。
func (r AIArticleResponse) ImagePromptText() string {
	if r.ImagePrompt == nil {
		return ""
	}
	return strings.TrimSpace(*r.ImagePrompt)
}
