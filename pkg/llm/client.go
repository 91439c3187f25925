// Package llm provides a client for OpenAI-compatible chat completion and image generation APIs.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"nnews-go/internal/config"
)

// Client defines the interface for an LLM client.
type Client interface {
	// SendConversation 发送一组 role-based 消息，返回第一条候选回复的文本。
	SendConversation(ctx context.Context, messages []Message) (string, error)
	// GenerateImage 调用图片生成接口，Data 可能为空。
	GenerateImage(ctx context.Context, req ImageRequest) (*ImageResponse, error)
}

type openAIClient struct {
	cfg    config.LLMConfig
	client *http.Client
}

// NewClient creates a new LLM client based on the provider in the config.
func NewClient(cfg config.LLMConfig) Client {
	return NewClientWithHTTP(cfg, &http.Client{})
}

// NewClientWithHTTP 允许注入自定义的 http.Client（测试或代理场景）。
func NewClientWithHTTP(cfg config.LLMConfig, httpClient *http.Client) Client {
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return &openAIClient{cfg: cfg, client: httpClient}
}

// Message 表示一条角色消息
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// 常用角色
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

type chatRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Stream      bool      `json:"stream"`
	Temperature *float64  `json:"temperature,omitempty"`
	TopP        *float64  `json:"top_p,omitempty"`
	MaxTokens   *int      `json:"max_tokens,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message Message `json:"message"`
	} `json:"choices"`
}

// ImageRequest 是图片生成请求。
type ImageRequest struct {
	Prompt  string `json:"prompt"`
	Model   string `json:"model"`
	N       int    `json:"n"`
	Size    string `json:"size"`
	Quality string `json:"quality,omitempty"`
	Style   string `json:"style,omitempty"`
}

// ImageData 是一张生成的图片。
type ImageData struct {
	URL           string `json:"url"`
	RevisedPrompt string `json:"revised_prompt,omitempty"`
}

// ImageResponse 是图片生成接口的返回。
type ImageResponse struct {
	Created int64       `json:"created"`
	Data    []ImageData `json:"data"`
}

// SendConversation calls the chat completions endpoint without streaming.
func (c *openAIClient) SendConversation(ctx context.Context, messages []Message) (string, error) {
	reqBody := chatRequest{
		Model:    c.cfg.Model,
		Messages: messages,
		Stream:   false,
	}
	// 从全局配置注入（若非零值）
	if c.cfg.Generation.Temperature != 0 {
		t := c.cfg.Generation.Temperature
		reqBody.Temperature = &t
	}
	if c.cfg.Generation.TopP != 0 {
		p := c.cfg.Generation.TopP
		reqBody.TopP = &p
	}
	if c.cfg.Generation.MaxTokens != 0 {
		m := c.cfg.Generation.MaxTokens
		reqBody.MaxTokens = &m
	}

	var resp chatResponse
	if err := c.postJSON(ctx, "/chat/completions", reqBody, &resp); err != nil {
		return "", fmt.Errorf("chat completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", nil
	}
	return resp.Choices[0].Message.Content, nil
}

// GenerateImage calls the image generation endpoint.
func (c *openAIClient) GenerateImage(ctx context.Context, req ImageRequest) (*ImageResponse, error) {
	if req.N == 0 {
		req.N = 1
	}
	var resp ImageResponse
	if err := c.postJSON(ctx, "/images/generations", req, &resp); err != nil {
		return nil, fmt.Errorf("image generation failed: %w", err)
	}
	return &resp, nil
}

func (c *openAIClient) postJSON(ctx context.Context, path string, body interface{}, out interface{}) error {
	reqBytes, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+path, bytes.NewReader(reqBytes))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to call api: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("api returned non-200 status: %s, body: %s", resp.Status, string(bodyBytes))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
