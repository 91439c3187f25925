package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"nnews-go/internal/config"
)

func TestSendConversation(t *testing.T) {
	var got chatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"hello"}}]}`))
	}))
	defer srv.Close()

	c := NewClientWithHTTP(config.LLMConfig{
		APIKey:     "secret",
		BaseURL:    srv.URL + "/v1/",
		Model:      "gpt-4o",
		Generation: config.LLMGenerationConfig{Temperature: 0.3},
	}, srv.Client())

	out, err := c.SendConversation(context.Background(), []Message{
		{Role: RoleSystem, Content: "sys"},
		{Role: RoleUser, Content: "hi"},
	})
	require.NoError(t, err)
	assert.Equal(t, "hello", out)
	assert.Equal(t, "gpt-4o", got.Model)
	assert.False(t, got.Stream)
	require.Len(t, got.Messages, 2)
	assert.Equal(t, RoleSystem, got.Messages[0].Role)
	require.NotNil(t, got.Temperature)
	assert.InDelta(t, 0.3, *got.Temperature, 1e-9)
	assert.Nil(t, got.MaxTokens)
}

func TestSendConversationNoChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[]}`))
	}))
	defer srv.Close()

	c := NewClientWithHTTP(config.LLMConfig{BaseURL: srv.URL}, srv.Client())
	out, err := c.SendConversation(context.Background(), []Message{{Role: RoleUser, Content: "x"}})
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestSendConversationNon200(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := NewClientWithHTTP(config.LLMConfig{BaseURL: srv.URL}, srv.Client())
	_, err := c.SendConversation(context.Background(), []Message{{Role: RoleUser, Content: "x"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "quota exceeded")
}

func TestGenerateImage(t *testing.T) {
	var got ImageRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/images/generations", r.URL.Path)
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"created":1,"data":[{"url":"https://img.example/a.png"}]}`))
	}))
	defer srv.Close()

	c := NewClientWithHTTP(config.LLMConfig{BaseURL: srv.URL}, srv.Client())
	resp, err := c.GenerateImage(context.Background(), ImageRequest{
		Prompt: "a cat", Model: "dall-e-3", Size: "1024x1024", Quality: "standard", Style: "vivid",
	})
	require.NoError(t, err)
	require.Len(t, resp.Data, 1)
	assert.Equal(t, "https://img.example/a.png", resp.Data[0].URL)
	assert.Equal(t, 1, got.N)
	assert.Equal(t, "vivid", got.Style)
}
