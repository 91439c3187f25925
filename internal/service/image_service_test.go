package service

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"nnews-go/internal/config"
	"nnews-go/pkg/llm"
)

var testImageParams = config.ImageConfig{Model: "dall-e-3", Size: "1024x1024", Quality: "standard", Style: "vivid"}

func TestGenerateAndUpload(t *testing.T) {
	png := []byte{0x89, 'P', 'N', 'G'}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(png)
	}))
	defer srv.Close()

	gen := &fakeImageGenerator{resp: &llm.ImageResponse{Data: []llm.ImageData{{URL: srv.URL + "/img.png"}}}}
	store := newFakeBlobStore()
	svc := NewImageService(gen, store, srv.Client(), "nnews", testImageParams, nil)

	url, err := svc.GenerateAndUpload(context.Background(), "a gopher reading news")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(url, "https://cdn.example/nnews/ai-generated-"))
	assert.True(t, strings.HasSuffix(url, ".png"))

	require.Len(t, gen.reqs, 1)
	assert.Equal(t, llm.ImageRequest{
		Prompt: "a gopher reading news", Model: "dall-e-3", N: 1, Size: "1024x1024", Quality: "standard", Style: "vivid",
	}, gen.reqs[0])

	require.Len(t, store.objects, 1)
	for key, data := range store.objects {
		assert.Equal(t, png, data)
		assert.Equal(t, "image/png", store.types[key])
	}
}

func TestGenerateAndUploadNoData(t *testing.T) {
	tests := []struct {
		name string
		resp *llm.ImageResponse
	}{
		{"nil response", nil},
		{"empty data", &llm.ImageResponse{}},
		{"blank url", &llm.ImageResponse{Data: []llm.ImageData{{URL: "  "}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newFakeBlobStore()
			svc := NewImageService(&fakeImageGenerator{resp: tt.resp}, store, nil, "nnews", testImageParams, nil)

			url, err := svc.GenerateAndUpload(context.Background(), "prompt")
			require.NoError(t, err)
			assert.Empty(t, url)
			assert.Empty(t, store.objects)
		})
	}
}

func TestGenerateAndUploadFailures(t *testing.T) {
	ctx := context.Background()

	svc := NewImageService(&fakeImageGenerator{}, newFakeBlobStore(), nil, "nnews", testImageParams, nil)
	_, err := svc.GenerateAndUpload(ctx, " ")
	require.ErrorIs(t, err, ErrInvalidArgument)

	genErr := errors.New("rate limited")
	svc = NewImageService(&fakeImageGenerator{err: genErr}, newFakeBlobStore(), nil, "nnews", testImageParams, nil)
	_, err = svc.GenerateAndUpload(ctx, "prompt")
	require.ErrorIs(t, err, genErr)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()
	gen := &fakeImageGenerator{resp: &llm.ImageResponse{Data: []llm.ImageData{{URL: srv.URL}}}}
	svc = NewImageService(gen, newFakeBlobStore(), srv.Client(), "nnews", testImageParams, nil)
	_, err = svc.GenerateAndUpload(ctx, "prompt")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "403")
}

func TestUpload(t *testing.T) {
	store := newFakeBlobStore()
	svc := NewImageService(&fakeImageGenerator{}, store, nil, "nnews", testImageParams, nil)

	url, err := svc.Upload(context.Background(), "Cover.JPG", "image/jpeg", 3, strings.NewReader("abc"))
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(url, ".jpg"))
	for key := range store.objects {
		assert.Equal(t, "image/jpeg", store.types[key])
	}

	_, err = svc.Upload(context.Background(), "empty.png", "image/png", 0, strings.NewReader(""))
	require.ErrorIs(t, err, ErrInvalidArgument)
}
