package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"nnews-go/internal/config"
	"nnews-go/pkg/llm"
)

// BlobStore 是对象存储的抽象（MinIO）。
type BlobStore interface {
	UploadFile(ctx context.Context, bucketName, objectName, contentType string, size int64, reader io.Reader) (string, error)
	GetFileURL(ctx context.Context, bucketName, objectName string) (string, error)
}

// ImageGenerator 是图片生成能力的抽象，llm.Client 实现了它。
type ImageGenerator interface {
	GenerateImage(ctx context.Context, req llm.ImageRequest) (*llm.ImageResponse, error)
}

// ImageService 负责 AI 生成图片的落盘以及手动上传的图片。
type ImageService interface {
	// GenerateAndUpload 生成图片并上传，返回可访问的 URL。
	// 生成接口没有返回数据时返回 ("", nil)；下载或上传失败时返回错误。
	GenerateAndUpload(ctx context.Context, prompt string) (string, error)
	// Upload 上传调用方提供的图片，返回可访问的 URL。
	Upload(ctx context.Context, fileName, contentType string, size int64, reader io.Reader) (string, error)
}

type imageService struct {
	generator  ImageGenerator
	store      BlobStore
	httpClient *http.Client
	bucket     string
	params     config.ImageConfig
	logger     *zap.SugaredLogger
}

// NewImageService 创建 ImageService。httpClient 用于下载生成的图片，为 nil 时使用 http.DefaultClient。
func NewImageService(generator ImageGenerator, store BlobStore, httpClient *http.Client, bucket string, params config.ImageConfig, logger *zap.SugaredLogger) ImageService {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &imageService{
		generator:  generator,
		store:      store,
		httpClient: httpClient,
		bucket:     bucket,
		params:     params,
		logger:     logger,
	}
}

func (s *imageService) GenerateAndUpload(ctx context.Context, prompt string) (string, error) {
	if strings.TrimSpace(prompt) == "" {
		return "", invalidArgument("image prompt cannot be empty")
	}

	resp, err := s.generator.GenerateImage(ctx, llm.ImageRequest{
		Prompt:  prompt,
		Model:   s.params.Model,
		N:       1,
		Size:    s.params.Size,
		Quality: s.params.Quality,
		Style:   s.params.Style,
	})
	if err != nil {
		return "", fmt.Errorf("generate image: %w", err)
	}
	if resp == nil || len(resp.Data) == 0 {
		s.logger.Warnw("no image data returned")
		return "", nil
	}
	imageURL := strings.TrimSpace(resp.Data[0].URL)
	if imageURL == "" {
		s.logger.Warnw("empty image url returned")
		return "", nil
	}

	data, err := s.download(ctx, imageURL)
	if err != nil {
		return "", err
	}
	s.logger.Debugw("image downloaded", "size", len(data))

	objectName := fmt.Sprintf("ai-generated-%s.png", uuid.NewString())
	return s.put(ctx, objectName, "image/png", int64(len(data)), bytes.NewReader(data))
}

func (s *imageService) Upload(ctx context.Context, fileName, contentType string, size int64, reader io.Reader) (string, error) {
	if size <= 0 {
		return "", invalidArgument("no file uploaded")
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	objectName := uuid.NewString() + strings.ToLower(filepath.Ext(fileName))
	return s.put(ctx, objectName, contentType, size, reader)
}

func (s *imageService) put(ctx context.Context, objectName, contentType string, size int64, reader io.Reader) (string, error) {
	stored, err := s.store.UploadFile(ctx, s.bucket, objectName, contentType, size, reader)
	if err != nil {
		return "", fmt.Errorf("upload image %s: %w", objectName, err)
	}
	s.logger.Infow("image uploaded", "bucket", s.bucket, "object", stored)

	fileURL, err := s.store.GetFileURL(ctx, s.bucket, stored)
	if err != nil {
		return "", fmt.Errorf("resolve image url %s: %w", stored, err)
	}
	return fileURL, nil
}

func (s *imageService) download(ctx context.Context, imageURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create image download request: %w", err)
	}
	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download image: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download image: unexpected status %s", resp.Status)
	}
	return io.ReadAll(resp.Body)
}
