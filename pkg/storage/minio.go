// Package storage提供了与对象存储服务（如 MinIO）交互的功能。
package storage

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"nnews-go/internal/config"
	"nnews-go/pkg/log"
)

// MinioClient 是一个全局的 MinIO 客户端实例。
var MinioClient *minio.Client

// presignExpiry 是没有配置 PublicURL 时预签名 URL 的有效期（MinIO 允许的最大值）。
const presignExpiry = 7 * 24 * time.Hour

// InitMinIO 初始化 MinIO 客户端并确保指定的存储桶存在。
func InitMinIO(cfg config.MinIOConfig) {
	var err error

	// 1. 初始化 MinIO 客户端
	MinioClient, err = minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		log.Fatal("初始化 MinIO 客户端失败", err)
	}

	log.Info("MinIO 客户端初始化成功")

	// 2. 检查存储桶 (Bucket) 是否存在，如果不存在则创建
	if err := EnsureBucket(context.Background(), cfg.BucketName); err != nil {
		log.Fatal("初始化 MinIO 存储桶失败", err)
	}
}

// EnsureBucket 检查存储桶是否存在，不存在则创建。
func EnsureBucket(ctx context.Context, bucketName string) error {
	exists, err := MinioClient.BucketExists(ctx, bucketName)
	if err != nil {
		return fmt.Errorf("检查 MinIO 存储桶失败: %w", err)
	}
	if exists {
		log.Infof("存储桶 '%s' 已存在", bucketName)
		return nil
	}
	log.Infof("存储桶 '%s' 不存在，正在创建...", bucketName)
	if err := MinioClient.MakeBucket(ctx, bucketName, minio.MakeBucketOptions{}); err != nil {
		return fmt.Errorf("创建 MinIO 存储桶失败: %w", err)
	}
	log.Infof("存储桶 '%s' 创建成功", bucketName)
	return nil
}

// BlobStore 基于 MinIO 实现文件上传和 URL 解析。
type BlobStore struct {
	client    *minio.Client
	publicURL string
}

// NewBlobStore 使用全局 MinioClient 创建 BlobStore。publicURL 为空时返回预签名 URL。
func NewBlobStore(cfg config.MinIOConfig) *BlobStore {
	return &BlobStore{client: MinioClient, publicURL: strings.TrimRight(cfg.PublicURL, "/")}
}

// UploadFile 上传对象，返回存储后的对象名。
func (s *BlobStore) UploadFile(ctx context.Context, bucketName, objectName, contentType string, size int64, reader io.Reader) (string, error) {
	info, err := s.client.PutObject(ctx, bucketName, objectName, reader, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		log.Errorf("上传文件到 MinIO 失败, Bucket: %s, Object: %s, Error: %v", bucketName, objectName, err)
		return "", err
	}
	log.Infof("文件上传成功, Bucket: %s, Object: %s, Size: %d", bucketName, info.Key, info.Size)
	return info.Key, nil
}

// GetFileURL 返回对象的访问 URL。
func (s *BlobStore) GetFileURL(ctx context.Context, bucketName, objectName string) (string, error) {
	if s.publicURL != "" {
		return s.publicURL + "/" + url.PathEscape(bucketName) + "/" + url.PathEscape(objectName), nil
	}
	presignedURL, err := s.client.PresignedGetObject(ctx, bucketName, objectName, presignExpiry, nil)
	if err != nil {
		log.Errorf("Error generating presigned URL: %s", err)
		return "", err
	}
	return presignedURL.String(), nil
}
