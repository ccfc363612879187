package storage

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"clipcut/config"
	"clipcut/logger"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// Store 素材字节存储，封装 MinIO 客户端和桶
type Store struct {
	client    *minio.Client
	bucket    string
	publicURL string
}

var globalStore *Store

// Init 初始化全局 MinIO 存储并确保桶存在
func Init(cfg *config.Config) error {
	logger.Info("connecting to MinIO",
		logger.String("endpoint", cfg.MinioEndpoint),
		logger.String("bucket", cfg.MinioBucket))

	client, err := minio.New(cfg.MinioEndpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.MinioAccessKey, cfg.MinioSecretKey, ""),
		Secure: cfg.MinioUseSSL,
		Region: cfg.MinioRegion,
	})
	if err != nil {
		return fmt.Errorf("创建 MinIO 客户端失败: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	exists, err := client.BucketExists(ctx, cfg.MinioBucket)
	if err != nil {
		return fmt.Errorf("检查存储桶失败: %w", err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.MinioBucket, minio.MakeBucketOptions{Region: cfg.MinioRegion}); err != nil {
			return fmt.Errorf("创建存储桶失败: %w", err)
		}
		logger.Info("bucket created", logger.String("bucket", cfg.MinioBucket))
	}

	globalStore = &Store{
		client:    client,
		bucket:    cfg.MinioBucket,
		publicURL: strings.TrimSuffix(cfg.MinioPublicURL, "/"),
	}
	logger.Info("MinIO storage ready")
	return nil
}

// Get 获取全局存储实例，未初始化时返回 nil
func Get() *Store {
	return globalStore
}

// Put 写入对象并返回可被剪辑引用的 URL。
// 配置了公共地址时直接指向 MinIO，否则走本服务的 /media/ 路由。
func (s *Store) Put(ctx context.Context, objectPath, contentType string, r io.Reader, size int64) (string, error) {
	_, err := s.client.PutObject(ctx, s.bucket, objectPath, r, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", fmt.Errorf("上传对象失败 %s: %w", objectPath, err)
	}
	return s.URLFor(objectPath), nil
}

// URLFor 对象的对外访问地址
func (s *Store) URLFor(objectPath string) string {
	if s.publicURL != "" {
		return fmt.Sprintf("%s/%s/%s", s.publicURL, s.bucket, objectPath)
	}
	return "/media/" + objectPath
}

// Open 读取对象内容，调用方负责 Close
func (s *Store) Open(ctx context.Context, objectPath string) (io.ReadCloser, error) {
	object, err := s.client.GetObject(ctx, s.bucket, objectPath, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("读取对象失败 %s: %w", objectPath, err)
	}
	return object, nil
}

// Remove 删除对象
func (s *Store) Remove(ctx context.Context, objectPath string) error {
	if err := s.client.RemoveObject(ctx, s.bucket, objectPath, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("删除对象失败 %s: %w", objectPath, err)
	}
	return nil
}

// ListObjects 列出指定前缀下的对象（minio 子命令用）
func (s *Store) ListObjects(ctx context.Context, prefix string) ([]minio.ObjectInfo, error) {
	var infos []minio.ObjectInfo
	for obj := range s.client.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{
		Prefix:    prefix,
		Recursive: true,
	}) {
		if obj.Err != nil {
			return nil, fmt.Errorf("列出对象失败: %w", obj.Err)
		}
		infos = append(infos, obj)
	}
	return infos, nil
}

// Bucket 桶名
func (s *Store) Bucket() string {
	return s.bucket
}
