package assetlib

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime"
	"path/filepath"
	"strings"

	"clipcut/logger"
	"clipcut/model"
	"clipcut/repository"

	"github.com/google/uuid"
)

// ObjectStore 素材字节的落点，*storage.Store 满足该接口
type ObjectStore interface {
	Put(ctx context.Context, objectPath, contentType string, r io.Reader, size int64) (string, error)
	Remove(ctx context.Context, objectPath string) error
}

// Library 素材库。素材独立于工程状态存在：
// 剪辑只通过 URL 弱引用素材内容，删除素材不影响已放置的剪辑。
type Library struct {
	repo  repository.AssetRepository
	store ObjectStore
}

// NewLibrary 创建素材库
func NewLibrary(repo repository.AssetRepository, store ObjectStore) *Library {
	return &Library{repo: repo, store: store}
}

// InferType 按 MIME 大类推断素材类型：video/* 是视频，其余算图片
func InferType(contentType string) model.AssetType {
	if strings.HasPrefix(contentType, "video/") {
		return model.AssetTypeVideo
	}
	return model.AssetTypeImage
}

// contentTypeFor 根据文件名猜 MIME，猜不出按流处理
func contentTypeFor(name string) string {
	if ct := mime.TypeByExtension(filepath.Ext(name)); ct != "" {
		return ct
	}
	return "application/octet-stream"
}

// Upload 上传入库：字节进 MinIO，记录进目录库，返回新素材。
// 任一步失败都不会留下半成品记录。
func (l *Library) Upload(ctx context.Context, filename, contentType string, r io.Reader, size int64) (*model.Asset, error) {
	return l.ingest(ctx, filename, contentType, r, size, model.AssetSourceUpload)
}

func (l *Library) ingest(ctx context.Context, filename, contentType string, r io.Reader, size int64, source string) (*model.Asset, error) {
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = contentTypeFor(filename)
	}

	id := uuid.NewString()
	objectPath := fmt.Sprintf("assets/%s/%s", id, sanitizeFilename(filename))

	url, err := l.store.Put(ctx, objectPath, contentType, r, size)
	if err != nil {
		return nil, fmt.Errorf("素材上传失败: %w", err)
	}

	asset := &model.Asset{
		ID:         id,
		Type:       InferType(contentType),
		URL:        url,
		Name:       filename,
		Source:     source,
		ObjectPath: objectPath,
	}
	if err := l.repo.Create(ctx, asset); err != nil {
		// 记录写不进去就回收对象，不留孤儿字节
		if rmErr := l.store.Remove(ctx, objectPath); rmErr != nil {
			logger.Warn("failed to clean up orphan object",
				logger.String("objectPath", objectPath), logger.ErrorField(rmErr))
		}
		return nil, fmt.Errorf("素材入库失败: %w", err)
	}

	logger.Info("asset uploaded",
		logger.String("assetId", id),
		logger.String("type", string(asset.Type)),
		logger.String("name", filename))
	return asset, nil
}

// IngestGenerated 生成结果入库。生成失败时不应调用这里：
// 失败的请求不产生任何素材记录。
func (l *Library) IngestGenerated(ctx context.Context, name, contentType string, data []byte) (*model.Asset, error) {
	if name == "" {
		name = "generated"
	}

	id := uuid.NewString()
	objectPath := fmt.Sprintf("assets/%s/%s", id, sanitizeFilename(name)+extensionFor(contentType))

	url, err := l.store.Put(ctx, objectPath, contentType, bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("生成素材上传失败: %w", err)
	}

	asset := &model.Asset{
		ID:         id,
		Type:       InferType(contentType),
		URL:        url,
		Name:       name,
		Source:     model.AssetSourceGenerated,
		ObjectPath: objectPath,
	}
	if err := l.repo.Create(ctx, asset); err != nil {
		if rmErr := l.store.Remove(ctx, objectPath); rmErr != nil {
			logger.Warn("failed to clean up orphan object",
				logger.String("objectPath", objectPath), logger.ErrorField(rmErr))
		}
		return nil, fmt.Errorf("生成素材入库失败: %w", err)
	}

	logger.Info("generated asset ingested",
		logger.String("assetId", id),
		logger.String("type", string(asset.Type)))
	return asset, nil
}

// List 列出全部素材
func (l *Library) List(ctx context.Context) ([]*model.Asset, error) {
	return l.repo.List(ctx)
}

// Get 按ID取素材；不存在返回 (nil, nil)
func (l *Library) Get(ctx context.Context, id string) (*model.Asset, error) {
	return l.repo.GetByID(ctx, id)
}

// Delete 删除素材记录和底层对象。
// 不级联：引用它的剪辑保持原样，悬空的 src 由播放端容忍。
func (l *Library) Delete(ctx context.Context, id string) error {
	asset, err := l.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if asset == nil {
		return nil // 不存在视为已删除
	}

	if err := l.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("删除素材记录失败: %w", err)
	}
	if asset.ObjectPath != "" {
		if err := l.store.Remove(ctx, asset.ObjectPath); err != nil {
			logger.Warn("failed to remove asset object",
				logger.String("assetId", id), logger.ErrorField(err))
		}
	}
	return nil
}

func extensionFor(contentType string) string {
	switch contentType {
	case "image/png":
		return ".png"
	case "image/jpeg":
		return ".jpg"
	case "image/webp":
		return ".webp"
	case "video/mp4":
		return ".mp4"
	default:
		if exts, err := mime.ExtensionsByType(contentType); err == nil && len(exts) > 0 {
			return exts[0]
		}
		return ""
	}
}

func sanitizeFilename(name string) string {
	name = filepath.Base(name)
	name = strings.ReplaceAll(name, " ", "_")
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9',
			r == '.', r == '-', r == '_':
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return "file"
	}
	return b.String()
}
