package repository

import (
	"context"
	"errors"

	"clipcut/model"

	"gorm.io/gorm"
)

// AssetRepository 素材目录数据访问接口
type AssetRepository interface {
	Create(ctx context.Context, asset *model.Asset) error
	GetByID(ctx context.Context, id string) (*model.Asset, error)
	List(ctx context.Context) ([]*model.Asset, error)
	Delete(ctx context.Context, id string) error
}

// gormAssetRepository GORM 实现
type gormAssetRepository struct {
	db *gorm.DB
}

// NewGormAssetRepository 创建 GORM 素材仓库
func NewGormAssetRepository(db *gorm.DB) AssetRepository {
	return &gormAssetRepository{db: db}
}

// Create 入库一条素材记录
func (r *gormAssetRepository) Create(ctx context.Context, asset *model.Asset) error {
	return r.db.WithContext(ctx).Create(asset).Error
}

// GetByID 根据ID获取素材；不存在返回 (nil, nil)
func (r *gormAssetRepository) GetByID(ctx context.Context, id string) (*model.Asset, error) {
	var asset model.Asset
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&asset).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &asset, nil
}

// List 按创建时间倒序列出全部素材
func (r *gormAssetRepository) List(ctx context.Context) ([]*model.Asset, error) {
	var assets []*model.Asset
	err := r.db.WithContext(ctx).Order("created_at DESC").Find(&assets).Error
	return assets, err
}

// Delete 删除素材记录。引用该素材的剪辑不受影响（悬空引用被容忍）。
func (r *gormAssetRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&model.Asset{}).Error
}
