package model

import "time"

// AssetType 素材类型
type AssetType string

const (
	AssetTypeVideo AssetType = "video"
	AssetTypeImage AssetType = "image"
)

// ClipType 素材放上时间轴后对应的剪辑类型
func (t AssetType) ClipType() ClipType {
	if t == AssetTypeVideo {
		return ClipTypeVideo
	}
	return ClipTypeImage
}

// Asset 素材库中的一条媒体记录。
// URL 指向外部存储的内容（MinIO 对象），不是内容本身；
// 删除素材不会级联到引用它的剪辑。
type Asset struct {
	ID         string    `json:"id" gorm:"primaryKey;size:36"`
	Type       AssetType `json:"type" gorm:"size:10;not null;index"`
	URL        string    `json:"url" gorm:"size:512;not null"`
	Name       string    `json:"name" gorm:"size:255;not null"`
	Source     string    `json:"source" gorm:"size:20;default:'upload'"` // upload, generated, watch
	ObjectPath string    `json:"-" gorm:"size:512"`                      // MinIO 对象键
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// TableName 指定表名
func (Asset) TableName() string {
	return "assets"
}

// 素材来源
const (
	AssetSourceUpload    = "upload"
	AssetSourceGenerated = "generated"
	AssetSourceWatch     = "watch"
)
