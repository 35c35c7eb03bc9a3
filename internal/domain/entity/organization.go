package entity

import (
	"time"

	"gorm.io/gorm"
)

// Organization 组织实体（租户边界，层级树的根）
type Organization struct {
	ID        uint           `json:"id"`
	Name      string         `json:"name"`                       // 显示名称
	Slug      string         `json:"slug" gorm:"uniqueIndex"`    // 唯一标识
	CreatedBy *string        `json:"created_by"`                 // 创建人user_id
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"deleted_at,omitempty" gorm:"index"`
}

// TableName 指定表名
func (Organization) TableName() string {
	return "organizations"
}

// IsValid 验证组织数据是否有效
func (o *Organization) IsValid() bool {
	return o.Name != "" && o.Slug != "" && len(o.Name) <= 100 && len(o.Slug) <= 100
}
