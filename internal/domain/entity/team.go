package entity

import (
	"time"

	"task-platform/internal/infrastructure"

	"gorm.io/gorm"
)

// Team 团队实体，归属于唯一一个组织
type Team struct {
	ID        string         `json:"id" gorm:"column:team_id;primaryKey;type:varchar(20)"`
	OrgID     uint           `json:"org_id" gorm:"index"` // 所属组织ID
	Name      string         `json:"name"`                // 团队名称（组织内唯一）
	CreatedBy *string        `json:"created_by"`          // 创建人user_id
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"deleted_at,omitempty" gorm:"index"`

	// 关联
	Organization *Organization `json:"organization,omitempty" gorm:"foreignKey:OrgID"`
}

// TableName 指定表名
func (Team) TableName() string {
	return "teams"
}

// BeforeCreate GORM hook - 创建前生成ID
func (t *Team) BeforeCreate(tx *gorm.DB) error {
	if t.ID == "" {
		id, err := infrastructure.GenerateTeamID()
		if err != nil {
			return err
		}
		t.ID = id
	}
	return nil
}

// IsValid 验证团队数据是否有效
func (t *Team) IsValid() bool {
	return t.OrgID > 0 && t.Name != "" && len(t.Name) <= 100
}
