package entity

import (
	"time"

	"gorm.io/gorm"
)

// Project 项目实体，归属于唯一一个团队
// OrgID为冗余字段，用于按组织快速过滤，必须与所属团队的OrgID一致
type Project struct {
	ID        uint           `json:"id"`
	TeamID    string         `json:"team_id" gorm:"type:varchar(20);index"` // 所属团队ID
	OrgID     uint           `json:"org_id" gorm:"index"`                   // 所属组织ID（冗余）
	Name      string         `json:"name"`                                  // 项目名称（团队内唯一）
	CreatedBy *string        `json:"created_by"`                            // 创建人user_id
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"deleted_at,omitempty" gorm:"index"`

	// 关联
	Team *Team `json:"team,omitempty" gorm:"foreignKey:TeamID"`
}

// TableName 指定表名
func (Project) TableName() string {
	return "projects"
}

// IsValid 验证项目数据是否有效
func (p *Project) IsValid() bool {
	return p.TeamID != "" && p.OrgID > 0 && p.Name != "" && len(p.Name) <= 100
}
