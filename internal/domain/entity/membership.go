package entity

import (
	"time"

	"task-platform/internal/domain/valueobject"
)

// OrganizationMember 组织成员关系
// (org_id, user_id)上的唯一索引是并发AddMember的仲裁机制
type OrganizationMember struct {
	ID       uint             `json:"id"`
	OrgID    uint             `json:"org_id" gorm:"uniqueIndex:idx_org_members_org_user"`
	UserID   string           `json:"user_id" gorm:"type:varchar(40);uniqueIndex:idx_org_members_org_user"`
	Role     valueobject.Role `json:"role" gorm:"type:varchar(20)"`
	JoinedAt time.Time        `json:"joined_at"`
	JoinedBy *string          `json:"joined_by"` // 添加人user_id

	// 关联
	Organization *Organization `json:"organization,omitempty" gorm:"foreignKey:OrgID"`
}

// TableName 指定表名
func (OrganizationMember) TableName() string {
	return "organization_members"
}

// IsValid 验证组织成员数据是否有效
func (m *OrganizationMember) IsValid() bool {
	return m.OrgID > 0 && m.UserID != "" && m.Role.IsValidForScope(valueobject.ScopeTypeOrganization)
}

// IsOwner 判断是否为组织所有者
func (m *OrganizationMember) IsOwner() bool {
	return m.Role == valueobject.RoleOrgOwner
}

// IsAdminOrAbove 判断是否为管理员及以上角色
func (m *OrganizationMember) IsAdminOrAbove() bool {
	return m.Role == valueobject.RoleOrgOwner || m.Role == valueobject.RoleOrgAdmin
}

// TeamMember 团队成员关系
type TeamMember struct {
	ID       uint             `json:"id"`
	TeamID   string           `json:"team_id" gorm:"type:varchar(20);uniqueIndex:idx_team_members_team_user"`
	UserID   string           `json:"user_id" gorm:"type:varchar(40);uniqueIndex:idx_team_members_team_user"`
	Role     valueobject.Role `json:"role" gorm:"type:varchar(20)"`
	JoinedAt time.Time        `json:"joined_at"`
	JoinedBy *string          `json:"joined_by"`

	// 关联
	Team *Team `json:"team,omitempty" gorm:"foreignKey:TeamID"`
}

// TableName 指定表名
func (TeamMember) TableName() string {
	return "team_members"
}

// IsValid 验证团队成员数据是否有效
func (m *TeamMember) IsValid() bool {
	return m.TeamID != "" && m.UserID != "" && m.Role.IsValidForScope(valueobject.ScopeTypeTeam)
}

// IsLead 判断是否为团队负责人
func (m *TeamMember) IsLead() bool {
	return m.Role == valueobject.RoleTeamLead
}

// ProjectMember 项目成员关系
type ProjectMember struct {
	ID        uint             `json:"id"`
	ProjectID uint             `json:"project_id" gorm:"uniqueIndex:idx_project_members_project_user"`
	UserID    string           `json:"user_id" gorm:"type:varchar(40);uniqueIndex:idx_project_members_project_user"`
	Role      valueobject.Role `json:"role" gorm:"type:varchar(20)"`
	JoinedAt  time.Time        `json:"joined_at"`
	JoinedBy  *string          `json:"joined_by"`

	// 关联
	Project *Project `json:"project,omitempty" gorm:"foreignKey:ProjectID"`
}

// TableName 指定表名
func (ProjectMember) TableName() string {
	return "project_members"
}

// IsValid 验证项目成员数据是否有效
func (m *ProjectMember) IsValid() bool {
	return m.ProjectID > 0 && m.UserID != "" && m.Role.IsValidForScope(valueobject.ScopeTypeProject)
}

// IsManager 判断是否为项目经理
func (m *ProjectMember) IsManager() bool {
	return m.Role == valueobject.RoleProjectManager
}
