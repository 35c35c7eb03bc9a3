package entity

import (
	"time"

	"gorm.io/datatypes"
)

// 审计资源类型
const (
	// AuditResourceOrganization 组织
	AuditResourceOrganization = "ORGANIZATION"
	// AuditResourceTeam 团队
	AuditResourceTeam = "TEAM"
	// AuditResourceProject 项目
	AuditResourceProject = "PROJECT"
	// AuditResourceTask 任务
	AuditResourceTask = "TASK"
	// AuditResourceMembership 成员关系
	AuditResourceMembership = "MEMBERSHIP"
	// AuditResourceInvitation 邀请
	AuditResourceInvitation = "INVITATION"
)

// 审计动作
const (
	// AuditActionCreate 创建资源
	AuditActionCreate = "CREATE"
	// AuditActionUpdate 更新资源
	AuditActionUpdate = "UPDATE"
	// AuditActionSoftDelete 软删除资源
	AuditActionSoftDelete = "SOFT_DELETE"
	// AuditActionAddMember 添加成员
	AuditActionAddMember = "ADD_MEMBER"
	// AuditActionRemoveMember 移除成员
	AuditActionRemoveMember = "REMOVE_MEMBER"
	// AuditActionInvite 创建邀请
	AuditActionInvite = "INVITE"
	// AuditActionAcceptInvite 接受邀请
	AuditActionAcceptInvite = "ACCEPT_INVITE"
	// AuditActionCancelInvite 取消邀请
	AuditActionCancelInvite = "CANCEL_INVITE"
	// AuditActionExpireInvite 邀请过期
	AuditActionExpireInvite = "EXPIRE_INVITE"
	// AuditActionCompleteTask 完成任务
	AuditActionCompleteTask = "COMPLETE_TASK"
	// AuditActionAssignTask 分配任务
	AuditActionAssignTask = "ASSIGN_TASK"
)

// AuditLog 审计日志（只追加，永不修改或删除）
// 审计行引用的资源被软删除后，审计行依然保留且可查询
type AuditLog struct {
	ID           uint              `json:"id"`
	OrgID        uint              `json:"org_id" gorm:"index"`                    // 所属组织ID
	ActorID      string            `json:"actor_id" gorm:"type:varchar(40);index"` // 操作人user_id
	ResourceType string            `json:"resource_type" gorm:"type:varchar(20)"`  // 资源类型
	ResourceID   string            `json:"resource_id" gorm:"type:varchar(40)"`    // 资源ID
	Action       string            `json:"action" gorm:"type:varchar(30)"`         // 操作动作
	Metadata     datatypes.JSONMap `json:"metadata"`                               // 附加信息
	CreatedAt    time.Time         `json:"created_at" gorm:"index"`
}

// TableName 指定表名
func (AuditLog) TableName() string {
	return "audit_logs"
}

// IsValid 验证审计日志数据是否有效
func (l *AuditLog) IsValid() bool {
	return l.OrgID > 0 && l.ActorID != "" && l.ResourceType != "" && l.Action != ""
}
