package entity

import (
	"time"

	"task-platform/internal/domain/valueobject"
	"task-platform/internal/infrastructure"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Invitation 邀请实体
// OrgID始终存在；TeamID/ProjectID最多一个非空，决定邀请的目标作用域：
// 两者都为空时目标是组织本身
type Invitation struct {
	ID          string                       `json:"id" gorm:"column:invitation_id;primaryKey;type:varchar(20)"`
	OrgID       uint                         `json:"org_id" gorm:"index"`
	TeamID      *string                      `json:"team_id" gorm:"type:varchar(20)"`
	ProjectID   *uint                        `json:"project_id"`
	Email       string                       `json:"email" gorm:"index"`
	Role        valueobject.Role             `json:"role" gorm:"type:varchar(20)"`
	Status      valueobject.InvitationStatus `json:"status" gorm:"type:varchar(20);index"`
	Token       string                       `json:"token" gorm:"uniqueIndex;type:varchar(40)"`
	InvitedBy   string                       `json:"invited_by" gorm:"type:varchar(40)"`
	ExpiresAt   time.Time                    `json:"expires_at"`
	AcceptedAt  *time.Time                   `json:"accepted_at"`
	AcceptedBy  *string                      `json:"accepted_by" gorm:"type:varchar(40)"`
	CancelledAt *time.Time                   `json:"cancelled_at"`
	CancelledBy *string                      `json:"cancelled_by" gorm:"type:varchar(40)"`
	CreatedAt   time.Time                    `json:"created_at"`
	UpdatedAt   time.Time                    `json:"updated_at"`

	// 关联
	Organization *Organization `json:"organization,omitempty" gorm:"foreignKey:OrgID"`
}

// TableName 指定表名
func (Invitation) TableName() string {
	return "invitations"
}

// BeforeCreate GORM hook - 创建前生成ID和Token
func (i *Invitation) BeforeCreate(tx *gorm.DB) error {
	if i.ID == "" {
		id, err := infrastructure.GenerateInvitationID()
		if err != nil {
			return err
		}
		i.ID = id
	}
	if i.Token == "" {
		i.Token = uuid.NewString()
	}
	return nil
}

// TargetScope 返回邀请的目标作用域类型
func (i *Invitation) TargetScope() valueobject.ScopeType {
	switch {
	case i.ProjectID != nil:
		return valueobject.ScopeTypeProject
	case i.TeamID != nil:
		return valueobject.ScopeTypeTeam
	default:
		return valueobject.ScopeTypeOrganization
	}
}

// IsExpired 判断邀请是否已过期（以传入时间为准）
func (i *Invitation) IsExpired(now time.Time) bool {
	return i.ExpiresAt.Before(now)
}

// IsPending 判断邀请是否仍在等待接受
func (i *Invitation) IsPending() bool {
	return i.Status == valueobject.InvitationStatusPending
}

// IsValid 验证邀请数据是否有效
func (i *Invitation) IsValid() bool {
	if i.OrgID == 0 || i.Email == "" || i.InvitedBy == "" {
		return false
	}
	// TeamID和ProjectID最多一个非空
	if i.TeamID != nil && i.ProjectID != nil {
		return false
	}
	return i.Role.IsValidForScope(i.TargetScope())
}
