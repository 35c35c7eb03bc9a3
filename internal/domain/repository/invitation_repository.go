package repository

import (
	"context"
	"time"

	"task-platform/internal/domain/entity"
)

// InvitationRepository 邀请仓储接口
// 状态转移（接受/取消/过期）不在这里：转移必须和成员写入、审计追加
// 在同一个事务内以条件更新完成，由InvitationService的事务编排
type InvitationRepository interface {
	// GetInvitationByID 根据ID获取邀请，不存在时返回(nil, nil)
	GetInvitationByID(ctx context.Context, id string) (*entity.Invitation, error)

	// GetInvitationByToken 根据一次性令牌获取邀请，不存在时返回(nil, nil)
	GetInvitationByToken(ctx context.Context, token string) (*entity.Invitation, error)

	// ListPendingByEmail 列出指定邮箱的所有待接受邀请
	ListPendingByEmail(ctx context.Context, email string) ([]*entity.Invitation, error)

	// ListInvitationsByOrg 列出组织下的所有邀请
	ListInvitationsByOrg(ctx context.Context, orgID uint) ([]*entity.Invitation, error)

	// ListExpiredPending 列出已过期但仍处于PENDING状态的邀请
	ListExpiredPending(ctx context.Context, now time.Time) ([]*entity.Invitation, error)
}
