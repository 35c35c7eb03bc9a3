package service

import (
	"context"
	"log"

	"task-platform/internal/domain/entity"
)

// Notifier 邀请通知能力接口
// 在邀请创建事务提交之后调用；发送失败只记录日志，
// 绝不导致已提交的邀请回滚
type Notifier interface {
	// Send 向被邀请邮箱发送邀请通知
	Send(ctx context.Context, email string, invitation *entity.Invitation) error
}

// LogNotifier 默认通知实现：仅打印日志（邮件投递由外部系统负责）
type LogNotifier struct{}

// Send 打印邀请通知日志
func (LogNotifier) Send(_ context.Context, email string, invitation *entity.Invitation) error {
	log.Printf("[Invitation] Notify %s: invited to %s scope (invitation_id=%s, role=%s, expires_at=%s)",
		email, invitation.TargetScope(), invitation.ID, invitation.Role, invitation.ExpiresAt.Format("2006-01-02 15:04:05"))
	return nil
}
