package repository

import (
	"context"

	"task-platform/internal/domain/entity"
)

// AuditQueryFilter 审计日志查询条件
type AuditQueryFilter struct {
	ResourceType string
	ResourceID   string
	ActorID      string
	Limit        int
}

// AuditRepository 审计日志仓储接口
// 只有查询方法：追加只发生在各写路径的事务内部，
// 公开契约上不存在任何修改或删除审计行的操作
type AuditRepository interface {
	// QueryAuditLogs 按组织和过滤条件查询审计日志（时间倒序）
	QueryAuditLogs(ctx context.Context, orgID uint, filter *AuditQueryFilter) ([]*entity.AuditLog, error)
}
