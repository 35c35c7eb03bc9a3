package persistence

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"task-platform/internal/domain/entity"
	"task-platform/internal/domain/repository"
)

// AuditRepositoryImpl 审计日志仓储GORM实现（只读）
type AuditRepositoryImpl struct {
	db *gorm.DB
}

// NewAuditRepository 创建审计日志仓储实例
func NewAuditRepository(db *gorm.DB) repository.AuditRepository {
	return &AuditRepositoryImpl{db: db}
}

// QueryAuditLogs 按组织和过滤条件查询审计日志
func (r *AuditRepositoryImpl) QueryAuditLogs(ctx context.Context, orgID uint, filter *repository.AuditQueryFilter) ([]*entity.AuditLog, error) {
	query := r.db.WithContext(ctx).Where("org_id = ?", orgID)

	if filter != nil {
		if filter.ResourceType != "" {
			query = query.Where("resource_type = ?", filter.ResourceType)
		}
		if filter.ResourceID != "" {
			query = query.Where("resource_id = ?", filter.ResourceID)
		}
		if filter.ActorID != "" {
			query = query.Where("actor_id = ?", filter.ActorID)
		}
	}

	limit := 100
	if filter != nil && filter.Limit > 0 && filter.Limit <= 1000 {
		limit = filter.Limit
	}

	var logs []*entity.AuditLog
	if err := query.Order("id DESC").Limit(limit).Find(&logs).Error; err != nil {
		return nil, fmt.Errorf("failed to query audit logs: %w", err)
	}
	return logs, nil
}
