package service

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"task-platform/internal/domain/entity"
	domainerrors "task-platform/internal/domain/errors"
	"task-platform/internal/domain/repository"
	"task-platform/internal/domain/valueobject"
	"task-platform/internal/observability/metrics"
)

// AuditService 审计服务
// 公开契约上只有Record和Query：审计行一经写入永不修改、永不删除，
// 引用的资源被软删除后审计行依然可查（留存/归档是外部职责）
type AuditService struct {
	auditRepo repository.AuditRepository
	checker   PermissionChecker
}

// NewAuditService 创建审计服务实例
func NewAuditService(auditRepo repository.AuditRepository, checker PermissionChecker) *AuditService {
	return &AuditService{
		auditRepo: auditRepo,
		checker:   checker,
	}
}

// Record 在既有事务内追加一条审计日志
// 必须且只能在写路径的事务内调用：审计追加失败会令整个事务回滚，
// 保证变更与审计要么同时生效、要么都不生效；只读操作不产生审计
func (s *AuditService) Record(tx *gorm.DB, log *entity.AuditLog) error {
	if !log.IsValid() {
		return fmt.Errorf("invalid audit log entry: org_id=%d actor=%s", log.OrgID, log.ActorID)
	}
	if log.CreatedAt.IsZero() {
		log.CreatedAt = time.Now()
	}
	if err := tx.Create(log).Error; err != nil {
		return fmt.Errorf("failed to append audit log: %w", err)
	}
	metrics.IncAuditEntry(log.ResourceType, log.Action)
	return nil
}

// QueryAuditLogsRequest 审计日志查询请求
type QueryAuditLogsRequest struct {
	PrincipalID  string `json:"principal_id"`
	OrgID        uint   `json:"org_id"`
	ResourceType string `json:"resource_type"`
	ResourceID   string `json:"resource_id"`
	ActorID      string `json:"actor_id"`
	Limit        int    `json:"limit"`
}

// Query 查询审计日志（经过权限检查）
// 组织ADMIN/OWNER可查组织内全部日志；团队LEAD/项目MANAGER
// 只能查过滤到本团队/本项目层级的日志；普通成员一律拒绝
func (s *AuditService) Query(ctx context.Context, req *QueryAuditLogsRequest) ([]*entity.AuditLog, error) {
	if req.OrgID == 0 {
		return nil, fmt.Errorf("org_id is required")
	}

	// 1. 根据过滤条件确定检查的作用域
	// 软删除资源的历史日志仍然可查，作用域解析放行软删除行
	checkReq := &CheckRequest{
		PrincipalID:    req.PrincipalID,
		Action:         valueobject.ActionReadAudit,
		ScopeType:      valueobject.ScopeTypeOrganization,
		ScopeID:        fmt.Sprintf("%d", req.OrgID),
		IncludeDeleted: true,
	}
	switch req.ResourceType {
	case entity.AuditResourceTeam:
		if req.ResourceID != "" {
			checkReq.ScopeType = valueobject.ScopeTypeTeam
			checkReq.ScopeID = req.ResourceID
		}
	case entity.AuditResourceProject:
		if req.ResourceID != "" {
			checkReq.ScopeType = valueobject.ScopeTypeProject
			checkReq.ScopeID = req.ResourceID
		}
	}

	// 2. 权限检查
	decision, err := s.checker.Check(ctx, checkReq)
	if err != nil {
		return nil, err
	}
	if !decision.Allowed {
		return nil, fmt.Errorf("%s: %w", decision.Reason, domainerrors.ErrPermissionDenied)
	}

	// 3. 查询
	return s.auditRepo.QueryAuditLogs(ctx, req.OrgID, &repository.AuditQueryFilter{
		ResourceType: req.ResourceType,
		ResourceID:   req.ResourceID,
		ActorID:      req.ActorID,
		Limit:        req.Limit,
	})
}
