package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"task-platform/internal/application/service"
)

// AuditHandler 审计日志Handler
type AuditHandler struct {
	auditService *service.AuditService
}

// NewAuditHandler 创建审计日志Handler实例
func NewAuditHandler(auditService *service.AuditService) *AuditHandler {
	return &AuditHandler{auditService: auditService}
}

// QueryAuditLogs 查询组织审计日志
// @Summary 查询组织审计日志
// @Tags Audit
// @Param orgId path int true "组织ID"
// @Param resource_type query string false "资源类型过滤"
// @Param resource_id query string false "资源ID过滤"
// @Param actor_id query string false "操作人过滤"
// @Param limit query int false "返回条数上限"
// @Success 200 {array} entity.AuditLog
// @Router /api/v1/organizations/{orgId}/audit-logs [get]
func (h *AuditHandler) QueryAuditLogs(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	orgID, err := parseOrgID(c)
	if err != nil {
		return
	}

	limit := 100
	if limitStr := c.Query("limit"); limitStr != "" {
		if v, err := strconv.Atoi(limitStr); err == nil && v > 0 {
			limit = v
		}
	}

	logs, err := h.auditService.Query(c.Request.Context(), &service.QueryAuditLogsRequest{
		PrincipalID:  userID,
		OrgID:        orgID,
		ResourceType: c.Query("resource_type"),
		ResourceID:   c.Query("resource_id"),
		ActorID:      c.Query("actor_id"),
		Limit:        limit,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"audit_logs": logs,
		"total":      len(logs),
	})
}
