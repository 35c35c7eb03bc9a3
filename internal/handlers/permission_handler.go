package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"task-platform/internal/application/service"
	"task-platform/internal/domain/valueobject"
)

// PermissionHandler 权限检查Handler
type PermissionHandler struct {
	permissionChecker service.PermissionChecker
}

// NewPermissionHandler 创建权限检查Handler实例
func NewPermissionHandler(checker service.PermissionChecker) *PermissionHandler {
	return &PermissionHandler{permissionChecker: checker}
}

// CheckPermissionRequest 权限检查请求
type CheckPermissionRequest struct {
	Action    string `json:"action" binding:"required"`
	ScopeType string `json:"scope_type" binding:"required"`
	ScopeID   string `json:"scope_id" binding:"required"`
}

// CheckPermission 检查当前用户在指定作用域的权限
// @Summary 检查当前用户在指定作用域的权限
// @Tags Permission
// @Accept json
// @Param request body CheckPermissionRequest true "权限检查请求"
// @Success 200 {object} service.Decision
// @Router /api/v1/permissions/check [post]
func (h *PermissionHandler) CheckPermission(c *gin.Context) {
	var req CheckPermissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	action, err := valueobject.ParseAction(req.Action)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	scopeType, err := valueobject.ParseScopeType(req.ScopeType)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	decision, err := h.permissionChecker.Check(c.Request.Context(), &service.CheckRequest{
		PrincipalID: userID,
		Action:      action,
		ScopeType:   scopeType,
		ScopeID:     req.ScopeID,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, decision)
}
