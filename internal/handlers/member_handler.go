package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"task-platform/internal/application/service"
	"task-platform/internal/domain/valueobject"
)

// MemberHandler 成员管理Handler
// 三种作用域（组织/团队/项目）共用：路由注册时绑定作用域类型
// 和承载作用域ID的路径参数名
type MemberHandler struct {
	membershipService service.MembershipService
}

// NewMemberHandler 创建成员管理Handler实例
func NewMemberHandler(membershipService service.MembershipService) *MemberHandler {
	return &MemberHandler{membershipService: membershipService}
}

// AddMemberRequest 添加成员请求
type AddMemberRequest struct {
	UserID string `json:"user_id" binding:"required"`
	Role   string `json:"role" binding:"required"`
}

// AddMember 添加作用域成员
// @Summary 添加作用域成员
// @Tags Member
// @Accept json
// @Param request body AddMemberRequest true "添加成员请求"
// @Success 201 {object} service.MemberInfo
// @Router /api/v1/organizations/{orgId}/members [post]
func (h *MemberHandler) AddMember(scopeType valueobject.ScopeType, scopeParam string) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req AddMemberRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		userID, ok := currentUserID(c)
		if !ok {
			return
		}

		role, err := valueobject.ParseRole(req.Role, scopeType)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		info, err := h.membershipService.AddMember(c.Request.Context(), &service.MemberRequest{
			Actor:     userID,
			ScopeType: scopeType,
			ScopeID:   c.Param(scopeParam),
			UserID:    req.UserID,
			Role:      role,
		})
		if err != nil {
			respondError(c, err)
			return
		}

		c.JSON(http.StatusCreated, info)
	}
}

// RemoveMember 移除作用域成员
// @Summary 移除作用域成员
// @Tags Member
// @Param userId path string true "用户ID"
// @Success 204
// @Router /api/v1/organizations/{orgId}/members/{userId} [delete]
func (h *MemberHandler) RemoveMember(scopeType valueobject.ScopeType, scopeParam string) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUserID(c)
		if !ok {
			return
		}

		err := h.membershipService.RemoveMember(c.Request.Context(), &service.MemberRequest{
			Actor:     userID,
			ScopeType: scopeType,
			ScopeID:   c.Param(scopeParam),
			UserID:    c.Param("userId"),
		})
		if err != nil {
			respondError(c, err)
			return
		}

		c.Status(http.StatusNoContent)
	}
}

// ListMembers 列出作用域成员
// @Summary 列出作用域成员
// @Tags Member
// @Success 200 {array} service.MemberInfo
// @Router /api/v1/organizations/{orgId}/members [get]
func (h *MemberHandler) ListMembers(scopeType valueobject.ScopeType, scopeParam string) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUserID(c)
		if !ok {
			return
		}

		members, err := h.membershipService.ListMembers(c.Request.Context(), userID, scopeType, c.Param(scopeParam))
		if err != nil {
			respondError(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"members": members,
			"total":   len(members),
		})
	}
}
