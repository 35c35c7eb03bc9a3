package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"task-platform/internal/application/service"
	"task-platform/internal/domain/valueobject"
)

// InvitationHandler 邀请管理Handler
type InvitationHandler struct {
	invitationService service.InvitationService
}

// NewInvitationHandler 创建邀请管理Handler实例
func NewInvitationHandler(invitationService service.InvitationService) *InvitationHandler {
	return &InvitationHandler{invitationService: invitationService}
}

// CreateInvitationRequest 创建邀请请求
// team_id/project_id最多填一个；都不填时邀请加入组织本身
type CreateInvitationRequest struct {
	TeamID    *string `json:"team_id"`
	ProjectID *uint   `json:"project_id"`
	Email     string  `json:"email" binding:"required,email"`
	Role      string  `json:"role" binding:"required"`
}

// CreateInvitation 创建邀请
// @Summary 创建邀请
// @Tags Invitation
// @Accept json
// @Param orgId path int true "组织ID"
// @Param request body CreateInvitationRequest true "创建邀请请求"
// @Success 201 {object} entity.Invitation
// @Router /api/v1/organizations/{orgId}/invitations [post]
func (h *InvitationHandler) CreateInvitation(c *gin.Context) {
	var req CreateInvitationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	orgID, err := parseOrgID(c)
	if err != nil {
		return
	}

	// 角色归属的作用域由邀请目标决定
	targetScope := valueobject.ScopeTypeOrganization
	if req.ProjectID != nil {
		targetScope = valueobject.ScopeTypeProject
	} else if req.TeamID != nil {
		targetScope = valueobject.ScopeTypeTeam
	}
	role, err := valueobject.ParseRole(req.Role, targetScope)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	invitation, err := h.invitationService.CreateInvitation(c.Request.Context(), &service.CreateInvitationRequest{
		Actor:     userID,
		OrgID:     orgID,
		TeamID:    req.TeamID,
		ProjectID: req.ProjectID,
		Email:     req.Email,
		Role:      role,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, invitation)
}

// AcceptInvitationRequest 接受邀请请求
type AcceptInvitationRequest struct {
	Token string `json:"token" binding:"required"`
}

// AcceptInvitation 接受邀请
// @Summary 接受邀请
// @Tags Invitation
// @Accept json
// @Param request body AcceptInvitationRequest true "接受邀请请求"
// @Success 200 {object} entity.Invitation
// @Router /api/v1/invitations/accept [post]
func (h *InvitationHandler) AcceptInvitation(c *gin.Context) {
	var req AcceptInvitationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	invitation, err := h.invitationService.AcceptInvitation(c.Request.Context(), &service.AcceptInvitationRequest{
		Token:  req.Token,
		UserID: userID,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, invitation)
}

// CancelInvitation 取消邀请
// @Summary 取消邀请
// @Tags Invitation
// @Param invitationId path string true "邀请ID"
// @Success 204
// @Router /api/v1/invitations/{invitationId} [delete]
func (h *InvitationHandler) CancelInvitation(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	if err := h.invitationService.CancelInvitation(c.Request.Context(), userID, c.Param("invitationId")); err != nil {
		respondError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// ListMyInvitations 列出当前用户的待接受邀请
// @Summary 列出当前用户的待接受邀请
// @Tags Invitation
// @Success 200 {array} entity.Invitation
// @Router /api/v1/invitations [get]
func (h *InvitationHandler) ListMyInvitations(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	invitations, err := h.invitationService.ListMyInvitations(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"invitations": invitations,
		"total":       len(invitations),
	})
}

// ListInvitations 列出组织下的所有邀请
// @Summary 列出组织下的所有邀请
// @Tags Invitation
// @Param orgId path int true "组织ID"
// @Success 200 {array} entity.Invitation
// @Router /api/v1/organizations/{orgId}/invitations [get]
func (h *InvitationHandler) ListInvitations(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	orgID, err := parseOrgID(c)
	if err != nil {
		return
	}

	invitations, err := h.invitationService.ListInvitations(c.Request.Context(), userID, orgID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"invitations": invitations,
		"total":       len(invitations),
	})
}
