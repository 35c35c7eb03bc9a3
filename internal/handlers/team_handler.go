package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"task-platform/internal/application/service"
	"task-platform/internal/domain/valueobject"
)

// TeamHandler 团队管理Handler
type TeamHandler struct {
	tenancyService service.TenancyService
}

// NewTeamHandler 创建团队管理Handler实例
func NewTeamHandler(tenancyService service.TenancyService) *TeamHandler {
	return &TeamHandler{tenancyService: tenancyService}
}

// CreateTeamRequest 创建团队请求
type CreateTeamRequest struct {
	Name string `json:"name" binding:"required"`
}

// CreateTeam 创建团队
// @Summary 创建团队
// @Tags Team
// @Accept json
// @Param orgId path int true "组织ID"
// @Param request body CreateTeamRequest true "创建团队请求"
// @Success 201 {object} entity.Team
// @Router /api/v1/organizations/{orgId}/teams [post]
func (h *TeamHandler) CreateTeam(c *gin.Context) {
	var req CreateTeamRequest
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

	team, err := h.tenancyService.CreateTeam(c.Request.Context(), &service.CreateTeamRequest{
		OrgID:     orgID,
		Name:      req.Name,
		CreatedBy: userID,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, team)
}

// GetTeam 获取团队详情
// @Summary 获取团队详情
// @Tags Team
// @Param teamId path string true "团队ID"
// @Success 200 {object} entity.Team
// @Router /api/v1/teams/{teamId} [get]
func (h *TeamHandler) GetTeam(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	team, err := h.tenancyService.GetTeam(c.Request.Context(), userID, c.Param("teamId"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, team)
}

// ListTeams 列出组织下的团队
// @Summary 列出组织下的团队
// @Tags Team
// @Param orgId path int true "组织ID"
// @Param include_deleted query boolean false "包含已软删除的团队"
// @Success 200 {array} entity.Team
// @Router /api/v1/organizations/{orgId}/teams [get]
func (h *TeamHandler) ListTeams(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	orgID, err := parseOrgID(c)
	if err != nil {
		return
	}
	includeDeleted := c.Query("include_deleted") == "true"

	teams, err := h.tenancyService.ListTeams(c.Request.Context(), userID, orgID, includeDeleted)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"teams": teams,
		"total": len(teams),
	})
}

// UpdateTeamRequest 更新团队请求
type UpdateTeamRequest struct {
	Name string `json:"name" binding:"required"`
}

// UpdateTeam 更新团队
// @Summary 更新团队
// @Tags Team
// @Accept json
// @Param teamId path string true "团队ID"
// @Param request body UpdateTeamRequest true "更新团队请求"
// @Success 200 {object} entity.Team
// @Router /api/v1/teams/{teamId} [put]
func (h *TeamHandler) UpdateTeam(c *gin.Context) {
	var req UpdateTeamRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	team, err := h.tenancyService.UpdateTeam(c.Request.Context(), &service.UpdateTeamRequest{
		Actor:  userID,
		TeamID: c.Param("teamId"),
		Name:   req.Name,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, team)
}

// DeleteTeam 软删除团队（级联项目与任务）
// @Summary 软删除团队
// @Tags Team
// @Param teamId path string true "团队ID"
// @Success 204
// @Router /api/v1/teams/{teamId} [delete]
func (h *TeamHandler) DeleteTeam(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	err := h.tenancyService.SoftDelete(c.Request.Context(), &service.SoftDeleteRequest{
		Actor:     userID,
		ScopeType: valueobject.ScopeTypeTeam,
		ScopeID:   c.Param("teamId"),
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}
