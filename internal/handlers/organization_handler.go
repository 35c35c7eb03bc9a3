package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"task-platform/internal/application/service"
	"task-platform/internal/domain/valueobject"
)

// OrganizationHandler 组织管理Handler
type OrganizationHandler struct {
	tenancyService service.TenancyService
}

// NewOrganizationHandler 创建组织管理Handler实例
func NewOrganizationHandler(tenancyService service.TenancyService) *OrganizationHandler {
	return &OrganizationHandler{tenancyService: tenancyService}
}

// CreateOrganizationRequest 创建组织请求
type CreateOrganizationRequest struct {
	Name string `json:"name" binding:"required"`
	Slug string `json:"slug" binding:"required"`
}

// CreateOrganization 创建组织
// @Summary 创建组织
// @Tags Organization
// @Accept json
// @Produce json
// @Param request body CreateOrganizationRequest true "创建组织请求"
// @Success 201 {object} entity.Organization
// @Router /api/v1/organizations [post]
func (h *OrganizationHandler) CreateOrganization(c *gin.Context) {
	var req CreateOrganizationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	org, err := h.tenancyService.CreateOrganization(c.Request.Context(), &service.CreateOrganizationRequest{
		Name:      req.Name,
		Slug:      req.Slug,
		CreatedBy: userID,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, org)
}

// GetOrganization 获取组织详情
// @Summary 获取组织详情
// @Tags Organization
// @Param orgId path int true "组织ID"
// @Success 200 {object} entity.Organization
// @Router /api/v1/organizations/{orgId} [get]
func (h *OrganizationHandler) GetOrganization(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	orgID, err := parseOrgID(c)
	if err != nil {
		return
	}

	org, err := h.tenancyService.GetOrganization(c.Request.Context(), userID, orgID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, org)
}

// ListOrganizations 列出当前用户所属的组织
// @Summary 列出当前用户所属的组织
// @Tags Organization
// @Success 200 {array} entity.Organization
// @Router /api/v1/organizations [get]
func (h *OrganizationHandler) ListOrganizations(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	orgs, err := h.tenancyService.ListOrganizations(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"organizations": orgs,
		"total":         len(orgs),
	})
}

// UpdateOrganizationRequest 更新组织请求
type UpdateOrganizationRequest struct {
	Name string `json:"name" binding:"required"`
}

// UpdateOrganization 更新组织
// @Summary 更新组织
// @Tags Organization
// @Accept json
// @Param orgId path int true "组织ID"
// @Param request body UpdateOrganizationRequest true "更新组织请求"
// @Success 200 {object} entity.Organization
// @Router /api/v1/organizations/{orgId} [put]
func (h *OrganizationHandler) UpdateOrganization(c *gin.Context) {
	var req UpdateOrganizationRequest
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

	org, err := h.tenancyService.UpdateOrganization(c.Request.Context(), &service.UpdateOrganizationRequest{
		Actor: userID,
		OrgID: orgID,
		Name:  req.Name,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, org)
}

// DeleteOrganization 软删除组织（级联团队、项目、任务和成员关系）
// @Summary 软删除组织
// @Tags Organization
// @Param orgId path int true "组织ID"
// @Success 204
// @Router /api/v1/organizations/{orgId} [delete]
func (h *OrganizationHandler) DeleteOrganization(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	err := h.tenancyService.SoftDelete(c.Request.Context(), &service.SoftDeleteRequest{
		Actor:     userID,
		ScopeType: valueobject.ScopeTypeOrganization,
		ScopeID:   c.Param("orgId"),
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// parseOrgID 解析路径参数中的组织ID
func parseOrgID(c *gin.Context) (uint, error) {
	idStr := c.Param("orgId")
	id, err := strconv.ParseUint(idStr, 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid organization id"})
		return 0, err
	}
	return uint(id), nil
}
