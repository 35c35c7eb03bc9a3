package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"task-platform/internal/application/service"
	"task-platform/internal/domain/valueobject"
)

// ProjectHandler 项目管理Handler
type ProjectHandler struct {
	tenancyService service.TenancyService
}

// NewProjectHandler 创建项目管理Handler实例
func NewProjectHandler(tenancyService service.TenancyService) *ProjectHandler {
	return &ProjectHandler{tenancyService: tenancyService}
}

// CreateProjectRequest 创建项目请求
type CreateProjectRequest struct {
	Name string `json:"name" binding:"required"`
}

// CreateProject 创建项目
// @Summary 创建项目
// @Tags Project
// @Accept json
// @Param teamId path string true "团队ID"
// @Param request body CreateProjectRequest true "创建项目请求"
// @Success 201 {object} entity.Project
// @Router /api/v1/teams/{teamId}/projects [post]
func (h *ProjectHandler) CreateProject(c *gin.Context) {
	var req CreateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	project, err := h.tenancyService.CreateProject(c.Request.Context(), &service.CreateProjectRequest{
		TeamID:    c.Param("teamId"),
		Name:      req.Name,
		CreatedBy: userID,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, project)
}

// GetProject 获取项目详情
// @Summary 获取项目详情
// @Tags Project
// @Param projectId path int true "项目ID"
// @Success 200 {object} entity.Project
// @Router /api/v1/projects/{projectId} [get]
func (h *ProjectHandler) GetProject(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	projectID, err := parseProjectID(c)
	if err != nil {
		return
	}

	project, err := h.tenancyService.GetProject(c.Request.Context(), userID, projectID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, project)
}

// ListProjects 列出团队下的项目
// @Summary 列出团队下的项目
// @Tags Project
// @Param teamId path string true "团队ID"
// @Param include_deleted query boolean false "包含已软删除的项目"
// @Success 200 {array} entity.Project
// @Router /api/v1/teams/{teamId}/projects [get]
func (h *ProjectHandler) ListProjects(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	includeDeleted := c.Query("include_deleted") == "true"

	projects, err := h.tenancyService.ListProjects(c.Request.Context(), userID, c.Param("teamId"), includeDeleted)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"projects": projects,
		"total":    len(projects),
	})
}

// UpdateProjectRequest 更新项目请求
type UpdateProjectRequest struct {
	Name string `json:"name" binding:"required"`
}

// UpdateProject 更新项目
// @Summary 更新项目
// @Tags Project
// @Accept json
// @Param projectId path int true "项目ID"
// @Param request body UpdateProjectRequest true "更新项目请求"
// @Success 200 {object} entity.Project
// @Router /api/v1/projects/{projectId} [put]
func (h *ProjectHandler) UpdateProject(c *gin.Context) {
	var req UpdateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	projectID, err := parseProjectID(c)
	if err != nil {
		return
	}

	project, err := h.tenancyService.UpdateProject(c.Request.Context(), &service.UpdateProjectRequest{
		Actor:     userID,
		ProjectID: projectID,
		Name:      req.Name,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, project)
}

// DeleteProject 软删除项目（级联任务）
// @Summary 软删除项目
// @Tags Project
// @Param projectId path int true "项目ID"
// @Success 204
// @Router /api/v1/projects/{projectId} [delete]
func (h *ProjectHandler) DeleteProject(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	err := h.tenancyService.SoftDelete(c.Request.Context(), &service.SoftDeleteRequest{
		Actor:     userID,
		ScopeType: valueobject.ScopeTypeProject,
		ScopeID:   c.Param("projectId"),
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// parseProjectID 解析路径参数中的项目ID
func parseProjectID(c *gin.Context) (uint, error) {
	idStr := c.Param("projectId")
	id, err := strconv.ParseUint(idStr, 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid project id"})
		return 0, err
	}
	return uint(id), nil
}
