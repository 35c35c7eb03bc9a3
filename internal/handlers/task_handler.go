package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"task-platform/internal/application/service"
)

// TaskHandler 任务管理Handler
type TaskHandler struct {
	tenancyService service.TenancyService
}

// NewTaskHandler 创建任务管理Handler实例
func NewTaskHandler(tenancyService service.TenancyService) *TaskHandler {
	return &TaskHandler{tenancyService: tenancyService}
}

// CreateTaskRequest 创建任务请求
type CreateTaskRequest struct {
	Title       string  `json:"title" binding:"required"`
	Description string  `json:"description"`
	AssignedTo  *string `json:"assigned_to"`
}

// CreateTask 创建任务
// @Summary 创建任务
// @Tags Task
// @Accept json
// @Param projectId path int true "项目ID"
// @Param request body CreateTaskRequest true "创建任务请求"
// @Success 201 {object} entity.Task
// @Router /api/v1/projects/{projectId}/tasks [post]
func (h *TaskHandler) CreateTask(c *gin.Context) {
	var req CreateTaskRequest
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

	task, err := h.tenancyService.CreateTask(c.Request.Context(), &service.CreateTaskRequest{
		ProjectID:   projectID,
		Title:       req.Title,
		Description: req.Description,
		AssignedTo:  req.AssignedTo,
		CreatedBy:   userID,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, task)
}

// GetTask 获取任务详情
// @Summary 获取任务详情
// @Tags Task
// @Param taskId path string true "任务ID"
// @Success 200 {object} entity.Task
// @Router /api/v1/tasks/{taskId} [get]
func (h *TaskHandler) GetTask(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	task, err := h.tenancyService.GetTask(c.Request.Context(), userID, c.Param("taskId"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, task)
}

// ListTasks 列出项目下的任务
// @Summary 列出项目下的任务
// @Tags Task
// @Param projectId path int true "项目ID"
// @Param include_deleted query boolean false "包含已软删除的任务"
// @Success 200 {array} entity.Task
// @Router /api/v1/projects/{projectId}/tasks [get]
func (h *TaskHandler) ListTasks(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	projectID, err := parseProjectID(c)
	if err != nil {
		return
	}
	includeDeleted := c.Query("include_deleted") == "true"

	tasks, err := h.tenancyService.ListTasks(c.Request.Context(), userID, projectID, includeDeleted)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"tasks": tasks,
		"total": len(tasks),
	})
}

// UpdateTaskRequest 更新任务请求
type UpdateTaskRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
}

// UpdateTask 更新任务
// @Summary 更新任务
// @Tags Task
// @Accept json
// @Param taskId path string true "任务ID"
// @Param request body UpdateTaskRequest true "更新任务请求"
// @Success 200 {object} entity.Task
// @Router /api/v1/tasks/{taskId} [put]
func (h *TaskHandler) UpdateTask(c *gin.Context) {
	var req UpdateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	task, err := h.tenancyService.UpdateTask(c.Request.Context(), &service.UpdateTaskRequest{
		Actor:       userID,
		TaskID:      c.Param("taskId"),
		Title:       req.Title,
		Description: req.Description,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, task)
}

// CompleteTask 完成任务
// @Summary 完成任务
// @Tags Task
// @Param taskId path string true "任务ID"
// @Success 200 {object} entity.Task
// @Router /api/v1/tasks/{taskId}/complete [post]
func (h *TaskHandler) CompleteTask(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	task, err := h.tenancyService.CompleteTask(c.Request.Context(), userID, c.Param("taskId"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, task)
}

// AssignTaskRequest 分配任务请求
type AssignTaskRequest struct {
	AssignedTo string `json:"assigned_to" binding:"required"`
}

// AssignTask 分配任务
// @Summary 分配任务
// @Tags Task
// @Accept json
// @Param taskId path string true "任务ID"
// @Param request body AssignTaskRequest true "分配任务请求"
// @Success 200 {object} entity.Task
// @Router /api/v1/tasks/{taskId}/assign [post]
func (h *TaskHandler) AssignTask(c *gin.Context) {
	var req AssignTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	task, err := h.tenancyService.AssignTask(c.Request.Context(), userID, c.Param("taskId"), req.AssignedTo)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, task)
}
