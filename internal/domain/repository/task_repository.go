package repository

import (
	"context"

	"task-platform/internal/domain/entity"
)

// TaskRepository 任务仓储接口
type TaskRepository interface {
	// GetTaskByID 根据ID获取任务（includeDeleted为true时包含软删除行）
	GetTaskByID(ctx context.Context, id string, includeDeleted bool) (*entity.Task, error)

	// ListTasks 列出项目下的任务
	ListTasks(ctx context.Context, projectID uint, includeDeleted bool) ([]*entity.Task, error)
}
