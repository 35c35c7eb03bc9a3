package persistence

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"task-platform/internal/domain/entity"
	domainerrors "task-platform/internal/domain/errors"
	"task-platform/internal/domain/repository"
)

// TaskRepositoryImpl 任务仓储GORM实现
type TaskRepositoryImpl struct {
	db *gorm.DB
}

// NewTaskRepository 创建任务仓储实例
func NewTaskRepository(db *gorm.DB) repository.TaskRepository {
	return &TaskRepositoryImpl{db: db}
}

// GetTaskByID 根据ID获取任务
func (r *TaskRepositoryImpl) GetTaskByID(ctx context.Context, id string, includeDeleted bool) (*entity.Task, error) {
	query := r.db.WithContext(ctx)
	if includeDeleted {
		query = query.Unscoped()
	}

	var task entity.Task
	if err := query.Where("task_id = ?", id).First(&task).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domainerrors.ErrResourceNotFound
		}
		return nil, fmt.Errorf("failed to get task: %w", err)
	}
	return &task, nil
}

// ListTasks 列出项目下的任务
func (r *TaskRepositoryImpl) ListTasks(ctx context.Context, projectID uint, includeDeleted bool) ([]*entity.Task, error) {
	query := r.db.WithContext(ctx)
	if includeDeleted {
		query = query.Unscoped()
	}

	var tasks []*entity.Task
	err := query.Where("project_id = ?", projectID).Order("created_at ASC").Find(&tasks).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	return tasks, nil
}
