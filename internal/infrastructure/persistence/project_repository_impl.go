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

// ProjectRepositoryImpl 项目仓储GORM实现
type ProjectRepositoryImpl struct {
	db *gorm.DB
}

// NewProjectRepository 创建项目仓储实例
func NewProjectRepository(db *gorm.DB) repository.ProjectRepository {
	return &ProjectRepositoryImpl{db: db}
}

// CreateProject 创建项目
func (r *ProjectRepositoryImpl) CreateProject(ctx context.Context, project *entity.Project) error {
	if err := r.db.WithContext(ctx).Create(project).Error; err != nil {
		return fmt.Errorf("failed to create project: %w", err)
	}
	return nil
}

// GetProjectByID 根据ID获取项目
func (r *ProjectRepositoryImpl) GetProjectByID(ctx context.Context, id uint, includeDeleted bool) (*entity.Project, error) {
	query := r.db.WithContext(ctx)
	if includeDeleted {
		query = query.Unscoped()
	}

	var project entity.Project
	if err := query.First(&project, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domainerrors.ErrResourceNotFound
		}
		return nil, fmt.Errorf("failed to get project: %w", err)
	}
	return &project, nil
}

// GetProjectByName 根据团队ID和名称获取项目
func (r *ProjectRepositoryImpl) GetProjectByName(ctx context.Context, teamID string, name string) (*entity.Project, error) {
	var project entity.Project
	err := r.db.WithContext(ctx).
		Where("team_id = ? AND name = ?", teamID, name).
		First(&project).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get project by name: %w", err)
	}
	return &project, nil
}

// ListProjects 列出团队下的项目
func (r *ProjectRepositoryImpl) ListProjects(ctx context.Context, teamID string, includeDeleted bool) ([]*entity.Project, error) {
	query := r.db.WithContext(ctx)
	if includeDeleted {
		query = query.Unscoped()
	}

	var projects []*entity.Project
	err := query.Where("team_id = ?", teamID).Order("created_at ASC").Find(&projects).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	return projects, nil
}

// UpdateProject 更新项目信息
func (r *ProjectRepositoryImpl) UpdateProject(ctx context.Context, project *entity.Project) error {
	if err := r.db.WithContext(ctx).Save(project).Error; err != nil {
		return fmt.Errorf("failed to update project: %w", err)
	}
	return nil
}

// GetProjectMember 获取项目成员关系
func (r *ProjectRepositoryImpl) GetProjectMember(ctx context.Context, projectID uint, userID string) (*entity.ProjectMember, error) {
	var member entity.ProjectMember
	err := r.db.WithContext(ctx).
		Where("project_id = ? AND user_id = ?", projectID, userID).
		First(&member).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get project member: %w", err)
	}
	return &member, nil
}

// ListProjectMembers 列出项目的所有成员
func (r *ProjectRepositoryImpl) ListProjectMembers(ctx context.Context, projectID uint) ([]*entity.ProjectMember, error) {
	var members []*entity.ProjectMember
	err := r.db.WithContext(ctx).
		Where("project_id = ?", projectID).
		Order("joined_at ASC").
		Find(&members).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list project members: %w", err)
	}
	return members, nil
}
