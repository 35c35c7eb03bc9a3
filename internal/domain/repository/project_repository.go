package repository

import (
	"context"

	"task-platform/internal/domain/entity"
)

// ProjectRepository 项目仓储接口
type ProjectRepository interface {
	// CreateProject 创建项目
	CreateProject(ctx context.Context, project *entity.Project) error

	// GetProjectByID 根据ID获取项目（includeDeleted为true时包含软删除行）
	GetProjectByID(ctx context.Context, id uint, includeDeleted bool) (*entity.Project, error)

	// GetProjectByName 根据团队ID和名称获取项目，不存在时返回(nil, nil)
	GetProjectByName(ctx context.Context, teamID string, name string) (*entity.Project, error)

	// ListProjects 列出团队下的项目
	ListProjects(ctx context.Context, teamID string, includeDeleted bool) ([]*entity.Project, error)

	// UpdateProject 更新项目信息
	UpdateProject(ctx context.Context, project *entity.Project) error

	// GetProjectMember 获取项目成员关系，不存在时返回(nil, nil)
	GetProjectMember(ctx context.Context, projectID uint, userID string) (*entity.ProjectMember, error)

	// ListProjectMembers 列出项目的所有成员
	ListProjectMembers(ctx context.Context, projectID uint) ([]*entity.ProjectMember, error)
}
