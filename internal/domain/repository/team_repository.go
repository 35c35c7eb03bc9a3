package repository

import (
	"context"

	"task-platform/internal/domain/entity"
)

// TeamRepository 团队仓储接口
type TeamRepository interface {
	// CreateTeam 创建团队
	CreateTeam(ctx context.Context, team *entity.Team) error

	// GetTeamByID 根据ID获取团队（includeDeleted为true时包含软删除行）
	GetTeamByID(ctx context.Context, id string, includeDeleted bool) (*entity.Team, error)

	// GetTeamByName 根据组织ID和名称获取团队，不存在时返回(nil, nil)
	GetTeamByName(ctx context.Context, orgID uint, name string) (*entity.Team, error)

	// ListTeams 列出组织下的团队
	ListTeams(ctx context.Context, orgID uint, includeDeleted bool) ([]*entity.Team, error)

	// UpdateTeam 更新团队信息
	UpdateTeam(ctx context.Context, team *entity.Team) error

	// GetTeamMember 获取团队成员关系，不存在时返回(nil, nil)
	GetTeamMember(ctx context.Context, teamID string, userID string) (*entity.TeamMember, error)

	// ListTeamMembers 列出团队的所有成员
	ListTeamMembers(ctx context.Context, teamID string) ([]*entity.TeamMember, error)
}
