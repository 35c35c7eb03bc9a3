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

// TeamRepositoryImpl 团队仓储GORM实现
type TeamRepositoryImpl struct {
	db *gorm.DB
}

// NewTeamRepository 创建团队仓储实例
func NewTeamRepository(db *gorm.DB) repository.TeamRepository {
	return &TeamRepositoryImpl{db: db}
}

// CreateTeam 创建团队
func (r *TeamRepositoryImpl) CreateTeam(ctx context.Context, team *entity.Team) error {
	if err := r.db.WithContext(ctx).Create(team).Error; err != nil {
		return fmt.Errorf("failed to create team: %w", err)
	}
	return nil
}

// GetTeamByID 根据ID获取团队
func (r *TeamRepositoryImpl) GetTeamByID(ctx context.Context, id string, includeDeleted bool) (*entity.Team, error) {
	query := r.db.WithContext(ctx)
	if includeDeleted {
		query = query.Unscoped()
	}

	var team entity.Team
	if err := query.Where("team_id = ?", id).First(&team).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domainerrors.ErrResourceNotFound
		}
		return nil, fmt.Errorf("failed to get team: %w", err)
	}
	return &team, nil
}

// GetTeamByName 根据组织ID和名称获取团队
func (r *TeamRepositoryImpl) GetTeamByName(ctx context.Context, orgID uint, name string) (*entity.Team, error) {
	var team entity.Team
	err := r.db.WithContext(ctx).
		Where("org_id = ? AND name = ?", orgID, name).
		First(&team).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get team by name: %w", err)
	}
	return &team, nil
}

// ListTeams 列出组织下的团队
func (r *TeamRepositoryImpl) ListTeams(ctx context.Context, orgID uint, includeDeleted bool) ([]*entity.Team, error) {
	query := r.db.WithContext(ctx)
	if includeDeleted {
		query = query.Unscoped()
	}

	var teams []*entity.Team
	err := query.Where("org_id = ?", orgID).Order("created_at ASC").Find(&teams).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list teams: %w", err)
	}
	return teams, nil
}

// UpdateTeam 更新团队信息
func (r *TeamRepositoryImpl) UpdateTeam(ctx context.Context, team *entity.Team) error {
	if err := r.db.WithContext(ctx).Save(team).Error; err != nil {
		return fmt.Errorf("failed to update team: %w", err)
	}
	return nil
}

// GetTeamMember 获取团队成员关系
func (r *TeamRepositoryImpl) GetTeamMember(ctx context.Context, teamID string, userID string) (*entity.TeamMember, error) {
	var member entity.TeamMember
	err := r.db.WithContext(ctx).
		Where("team_id = ? AND user_id = ?", teamID, userID).
		First(&member).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get team member: %w", err)
	}
	return &member, nil
}

// ListTeamMembers 列出团队的所有成员
func (r *TeamRepositoryImpl) ListTeamMembers(ctx context.Context, teamID string) ([]*entity.TeamMember, error) {
	var members []*entity.TeamMember
	err := r.db.WithContext(ctx).
		Where("team_id = ?", teamID).
		Order("joined_at ASC").
		Find(&members).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list team members: %w", err)
	}
	return members, nil
}
