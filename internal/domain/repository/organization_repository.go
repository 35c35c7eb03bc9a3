package repository

import (
	"context"

	"task-platform/internal/domain/entity"
	"task-platform/internal/domain/valueobject"
)

// OrganizationRepository 组织仓储接口
type OrganizationRepository interface {
	// CreateOrganization 创建组织
	CreateOrganization(ctx context.Context, org *entity.Organization) error

	// GetOrganizationByID 根据ID获取组织（includeDeleted为true时包含软删除行）
	GetOrganizationByID(ctx context.Context, id uint, includeDeleted bool) (*entity.Organization, error)

	// GetOrganizationBySlug 根据slug获取组织，不存在时返回(nil, nil)
	GetOrganizationBySlug(ctx context.Context, slug string) (*entity.Organization, error)

	// ListOrganizations 列出用户所属的组织
	ListOrganizations(ctx context.Context, userID string) ([]*entity.Organization, error)

	// UpdateOrganization 更新组织信息
	UpdateOrganization(ctx context.Context, org *entity.Organization) error

	// GetOrgMember 获取组织成员关系，不存在时返回(nil, nil)
	GetOrgMember(ctx context.Context, orgID uint, userID string) (*entity.OrganizationMember, error)

	// ListOrgMembers 列出组织的所有成员
	ListOrgMembers(ctx context.Context, orgID uint) ([]*entity.OrganizationMember, error)

	// CountOrgMembersByRole 统计组织内指定角色的成员数量
	CountOrgMembersByRole(ctx context.Context, orgID uint, role valueobject.Role) (int64, error)
}
