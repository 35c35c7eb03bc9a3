package persistence

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"task-platform/internal/domain/entity"
	domainerrors "task-platform/internal/domain/errors"
	"task-platform/internal/domain/repository"
	"task-platform/internal/domain/valueobject"
)

// OrganizationRepositoryImpl 组织仓储GORM实现
type OrganizationRepositoryImpl struct {
	db *gorm.DB
}

// NewOrganizationRepository 创建组织仓储实例
func NewOrganizationRepository(db *gorm.DB) repository.OrganizationRepository {
	return &OrganizationRepositoryImpl{db: db}
}

// CreateOrganization 创建组织
func (r *OrganizationRepositoryImpl) CreateOrganization(ctx context.Context, org *entity.Organization) error {
	if err := r.db.WithContext(ctx).Create(org).Error; err != nil {
		return fmt.Errorf("failed to create organization: %w", err)
	}
	return nil
}

// GetOrganizationByID 根据ID获取组织
func (r *OrganizationRepositoryImpl) GetOrganizationByID(ctx context.Context, id uint, includeDeleted bool) (*entity.Organization, error) {
	query := r.db.WithContext(ctx)
	if includeDeleted {
		query = query.Unscoped()
	}

	var org entity.Organization
	if err := query.First(&org, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domainerrors.ErrResourceNotFound
		}
		return nil, fmt.Errorf("failed to get organization: %w", err)
	}
	return &org, nil
}

// GetOrganizationBySlug 根据slug获取组织
func (r *OrganizationRepositoryImpl) GetOrganizationBySlug(ctx context.Context, slug string) (*entity.Organization, error) {
	var org entity.Organization
	if err := r.db.WithContext(ctx).Where("slug = ?", slug).First(&org).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get organization by slug: %w", err)
	}
	return &org, nil
}

// ListOrganizations 列出用户所属的组织
func (r *OrganizationRepositoryImpl) ListOrganizations(ctx context.Context, userID string) ([]*entity.Organization, error) {
	var orgs []*entity.Organization
	err := r.db.WithContext(ctx).
		Joins("JOIN organization_members ON organization_members.org_id = organizations.id").
		Where("organization_members.user_id = ?", userID).
		Order("organizations.created_at DESC").
		Find(&orgs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list organizations: %w", err)
	}
	return orgs, nil
}

// UpdateOrganization 更新组织信息
func (r *OrganizationRepositoryImpl) UpdateOrganization(ctx context.Context, org *entity.Organization) error {
	if err := r.db.WithContext(ctx).Save(org).Error; err != nil {
		return fmt.Errorf("failed to update organization: %w", err)
	}
	return nil
}

// GetOrgMember 获取组织成员关系
func (r *OrganizationRepositoryImpl) GetOrgMember(ctx context.Context, orgID uint, userID string) (*entity.OrganizationMember, error) {
	var member entity.OrganizationMember
	err := r.db.WithContext(ctx).
		Where("org_id = ? AND user_id = ?", orgID, userID).
		First(&member).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get organization member: %w", err)
	}
	return &member, nil
}

// ListOrgMembers 列出组织的所有成员
func (r *OrganizationRepositoryImpl) ListOrgMembers(ctx context.Context, orgID uint) ([]*entity.OrganizationMember, error) {
	var members []*entity.OrganizationMember
	err := r.db.WithContext(ctx).
		Where("org_id = ?", orgID).
		Order("joined_at ASC").
		Find(&members).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list organization members: %w", err)
	}
	return members, nil
}

// CountOrgMembersByRole 统计组织内指定角色的成员数量
func (r *OrganizationRepositoryImpl) CountOrgMembersByRole(ctx context.Context, orgID uint, role valueobject.Role) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&entity.OrganizationMember{}).
		Where("org_id = ? AND role = ?", orgID, role).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count organization members: %w", err)
	}
	return count, nil
}
