package persistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"task-platform/internal/domain/entity"
	"task-platform/internal/domain/repository"
	"task-platform/internal/domain/valueobject"
)

// InvitationRepositoryImpl 邀请仓储GORM实现
type InvitationRepositoryImpl struct {
	db *gorm.DB
}

// NewInvitationRepository 创建邀请仓储实例
func NewInvitationRepository(db *gorm.DB) repository.InvitationRepository {
	return &InvitationRepositoryImpl{db: db}
}

// GetInvitationByID 根据ID获取邀请
func (r *InvitationRepositoryImpl) GetInvitationByID(ctx context.Context, id string) (*entity.Invitation, error) {
	var invitation entity.Invitation
	err := r.db.WithContext(ctx).Where("invitation_id = ?", id).First(&invitation).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get invitation: %w", err)
	}
	return &invitation, nil
}

// GetInvitationByToken 根据一次性令牌获取邀请
func (r *InvitationRepositoryImpl) GetInvitationByToken(ctx context.Context, token string) (*entity.Invitation, error) {
	var invitation entity.Invitation
	err := r.db.WithContext(ctx).Where("token = ?", token).First(&invitation).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get invitation by token: %w", err)
	}
	return &invitation, nil
}

// ListPendingByEmail 列出指定邮箱的所有待接受邀请
func (r *InvitationRepositoryImpl) ListPendingByEmail(ctx context.Context, email string) ([]*entity.Invitation, error) {
	var invitations []*entity.Invitation
	err := r.db.WithContext(ctx).
		Where("email = ? AND status = ?", email, valueobject.InvitationStatusPending).
		Order("created_at DESC").
		Find(&invitations).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list pending invitations: %w", err)
	}
	return invitations, nil
}

// ListInvitationsByOrg 列出组织下的所有邀请
func (r *InvitationRepositoryImpl) ListInvitationsByOrg(ctx context.Context, orgID uint) ([]*entity.Invitation, error) {
	var invitations []*entity.Invitation
	err := r.db.WithContext(ctx).
		Where("org_id = ?", orgID).
		Order("created_at DESC").
		Find(&invitations).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list invitations: %w", err)
	}
	return invitations, nil
}

// ListExpiredPending 列出已过期但仍处于PENDING状态的邀请
func (r *InvitationRepositoryImpl) ListExpiredPending(ctx context.Context, now time.Time) ([]*entity.Invitation, error) {
	var invitations []*entity.Invitation
	err := r.db.WithContext(ctx).
		Where("status = ? AND expires_at < ?", valueobject.InvitationStatusPending, now).
		Find(&invitations).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list expired invitations: %w", err)
	}
	return invitations, nil
}
