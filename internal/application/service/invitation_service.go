package service

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"task-platform/internal/config"
	"task-platform/internal/domain/entity"
	domainerrors "task-platform/internal/domain/errors"
	"task-platform/internal/domain/repository"
	"task-platform/internal/domain/valueobject"
	"task-platform/internal/observability/metrics"
)

// CreateInvitationRequest 创建邀请请求
// TeamID/ProjectID最多填一个；都不填时邀请目标是组织本身
type CreateInvitationRequest struct {
	Actor     string           `json:"actor"`
	OrgID     uint             `json:"org_id"`
	TeamID    *string          `json:"team_id"`
	ProjectID *uint            `json:"project_id"`
	Email     string           `json:"email"`
	Role      valueobject.Role `json:"role"`
}

// AcceptInvitationRequest 接受邀请请求
type AcceptInvitationRequest struct {
	Token  string `json:"token"`
	UserID string `json:"user_id"`
}

// InvitationService 邀请生命周期管理服务接口
// 所有状态转移都是条件更新（WHERE status='PENDING'），
// 行数为0即判定并发冲突，绝不出现一个邀请两次接受成功
type InvitationService interface {
	// CreateInvitation 创建邀请并在事务提交后发送通知
	CreateInvitation(ctx context.Context, req *CreateInvitationRequest) (*entity.Invitation, error)

	// AcceptInvitation 凭令牌接受邀请，成员写入与状态转移同事务
	AcceptInvitation(ctx context.Context, req *AcceptInvitationRequest) (*entity.Invitation, error)

	// CancelInvitation 取消待接受的邀请
	CancelInvitation(ctx context.Context, actor string, invitationID string) error

	// ExpireSweep 批量将已过期的PENDING邀请置为EXPIRED，返回处理条数
	ExpireSweep(ctx context.Context) (int, error)

	// ListMyInvitations 列出当前用户的待接受邀请
	ListMyInvitations(ctx context.Context, userID string) ([]*entity.Invitation, error)

	// ListInvitations 列出组织下的所有邀请
	ListInvitations(ctx context.Context, actor string, orgID uint) ([]*entity.Invitation, error)
}

// InvitationServiceImpl 邀请生命周期管理服务实现
type InvitationServiceImpl struct {
	db             *gorm.DB
	invitationRepo repository.InvitationRepository
	orgRepo        repository.OrganizationRepository
	teamRepo       repository.TeamRepository
	projectRepo    repository.ProjectRepository
	members        *MembershipServiceImpl
	checker        PermissionChecker
	audit          *AuditService
	notifier       Notifier
	cfg            config.EngineConfig
}

// NewInvitationService 创建邀请生命周期管理服务实例
func NewInvitationService(
	db *gorm.DB,
	invitationRepo repository.InvitationRepository,
	orgRepo repository.OrganizationRepository,
	teamRepo repository.TeamRepository,
	projectRepo repository.ProjectRepository,
	members *MembershipServiceImpl,
	checker PermissionChecker,
	audit *AuditService,
	notifier Notifier,
	cfg config.EngineConfig,
) InvitationService {
	return &InvitationServiceImpl{
		db:             db,
		invitationRepo: invitationRepo,
		orgRepo:        orgRepo,
		teamRepo:       teamRepo,
		projectRepo:    projectRepo,
		members:        members,
		checker:        checker,
		audit:          audit,
		notifier:       notifier,
		cfg:            cfg,
	}
}

// CreateInvitation 创建邀请
func (s *InvitationServiceImpl) CreateInvitation(ctx context.Context, req *CreateInvitationRequest) (*entity.Invitation, error) {
	invitation := &entity.Invitation{
		OrgID:     req.OrgID,
		TeamID:    req.TeamID,
		ProjectID: req.ProjectID,
		Email:     req.Email,
		Role:      req.Role,
		Status:    valueobject.InvitationStatusPending,
		InvitedBy: req.Actor,
		ExpiresAt: time.Now().Add(s.cfg.InvitationTTL),
	}
	if !invitation.IsValid() {
		return nil, fmt.Errorf("invalid invitation: %w", domainerrors.ErrInvalidRole)
	}

	// 1. 目标作用域必须存在且从属于指定组织
	scopeType, scopeID, err := s.resolveTargetScope(ctx, invitation)
	if err != nil {
		return nil, err
	}

	// 2. 权限检查：目标作用域INVITE_MEMBER
	if err := s.requireAllowed(ctx, req.Actor, valueobject.ActionInviteMember, scopeType, scopeID); err != nil {
		return nil, err
	}

	// 3. 被邀请人已是目标作用域成员则拒绝
	already, err := s.isMember(ctx, scopeType, invitation, req.Email)
	if err != nil {
		return nil, err
	}
	if already {
		return nil, fmt.Errorf("invitee %s: %w", req.Email, domainerrors.ErrDuplicateMembership)
	}

	// 4. 创建 + 审计，一个事务
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(invitation).Error; err != nil {
			return fmt.Errorf("failed to create invitation: %w", err)
		}
		return s.audit.Record(tx, &entity.AuditLog{
			OrgID:        invitation.OrgID,
			ActorID:      req.Actor,
			ResourceType: entity.AuditResourceInvitation,
			ResourceID:   invitation.ID,
			Action:       entity.AuditActionInvite,
			Metadata: datatypes.JSONMap{
				"email": req.Email, "role": string(req.Role), "scope_type": string(scopeType), "scope_id": scopeID,
			},
		})
	})
	if err != nil {
		return nil, err
	}

	// 5. 通知在事务提交之后发送，失败只记录日志
	if s.notifier != nil {
		if err := s.notifier.Send(ctx, req.Email, invitation); err != nil {
			log.Printf("[Invitation] Failed to send notification for %s: %v", invitation.ID, err)
		}
	}
	metrics.IncInvitationEvent("created")
	return invitation, nil
}

// AcceptInvitation 凭令牌接受邀请
func (s *InvitationServiceImpl) AcceptInvitation(ctx context.Context, req *AcceptInvitationRequest) (*entity.Invitation, error) {
	invitation, err := s.invitationRepo.GetInvitationByToken(ctx, req.Token)
	if err != nil {
		return nil, err
	}
	if invitation == nil {
		return nil, fmt.Errorf("invitation token: %w", domainerrors.ErrResourceNotFound)
	}

	// 令牌只对被邀请人有效
	if invitation.Email != req.UserID {
		return nil, domainerrors.ErrInvitationNotAuthorized
	}

	// 终态邀请直接拒绝
	switch invitation.Status {
	case valueobject.InvitationStatusAccepted:
		return nil, domainerrors.ErrInvitationAlreadyAccepted
	case valueobject.InvitationStatusCancelled, valueobject.InvitationStatusExpired:
		return nil, domainerrors.ErrInvitationTerminal
	}

	now := time.Now()

	// 已过期的PENDING邀请：惰性转为EXPIRED后拒绝
	if invitation.IsExpired(now) {
		if err := s.expireOneTx(ctx, invitation, now); err != nil {
			return nil, err
		}
		return nil, domainerrors.ErrInvitationExpired
	}

	scopeType := invitation.TargetScope()
	scopeID := s.targetScopeID(invitation)

	// 状态转移、成员写入、审计，一个事务
	// 条件更新是并发接受的唯一仲裁：行数为0说明别的请求已经转移了状态
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&entity.Invitation{}).
			Where("invitation_id = ? AND status = ?", invitation.ID, valueobject.InvitationStatusPending).
			Updates(map[string]interface{}{
				"status":      valueobject.InvitationStatusAccepted,
				"accepted_at": now,
				"accepted_by": req.UserID,
			})
		if result.Error != nil {
			return fmt.Errorf("failed to accept invitation: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			// 输掉并发仲裁：重读当前状态，让落败方看到真实终态
			var current entity.Invitation
			if err := tx.Where("invitation_id = ?", invitation.ID).First(&current).Error; err != nil {
				return fmt.Errorf("failed to reload invitation: %w", err)
			}
			switch current.Status {
			case valueobject.InvitationStatusAccepted:
				return domainerrors.ErrInvitationAlreadyAccepted
			case valueobject.InvitationStatusCancelled, valueobject.InvitationStatusExpired:
				return domainerrors.ErrInvitationTerminal
			}
			return domainerrors.ErrConcurrencyConflict
		}

		if _, err := s.members.createMembershipTx(ctx, tx, scopeType, scopeID, req.UserID, invitation.Role, invitation.InvitedBy, now); err != nil {
			return err
		}

		return s.audit.Record(tx, &entity.AuditLog{
			OrgID:        invitation.OrgID,
			ActorID:      req.UserID,
			ResourceType: entity.AuditResourceInvitation,
			ResourceID:   invitation.ID,
			Action:       entity.AuditActionAcceptInvite,
			Metadata: datatypes.JSONMap{
				"role": string(invitation.Role), "scope_type": string(scopeType), "scope_id": scopeID,
			},
		})
	})
	if err != nil {
		return nil, err
	}

	invitation.Status = valueobject.InvitationStatusAccepted
	invitation.AcceptedAt = &now
	invitation.AcceptedBy = &req.UserID
	metrics.IncInvitationEvent("accepted")
	return invitation, nil
}

// CancelInvitation 取消待接受的邀请
// 邀请人本人，或授权来自祖先层级的INVITE_MEMBER持有者可以取消；
// 目标作用域同级的授权不够（同团队另一个LEAD不能取消别人的团队邀请），
// 组织级邀请没有祖先，组织级授权即可
func (s *InvitationServiceImpl) CancelInvitation(ctx context.Context, actor string, invitationID string) error {
	invitation, err := s.invitationRepo.GetInvitationByID(ctx, invitationID)
	if err != nil {
		return err
	}
	if invitation == nil {
		return fmt.Errorf("invitation %s: %w", invitationID, domainerrors.ErrResourceNotFound)
	}
	if !invitation.IsPending() {
		return domainerrors.ErrInvitationTerminal
	}

	if actor != invitation.InvitedBy {
		scopeType := invitation.TargetScope()
		scopeID := s.targetScopeID(invitation)
		decision, err := s.checker.Check(ctx, &CheckRequest{
			PrincipalID: actor,
			Action:      valueobject.ActionInviteMember,
			ScopeType:   scopeType,
			ScopeID:     scopeID,
		})
		if err != nil {
			return err
		}
		if !decision.Allowed {
			return fmt.Errorf("%s: %w", decision.Reason, domainerrors.ErrPermissionDenied)
		}
		if scopeType != valueobject.ScopeTypeOrganization && !scopeType.IsMoreSpecificThan(decision.GrantScope) {
			return fmt.Errorf("only the inviter or an ancestor-scope grant can cancel: %w", domainerrors.ErrPermissionDenied)
		}
	}

	now := time.Now()
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&entity.Invitation{}).
			Where("invitation_id = ? AND status = ?", invitation.ID, valueobject.InvitationStatusPending).
			Updates(map[string]interface{}{
				"status":       valueobject.InvitationStatusCancelled,
				"cancelled_at": now,
				"cancelled_by": actor,
			})
		if result.Error != nil {
			return fmt.Errorf("failed to cancel invitation: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return domainerrors.ErrConcurrencyConflict
		}
		return s.audit.Record(tx, &entity.AuditLog{
			OrgID:        invitation.OrgID,
			ActorID:      actor,
			ResourceType: entity.AuditResourceInvitation,
			ResourceID:   invitation.ID,
			Action:       entity.AuditActionCancelInvite,
			Metadata:     datatypes.JSONMap{"email": invitation.Email},
		})
	})
	if err != nil {
		return err
	}
	metrics.IncInvitationEvent("cancelled")
	return nil
}

// ExpireSweep 批量过期清扫
// 逐条条件更新保证幂等：已被接受/取消/过期的邀请自然跳过
func (s *InvitationServiceImpl) ExpireSweep(ctx context.Context) (int, error) {
	now := time.Now()
	expired, err := s.invitationRepo.ListExpiredPending(ctx, now)
	if err != nil {
		return 0, err
	}

	swept := 0
	for _, invitation := range expired {
		if err := s.expireOneTx(ctx, invitation, now); err != nil {
			log.Printf("[Invitation] Failed to expire %s: %v", invitation.ID, err)
			continue
		}
		swept++
	}
	return swept, nil
}

// expireOneTx 单条过期转移：条件更新 + 审计，一个事务
// 并发下行数为0视为他人已转移，不报错
func (s *InvitationServiceImpl) expireOneTx(ctx context.Context, invitation *entity.Invitation, now time.Time) error {
	transitioned := false
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&entity.Invitation{}).
			Where("invitation_id = ? AND status = ?", invitation.ID, valueobject.InvitationStatusPending).
			Update("status", valueobject.InvitationStatusExpired)
		if result.Error != nil {
			return fmt.Errorf("failed to expire invitation: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return nil
		}
		transitioned = true
		return s.audit.Record(tx, &entity.AuditLog{
			OrgID:        invitation.OrgID,
			ActorID:      "system",
			ResourceType: entity.AuditResourceInvitation,
			ResourceID:   invitation.ID,
			Action:       entity.AuditActionExpireInvite,
			Metadata:     datatypes.JSONMap{"email": invitation.Email, "expired_at": now.Format(time.RFC3339)},
		})
	})
	if err != nil {
		return err
	}
	if transitioned {
		metrics.IncInvitationEvent("expired")
	}
	return nil
}

// ListMyInvitations 列出当前用户的待接受邀请
func (s *InvitationServiceImpl) ListMyInvitations(ctx context.Context, userID string) ([]*entity.Invitation, error) {
	return s.invitationRepo.ListPendingByEmail(ctx, userID)
}

// ListInvitations 列出组织下的所有邀请
func (s *InvitationServiceImpl) ListInvitations(ctx context.Context, actor string, orgID uint) ([]*entity.Invitation, error) {
	orgIDStr := strconv.FormatUint(uint64(orgID), 10)
	if err := s.requireAllowed(ctx, actor, valueobject.ActionInviteMember, valueobject.ScopeTypeOrganization, orgIDStr); err != nil {
		return nil, err
	}
	return s.invitationRepo.ListInvitationsByOrg(ctx, orgID)
}

// resolveTargetScope 校验邀请目标作用域存在且从属于指定组织
func (s *InvitationServiceImpl) resolveTargetScope(ctx context.Context, invitation *entity.Invitation) (valueobject.ScopeType, string, error) {
	switch invitation.TargetScope() {
	case valueobject.ScopeTypeProject:
		project, err := s.projectRepo.GetProjectByID(ctx, *invitation.ProjectID, false)
		if err != nil {
			return "", "", err
		}
		if project.OrgID != invitation.OrgID {
			return "", "", fmt.Errorf("project %d does not belong to organization %d: %w",
				project.ID, invitation.OrgID, domainerrors.ErrHierarchyViolation)
		}
		return valueobject.ScopeTypeProject, strconv.FormatUint(uint64(project.ID), 10), nil
	case valueobject.ScopeTypeTeam:
		team, err := s.teamRepo.GetTeamByID(ctx, *invitation.TeamID, false)
		if err != nil {
			return "", "", err
		}
		if team.OrgID != invitation.OrgID {
			return "", "", fmt.Errorf("team %s does not belong to organization %d: %w",
				team.ID, invitation.OrgID, domainerrors.ErrHierarchyViolation)
		}
		return valueobject.ScopeTypeTeam, team.ID, nil
	default:
		if _, err := s.orgRepo.GetOrganizationByID(ctx, invitation.OrgID, false); err != nil {
			return "", "", err
		}
		return valueobject.ScopeTypeOrganization, strconv.FormatUint(uint64(invitation.OrgID), 10), nil
	}
}

// targetScopeID 返回邀请目标作用域的ID字符串
func (s *InvitationServiceImpl) targetScopeID(invitation *entity.Invitation) string {
	switch invitation.TargetScope() {
	case valueobject.ScopeTypeProject:
		return strconv.FormatUint(uint64(*invitation.ProjectID), 10)
	case valueobject.ScopeTypeTeam:
		return *invitation.TeamID
	default:
		return strconv.FormatUint(uint64(invitation.OrgID), 10)
	}
}

// isMember 判断用户是否已是目标作用域成员
func (s *InvitationServiceImpl) isMember(ctx context.Context, scopeType valueobject.ScopeType, invitation *entity.Invitation, userID string) (bool, error) {
	switch scopeType {
	case valueobject.ScopeTypeProject:
		member, err := s.projectRepo.GetProjectMember(ctx, *invitation.ProjectID, userID)
		if err != nil {
			return false, err
		}
		return member != nil, nil
	case valueobject.ScopeTypeTeam:
		member, err := s.teamRepo.GetTeamMember(ctx, *invitation.TeamID, userID)
		if err != nil {
			return false, err
		}
		return member != nil, nil
	default:
		member, err := s.orgRepo.GetOrgMember(ctx, invitation.OrgID, userID)
		if err != nil {
			return false, err
		}
		return member != nil, nil
	}
}

// requireAllowed 执行权限检查，拒绝时返回ErrPermissionDenied
func (s *InvitationServiceImpl) requireAllowed(ctx context.Context, actor string, action valueobject.Action, scopeType valueobject.ScopeType, scopeID string) error {
	decision, err := s.checker.Check(ctx, &CheckRequest{
		PrincipalID: actor,
		Action:      action,
		ScopeType:   scopeType,
		ScopeID:     scopeID,
	})
	if err != nil {
		return err
	}
	if !decision.Allowed {
		return fmt.Errorf("%s: %w", decision.Reason, domainerrors.ErrPermissionDenied)
	}
	return nil
}
