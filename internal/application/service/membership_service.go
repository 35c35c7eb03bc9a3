package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"task-platform/internal/config"
	"task-platform/internal/domain/entity"
	domainerrors "task-platform/internal/domain/errors"
	"task-platform/internal/domain/repository"
	"task-platform/internal/domain/valueobject"
)

// MemberRequest 成员变更请求
type MemberRequest struct {
	Actor     string                `json:"actor"`
	ScopeType valueobject.ScopeType `json:"scope_type"`
	ScopeID   string                `json:"scope_id"`
	UserID    string                `json:"user_id"`
	Role      valueobject.Role      `json:"role"` // RemoveMember时忽略
}

// MemberInfo 三种作用域成员关系的统一视图
type MemberInfo struct {
	ScopeType valueobject.ScopeType `json:"scope_type"`
	ScopeID   string                `json:"scope_id"`
	UserID    string                `json:"user_id"`
	Role      valueobject.Role      `json:"role"`
	JoinedAt  time.Time             `json:"joined_at"`
	JoinedBy  *string               `json:"joined_by"`
}

// MembershipService 成员关系管理服务接口
type MembershipService interface {
	// AddMember 在指定作用域添加成员
	AddMember(ctx context.Context, req *MemberRequest) (*MemberInfo, error)

	// RemoveMember 在指定作用域移除成员
	RemoveMember(ctx context.Context, req *MemberRequest) error

	// ListMembers 列出指定作用域的成员
	ListMembers(ctx context.Context, actor string, scopeType valueobject.ScopeType, scopeID string) ([]*MemberInfo, error)
}

// MembershipServiceImpl 成员关系管理服务实现
type MembershipServiceImpl struct {
	db          *gorm.DB
	orgRepo     repository.OrganizationRepository
	teamRepo    repository.TeamRepository
	projectRepo repository.ProjectRepository
	checker     PermissionChecker
	audit       *AuditService
	cfg         config.EngineConfig
}

// NewMembershipService 创建成员关系管理服务实例
func NewMembershipService(
	db *gorm.DB,
	orgRepo repository.OrganizationRepository,
	teamRepo repository.TeamRepository,
	projectRepo repository.ProjectRepository,
	checker PermissionChecker,
	audit *AuditService,
	cfg config.EngineConfig,
) *MembershipServiceImpl {
	return &MembershipServiceImpl{
		db:          db,
		orgRepo:     orgRepo,
		teamRepo:    teamRepo,
		projectRepo: projectRepo,
		checker:     checker,
		audit:       audit,
		cfg:         cfg,
	}
}

// AddMember 在指定作用域添加成员
func (s *MembershipServiceImpl) AddMember(ctx context.Context, req *MemberRequest) (*MemberInfo, error) {
	// 1. 角色必须属于目标作用域
	if !req.Role.IsValidForScope(req.ScopeType) {
		return nil, fmt.Errorf("role %s is not valid for scope %s: %w", req.Role, req.ScopeType, domainerrors.ErrInvalidRole)
	}

	// 2. 权限检查：目标作用域MANAGE_MEMBERS
	if err := s.requireAllowed(ctx, req.Actor, valueobject.ActionManageMembers, req.ScopeType, req.ScopeID); err != nil {
		return nil, err
	}

	now := time.Now()
	var info *MemberInfo

	// 3. 创建成员关系 + 审计，一个事务
	// 复合唯一索引是并发添加的唯一仲裁：重复插入转为ErrDuplicateMembership
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		orgID, err := s.createMembershipTx(ctx, tx, req.ScopeType, req.ScopeID, req.UserID, req.Role, req.Actor, now)
		if err != nil {
			return err
		}
		info = &MemberInfo{
			ScopeType: req.ScopeType,
			ScopeID:   req.ScopeID,
			UserID:    req.UserID,
			Role:      req.Role,
			JoinedAt:  now,
			JoinedBy:  &req.Actor,
		}
		return s.audit.Record(tx, &entity.AuditLog{
			OrgID:        orgID,
			ActorID:      req.Actor,
			ResourceType: entity.AuditResourceMembership,
			ResourceID:   req.ScopeID,
			Action:       entity.AuditActionAddMember,
			Metadata:     datatypes.JSONMap{"user_id": req.UserID, "role": string(req.Role), "scope_type": string(req.ScopeType)},
		})
	})
	if err != nil {
		return nil, err
	}
	return info, nil
}

// RemoveMember 在指定作用域移除成员
func (s *MembershipServiceImpl) RemoveMember(ctx context.Context, req *MemberRequest) error {
	if err := s.requireAllowed(ctx, req.Actor, valueobject.ActionManageMembers, req.ScopeType, req.ScopeID); err != nil {
		return err
	}

	switch req.ScopeType {
	case valueobject.ScopeTypeOrganization:
		return s.removeOrgMember(ctx, req)
	case valueobject.ScopeTypeTeam:
		return s.removeScopedMember(ctx, req, func(tx *gorm.DB) *gorm.DB {
			return tx.Where("team_id = ? AND user_id = ?", req.ScopeID, req.UserID).Delete(&entity.TeamMember{})
		})
	case valueobject.ScopeTypeProject:
		projectID, err := parseNumericID(req.ScopeID)
		if err != nil {
			return err
		}
		return s.removeScopedMember(ctx, req, func(tx *gorm.DB) *gorm.DB {
			return tx.Where("project_id = ? AND user_id = ?", projectID, req.UserID).Delete(&entity.ProjectMember{})
		})
	default:
		return fmt.Errorf("invalid scope type: %s", req.ScopeType)
	}
}

// removeOrgMember 移除组织成员，带最后OWNER保护
func (s *MembershipServiceImpl) removeOrgMember(ctx context.Context, req *MemberRequest) error {
	orgID, err := parseNumericID(req.ScopeID)
	if err != nil {
		return err
	}

	member, err := s.orgRepo.GetOrgMember(ctx, orgID, req.UserID)
	if err != nil {
		return err
	}
	if member == nil {
		return domainerrors.ErrNotAMember
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// 最后一个OWNER不可移除；计数在事务内做，避免并发移除绕过保护
		if s.cfg.ProtectLastOwner && member.IsOwner() {
			var owners int64
			if err := tx.Model(&entity.OrganizationMember{}).
				Where("org_id = ? AND role = ?", orgID, valueobject.RoleOrgOwner).
				Count(&owners).Error; err != nil {
				return fmt.Errorf("failed to count owners: %w", err)
			}
			if owners <= 1 {
				return domainerrors.ErrLastOwner
			}
		}

		result := tx.Where("org_id = ? AND user_id = ?", orgID, req.UserID).Delete(&entity.OrganizationMember{})
		if result.Error != nil {
			return fmt.Errorf("failed to remove member: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return domainerrors.ErrNotAMember
		}
		return s.audit.Record(tx, &entity.AuditLog{
			OrgID:        orgID,
			ActorID:      req.Actor,
			ResourceType: entity.AuditResourceMembership,
			ResourceID:   req.ScopeID,
			Action:       entity.AuditActionRemoveMember,
			Metadata:     datatypes.JSONMap{"user_id": req.UserID, "scope_type": string(valueobject.ScopeTypeOrganization)},
		})
	})
}

// removeScopedMember 移除团队/项目成员
func (s *MembershipServiceImpl) removeScopedMember(ctx context.Context, req *MemberRequest, del func(tx *gorm.DB) *gorm.DB) error {
	orgID, err := s.resolveOrgID(ctx, req.ScopeType, req.ScopeID)
	if err != nil {
		return err
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := del(tx)
		if result.Error != nil {
			return fmt.Errorf("failed to remove member: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return domainerrors.ErrNotAMember
		}
		return s.audit.Record(tx, &entity.AuditLog{
			OrgID:        orgID,
			ActorID:      req.Actor,
			ResourceType: entity.AuditResourceMembership,
			ResourceID:   req.ScopeID,
			Action:       entity.AuditActionRemoveMember,
			Metadata:     datatypes.JSONMap{"user_id": req.UserID, "scope_type": string(req.ScopeType)},
		})
	})
}

// ListMembers 列出指定作用域的成员
func (s *MembershipServiceImpl) ListMembers(ctx context.Context, actor string, scopeType valueobject.ScopeType, scopeID string) ([]*MemberInfo, error) {
	if err := s.requireAllowed(ctx, actor, valueobject.ActionRead, scopeType, scopeID); err != nil {
		return nil, err
	}

	switch scopeType {
	case valueobject.ScopeTypeOrganization:
		orgID, err := parseNumericID(scopeID)
		if err != nil {
			return nil, err
		}
		members, err := s.orgRepo.ListOrgMembers(ctx, orgID)
		if err != nil {
			return nil, err
		}
		infos := make([]*MemberInfo, 0, len(members))
		for _, m := range members {
			infos = append(infos, &MemberInfo{
				ScopeType: scopeType, ScopeID: scopeID,
				UserID: m.UserID, Role: m.Role, JoinedAt: m.JoinedAt, JoinedBy: m.JoinedBy,
			})
		}
		return infos, nil
	case valueobject.ScopeTypeTeam:
		members, err := s.teamRepo.ListTeamMembers(ctx, scopeID)
		if err != nil {
			return nil, err
		}
		infos := make([]*MemberInfo, 0, len(members))
		for _, m := range members {
			infos = append(infos, &MemberInfo{
				ScopeType: scopeType, ScopeID: scopeID,
				UserID: m.UserID, Role: m.Role, JoinedAt: m.JoinedAt, JoinedBy: m.JoinedBy,
			})
		}
		return infos, nil
	case valueobject.ScopeTypeProject:
		projectID, err := parseNumericID(scopeID)
		if err != nil {
			return nil, err
		}
		members, err := s.projectRepo.ListProjectMembers(ctx, projectID)
		if err != nil {
			return nil, err
		}
		infos := make([]*MemberInfo, 0, len(members))
		for _, m := range members {
			infos = append(infos, &MemberInfo{
				ScopeType: scopeType, ScopeID: scopeID,
				UserID: m.UserID, Role: m.Role, JoinedAt: m.JoinedAt, JoinedBy: m.JoinedBy,
			})
		}
		return infos, nil
	default:
		return nil, fmt.Errorf("invalid scope type: %s", scopeType)
	}
}

// createMembershipTx 在事务内创建作用域成员关系，返回所属组织ID
// 也被邀请接受流程复用：成员写入必须和邀请状态转移同事务
func (s *MembershipServiceImpl) createMembershipTx(
	ctx context.Context,
	tx *gorm.DB,
	scopeType valueobject.ScopeType,
	scopeID string,
	userID string,
	role valueobject.Role,
	joinedBy string,
	now time.Time,
) (uint, error) {
	// 作用域存在性检查必须走tx：事务外的读会绕过事务隔离，
	// 在单连接的sqlite下还会等待事务持有的连接造成死锁
	switch scopeType {
	case valueobject.ScopeTypeOrganization:
		orgID, err := parseNumericID(scopeID)
		if err != nil {
			return 0, err
		}
		var org entity.Organization
		if err := tx.First(&org, orgID).Error; err != nil {
			return 0, translateScopeNotFound(err, "organization")
		}
		member := &entity.OrganizationMember{
			OrgID: orgID, UserID: userID, Role: role, JoinedAt: now, JoinedBy: &joinedBy,
		}
		if err := tx.Create(member).Error; err != nil {
			return 0, translateDuplicateMember(err)
		}
		return orgID, nil
	case valueobject.ScopeTypeTeam:
		var team entity.Team
		if err := tx.Where("team_id = ?", scopeID).First(&team).Error; err != nil {
			return 0, translateScopeNotFound(err, "team")
		}
		member := &entity.TeamMember{
			TeamID: team.ID, UserID: userID, Role: role, JoinedAt: now, JoinedBy: &joinedBy,
		}
		if err := tx.Create(member).Error; err != nil {
			return 0, translateDuplicateMember(err)
		}
		return team.OrgID, nil
	case valueobject.ScopeTypeProject:
		projectID, err := parseNumericID(scopeID)
		if err != nil {
			return 0, err
		}
		var project entity.Project
		if err := tx.First(&project, projectID).Error; err != nil {
			return 0, translateScopeNotFound(err, "project")
		}
		member := &entity.ProjectMember{
			ProjectID: project.ID, UserID: userID, Role: role, JoinedAt: now, JoinedBy: &joinedBy,
		}
		if err := tx.Create(member).Error; err != nil {
			return 0, translateDuplicateMember(err)
		}
		return project.OrgID, nil
	default:
		return 0, fmt.Errorf("invalid scope type: %s", scopeType)
	}
}

// resolveOrgID 根据作用域定位所属组织
func (s *MembershipServiceImpl) resolveOrgID(ctx context.Context, scopeType valueobject.ScopeType, scopeID string) (uint, error) {
	switch scopeType {
	case valueobject.ScopeTypeOrganization:
		return parseNumericID(scopeID)
	case valueobject.ScopeTypeTeam:
		team, err := s.teamRepo.GetTeamByID(ctx, scopeID, false)
		if err != nil {
			return 0, err
		}
		return team.OrgID, nil
	case valueobject.ScopeTypeProject:
		projectID, err := parseNumericID(scopeID)
		if err != nil {
			return 0, err
		}
		project, err := s.projectRepo.GetProjectByID(ctx, projectID, false)
		if err != nil {
			return 0, err
		}
		return project.OrgID, nil
	default:
		return 0, fmt.Errorf("invalid scope type: %s", scopeType)
	}
}

// translateScopeNotFound 将事务内作用域查询的缺失转为领域错误
func translateScopeNotFound(err error, kind string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domainerrors.ErrResourceNotFound
	}
	return fmt.Errorf("failed to get %s: %w", kind, err)
}

// translateDuplicateMember 将唯一索引冲突转为领域错误
func translateDuplicateMember(err error) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return domainerrors.ErrDuplicateMembership
	}
	return fmt.Errorf("failed to create membership: %w", err)
}

// requireAllowed 执行权限检查，拒绝时返回ErrPermissionDenied
func (s *MembershipServiceImpl) requireAllowed(ctx context.Context, actor string, action valueobject.Action, scopeType valueobject.ScopeType, scopeID string) error {
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
