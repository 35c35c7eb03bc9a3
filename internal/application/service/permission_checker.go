package service

import (
	"context"
	"fmt"
	"strconv"

	"task-platform/internal/domain/entity"
	domainerrors "task-platform/internal/domain/errors"
	"task-platform/internal/domain/repository"
	"task-platform/internal/domain/valueobject"
	"task-platform/internal/observability/metrics"
)

// CheckRequest 权限检查请求
// ScopeID为字符串：组织/项目作用域下是数字ID，团队作用域下是语义化ID（team-xxx）
// IncludeDeleted只供审计查询路径使用：已软删除资源的历史日志仍需可查，
// 作用域解析放行软删除行，授权判定本身不变
type CheckRequest struct {
	PrincipalID    string                `json:"principal_id"`
	Action         valueobject.Action    `json:"action"`
	ScopeType      valueobject.ScopeType `json:"scope_type"`
	ScopeID        string                `json:"scope_id"`
	IncludeDeleted bool                  `json:"-"`
}

// Decision 权限检查结果
type Decision struct {
	Allowed    bool                  `json:"allowed"`
	Reason     string                `json:"reason,omitempty"`      // 拒绝原因（取最精确层级）
	GrantScope valueobject.ScopeType `json:"grant_scope,omitempty"` // 命中授权的作用域层级
	GrantRole  valueobject.Role      `json:"grant_role,omitempty"`  // 命中授权的角色
}

// scopeChain 目标资源的祖先链快照
type scopeChain struct {
	org     *entity.Organization
	team    *entity.Team
	project *entity.Project
}

// PermissionChecker 权限检查器接口
// Check是纯决策函数：结果只取决于入参和调用时刻的存储状态，
// 不做任何跨调用缓存（避免过期的读绕过后授予的拒绝）
type PermissionChecker interface {
	// Check 检查主体是否允许在指定作用域上执行动作
	Check(ctx context.Context, req *CheckRequest) (*Decision, error)
}

// PermissionCheckerImpl 权限检查器实现
type PermissionCheckerImpl struct {
	orgRepo     repository.OrganizationRepository
	teamRepo    repository.TeamRepository
	projectRepo repository.ProjectRepository
}

// NewPermissionChecker 创建权限检查器实例
func NewPermissionChecker(
	orgRepo repository.OrganizationRepository,
	teamRepo repository.TeamRepository,
	projectRepo repository.ProjectRepository,
) PermissionChecker {
	return &PermissionCheckerImpl{
		orgRepo:     orgRepo,
		teamRepo:    teamRepo,
		projectRepo: projectRepo,
	}
}

// Check 检查权限
// 算法：从目标作用域沿祖先链向上收集主体的成员关系，
// 任意一个适用层级授权即允许（最宽松的适用层级胜出）；
// 全部不授权时返回最精确层级的拒绝原因
func (c *PermissionCheckerImpl) Check(ctx context.Context, req *CheckRequest) (*Decision, error) {
	// 1. 验证请求参数
	if err := c.validateRequest(req); err != nil {
		return nil, err
	}

	// 2. 解析目标资源的祖先链
	chain, err := c.resolveScopeChain(ctx, req.ScopeType, req.ScopeID, req.IncludeDeleted)
	if err != nil {
		return nil, err
	}

	// 3. 按作用域类型逐层判定
	var decision *Decision
	switch req.ScopeType {
	case valueobject.ScopeTypeOrganization:
		decision, err = c.checkOrgScope(ctx, req, chain)
	case valueobject.ScopeTypeTeam:
		decision, err = c.checkTeamScope(ctx, req, chain)
	case valueobject.ScopeTypeProject:
		decision, err = c.checkProjectScope(ctx, req, chain)
	}
	if err != nil {
		return nil, err
	}

	metrics.IncPermissionCheck(string(req.Action), decision.Allowed)
	return decision, nil
}

// checkOrgScope 组织作用域检查：只看组织成员关系
func (c *PermissionCheckerImpl) checkOrgScope(ctx context.Context, req *CheckRequest, chain *scopeChain) (*Decision, error) {
	orgMember, err := c.orgRepo.GetOrgMember(ctx, chain.org.ID, req.PrincipalID)
	if err != nil {
		return nil, fmt.Errorf("failed to get organization membership: %w", err)
	}

	if orgMember == nil {
		return deny("not an organization member"), nil
	}
	if MatrixAllows(valueobject.ScopeTypeOrganization, orgMember.Role, req.Action) {
		return allow(valueobject.ScopeTypeOrganization, orgMember.Role), nil
	}
	return deny("insufficient organization role"), nil
}

// checkTeamScope 团队作用域检查
// 组织OWNER/ADMIN隐式通过所有团队级检查，无需团队成员关系
func (c *PermissionCheckerImpl) checkTeamScope(ctx context.Context, req *CheckRequest, chain *scopeChain) (*Decision, error) {
	// 1. 团队本级成员关系
	teamMember, err := c.teamRepo.GetTeamMember(ctx, chain.team.ID, req.PrincipalID)
	if err != nil {
		return nil, fmt.Errorf("failed to get team membership: %w", err)
	}
	if teamMember != nil && MatrixAllows(valueobject.ScopeTypeTeam, teamMember.Role, req.Action) {
		return allow(valueobject.ScopeTypeTeam, teamMember.Role), nil
	}

	// 2. 组织级继承
	orgMember, err := c.orgRepo.GetOrgMember(ctx, chain.org.ID, req.PrincipalID)
	if err != nil {
		return nil, fmt.Errorf("failed to get organization membership: %w", err)
	}
	if orgMember != nil && orgMember.IsAdminOrAbove() {
		return allow(valueobject.ScopeTypeOrganization, orgMember.Role), nil
	}

	// 3. 拒绝：取最精确层级的原因
	if teamMember != nil {
		return deny("insufficient team role"), nil
	}
	return deny("not a team member"), nil
}

// checkProjectScope 项目作用域检查
// 所在团队的LEAD隐式通过本团队所有项目级检查；组织OWNER/ADMIN隐式通过一切
func (c *PermissionCheckerImpl) checkProjectScope(ctx context.Context, req *CheckRequest, chain *scopeChain) (*Decision, error) {
	// 1. 项目本级成员关系
	projectMember, err := c.projectRepo.GetProjectMember(ctx, chain.project.ID, req.PrincipalID)
	if err != nil {
		return nil, fmt.Errorf("failed to get project membership: %w", err)
	}
	if projectMember != nil && MatrixAllows(valueobject.ScopeTypeProject, projectMember.Role, req.Action) {
		return allow(valueobject.ScopeTypeProject, projectMember.Role), nil
	}

	// 2. 团队级继承（仅LEAD）
	teamMember, err := c.teamRepo.GetTeamMember(ctx, chain.team.ID, req.PrincipalID)
	if err != nil {
		return nil, fmt.Errorf("failed to get team membership: %w", err)
	}
	if teamMember != nil && teamMember.IsLead() {
		return allow(valueobject.ScopeTypeTeam, teamMember.Role), nil
	}

	// 3. 组织级继承
	orgMember, err := c.orgRepo.GetOrgMember(ctx, chain.org.ID, req.PrincipalID)
	if err != nil {
		return nil, fmt.Errorf("failed to get organization membership: %w", err)
	}
	if orgMember != nil && orgMember.IsAdminOrAbove() {
		return allow(valueobject.ScopeTypeOrganization, orgMember.Role), nil
	}

	// 4. 拒绝：取最精确层级的原因
	if projectMember != nil {
		return deny("insufficient project role"), nil
	}
	return deny("not a project member"), nil
}

// resolveScopeChain 解析目标作用域的祖先链
// 默认沿链上的每个祖先都必须存在且未被软删除；
// includeDeleted为真时放行软删除行（审计查询路径）
func (c *PermissionCheckerImpl) resolveScopeChain(ctx context.Context, scopeType valueobject.ScopeType, scopeID string, includeDeleted bool) (*scopeChain, error) {
	chain := &scopeChain{}

	switch scopeType {
	case valueobject.ScopeTypeOrganization:
		orgID, err := parseNumericID(scopeID)
		if err != nil {
			return nil, err
		}
		chain.org, err = c.orgRepo.GetOrganizationByID(ctx, orgID, includeDeleted)
		if err != nil {
			return nil, err
		}

	case valueobject.ScopeTypeTeam:
		team, err := c.teamRepo.GetTeamByID(ctx, scopeID, includeDeleted)
		if err != nil {
			return nil, err
		}
		chain.team = team
		chain.org, err = c.orgRepo.GetOrganizationByID(ctx, team.OrgID, includeDeleted)
		if err != nil {
			return nil, err
		}

	case valueobject.ScopeTypeProject:
		projectID, err := parseNumericID(scopeID)
		if err != nil {
			return nil, err
		}
		project, err := c.projectRepo.GetProjectByID(ctx, projectID, includeDeleted)
		if err != nil {
			return nil, err
		}
		chain.project = project
		chain.team, err = c.teamRepo.GetTeamByID(ctx, project.TeamID, includeDeleted)
		if err != nil {
			return nil, err
		}
		chain.org, err = c.orgRepo.GetOrganizationByID(ctx, project.OrgID, includeDeleted)
		if err != nil {
			return nil, err
		}
	}

	return chain, nil
}

// validateRequest 验证请求参数
func (c *PermissionCheckerImpl) validateRequest(req *CheckRequest) error {
	if req.PrincipalID == "" {
		return fmt.Errorf("principal_id is required")
	}
	if !req.Action.IsValid() {
		return fmt.Errorf("invalid action: %s", req.Action)
	}
	if !req.ScopeType.IsValid() {
		return fmt.Errorf("invalid scope_type: %s", req.ScopeType)
	}
	if req.ScopeID == "" {
		return fmt.Errorf("scope_id is required")
	}
	return nil
}

// parseNumericID 解析数字ID
func parseNumericID(s string) (uint, error) {
	id, err := strconv.ParseUint(s, 10, 64)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("invalid scope_id format: %s: %w", s, domainerrors.ErrResourceNotFound)
	}
	return uint(id), nil
}

// allow 构造允许结果
func allow(scope valueobject.ScopeType, role valueobject.Role) *Decision {
	return &Decision{
		Allowed:    true,
		GrantScope: scope,
		GrantRole:  role,
	}
}

// deny 构造拒绝结果
func deny(reason string) *Decision {
	return &Decision{
		Allowed: false,
		Reason:  reason,
	}
}
