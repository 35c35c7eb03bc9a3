package valueobject

import "fmt"

// Role 作用域内的成员角色
// 角色只在其所属的作用域类型内有意义：组织角色授不出项目角色的权限，
// 反之亦然；跨层级的影响由权限检查的祖先链收集实现
type Role string

// 组织级角色
const (
	// RoleOrgOwner 组织所有者：组织内一切操作，包括删除组织
	RoleOrgOwner Role = "OWNER"
	// RoleOrgAdmin 组织管理员：除删除组织外的一切组织内操作
	RoleOrgAdmin Role = "ADMIN"
	// RoleOrgMember 组织普通成员：只读
	RoleOrgMember Role = "MEMBER"
)

// 团队级角色
const (
	// RoleTeamLead 团队负责人
	RoleTeamLead Role = "LEAD"
	// RoleTeamMember 团队普通成员
	RoleTeamMember Role = "MEMBER"
)

// 项目级角色
const (
	// RoleProjectManager 项目经理
	RoleProjectManager Role = "MANAGER"
	// RoleProjectContributor 项目贡献者
	RoleProjectContributor Role = "CONTRIBUTOR"
	// RoleProjectViewer 项目只读成员
	RoleProjectViewer Role = "VIEWER"
)

// String 返回角色的字符串表示
func (r Role) String() string {
	return string(r)
}

// RolesForScope 返回指定作用域类型的合法角色集合
func RolesForScope(scope ScopeType) []Role {
	switch scope {
	case ScopeTypeOrganization:
		return []Role{RoleOrgOwner, RoleOrgAdmin, RoleOrgMember}
	case ScopeTypeTeam:
		return []Role{RoleTeamLead, RoleTeamMember}
	case ScopeTypeProject:
		return []Role{RoleProjectManager, RoleProjectContributor, RoleProjectViewer}
	default:
		return nil
	}
}

// IsValidForScope 验证角色在指定作用域类型下是否合法
// "MEMBER"在组织和团队两个作用域都合法，所以角色必须连同作用域一起校验
func (r Role) IsValidForScope(scope ScopeType) bool {
	for _, valid := range RolesForScope(scope) {
		if r == valid {
			return true
		}
	}
	return false
}

// ParseRole 从字符串解析指定作用域下的角色
func ParseRole(s string, scope ScopeType) (Role, error) {
	role := Role(s)
	if !role.IsValidForScope(scope) {
		return "", fmt.Errorf("invalid role %q for scope %s", s, scope)
	}
	return role, nil
}
