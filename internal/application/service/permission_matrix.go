package service

import (
	"task-platform/internal/domain/valueobject"
)

// permissionMatrix 静态权限矩阵
// 以(作用域, 角色, 动作)为键的编译期常量表，未出现的组合一律视为拒绝
// 跨层级的继承（组织OWNER/ADMIN通过所有下层检查、团队LEAD通过本团队
// 项目检查）不在矩阵内表达，由PermissionChecker的祖先链遍历处理
var permissionMatrix = map[valueobject.ScopeType]map[valueobject.Role]map[valueobject.Action]bool{
	valueobject.ScopeTypeOrganization: {
		valueobject.RoleOrgOwner: {
			valueobject.ActionRead:          true,
			valueobject.ActionUpdate:        true,
			valueobject.ActionDelete:        true,
			valueobject.ActionManageMembers: true,
			valueobject.ActionInviteMember:  true,
			valueobject.ActionReadAudit:     true,
			valueobject.ActionCreateTeam:    true,
		},
		valueobject.RoleOrgAdmin: {
			valueobject.ActionRead:          true,
			valueobject.ActionUpdate:        true,
			valueobject.ActionManageMembers: true,
			valueobject.ActionInviteMember:  true,
			valueobject.ActionReadAudit:     true,
			valueobject.ActionCreateTeam:    true,
		},
		valueobject.RoleOrgMember: {
			valueobject.ActionRead: true,
		},
	},
	valueobject.ScopeTypeTeam: {
		valueobject.RoleTeamLead: {
			valueobject.ActionRead:          true,
			valueobject.ActionUpdate:        true,
			valueobject.ActionManageMembers: true,
			valueobject.ActionInviteMember:  true,
			valueobject.ActionReadAudit:     true,
			valueobject.ActionCreateProject: true,
		},
		valueobject.RoleTeamMember: {
			valueobject.ActionRead: true,
		},
	},
	valueobject.ScopeTypeProject: {
		valueobject.RoleProjectManager: {
			valueobject.ActionRead:          true,
			valueobject.ActionUpdate:        true,
			valueobject.ActionDelete:        true,
			valueobject.ActionManageMembers: true,
			valueobject.ActionInviteMember:  true,
			valueobject.ActionReadAudit:     true,
			valueobject.ActionCreateTask:    true,
			valueobject.ActionUpdateTask:    true,
			valueobject.ActionCompleteTask:  true,
			valueobject.ActionAssignTask:    true,
		},
		valueobject.RoleProjectContributor: {
			valueobject.ActionRead:         true,
			valueobject.ActionCreateTask:   true,
			valueobject.ActionUpdateTask:   true,
			valueobject.ActionCompleteTask: true,
		},
		valueobject.RoleProjectViewer: {
			valueobject.ActionRead: true,
		},
	},
}

// MatrixAllows 查询权限矩阵
// 仅回答"该作用域下该角色是否直接允许该动作"，不考虑继承
func MatrixAllows(scope valueobject.ScopeType, role valueobject.Role, action valueobject.Action) bool {
	roles, ok := permissionMatrix[scope]
	if !ok {
		return false
	}
	actions, ok := roles[role]
	if !ok {
		return false
	}
	return actions[action]
}
