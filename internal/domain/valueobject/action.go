package valueobject

import "fmt"

// Action 权限检查的动作
type Action string

const (
	// ActionRead 读取作用域内的实体
	ActionRead Action = "READ"
	// ActionUpdate 更新作用域实体自身
	ActionUpdate Action = "UPDATE"
	// ActionDelete 软删除作用域实体（级联下层）
	ActionDelete Action = "DELETE"
	// ActionManageMembers 添加/移除作用域成员
	ActionManageMembers Action = "MANAGE_MEMBERS"
	// ActionInviteMember 创建/取消作用域邀请
	ActionInviteMember Action = "INVITE_MEMBER"
	// ActionReadAudit 查询审计日志及软删除视图
	ActionReadAudit Action = "READ_AUDIT"
	// ActionCreateTeam 在组织下创建团队
	ActionCreateTeam Action = "CREATE_TEAM"
	// ActionCreateProject 在团队下创建项目
	ActionCreateProject Action = "CREATE_PROJECT"
	// ActionCreateTask 在项目下创建任务
	ActionCreateTask Action = "CREATE_TASK"
	// ActionUpdateTask 更新项目下的任务
	ActionUpdateTask Action = "UPDATE_TASK"
	// ActionCompleteTask 完成项目下的任务
	ActionCompleteTask Action = "COMPLETE_TASK"
	// ActionAssignTask 分配项目下的任务
	ActionAssignTask Action = "ASSIGN_TASK"
)

// String 返回动作的字符串表示
func (a Action) String() string {
	return string(a)
}

// IsValid 验证动作是否有效
func (a Action) IsValid() bool {
	switch a {
	case ActionRead, ActionUpdate, ActionDelete,
		ActionManageMembers, ActionInviteMember, ActionReadAudit,
		ActionCreateTeam, ActionCreateProject,
		ActionCreateTask, ActionUpdateTask, ActionCompleteTask, ActionAssignTask:
		return true
	default:
		return false
	}
}

// ParseAction 从字符串解析动作
func ParseAction(s string) (Action, error) {
	action := Action(s)
	if !action.IsValid() {
		return "", fmt.Errorf("invalid action: %s", s)
	}
	return action, nil
}
