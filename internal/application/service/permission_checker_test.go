package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainerrors "task-platform/internal/domain/errors"
	"task-platform/internal/domain/valueobject"
)

// TestCheck_OwnerInheritsDownward 组织OWNER隐式通过所有下层检查
func TestCheck_OwnerInheritsDownward(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	org := e.mustCreateOrg(t, "alice", "Acme", "acme")
	team := e.mustCreateTeam(t, "alice", org.ID, "Eng")
	project := e.mustCreateProject(t, "alice", team.ID, "Website")

	// alice没有任何团队/项目成员关系，仅凭组织OWNER身份通过
	cases := []struct {
		action    valueobject.Action
		scopeType valueobject.ScopeType
		scopeID   string
	}{
		{valueobject.ActionUpdate, valueobject.ScopeTypeTeam, team.ID},
		{valueobject.ActionManageMembers, valueobject.ScopeTypeTeam, team.ID},
		{valueobject.ActionCreateProject, valueobject.ScopeTypeTeam, team.ID},
		{valueobject.ActionUpdate, valueobject.ScopeTypeProject, projectScopeID(project.ID)},
		{valueobject.ActionCreateTask, valueobject.ScopeTypeProject, projectScopeID(project.ID)},
		{valueobject.ActionCompleteTask, valueobject.ScopeTypeProject, projectScopeID(project.ID)},
	}
	for _, tc := range cases {
		decision, err := e.checker.Check(ctx, &CheckRequest{
			PrincipalID: "alice", Action: tc.action, ScopeType: tc.scopeType, ScopeID: tc.scopeID,
		})
		require.NoError(t, err)
		assert.True(t, decision.Allowed, "%s on %s", tc.action, tc.scopeType)
		assert.Equal(t, valueobject.ScopeTypeOrganization, decision.GrantScope)
		assert.Equal(t, valueobject.RoleOrgOwner, decision.GrantRole)
	}
}

// TestCheck_TeamLeadInheritsOwnProjectsOnly 团队LEAD只通过本团队项目的检查
func TestCheck_TeamLeadInheritsOwnProjectsOnly(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	org := e.mustCreateOrg(t, "alice", "Acme", "acme")
	teamA := e.mustCreateTeam(t, "alice", org.ID, "Eng")
	teamB := e.mustCreateTeam(t, "alice", org.ID, "Design")
	projectA := e.mustCreateProject(t, "alice", teamA.ID, "Website")
	projectB := e.mustCreateProject(t, "alice", teamB.ID, "Brand")

	_, err := e.members.AddMember(ctx, &MemberRequest{
		Actor: "alice", ScopeType: valueobject.ScopeTypeTeam, ScopeID: teamA.ID,
		UserID: "bob", Role: valueobject.RoleTeamLead,
	})
	require.NoError(t, err)

	// 本团队项目：LEAD继承通过
	decision, err := e.checker.Check(ctx, &CheckRequest{
		PrincipalID: "bob", Action: valueobject.ActionManageMembers,
		ScopeType: valueobject.ScopeTypeProject, ScopeID: projectScopeID(projectA.ID),
	})
	require.NoError(t, err)
	assert.True(t, decision.Allowed)
	assert.Equal(t, valueobject.ScopeTypeTeam, decision.GrantScope)

	// 兄弟团队的项目：不得泄漏
	decision, err = e.checker.Check(ctx, &CheckRequest{
		PrincipalID: "bob", Action: valueobject.ActionRead,
		ScopeType: valueobject.ScopeTypeProject, ScopeID: projectScopeID(projectB.ID),
	})
	require.NoError(t, err)
	assert.False(t, decision.Allowed)
	assert.Equal(t, "not a project member", decision.Reason)

	// 兄弟团队本身也不受影响
	decision, err = e.checker.Check(ctx, &CheckRequest{
		PrincipalID: "bob", Action: valueobject.ActionUpdate,
		ScopeType: valueobject.ScopeTypeTeam, ScopeID: teamB.ID,
	})
	require.NoError(t, err)
	assert.False(t, decision.Allowed)
}

// TestCheck_NoUpwardLeakage 下层角色绝不向上授予组织权限
func TestCheck_NoUpwardLeakage(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	org := e.mustCreateOrg(t, "alice", "Acme", "acme")
	team := e.mustCreateTeam(t, "alice", org.ID, "Eng")
	project := e.mustCreateProject(t, "alice", team.ID, "Website")

	// carol只是项目MANAGER，没有任何组织/团队成员关系
	require.NoError(t, e.db.Exec(
		`INSERT INTO project_members (project_id, user_id, role, joined_at) VALUES (?, ?, 'MANAGER', CURRENT_TIMESTAMP)`,
		project.ID, "carol",
	).Error)

	decision, err := e.checker.Check(ctx, &CheckRequest{
		PrincipalID: "carol", Action: valueobject.ActionRead,
		ScopeType: valueobject.ScopeTypeOrganization, ScopeID: orgScopeID(org.ID),
	})
	require.NoError(t, err)
	assert.False(t, decision.Allowed)
	assert.Equal(t, "not an organization member", decision.Reason)

	decision, err = e.checker.Check(ctx, &CheckRequest{
		PrincipalID: "carol", Action: valueobject.ActionRead,
		ScopeType: valueobject.ScopeTypeTeam, ScopeID: team.ID,
	})
	require.NoError(t, err)
	assert.False(t, decision.Allowed)
	assert.Equal(t, "not a team member", decision.Reason)
}

// TestCheck_MostPermissiveLevelWins 多层成员关系取最宽松的适用层级
func TestCheck_MostPermissiveLevelWins(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	org := e.mustCreateOrg(t, "alice", "Acme", "acme")
	team := e.mustCreateTeam(t, "alice", org.ID, "Eng")
	project := e.mustCreateProject(t, "alice", team.ID, "Website")

	// dave同时是组织ADMIN和项目VIEWER
	_, err := e.members.AddMember(ctx, &MemberRequest{
		Actor: "alice", ScopeType: valueobject.ScopeTypeOrganization, ScopeID: orgScopeID(org.ID),
		UserID: "dave", Role: valueobject.RoleOrgAdmin,
	})
	require.NoError(t, err)
	_, err = e.members.AddMember(ctx, &MemberRequest{
		Actor: "alice", ScopeType: valueobject.ScopeTypeProject, ScopeID: projectScopeID(project.ID),
		UserID: "dave", Role: valueobject.RoleProjectViewer,
	})
	require.NoError(t, err)

	// VIEWER本级不允许UPDATE，但组织ADMIN继承放行
	decision, err := e.checker.Check(ctx, &CheckRequest{
		PrincipalID: "dave", Action: valueobject.ActionUpdate,
		ScopeType: valueobject.ScopeTypeProject, ScopeID: projectScopeID(project.ID),
	})
	require.NoError(t, err)
	assert.True(t, decision.Allowed)
	assert.Equal(t, valueobject.ScopeTypeOrganization, decision.GrantScope)
	assert.Equal(t, valueobject.RoleOrgAdmin, decision.GrantRole)

	// 本级已允许的动作命中项目层级
	decision, err = e.checker.Check(ctx, &CheckRequest{
		PrincipalID: "dave", Action: valueobject.ActionRead,
		ScopeType: valueobject.ScopeTypeProject, ScopeID: projectScopeID(project.ID),
	})
	require.NoError(t, err)
	assert.True(t, decision.Allowed)
	assert.Equal(t, valueobject.ScopeTypeProject, decision.GrantScope)
}

// TestCheck_DenyReasonFromMostSpecificLevel 拒绝原因取最精确层级
func TestCheck_DenyReasonFromMostSpecificLevel(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	org := e.mustCreateOrg(t, "alice", "Acme", "acme")
	team := e.mustCreateTeam(t, "alice", org.ID, "Eng")
	project := e.mustCreateProject(t, "alice", team.ID, "Website")

	_, err := e.members.AddMember(ctx, &MemberRequest{
		Actor: "alice", ScopeType: valueobject.ScopeTypeProject, ScopeID: projectScopeID(project.ID),
		UserID: "erin", Role: valueobject.RoleProjectViewer,
	})
	require.NoError(t, err)

	// 有项目成员关系但角色不够：原因来自项目层级
	decision, err := e.checker.Check(ctx, &CheckRequest{
		PrincipalID: "erin", Action: valueobject.ActionCreateTask,
		ScopeType: valueobject.ScopeTypeProject, ScopeID: projectScopeID(project.ID),
	})
	require.NoError(t, err)
	assert.False(t, decision.Allowed)
	assert.Equal(t, "insufficient project role", decision.Reason)
}

// TestCheck_SoftDeletedAncestor 祖先被软删除后检查返回资源不存在
func TestCheck_SoftDeletedAncestor(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	org := e.mustCreateOrg(t, "alice", "Acme", "acme")
	team := e.mustCreateTeam(t, "alice", org.ID, "Eng")
	project := e.mustCreateProject(t, "alice", team.ID, "Website")

	require.NoError(t, e.tenancy.SoftDelete(ctx, &SoftDeleteRequest{
		Actor: "alice", ScopeType: valueobject.ScopeTypeTeam, ScopeID: team.ID,
	}))

	_, err := e.checker.Check(ctx, &CheckRequest{
		PrincipalID: "alice", Action: valueobject.ActionRead,
		ScopeType: valueobject.ScopeTypeProject, ScopeID: projectScopeID(project.ID),
	})
	assert.ErrorIs(t, err, domainerrors.ErrResourceNotFound)
}

// TestCheck_InvalidRequests 非法请求参数直接报错
func TestCheck_InvalidRequests(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	_, err := e.checker.Check(ctx, &CheckRequest{
		Action: valueobject.ActionRead, ScopeType: valueobject.ScopeTypeOrganization, ScopeID: "1",
	})
	assert.Error(t, err)

	_, err = e.checker.Check(ctx, &CheckRequest{
		PrincipalID: "alice", Action: valueobject.Action("FLY"),
		ScopeType: valueobject.ScopeTypeOrganization, ScopeID: "1",
	})
	assert.Error(t, err)

	_, err = e.checker.Check(ctx, &CheckRequest{
		PrincipalID: "alice", Action: valueobject.ActionRead,
		ScopeType: valueobject.ScopeTypeOrganization, ScopeID: "not-a-number",
	})
	assert.ErrorIs(t, err, domainerrors.ErrResourceNotFound)
}
