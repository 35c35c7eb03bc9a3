package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"task-platform/internal/domain/entity"
	domainerrors "task-platform/internal/domain/errors"
	"task-platform/internal/domain/valueobject"
)

// mustInvite 创建邀请的快捷方式
func (e *testEngine) mustInvite(t *testing.T, req *CreateInvitationRequest) *entity.Invitation {
	t.Helper()
	invitation, err := e.invitations.CreateInvitation(context.Background(), req)
	require.NoError(t, err)
	return invitation
}

// backdateExpiry 把邀请的过期时间改到过去，模拟过期
func (e *testEngine) backdateExpiry(t *testing.T, invitationID string) {
	t.Helper()
	require.NoError(t, e.db.Model(&entity.Invitation{}).
		Where("invitation_id = ?", invitationID).
		Update("expires_at", time.Now().Add(-time.Hour)).Error)
}

// TestAcceptInvitation_TeamScope 接受团队邀请：状态转移与成员写入同事务
func TestAcceptInvitation_TeamScope(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	org := e.mustCreateOrg(t, "alice", "Acme", "acme")
	team := e.mustCreateTeam(t, "alice", org.ID, "Eng")

	invitation := e.mustInvite(t, &CreateInvitationRequest{
		Actor: "alice", OrgID: org.ID, TeamID: &team.ID,
		Email: "bob", Role: valueobject.RoleTeamLead,
	})
	assert.Equal(t, valueobject.InvitationStatusPending, invitation.Status)
	assert.NotEmpty(t, invitation.Token)

	accepted, err := e.invitations.AcceptInvitation(ctx, &AcceptInvitationRequest{
		Token: invitation.Token, UserID: "bob",
	})
	require.NoError(t, err)
	assert.Equal(t, valueobject.InvitationStatusAccepted, accepted.Status)
	require.NotNil(t, accepted.AcceptedBy)
	assert.Equal(t, "bob", *accepted.AcceptedBy)

	// bob立即获得团队LEAD权限
	decision, err := e.checker.Check(ctx, &CheckRequest{
		PrincipalID: "bob", Action: valueobject.ActionCreateProject,
		ScopeType: valueobject.ScopeTypeTeam, ScopeID: team.ID,
	})
	require.NoError(t, err)
	assert.True(t, decision.Allowed)
	assert.Equal(t, valueobject.RoleTeamLead, decision.GrantRole)

	// 审计里有INVITE和ACCEPT_INVITE各一条
	logs := e.auditEntries(t, org.ID)
	actions := map[string]int{}
	for _, l := range logs {
		actions[l.Action]++
	}
	assert.Equal(t, 1, actions[entity.AuditActionInvite])
	assert.Equal(t, 1, actions[entity.AuditActionAcceptInvite])
}

// TestAcceptInvitation_ConcurrentLoserSeesAccepted 并发接受的落败方
// 条件更新行数为0时重读状态，落败方看到的是已接受，而不是笼统的并发冲突
func TestAcceptInvitation_ConcurrentLoserSeesAccepted(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	org := e.mustCreateOrg(t, "alice", "Acme", "acme")
	invitation := e.mustInvite(t, &CreateInvitationRequest{
		Actor: "alice", OrgID: org.ID,
		Email: "bob", Role: valueobject.RoleOrgMember,
	})

	// 在条件更新执行前用同一连接抢先完成状态转移，模拟赢下仲裁的另一请求
	fired := false
	err := e.db.Callback().Update().Before("gorm:update").Register("test_competing_accept", func(db *gorm.DB) {
		if fired || db.Statement.Table != "invitations" {
			return
		}
		fired = true
		_, execErr := db.Statement.ConnPool.ExecContext(db.Statement.Context,
			"UPDATE invitations SET status = ?, accepted_at = CURRENT_TIMESTAMP, accepted_by = ? WHERE invitation_id = ? AND status = ?",
			string(valueobject.InvitationStatusAccepted), "bob", invitation.ID,
			string(valueobject.InvitationStatusPending))
		require.NoError(t, execErr)
	})
	require.NoError(t, err)

	_, err = e.invitations.AcceptInvitation(ctx, &AcceptInvitationRequest{
		Token: invitation.Token, UserID: "bob",
	})
	assert.ErrorIs(t, err, domainerrors.ErrInvitationAlreadyAccepted)
}

// TestAcceptInvitation_OnlyInvitee 令牌只对被邀请人有效
func TestAcceptInvitation_OnlyInvitee(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	org := e.mustCreateOrg(t, "alice", "Acme", "acme")
	invitation := e.mustInvite(t, &CreateInvitationRequest{
		Actor: "alice", OrgID: org.ID,
		Email: "bob", Role: valueobject.RoleOrgMember,
	})

	_, err := e.invitations.AcceptInvitation(ctx, &AcceptInvitationRequest{
		Token: invitation.Token, UserID: "mallory",
	})
	assert.ErrorIs(t, err, domainerrors.ErrInvitationNotAuthorized)

	// 邀请仍然是PENDING，真正的被邀请人还能接受
	accepted, err := e.invitations.AcceptInvitation(ctx, &AcceptInvitationRequest{
		Token: invitation.Token, UserID: "bob",
	})
	require.NoError(t, err)
	assert.Equal(t, valueobject.InvitationStatusAccepted, accepted.Status)
}

// TestAcceptInvitation_DoubleAccept 二次接受被拒绝，成员关系只有一条
func TestAcceptInvitation_DoubleAccept(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	org := e.mustCreateOrg(t, "alice", "Acme", "acme")
	invitation := e.mustInvite(t, &CreateInvitationRequest{
		Actor: "alice", OrgID: org.ID,
		Email: "bob", Role: valueobject.RoleOrgMember,
	})

	_, err := e.invitations.AcceptInvitation(ctx, &AcceptInvitationRequest{
		Token: invitation.Token, UserID: "bob",
	})
	require.NoError(t, err)

	_, err = e.invitations.AcceptInvitation(ctx, &AcceptInvitationRequest{
		Token: invitation.Token, UserID: "bob",
	})
	assert.ErrorIs(t, err, domainerrors.ErrInvitationAlreadyAccepted)

	var count int64
	require.NoError(t, e.db.Model(&entity.OrganizationMember{}).
		Where("org_id = ? AND user_id = ?", org.ID, "bob").Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

// TestAcceptInvitation_ExpiredLazyTransition 过期邀请在接受时惰性转为EXPIRED
func TestAcceptInvitation_ExpiredLazyTransition(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	org := e.mustCreateOrg(t, "alice", "Acme", "acme")
	invitation := e.mustInvite(t, &CreateInvitationRequest{
		Actor: "alice", OrgID: org.ID,
		Email: "bob", Role: valueobject.RoleOrgMember,
	})
	e.backdateExpiry(t, invitation.ID)

	_, err := e.invitations.AcceptInvitation(ctx, &AcceptInvitationRequest{
		Token: invitation.Token, UserID: "bob",
	})
	assert.ErrorIs(t, err, domainerrors.ErrInvitationExpired)

	// 状态已持久化为EXPIRED，成员关系未创建
	var stored entity.Invitation
	require.NoError(t, e.db.Where("invitation_id = ?", invitation.ID).First(&stored).Error)
	assert.Equal(t, valueobject.InvitationStatusExpired, stored.Status)

	var count int64
	require.NoError(t, e.db.Model(&entity.OrganizationMember{}).
		Where("org_id = ? AND user_id = ?", org.ID, "bob").Count(&count).Error)
	assert.Zero(t, count)

	// 过期后再接受报终态错误
	_, err = e.invitations.AcceptInvitation(ctx, &AcceptInvitationRequest{
		Token: invitation.Token, UserID: "bob",
	})
	assert.ErrorIs(t, err, domainerrors.ErrInvitationTerminal)
}

// TestCreateInvitation_InviteeAlreadyMember 已是成员的被邀请人直接拒绝
func TestCreateInvitation_InviteeAlreadyMember(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	org := e.mustCreateOrg(t, "alice", "Acme", "acme")
	_, err := e.members.AddMember(ctx, &MemberRequest{
		Actor: "alice", ScopeType: valueobject.ScopeTypeOrganization, ScopeID: orgScopeID(org.ID),
		UserID: "bob", Role: valueobject.RoleOrgMember,
	})
	require.NoError(t, err)

	_, err = e.invitations.CreateInvitation(ctx, &CreateInvitationRequest{
		Actor: "alice", OrgID: org.ID,
		Email: "bob", Role: valueobject.RoleOrgMember,
	})
	assert.ErrorIs(t, err, domainerrors.ErrDuplicateMembership)
}

// TestCreateInvitation_RequiresInvitePermission 组织MEMBER不能发出邀请
func TestCreateInvitation_RequiresInvitePermission(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	org := e.mustCreateOrg(t, "alice", "Acme", "acme")
	_, err := e.members.AddMember(ctx, &MemberRequest{
		Actor: "alice", ScopeType: valueobject.ScopeTypeOrganization, ScopeID: orgScopeID(org.ID),
		UserID: "bob", Role: valueobject.RoleOrgMember,
	})
	require.NoError(t, err)

	_, err = e.invitations.CreateInvitation(ctx, &CreateInvitationRequest{
		Actor: "bob", OrgID: org.ID,
		Email: "carol", Role: valueobject.RoleOrgMember,
	})
	assert.ErrorIs(t, err, domainerrors.ErrPermissionDenied)
}

// TestCreateInvitation_ScopeMustBelongToOrg 目标作用域必须从属于指定组织
func TestCreateInvitation_ScopeMustBelongToOrg(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	orgA := e.mustCreateOrg(t, "alice", "Acme", "acme")
	orgB := e.mustCreateOrg(t, "alice", "Globex", "globex")
	teamB := e.mustCreateTeam(t, "alice", orgB.ID, "Eng")

	// orgA的邀请指向orgB的团队
	_, err := e.invitations.CreateInvitation(ctx, &CreateInvitationRequest{
		Actor: "alice", OrgID: orgA.ID, TeamID: &teamB.ID,
		Email: "bob", Role: valueobject.RoleTeamMember,
	})
	assert.ErrorIs(t, err, domainerrors.ErrHierarchyViolation)
}

// TestCancelInvitation 取消与重复取消
func TestCancelInvitation(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	org := e.mustCreateOrg(t, "alice", "Acme", "acme")
	invitation := e.mustInvite(t, &CreateInvitationRequest{
		Actor: "alice", OrgID: org.ID,
		Email: "bob", Role: valueobject.RoleOrgMember,
	})

	// 无关用户不能取消
	err := e.invitations.CancelInvitation(ctx, "mallory", invitation.ID)
	assert.ErrorIs(t, err, domainerrors.ErrPermissionDenied)

	// 邀请人本人可以取消
	require.NoError(t, e.invitations.CancelInvitation(ctx, "alice", invitation.ID))

	// 已取消的邀请处于终态
	err = e.invitations.CancelInvitation(ctx, "alice", invitation.ID)
	assert.ErrorIs(t, err, domainerrors.ErrInvitationTerminal)

	// 被邀请人也无法再接受
	_, err = e.invitations.AcceptInvitation(ctx, &AcceptInvitationRequest{
		Token: invitation.Token, UserID: "bob",
	})
	assert.ErrorIs(t, err, domainerrors.ErrInvitationTerminal)
}

// TestCancelInvitation_AncestorGrantOnly 目标作用域同级的授权不能取消别人的邀请
// 同团队另一个有邀请权的人不行，祖先层级的授权可以
func TestCancelInvitation_AncestorGrantOnly(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	org := e.mustCreateOrg(t, "alice", "Acme", "acme")
	team := e.mustCreateTeam(t, "alice", org.ID, "Eng")
	project := e.mustCreateProject(t, "alice", team.ID, "Website")

	// bob是项目MANAGER（同级授权），carol是团队LEAD（祖先层级授权）
	_, err := e.members.AddMember(ctx, &MemberRequest{
		Actor: "alice", ScopeType: valueobject.ScopeTypeProject, ScopeID: projectScopeID(project.ID),
		UserID: "bob", Role: valueobject.RoleProjectManager,
	})
	require.NoError(t, err)
	_, err = e.members.AddMember(ctx, &MemberRequest{
		Actor: "alice", ScopeType: valueobject.ScopeTypeTeam, ScopeID: team.ID,
		UserID: "carol", Role: valueobject.RoleTeamLead,
	})
	require.NoError(t, err)

	invitation := e.mustInvite(t, &CreateInvitationRequest{
		Actor: "alice", OrgID: org.ID, ProjectID: &project.ID,
		Email: "dave", Role: valueobject.RoleProjectContributor,
	})

	err = e.invitations.CancelInvitation(ctx, "bob", invitation.ID)
	assert.ErrorIs(t, err, domainerrors.ErrPermissionDenied)

	require.NoError(t, e.invitations.CancelInvitation(ctx, "carol", invitation.ID))
}

// TestExpireSweep_Idempotent 清扫幂等：第二轮没有可处理的邀请
func TestExpireSweep_Idempotent(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	org := e.mustCreateOrg(t, "alice", "Acme", "acme")
	inv1 := e.mustInvite(t, &CreateInvitationRequest{
		Actor: "alice", OrgID: org.ID, Email: "bob", Role: valueobject.RoleOrgMember,
	})
	inv2 := e.mustInvite(t, &CreateInvitationRequest{
		Actor: "alice", OrgID: org.ID, Email: "carol", Role: valueobject.RoleOrgMember,
	})
	// 第三条未过期，不应被清扫
	e.mustInvite(t, &CreateInvitationRequest{
		Actor: "alice", OrgID: org.ID, Email: "dave", Role: valueobject.RoleOrgMember,
	})
	e.backdateExpiry(t, inv1.ID)
	e.backdateExpiry(t, inv2.ID)

	swept, err := e.invitations.ExpireSweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, swept)

	swept, err = e.invitations.ExpireSweep(ctx)
	require.NoError(t, err)
	assert.Zero(t, swept)

	// 每条过期邀请各有一条审计
	logs := e.auditEntries(t, org.ID)
	expireCount := 0
	for _, l := range logs {
		if l.Action == entity.AuditActionExpireInvite {
			expireCount++
			assert.Equal(t, "system", l.ActorID)
		}
	}
	assert.Equal(t, 2, expireCount)
}

// TestListMyInvitations 只返回本人的PENDING邀请
func TestListMyInvitations(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	org := e.mustCreateOrg(t, "alice", "Acme", "acme")
	e.mustInvite(t, &CreateInvitationRequest{
		Actor: "alice", OrgID: org.ID, Email: "bob", Role: valueobject.RoleOrgMember,
	})
	accepted := e.mustInvite(t, &CreateInvitationRequest{
		Actor: "alice", OrgID: org.ID, Email: "carol", Role: valueobject.RoleOrgMember,
	})
	_, err := e.invitations.AcceptInvitation(ctx, &AcceptInvitationRequest{
		Token: accepted.Token, UserID: "carol",
	})
	require.NoError(t, err)

	pending, err := e.invitations.ListMyInvitations(ctx, "bob")
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "bob", pending[0].Email)

	pending, err = e.invitations.ListMyInvitations(ctx, "carol")
	require.NoError(t, err)
	assert.Empty(t, pending)
}

// TestAcceptInvitation_AlreadyMemberRollsBack 接受时已是成员：
// 整个事务回滚，邀请保持PENDING
func TestAcceptInvitation_AlreadyMemberRollsBack(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	org := e.mustCreateOrg(t, "alice", "Acme", "acme")
	invitation := e.mustInvite(t, &CreateInvitationRequest{
		Actor: "alice", OrgID: org.ID, Email: "bob", Role: valueobject.RoleOrgMember,
	})

	// 邀请发出后bob被直接加进组织
	_, err := e.members.AddMember(ctx, &MemberRequest{
		Actor: "alice", ScopeType: valueobject.ScopeTypeOrganization, ScopeID: orgScopeID(org.ID),
		UserID: "bob", Role: valueobject.RoleOrgMember,
	})
	require.NoError(t, err)

	_, err = e.invitations.AcceptInvitation(ctx, &AcceptInvitationRequest{
		Token: invitation.Token, UserID: "bob",
	})
	assert.ErrorIs(t, err, domainerrors.ErrDuplicateMembership)

	var stored entity.Invitation
	require.NoError(t, e.db.Where("invitation_id = ?", invitation.ID).First(&stored).Error)
	assert.Equal(t, valueobject.InvitationStatusPending, stored.Status)
}
