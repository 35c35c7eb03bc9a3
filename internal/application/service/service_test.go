package service

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"task-platform/internal/config"
	"task-platform/internal/domain/entity"
	"task-platform/internal/infrastructure/persistence"
)

// setupTestDB 创建内存SQLite数据库并迁移全部表
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true, // 唯一约束冲突需要翻译成gorm.ErrDuplicatedKey
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)

	// Force a single connection: `:memory:` creates a separate database per
	// connection, so a pool > 1 would give each goroutine its own empty database.
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&entity.Organization{},
		&entity.Team{},
		&entity.Project{},
		&entity.Task{},
		&entity.OrganizationMember{},
		&entity.TeamMember{},
		&entity.ProjectMember{},
		&entity.Invitation{},
		&entity.AuditLog{},
	))
	return db
}

// testEngine 测试用的服务组合，与iam.ServiceFactory的装配方式一致
type testEngine struct {
	db          *gorm.DB
	cfg         config.EngineConfig
	checker     PermissionChecker
	audit       *AuditService
	tenancy     TenancyService
	members     MembershipService
	invitations InvitationService
}

func newTestEngine(t *testing.T) *testEngine {
	t.Helper()
	db := setupTestDB(t)
	cfg := config.DefaultEngineConfig()

	orgRepo := persistence.NewOrganizationRepository(db)
	teamRepo := persistence.NewTeamRepository(db)
	projectRepo := persistence.NewProjectRepository(db)
	taskRepo := persistence.NewTaskRepository(db)
	invitationRepo := persistence.NewInvitationRepository(db)
	auditRepo := persistence.NewAuditRepository(db)

	checker := NewPermissionChecker(orgRepo, teamRepo, projectRepo)
	audit := NewAuditService(auditRepo, checker)
	members := NewMembershipService(db, orgRepo, teamRepo, projectRepo, checker, audit, cfg)

	return &testEngine{
		db:      db,
		cfg:     cfg,
		checker: checker,
		audit:   audit,
		tenancy: NewTenancyService(db, orgRepo, teamRepo, projectRepo, taskRepo, checker, audit),
		members: members,
		invitations: NewInvitationService(
			db, invitationRepo, orgRepo, teamRepo, projectRepo,
			members, checker, audit, LogNotifier{}, cfg,
		),
	}
}

// mustCreateOrg 创建组织，创建人自动成为OWNER
func (e *testEngine) mustCreateOrg(t *testing.T, creator, name, slug string) *entity.Organization {
	t.Helper()
	org, err := e.tenancy.CreateOrganization(context.Background(), &CreateOrganizationRequest{
		Name: name, Slug: slug, CreatedBy: creator,
	})
	require.NoError(t, err)
	return org
}

func (e *testEngine) mustCreateTeam(t *testing.T, creator string, orgID uint, name string) *entity.Team {
	t.Helper()
	team, err := e.tenancy.CreateTeam(context.Background(), &CreateTeamRequest{
		OrgID: orgID, Name: name, CreatedBy: creator,
	})
	require.NoError(t, err)
	return team
}

func (e *testEngine) mustCreateProject(t *testing.T, creator, teamID, name string) *entity.Project {
	t.Helper()
	project, err := e.tenancy.CreateProject(context.Background(), &CreateProjectRequest{
		TeamID: teamID, Name: name, CreatedBy: creator,
	})
	require.NoError(t, err)
	return project
}

// orgScopeID / projectScopeID 数字ID转为权限检查用的字符串ID
func orgScopeID(orgID uint) string {
	return fmt.Sprintf("%d", orgID)
}

func projectScopeID(projectID uint) string {
	return fmt.Sprintf("%d", projectID)
}

// auditEntries 按创建顺序取出组织的全部审计日志
func (e *testEngine) auditEntries(t *testing.T, orgID uint) []*entity.AuditLog {
	t.Helper()
	var logs []*entity.AuditLog
	require.NoError(t, e.db.Where("org_id = ?", orgID).Order("id ASC").Find(&logs).Error)
	return logs
}
