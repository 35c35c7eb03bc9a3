package iam

import (
	"gorm.io/gorm"

	"task-platform/internal/application/service"
	"task-platform/internal/config"
	"task-platform/internal/domain/repository"
	"task-platform/internal/infrastructure/persistence"
)

// ServiceFactory 授权引擎服务工厂
type ServiceFactory struct {
	db *gorm.DB

	// Repositories
	orgRepo        repository.OrganizationRepository
	teamRepo       repository.TeamRepository
	projectRepo    repository.ProjectRepository
	taskRepo       repository.TaskRepository
	invitationRepo repository.InvitationRepository
	auditRepo      repository.AuditRepository

	// Services
	permissionChecker service.PermissionChecker
	auditService      *service.AuditService
	tenancyService    service.TenancyService
	membershipService service.MembershipService
	invitationService service.InvitationService
}

// NewServiceFactory 创建授权引擎服务工厂
func NewServiceFactory(db *gorm.DB, cfg config.EngineConfig) *ServiceFactory {
	factory := &ServiceFactory{db: db}

	// 初始化Repositories
	factory.orgRepo = persistence.NewOrganizationRepository(db)
	factory.teamRepo = persistence.NewTeamRepository(db)
	factory.projectRepo = persistence.NewProjectRepository(db)
	factory.taskRepo = persistence.NewTaskRepository(db)
	factory.invitationRepo = persistence.NewInvitationRepository(db)
	factory.auditRepo = persistence.NewAuditRepository(db)

	// 初始化Services
	factory.permissionChecker = service.NewPermissionChecker(
		factory.orgRepo,
		factory.teamRepo,
		factory.projectRepo,
	)

	factory.auditService = service.NewAuditService(
		factory.auditRepo,
		factory.permissionChecker,
	)

	factory.tenancyService = service.NewTenancyService(
		db,
		factory.orgRepo,
		factory.teamRepo,
		factory.projectRepo,
		factory.taskRepo,
		factory.permissionChecker,
		factory.auditService,
	)

	members := service.NewMembershipService(
		db,
		factory.orgRepo,
		factory.teamRepo,
		factory.projectRepo,
		factory.permissionChecker,
		factory.auditService,
		cfg,
	)
	factory.membershipService = members

	factory.invitationService = service.NewInvitationService(
		db,
		factory.invitationRepo,
		factory.orgRepo,
		factory.teamRepo,
		factory.projectRepo,
		members,
		factory.permissionChecker,
		factory.auditService,
		service.LogNotifier{},
		cfg,
	)

	return factory
}

// GetPermissionChecker 获取权限检查器
func (f *ServiceFactory) GetPermissionChecker() service.PermissionChecker {
	return f.permissionChecker
}

// GetAuditService 获取审计服务
func (f *ServiceFactory) GetAuditService() *service.AuditService {
	return f.auditService
}

// GetTenancyService 获取层级实体管理服务
func (f *ServiceFactory) GetTenancyService() service.TenancyService {
	return f.tenancyService
}

// GetMembershipService 获取成员关系管理服务
func (f *ServiceFactory) GetMembershipService() service.MembershipService {
	return f.membershipService
}

// GetInvitationService 获取邀请服务
func (f *ServiceFactory) GetInvitationService() service.InvitationService {
	return f.invitationService
}
