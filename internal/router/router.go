package router

import (
	"task-platform/internal/config"
	"task-platform/internal/domain/valueobject"
	"task-platform/internal/handlers"
	"task-platform/internal/iam"
	"task-platform/internal/middleware"
	"task-platform/internal/observability/health"
	"task-platform/internal/observability/metrics"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"gorm.io/gorm"

	_ "task-platform/docs" // swagger docs
)

func Setup(db *gorm.DB, cfg *config.Config) *gin.Engine {
	r := gin.Default()

	// 服务装配
	factory := iam.NewServiceFactory(db, cfg.Engine)
	iamMiddleware := middleware.NewIAMPermissionMiddleware(factory.GetPermissionChecker())

	orgHandler := handlers.NewOrganizationHandler(factory.GetTenancyService())
	teamHandler := handlers.NewTeamHandler(factory.GetTenancyService())
	projectHandler := handlers.NewProjectHandler(factory.GetTenancyService())
	taskHandler := handlers.NewTaskHandler(factory.GetTenancyService())
	memberHandler := handlers.NewMemberHandler(factory.GetMembershipService())
	invitationHandler := handlers.NewInvitationHandler(factory.GetInvitationService())
	auditHandler := handlers.NewAuditHandler(factory.GetAuditService())
	permissionHandler := handlers.NewPermissionHandler(factory.GetPermissionChecker())

	// 中间件
	r.Use(middleware.CORS())
	r.Use(middleware.Logger())
	r.Use(middleware.ErrorHandler())
	r.Use(metrics.HTTPMetricsMiddleware(metrics.GetRegistry()))

	// 健康检查（/health /health/live /health/ready /health/startup）
	health.RegisterRoutes(r, db)

	// Prometheus 指标端点（复用业务端口）
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(metrics.GetRegistry(), promhttp.HandlerOpts{})))

	// Swagger文档
	r.GET("/swagger/*any", ginSwagger.WrapHandler(
		swaggerFiles.Handler,
		ginSwagger.DeepLinking(true),
		ginSwagger.DocExpansion("list"),
		ginSwagger.PersistAuthorization(true),
		ginSwagger.DefaultModelsExpandDepth(-1),
	))

	// API路由组（全部需要JWT认证：主体身份只来自token）
	api := r.Group("/api/v1")
	api.Use(middleware.JWTAuth())

	// 组织路由
	orgs := api.Group("/organizations")
	{
		orgs.POST("", orgHandler.CreateOrganization)
		orgs.GET("", orgHandler.ListOrganizations)
		orgs.GET("/:orgId", iamMiddleware.RequirePermission("READ", "ORGANIZATION", "orgId"), orgHandler.GetOrganization)
		orgs.PUT("/:orgId", orgHandler.UpdateOrganization)
		orgs.DELETE("/:orgId", orgHandler.DeleteOrganization)

		// 组织下的团队
		orgs.POST("/:orgId/teams", teamHandler.CreateTeam)
		orgs.GET("/:orgId/teams", teamHandler.ListTeams)

		// 组织成员
		orgs.POST("/:orgId/members", memberHandler.AddMember(valueobject.ScopeTypeOrganization, "orgId"))
		orgs.GET("/:orgId/members", memberHandler.ListMembers(valueobject.ScopeTypeOrganization, "orgId"))
		orgs.DELETE("/:orgId/members/:userId", memberHandler.RemoveMember(valueobject.ScopeTypeOrganization, "orgId"))

		// 组织邀请
		orgs.POST("/:orgId/invitations", invitationHandler.CreateInvitation)
		orgs.GET("/:orgId/invitations", invitationHandler.ListInvitations)

		// 审计日志（READ_AUDIT由AuditService.Query内部检查）
		orgs.GET("/:orgId/audit-logs", auditHandler.QueryAuditLogs)
	}

	// 团队路由
	teams := api.Group("/teams")
	{
		teams.GET("/:teamId", iamMiddleware.RequirePermission("READ", "TEAM", "teamId"), teamHandler.GetTeam)
		teams.PUT("/:teamId", teamHandler.UpdateTeam)
		teams.DELETE("/:teamId", teamHandler.DeleteTeam)

		// 团队下的项目
		teams.POST("/:teamId/projects", projectHandler.CreateProject)
		teams.GET("/:teamId/projects", projectHandler.ListProjects)

		// 团队成员
		teams.POST("/:teamId/members", memberHandler.AddMember(valueobject.ScopeTypeTeam, "teamId"))
		teams.GET("/:teamId/members", memberHandler.ListMembers(valueobject.ScopeTypeTeam, "teamId"))
		teams.DELETE("/:teamId/members/:userId", memberHandler.RemoveMember(valueobject.ScopeTypeTeam, "teamId"))
	}

	// 项目路由
	projects := api.Group("/projects")
	{
		projects.GET("/:projectId", iamMiddleware.RequirePermission("READ", "PROJECT", "projectId"), projectHandler.GetProject)
		projects.PUT("/:projectId", projectHandler.UpdateProject)
		projects.DELETE("/:projectId", projectHandler.DeleteProject)

		// 项目下的任务
		projects.POST("/:projectId/tasks", taskHandler.CreateTask)
		projects.GET("/:projectId/tasks", taskHandler.ListTasks)

		// 项目成员
		projects.POST("/:projectId/members", memberHandler.AddMember(valueobject.ScopeTypeProject, "projectId"))
		projects.GET("/:projectId/members", memberHandler.ListMembers(valueobject.ScopeTypeProject, "projectId"))
		projects.DELETE("/:projectId/members/:userId", memberHandler.RemoveMember(valueobject.ScopeTypeProject, "projectId"))
	}

	// 任务路由
	tasks := api.Group("/tasks")
	{
		tasks.GET("/:taskId", taskHandler.GetTask)
		tasks.PUT("/:taskId", taskHandler.UpdateTask)
		tasks.POST("/:taskId/complete", taskHandler.CompleteTask)
		tasks.POST("/:taskId/assign", taskHandler.AssignTask)
	}

	// 邀请路由（跨组织：凭令牌接受，登录用户查看自己的邀请）
	invitations := api.Group("/invitations")
	{
		invitations.GET("", invitationHandler.ListMyInvitations)
		invitations.POST("/accept", invitationHandler.AcceptInvitation)
		invitations.DELETE("/:invitationId", invitationHandler.CancelInvitation)
	}

	// 权限检查路由
	permissions := api.Group("/permissions")
	{
		permissions.POST("/check", permissionHandler.CheckPermission)
	}

	return r
}
