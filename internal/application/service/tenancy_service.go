package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"task-platform/internal/domain/entity"
	domainerrors "task-platform/internal/domain/errors"
	"task-platform/internal/domain/repository"
	"task-platform/internal/domain/valueobject"
)

// CreateOrganizationRequest 创建组织请求
type CreateOrganizationRequest struct {
	Name      string `json:"name"`
	Slug      string `json:"slug"`
	CreatedBy string `json:"created_by"` // user_id
}

// UpdateOrganizationRequest 更新组织请求
type UpdateOrganizationRequest struct {
	Actor string `json:"actor"`
	OrgID uint   `json:"org_id"`
	Name  string `json:"name"`
}

// UpdateTeamRequest 更新团队请求
type UpdateTeamRequest struct {
	Actor  string `json:"actor"`
	TeamID string `json:"team_id"`
	Name   string `json:"name"`
}

// UpdateProjectRequest 更新项目请求
type UpdateProjectRequest struct {
	Actor     string `json:"actor"`
	ProjectID uint   `json:"project_id"`
	Name      string `json:"name"`
}

// UpdateTaskRequest 更新任务请求
type UpdateTaskRequest struct {
	Actor       string  `json:"actor"`
	TaskID      string  `json:"task_id"`
	Title       *string `json:"title"`
	Description *string `json:"description"`
}

// CreateTeamRequest 创建团队请求
type CreateTeamRequest struct {
	OrgID     uint   `json:"org_id"`
	Name      string `json:"name"`
	CreatedBy string `json:"created_by"`
}

// CreateProjectRequest 创建项目请求
type CreateProjectRequest struct {
	TeamID    string `json:"team_id"`
	Name      string `json:"name"`
	CreatedBy string `json:"created_by"`
}

// CreateTaskRequest 创建任务请求
type CreateTaskRequest struct {
	ProjectID   uint    `json:"project_id"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
	AssignedTo  *string `json:"assigned_to"`
	CreatedBy   string  `json:"created_by"`
}

// SoftDeleteRequest 软删除请求
type SoftDeleteRequest struct {
	Actor     string                `json:"actor"`
	ScopeType valueobject.ScopeType `json:"scope_type"`
	ScopeID   string                `json:"scope_id"`
}

// TenancyService 层级实体管理服务接口
// 唯一接触层级持久化状态的组件；所有写路径在单个事务内完成变更
// 与审计追加，任一步失败则整体回滚
type TenancyService interface {
	// CreateOrganization 创建组织，创建人自动成为OWNER
	CreateOrganization(ctx context.Context, req *CreateOrganizationRequest) (*entity.Organization, error)

	// GetOrganization 获取组织详情
	GetOrganization(ctx context.Context, actor string, orgID uint) (*entity.Organization, error)

	// ListOrganizations 列出用户所属的组织
	ListOrganizations(ctx context.Context, userID string) ([]*entity.Organization, error)

	// UpdateOrganization 更新组织信息
	UpdateOrganization(ctx context.Context, req *UpdateOrganizationRequest) (*entity.Organization, error)

	// CreateTeam 创建团队
	CreateTeam(ctx context.Context, req *CreateTeamRequest) (*entity.Team, error)

	// GetTeam 获取团队详情
	GetTeam(ctx context.Context, actor string, teamID string) (*entity.Team, error)

	// ListTeams 列出组织下的团队（includeDeleted用于审计/恢复视图）
	ListTeams(ctx context.Context, actor string, orgID uint, includeDeleted bool) ([]*entity.Team, error)

	// UpdateTeam 更新团队信息
	UpdateTeam(ctx context.Context, req *UpdateTeamRequest) (*entity.Team, error)

	// CreateProject 创建项目
	CreateProject(ctx context.Context, req *CreateProjectRequest) (*entity.Project, error)

	// GetProject 获取项目详情
	GetProject(ctx context.Context, actor string, projectID uint) (*entity.Project, error)

	// ListProjects 列出团队下的项目
	ListProjects(ctx context.Context, actor string, teamID string, includeDeleted bool) ([]*entity.Project, error)

	// UpdateProject 更新项目信息
	UpdateProject(ctx context.Context, req *UpdateProjectRequest) (*entity.Project, error)

	// CreateTask 创建任务
	CreateTask(ctx context.Context, req *CreateTaskRequest) (*entity.Task, error)

	// GetTask 获取任务详情
	GetTask(ctx context.Context, actor string, taskID string) (*entity.Task, error)

	// ListTasks 列出项目下的任务
	ListTasks(ctx context.Context, actor string, projectID uint, includeDeleted bool) ([]*entity.Task, error)

	// UpdateTask 更新任务标题/描述
	UpdateTask(ctx context.Context, req *UpdateTaskRequest) (*entity.Task, error)

	// CompleteTask 完成任务
	CompleteTask(ctx context.Context, actor string, taskID string) (*entity.Task, error)

	// AssignTask 分配任务（被分配人必须是当前项目成员）
	AssignTask(ctx context.Context, actor string, taskID string, assignee string) (*entity.Task, error)

	// SoftDelete 软删除作用域实体并级联下层
	SoftDelete(ctx context.Context, req *SoftDeleteRequest) error
}

// TenancyServiceImpl 层级实体管理服务实现
type TenancyServiceImpl struct {
	db          *gorm.DB
	orgRepo     repository.OrganizationRepository
	teamRepo    repository.TeamRepository
	projectRepo repository.ProjectRepository
	taskRepo    repository.TaskRepository
	checker     PermissionChecker
	audit       *AuditService
}

// NewTenancyService 创建层级实体管理服务实例
func NewTenancyService(
	db *gorm.DB,
	orgRepo repository.OrganizationRepository,
	teamRepo repository.TeamRepository,
	projectRepo repository.ProjectRepository,
	taskRepo repository.TaskRepository,
	checker PermissionChecker,
	audit *AuditService,
) TenancyService {
	return &TenancyServiceImpl{
		db:          db,
		orgRepo:     orgRepo,
		teamRepo:    teamRepo,
		projectRepo: projectRepo,
		taskRepo:    taskRepo,
		checker:     checker,
		audit:       audit,
	}
}

// CreateOrganization 创建组织
func (s *TenancyServiceImpl) CreateOrganization(ctx context.Context, req *CreateOrganizationRequest) (*entity.Organization, error) {
	org := &entity.Organization{
		Name:      req.Name,
		Slug:      req.Slug,
		CreatedBy: &req.CreatedBy,
	}
	if !org.IsValid() || req.CreatedBy == "" {
		return nil, fmt.Errorf("invalid organization: name and slug are required")
	}

	// 1. 检查slug是否已存在
	existing, err := s.orgRepo.GetOrganizationBySlug(ctx, req.Slug)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, domainerrors.ErrDuplicateSlug
	}

	// 2. 创建组织 + OWNER成员关系 + 审计，一个事务
	now := time.Now()
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(org).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return domainerrors.ErrDuplicateSlug
			}
			return fmt.Errorf("failed to create organization: %w", err)
		}

		owner := &entity.OrganizationMember{
			OrgID:    org.ID,
			UserID:   req.CreatedBy,
			Role:     valueobject.RoleOrgOwner,
			JoinedAt: now,
			JoinedBy: &req.CreatedBy,
		}
		if err := tx.Create(owner).Error; err != nil {
			return fmt.Errorf("failed to create owner membership: %w", err)
		}

		return s.audit.Record(tx, &entity.AuditLog{
			OrgID:        org.ID,
			ActorID:      req.CreatedBy,
			ResourceType: entity.AuditResourceOrganization,
			ResourceID:   strconv.FormatUint(uint64(org.ID), 10),
			Action:       entity.AuditActionCreate,
			Metadata:     datatypes.JSONMap{"slug": org.Slug, "owner": req.CreatedBy},
		})
	})
	if err != nil {
		return nil, err
	}
	return org, nil
}

// GetOrganization 获取组织详情
func (s *TenancyServiceImpl) GetOrganization(ctx context.Context, actor string, orgID uint) (*entity.Organization, error) {
	if err := s.requireAllowed(ctx, actor, valueobject.ActionRead, valueobject.ScopeTypeOrganization, strconv.FormatUint(uint64(orgID), 10)); err != nil {
		return nil, err
	}
	return s.orgRepo.GetOrganizationByID(ctx, orgID, false)
}

// ListOrganizations 列出用户所属的组织
func (s *TenancyServiceImpl) ListOrganizations(ctx context.Context, userID string) ([]*entity.Organization, error) {
	return s.orgRepo.ListOrganizations(ctx, userID)
}

// UpdateOrganization 更新组织信息
func (s *TenancyServiceImpl) UpdateOrganization(ctx context.Context, req *UpdateOrganizationRequest) (*entity.Organization, error) {
	orgIDStr := strconv.FormatUint(uint64(req.OrgID), 10)
	if err := s.requireAllowed(ctx, req.Actor, valueobject.ActionUpdate, valueobject.ScopeTypeOrganization, orgIDStr); err != nil {
		return nil, err
	}

	org, err := s.orgRepo.GetOrganizationByID(ctx, req.OrgID, false)
	if err != nil {
		return nil, err
	}
	if req.Name == "" || len(req.Name) > 100 {
		return nil, fmt.Errorf("invalid organization name")
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		org.Name = req.Name
		if err := tx.Save(org).Error; err != nil {
			return fmt.Errorf("failed to update organization: %w", err)
		}
		return s.audit.Record(tx, &entity.AuditLog{
			OrgID:        org.ID,
			ActorID:      req.Actor,
			ResourceType: entity.AuditResourceOrganization,
			ResourceID:   orgIDStr,
			Action:       entity.AuditActionUpdate,
			Metadata:     datatypes.JSONMap{"name": req.Name},
		})
	})
	if err != nil {
		return nil, err
	}
	return org, nil
}

// CreateTeam 创建团队
func (s *TenancyServiceImpl) CreateTeam(ctx context.Context, req *CreateTeamRequest) (*entity.Team, error) {
	// 1. 所属组织必须存在且未删除
	org, err := s.orgRepo.GetOrganizationByID(ctx, req.OrgID, false)
	if err != nil {
		return nil, err
	}

	// 2. 权限检查：组织作用域CREATE_TEAM
	if err := s.requireAllowed(ctx, req.CreatedBy, valueobject.ActionCreateTeam, valueobject.ScopeTypeOrganization, strconv.FormatUint(uint64(org.ID), 10)); err != nil {
		return nil, err
	}

	// 3. 组织内名称唯一
	existing, err := s.teamRepo.GetTeamByName(ctx, org.ID, req.Name)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, domainerrors.ErrDuplicateName
	}

	team := &entity.Team{
		OrgID:     org.ID,
		Name:      req.Name,
		CreatedBy: &req.CreatedBy,
	}
	if !team.IsValid() {
		return nil, fmt.Errorf("invalid team: name is required")
	}

	// 4. 创建 + 审计，一个事务
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(team).Error; err != nil {
			return fmt.Errorf("failed to create team: %w", err)
		}
		return s.audit.Record(tx, &entity.AuditLog{
			OrgID:        org.ID,
			ActorID:      req.CreatedBy,
			ResourceType: entity.AuditResourceTeam,
			ResourceID:   team.ID,
			Action:       entity.AuditActionCreate,
			Metadata:     datatypes.JSONMap{"name": team.Name},
		})
	})
	if err != nil {
		return nil, err
	}
	return team, nil
}

// GetTeam 获取团队详情
func (s *TenancyServiceImpl) GetTeam(ctx context.Context, actor string, teamID string) (*entity.Team, error) {
	if err := s.requireAllowed(ctx, actor, valueobject.ActionRead, valueobject.ScopeTypeTeam, teamID); err != nil {
		return nil, err
	}
	return s.teamRepo.GetTeamByID(ctx, teamID, false)
}

// ListTeams 列出组织下的团队
func (s *TenancyServiceImpl) ListTeams(ctx context.Context, actor string, orgID uint, includeDeleted bool) ([]*entity.Team, error) {
	orgIDStr := strconv.FormatUint(uint64(orgID), 10)
	// 包含软删除行的视图属于审计/恢复用途，要求审计读权限
	action := valueobject.ActionRead
	if includeDeleted {
		action = valueobject.ActionReadAudit
	}
	if err := s.requireAllowed(ctx, actor, action, valueobject.ScopeTypeOrganization, orgIDStr); err != nil {
		return nil, err
	}
	return s.teamRepo.ListTeams(ctx, orgID, includeDeleted)
}

// UpdateTeam 更新团队信息
func (s *TenancyServiceImpl) UpdateTeam(ctx context.Context, req *UpdateTeamRequest) (*entity.Team, error) {
	if err := s.requireAllowed(ctx, req.Actor, valueobject.ActionUpdate, valueobject.ScopeTypeTeam, req.TeamID); err != nil {
		return nil, err
	}

	team, err := s.teamRepo.GetTeamByID(ctx, req.TeamID, false)
	if err != nil {
		return nil, err
	}
	if req.Name == "" || len(req.Name) > 100 {
		return nil, fmt.Errorf("invalid team name")
	}

	// 组织内名称唯一
	existing, err := s.teamRepo.GetTeamByName(ctx, team.OrgID, req.Name)
	if err != nil {
		return nil, err
	}
	if existing != nil && existing.ID != team.ID {
		return nil, domainerrors.ErrDuplicateName
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		team.Name = req.Name
		if err := tx.Save(team).Error; err != nil {
			return fmt.Errorf("failed to update team: %w", err)
		}
		return s.audit.Record(tx, &entity.AuditLog{
			OrgID:        team.OrgID,
			ActorID:      req.Actor,
			ResourceType: entity.AuditResourceTeam,
			ResourceID:   team.ID,
			Action:       entity.AuditActionUpdate,
			Metadata:     datatypes.JSONMap{"name": req.Name},
		})
	})
	if err != nil {
		return nil, err
	}
	return team, nil
}

// CreateProject 创建项目
func (s *TenancyServiceImpl) CreateProject(ctx context.Context, req *CreateProjectRequest) (*entity.Project, error) {
	// 1. 所属团队必须存在且未删除
	team, err := s.teamRepo.GetTeamByID(ctx, req.TeamID, false)
	if err != nil {
		return nil, err
	}

	// 2. 权限检查：团队作用域CREATE_PROJECT
	if err := s.requireAllowed(ctx, req.CreatedBy, valueobject.ActionCreateProject, valueobject.ScopeTypeTeam, team.ID); err != nil {
		return nil, err
	}

	// 3. 团队内名称唯一
	existing, err := s.projectRepo.GetProjectByName(ctx, team.ID, req.Name)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, domainerrors.ErrDuplicateName
	}

	// OrgID冗余自所属团队，保证层级一致
	project := &entity.Project{
		TeamID:    team.ID,
		OrgID:     team.OrgID,
		Name:      req.Name,
		CreatedBy: &req.CreatedBy,
	}
	if !project.IsValid() {
		return nil, fmt.Errorf("invalid project: name is required")
	}

	// 4. 创建 + 审计，一个事务
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(project).Error; err != nil {
			return fmt.Errorf("failed to create project: %w", err)
		}
		return s.audit.Record(tx, &entity.AuditLog{
			OrgID:        team.OrgID,
			ActorID:      req.CreatedBy,
			ResourceType: entity.AuditResourceProject,
			ResourceID:   strconv.FormatUint(uint64(project.ID), 10),
			Action:       entity.AuditActionCreate,
			Metadata:     datatypes.JSONMap{"name": project.Name, "team_id": team.ID},
		})
	})
	if err != nil {
		return nil, err
	}
	return project, nil
}

// GetProject 获取项目详情
func (s *TenancyServiceImpl) GetProject(ctx context.Context, actor string, projectID uint) (*entity.Project, error) {
	if err := s.requireAllowed(ctx, actor, valueobject.ActionRead, valueobject.ScopeTypeProject, strconv.FormatUint(uint64(projectID), 10)); err != nil {
		return nil, err
	}
	return s.projectRepo.GetProjectByID(ctx, projectID, false)
}

// ListProjects 列出团队下的项目
func (s *TenancyServiceImpl) ListProjects(ctx context.Context, actor string, teamID string, includeDeleted bool) ([]*entity.Project, error) {
	action := valueobject.ActionRead
	if includeDeleted {
		action = valueobject.ActionReadAudit
	}
	if err := s.requireAllowed(ctx, actor, action, valueobject.ScopeTypeTeam, teamID); err != nil {
		return nil, err
	}
	return s.projectRepo.ListProjects(ctx, teamID, includeDeleted)
}

// UpdateProject 更新项目信息
func (s *TenancyServiceImpl) UpdateProject(ctx context.Context, req *UpdateProjectRequest) (*entity.Project, error) {
	projectIDStr := strconv.FormatUint(uint64(req.ProjectID), 10)
	if err := s.requireAllowed(ctx, req.Actor, valueobject.ActionUpdate, valueobject.ScopeTypeProject, projectIDStr); err != nil {
		return nil, err
	}

	project, err := s.projectRepo.GetProjectByID(ctx, req.ProjectID, false)
	if err != nil {
		return nil, err
	}
	if req.Name == "" || len(req.Name) > 100 {
		return nil, fmt.Errorf("invalid project name")
	}

	// 团队内名称唯一
	existing, err := s.projectRepo.GetProjectByName(ctx, project.TeamID, req.Name)
	if err != nil {
		return nil, err
	}
	if existing != nil && existing.ID != project.ID {
		return nil, domainerrors.ErrDuplicateName
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		project.Name = req.Name
		if err := tx.Save(project).Error; err != nil {
			return fmt.Errorf("failed to update project: %w", err)
		}
		return s.audit.Record(tx, &entity.AuditLog{
			OrgID:        project.OrgID,
			ActorID:      req.Actor,
			ResourceType: entity.AuditResourceProject,
			ResourceID:   projectIDStr,
			Action:       entity.AuditActionUpdate,
			Metadata:     datatypes.JSONMap{"name": req.Name},
		})
	})
	if err != nil {
		return nil, err
	}
	return project, nil
}

// CreateTask 创建任务
func (s *TenancyServiceImpl) CreateTask(ctx context.Context, req *CreateTaskRequest) (*entity.Task, error) {
	// 1. 所属项目必须存在且未删除
	project, err := s.projectRepo.GetProjectByID(ctx, req.ProjectID, false)
	if err != nil {
		return nil, err
	}
	projectIDStr := strconv.FormatUint(uint64(project.ID), 10)

	// 2. 权限检查：项目作用域CREATE_TASK
	if err := s.requireAllowed(ctx, req.CreatedBy, valueobject.ActionCreateTask, valueobject.ScopeTypeProject, projectIDStr); err != nil {
		return nil, err
	}

	// 3. 被分配人必须是当前项目成员
	if req.AssignedTo != nil {
		member, err := s.projectRepo.GetProjectMember(ctx, project.ID, *req.AssignedTo)
		if err != nil {
			return nil, err
		}
		if member == nil {
			return nil, fmt.Errorf("assignee %s: %w", *req.AssignedTo, domainerrors.ErrNotAMember)
		}
	}

	task := &entity.Task{
		ProjectID:   project.ID,
		Title:       req.Title,
		Description: req.Description,
		OwnerID:     req.CreatedBy,
		AssignedTo:  req.AssignedTo,
	}
	if !task.IsValid() {
		return nil, fmt.Errorf("invalid task: title is required")
	}

	// 4. 创建 + 审计，一个事务
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(task).Error; err != nil {
			return fmt.Errorf("failed to create task: %w", err)
		}
		return s.audit.Record(tx, &entity.AuditLog{
			OrgID:        project.OrgID,
			ActorID:      req.CreatedBy,
			ResourceType: entity.AuditResourceTask,
			ResourceID:   task.ID,
			Action:       entity.AuditActionCreate,
			Metadata:     datatypes.JSONMap{"title": task.Title, "project_id": projectIDStr},
		})
	})
	if err != nil {
		return nil, err
	}
	return task, nil
}

// GetTask 获取任务详情
func (s *TenancyServiceImpl) GetTask(ctx context.Context, actor string, taskID string) (*entity.Task, error) {
	task, err := s.taskRepo.GetTaskByID(ctx, taskID, false)
	if err != nil {
		return nil, err
	}
	if err := s.requireAllowed(ctx, actor, valueobject.ActionRead, valueobject.ScopeTypeProject, strconv.FormatUint(uint64(task.ProjectID), 10)); err != nil {
		return nil, err
	}
	return task, nil
}

// ListTasks 列出项目下的任务
func (s *TenancyServiceImpl) ListTasks(ctx context.Context, actor string, projectID uint, includeDeleted bool) ([]*entity.Task, error) {
	action := valueobject.ActionRead
	if includeDeleted {
		action = valueobject.ActionReadAudit
	}
	if err := s.requireAllowed(ctx, actor, action, valueobject.ScopeTypeProject, strconv.FormatUint(uint64(projectID), 10)); err != nil {
		return nil, err
	}
	return s.taskRepo.ListTasks(ctx, projectID, includeDeleted)
}

// UpdateTask 更新任务标题/描述
func (s *TenancyServiceImpl) UpdateTask(ctx context.Context, req *UpdateTaskRequest) (*entity.Task, error) {
	task, err := s.taskRepo.GetTaskByID(ctx, req.TaskID, false)
	if err != nil {
		return nil, err
	}
	project, err := s.projectRepo.GetProjectByID(ctx, task.ProjectID, false)
	if err != nil {
		return nil, err
	}

	if err := s.requireAllowed(ctx, req.Actor, valueobject.ActionUpdateTask, valueobject.ScopeTypeProject, strconv.FormatUint(uint64(project.ID), 10)); err != nil {
		return nil, err
	}

	changed := datatypes.JSONMap{}
	if req.Title != nil {
		if *req.Title == "" || len(*req.Title) > 200 {
			return nil, fmt.Errorf("invalid task title")
		}
		task.Title = *req.Title
		changed["title"] = *req.Title
	}
	if req.Description != nil {
		task.Description = *req.Description
		changed["description"] = true
	}
	if len(changed) == 0 {
		return task, nil
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(task).Error; err != nil {
			return fmt.Errorf("failed to update task: %w", err)
		}
		return s.audit.Record(tx, &entity.AuditLog{
			OrgID:        project.OrgID,
			ActorID:      req.Actor,
			ResourceType: entity.AuditResourceTask,
			ResourceID:   task.ID,
			Action:       entity.AuditActionUpdate,
			Metadata:     changed,
		})
	})
	if err != nil {
		return nil, err
	}
	return task, nil
}

// CompleteTask 完成任务
func (s *TenancyServiceImpl) CompleteTask(ctx context.Context, actor string, taskID string) (*entity.Task, error) {
	task, err := s.taskRepo.GetTaskByID(ctx, taskID, false)
	if err != nil {
		return nil, err
	}
	project, err := s.projectRepo.GetProjectByID(ctx, task.ProjectID, false)
	if err != nil {
		return nil, err
	}

	if err := s.requireAllowed(ctx, actor, valueobject.ActionCompleteTask, valueobject.ScopeTypeProject, strconv.FormatUint(uint64(project.ID), 10)); err != nil {
		return nil, err
	}

	// 已完成的任务不再重复变更，也不产生重复审计
	if task.IsCompleted() {
		return task, nil
	}

	now := time.Now()
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		task.CompletedAt = &now
		task.CompletedBy = &actor
		if err := tx.Save(task).Error; err != nil {
			return fmt.Errorf("failed to complete task: %w", err)
		}
		return s.audit.Record(tx, &entity.AuditLog{
			OrgID:        project.OrgID,
			ActorID:      actor,
			ResourceType: entity.AuditResourceTask,
			ResourceID:   task.ID,
			Action:       entity.AuditActionCompleteTask,
			Metadata:     datatypes.JSONMap{"title": task.Title},
		})
	})
	if err != nil {
		return nil, err
	}
	return task, nil
}

// AssignTask 分配任务
func (s *TenancyServiceImpl) AssignTask(ctx context.Context, actor string, taskID string, assignee string) (*entity.Task, error) {
	task, err := s.taskRepo.GetTaskByID(ctx, taskID, false)
	if err != nil {
		return nil, err
	}
	project, err := s.projectRepo.GetProjectByID(ctx, task.ProjectID, false)
	if err != nil {
		return nil, err
	}

	if err := s.requireAllowed(ctx, actor, valueobject.ActionAssignTask, valueobject.ScopeTypeProject, strconv.FormatUint(uint64(project.ID), 10)); err != nil {
		return nil, err
	}

	// 被分配人必须是当前项目成员
	member, err := s.projectRepo.GetProjectMember(ctx, project.ID, assignee)
	if err != nil {
		return nil, err
	}
	if member == nil {
		return nil, fmt.Errorf("assignee %s: %w", assignee, domainerrors.ErrNotAMember)
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		task.AssignedTo = &assignee
		if err := tx.Save(task).Error; err != nil {
			return fmt.Errorf("failed to assign task: %w", err)
		}
		return s.audit.Record(tx, &entity.AuditLog{
			OrgID:        project.OrgID,
			ActorID:      actor,
			ResourceType: entity.AuditResourceTask,
			ResourceID:   task.ID,
			Action:       entity.AuditActionAssignTask,
			Metadata:     datatypes.JSONMap{"assigned_to": assignee},
		})
	})
	if err != nil {
		return nil, err
	}
	return task, nil
}

// SoftDelete 软删除作用域实体并级联下层
// 级联是显式的有界树遍历：每种受影响的实体类型记录一条审计，
// 不依赖数据库级联触发器（那会绕过审计）
func (s *TenancyServiceImpl) SoftDelete(ctx context.Context, req *SoftDeleteRequest) error {
	if err := s.requireAllowed(ctx, req.Actor, valueobject.ActionDelete, req.ScopeType, req.ScopeID); err != nil {
		return err
	}

	switch req.ScopeType {
	case valueobject.ScopeTypeOrganization:
		return s.softDeleteOrganization(ctx, req.Actor, req.ScopeID)
	case valueobject.ScopeTypeTeam:
		return s.softDeleteTeam(ctx, req.Actor, req.ScopeID)
	case valueobject.ScopeTypeProject:
		return s.softDeleteProject(ctx, req.Actor, req.ScopeID)
	default:
		return fmt.Errorf("invalid scope type for delete: %s", req.ScopeType)
	}
}

// softDeleteOrganization 组织级联：团队、项目、任务和所有层级的成员关系
func (s *TenancyServiceImpl) softDeleteOrganization(ctx context.Context, actor string, scopeID string) error {
	orgID, err := parseNumericID(scopeID)
	if err != nil {
		return err
	}
	org, err := s.orgRepo.GetOrganizationByID(ctx, orgID, false)
	if err != nil {
		return err
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// 1. 收集下层实体ID（有界遍历：组织→团队→项目→任务）
		var teamIDs []string
		if err := tx.Model(&entity.Team{}).Where("org_id = ?", org.ID).Pluck("team_id", &teamIDs).Error; err != nil {
			return fmt.Errorf("failed to collect teams: %w", err)
		}
		var projectIDs []uint
		if err := tx.Model(&entity.Project{}).Where("org_id = ?", org.ID).Pluck("id", &projectIDs).Error; err != nil {
			return fmt.Errorf("failed to collect projects: %w", err)
		}

		// 2. 自底向上软删除
		taskCount, err := s.deleteTasksTx(tx, projectIDs)
		if err != nil {
			return err
		}
		projectCount := int64(0)
		if len(projectIDs) > 0 {
			result := tx.Where("id IN ?", projectIDs).Delete(&entity.Project{})
			if result.Error != nil {
				return fmt.Errorf("failed to soft-delete projects: %w", result.Error)
			}
			projectCount = result.RowsAffected
		}
		teamCount := int64(0)
		if len(teamIDs) > 0 {
			result := tx.Where("team_id IN ?", teamIDs).Delete(&entity.Team{})
			if result.Error != nil {
				return fmt.Errorf("failed to soft-delete teams: %w", result.Error)
			}
			teamCount = result.RowsAffected
		}
		if err := tx.Delete(&entity.Organization{}, org.ID).Error; err != nil {
			return fmt.Errorf("failed to soft-delete organization: %w", err)
		}

		// 3. 成员关系本身没有独立审计价值，硬删除
		memberCount := int64(0)
		if len(projectIDs) > 0 {
			result := tx.Where("project_id IN ?", projectIDs).Delete(&entity.ProjectMember{})
			if result.Error != nil {
				return fmt.Errorf("failed to delete project members: %w", result.Error)
			}
			memberCount += result.RowsAffected
		}
		if len(teamIDs) > 0 {
			result := tx.Where("team_id IN ?", teamIDs).Delete(&entity.TeamMember{})
			if result.Error != nil {
				return fmt.Errorf("failed to delete team members: %w", result.Error)
			}
			memberCount += result.RowsAffected
		}
		result := tx.Where("org_id = ?", org.ID).Delete(&entity.OrganizationMember{})
		if result.Error != nil {
			return fmt.Errorf("failed to delete organization members: %w", result.Error)
		}
		memberCount += result.RowsAffected

		// 4. 每种受影响的实体类型一条审计
		if err := s.recordCascadeTx(tx, org.ID, actor, entity.AuditResourceOrganization, scopeID, 1); err != nil {
			return err
		}
		if err := s.recordCascadeTx(tx, org.ID, actor, entity.AuditResourceTeam, scopeID, teamCount); err != nil {
			return err
		}
		if err := s.recordCascadeTx(tx, org.ID, actor, entity.AuditResourceProject, scopeID, projectCount); err != nil {
			return err
		}
		if err := s.recordCascadeTx(tx, org.ID, actor, entity.AuditResourceTask, scopeID, taskCount); err != nil {
			return err
		}
		return s.recordCascadeTx(tx, org.ID, actor, entity.AuditResourceMembership, scopeID, memberCount)
	})
}

// softDeleteTeam 团队级联：仅该团队的项目与任务
func (s *TenancyServiceImpl) softDeleteTeam(ctx context.Context, actor string, teamID string) error {
	team, err := s.teamRepo.GetTeamByID(ctx, teamID, false)
	if err != nil {
		return err
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var projectIDs []uint
		if err := tx.Model(&entity.Project{}).Where("team_id = ?", team.ID).Pluck("id", &projectIDs).Error; err != nil {
			return fmt.Errorf("failed to collect projects: %w", err)
		}

		taskCount, err := s.deleteTasksTx(tx, projectIDs)
		if err != nil {
			return err
		}
		projectCount := int64(0)
		if len(projectIDs) > 0 {
			result := tx.Where("id IN ?", projectIDs).Delete(&entity.Project{})
			if result.Error != nil {
				return fmt.Errorf("failed to soft-delete projects: %w", result.Error)
			}
			projectCount = result.RowsAffected
		}
		if err := tx.Where("team_id = ?", team.ID).Delete(&entity.Team{}).Error; err != nil {
			return fmt.Errorf("failed to soft-delete team: %w", err)
		}

		if err := s.recordCascadeTx(tx, team.OrgID, actor, entity.AuditResourceTeam, team.ID, 1); err != nil {
			return err
		}
		if err := s.recordCascadeTx(tx, team.OrgID, actor, entity.AuditResourceProject, team.ID, projectCount); err != nil {
			return err
		}
		return s.recordCascadeTx(tx, team.OrgID, actor, entity.AuditResourceTask, team.ID, taskCount)
	})
}

// softDeleteProject 项目级联：仅该项目的任务
func (s *TenancyServiceImpl) softDeleteProject(ctx context.Context, actor string, scopeID string) error {
	projectID, err := parseNumericID(scopeID)
	if err != nil {
		return err
	}
	project, err := s.projectRepo.GetProjectByID(ctx, projectID, false)
	if err != nil {
		return err
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		taskCount, err := s.deleteTasksTx(tx, []uint{project.ID})
		if err != nil {
			return err
		}
		if err := tx.Delete(&entity.Project{}, project.ID).Error; err != nil {
			return fmt.Errorf("failed to soft-delete project: %w", err)
		}

		if err := s.recordCascadeTx(tx, project.OrgID, actor, entity.AuditResourceProject, scopeID, 1); err != nil {
			return err
		}
		return s.recordCascadeTx(tx, project.OrgID, actor, entity.AuditResourceTask, scopeID, taskCount)
	})
}

// deleteTasksTx 软删除指定项目下的所有任务
func (s *TenancyServiceImpl) deleteTasksTx(tx *gorm.DB, projectIDs []uint) (int64, error) {
	if len(projectIDs) == 0 {
		return 0, nil
	}
	result := tx.Where("project_id IN ?", projectIDs).Delete(&entity.Task{})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to soft-delete tasks: %w", result.Error)
	}
	return result.RowsAffected, nil
}

// recordCascadeTx 记录级联删除的审计（count为0时跳过）
func (s *TenancyServiceImpl) recordCascadeTx(tx *gorm.DB, orgID uint, actor, resourceType, rootID string, count int64) error {
	if count == 0 {
		return nil
	}
	action := entity.AuditActionSoftDelete
	if resourceType == entity.AuditResourceMembership {
		action = entity.AuditActionRemoveMember
	}
	return s.audit.Record(tx, &entity.AuditLog{
		OrgID:        orgID,
		ActorID:      actor,
		ResourceType: resourceType,
		ResourceID:   rootID,
		Action:       action,
		Metadata:     datatypes.JSONMap{"cascade_count": count},
	})
}

// requireAllowed 执行权限检查，拒绝时返回ErrPermissionDenied
func (s *TenancyServiceImpl) requireAllowed(ctx context.Context, actor string, action valueobject.Action, scopeType valueobject.ScopeType, scopeID string) error {
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
