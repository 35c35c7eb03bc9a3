package errors

import "errors"

// 引擎错误taxonomy
// 所有组件以哨兵错误返回业务失败，handler层统一翻译为HTTP状态码，
// 存储层的意外错误用fmt.Errorf("...: %w")包装后作为内部错误处理
var (
	// ErrPermissionDenied 主体在任何祖先层级都不具备所需角色
	ErrPermissionDenied = errors.New("permission denied")
	// ErrResourceNotFound 资源不存在或已被软删除
	ErrResourceNotFound = errors.New("resource not found")
	// ErrHierarchyViolation 子资源引用了不同祖先链上的父资源
	ErrHierarchyViolation = errors.New("hierarchy violation")
	// ErrDuplicateSlug 组织slug已存在
	ErrDuplicateSlug = errors.New("slug already exists")
	// ErrDuplicateName 同一父作用域下名称已存在
	ErrDuplicateName = errors.New("name already exists")
	// ErrDuplicateMembership 成员关系已存在
	ErrDuplicateMembership = errors.New("already a member")
	// ErrNotAMember 成员关系不存在
	ErrNotAMember = errors.New("not a member")
	// ErrInvalidRole 角色在目标作用域下不合法
	ErrInvalidRole = errors.New("invalid role for scope")
	// ErrLastOwner 不允许移除组织最后一个OWNER
	ErrLastOwner = errors.New("cannot remove the last owner of an organization")
	// ErrInvitationExpired 邀请已过期
	ErrInvitationExpired = errors.New("invitation expired")
	// ErrInvitationAlreadyAccepted 邀请已被接受
	ErrInvitationAlreadyAccepted = errors.New("invitation already accepted")
	// ErrInvitationTerminal 邀请已处于终态
	ErrInvitationTerminal = errors.New("invitation already terminal")
	// ErrInvitationNotAuthorized 仅邀请人或祖先作用域管理员可取消邀请
	ErrInvitationNotAuthorized = errors.New("not authorized to manage this invitation")
	// ErrConcurrencyConflict 并发写入在唯一约束上落败
	ErrConcurrencyConflict = errors.New("concurrency conflict")
)
