package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	domainerrors "task-platform/internal/domain/errors"
)

// respondError 将领域错误映射为HTTP状态码
// 拒绝(403)和不存在(404)是不同的信号：作用域链上的实体找不到
// 统一报404，不向无权限的调用方泄露层级结构
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domainerrors.ErrPermissionDenied),
		errors.Is(err, domainerrors.ErrInvitationNotAuthorized):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, domainerrors.ErrResourceNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, domainerrors.ErrDuplicateSlug),
		errors.Is(err, domainerrors.ErrDuplicateName),
		errors.Is(err, domainerrors.ErrDuplicateMembership),
		errors.Is(err, domainerrors.ErrInvitationAlreadyAccepted),
		errors.Is(err, domainerrors.ErrLastOwner),
		errors.Is(err, domainerrors.ErrConcurrencyConflict):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, domainerrors.ErrInvitationExpired),
		errors.Is(err, domainerrors.ErrInvitationTerminal):
		c.JSON(http.StatusGone, gin.H{"error": err.Error()})
	case errors.Is(err, domainerrors.ErrInvalidRole),
		errors.Is(err, domainerrors.ErrHierarchyViolation),
		errors.Is(err, domainerrors.ErrNotAMember):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

// currentUserID 从context取出JWTAuth写入的用户ID
func currentUserID(c *gin.Context) (string, bool) {
	userID, exists := c.Get("user_id")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return "", false
	}
	return userID.(string), true
}
