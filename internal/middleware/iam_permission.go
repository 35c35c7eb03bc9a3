package middleware

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"task-platform/internal/application/service"
	domainerrors "task-platform/internal/domain/errors"
	"task-platform/internal/domain/valueobject"
)

// IAMPermissionMiddleware 权限检查中间件
type IAMPermissionMiddleware struct {
	permissionChecker service.PermissionChecker
}

// NewIAMPermissionMiddleware 创建权限中间件
func NewIAMPermissionMiddleware(checker service.PermissionChecker) *IAMPermissionMiddleware {
	return &IAMPermissionMiddleware{permissionChecker: checker}
}

// RequirePermission 要求特定权限的中间件工厂函数
// scopeParam是路由里承载作用域ID的路径参数名
// 用法: router.GET("/orgs/:orgId", iamMiddleware.RequirePermission("READ", "ORGANIZATION", "orgId"))
func (m *IAMPermissionMiddleware) RequirePermission(
	action string,
	scopeType string,
	scopeParam string,
) gin.HandlerFunc {
	return func(c *gin.Context) {
		// 1. 获取用户ID（JWTAuth已写入）
		userID, exists := c.Get("user_id")
		if !exists {
			c.JSON(http.StatusUnauthorized, gin.H{
				"code":      401,
				"message":   "User not authenticated",
				"timestamp": time.Now(),
			})
			c.Abort()
			return
		}

		// 2. 解析action和scope_type
		act, err := valueobject.ParseAction(action)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"code":      400,
				"message":   "Invalid action",
				"timestamp": time.Now(),
			})
			c.Abort()
			return
		}
		st, err := valueobject.ParseScopeType(scopeType)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"code":      400,
				"message":   "Invalid scope type",
				"timestamp": time.Now(),
			})
			c.Abort()
			return
		}

		// 3. 从路径参数获取scope_id
		scopeID := c.Param(scopeParam)
		if scopeID == "" {
			scopeID = c.Query("scope_id")
		}
		if scopeID == "" {
			c.JSON(http.StatusBadRequest, gin.H{
				"code":      400,
				"message":   "Missing scope id",
				"timestamp": time.Now(),
			})
			c.Abort()
			return
		}

		// 4. 检查权限
		decision, err := m.permissionChecker.Check(c.Request.Context(), &service.CheckRequest{
			PrincipalID: userID.(string),
			Action:      act,
			ScopeType:   st,
			ScopeID:     scopeID,
		})
		if err != nil {
			respondCheckError(c, err)
			return
		}

		// 5. 判断是否允许访问
		if !decision.Allowed {
			c.JSON(http.StatusForbidden, gin.H{
				"code":      403,
				"message":   "Permission denied: " + decision.Reason,
				"timestamp": time.Now(),
			})
			c.Abort()
			return
		}

		c.Next()
	}
}

// respondCheckError 权限检查自身出错时的响应
// 作用域链上有实体不存在按404处理，避免泄露层级结构
func respondCheckError(c *gin.Context, err error) {
	if errors.Is(err, domainerrors.ErrResourceNotFound) {
		c.JSON(http.StatusNotFound, gin.H{
			"code":      404,
			"message":   "Resource not found",
			"timestamp": time.Now(),
		})
	} else {
		c.JSON(http.StatusInternalServerError, gin.H{
			"code":      500,
			"message":   "Permission check failed: " + err.Error(),
			"timestamp": time.Now(),
		})
	}
	c.Abort()
}
