package router

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"task-platform/internal/config"
	"task-platform/internal/domain/entity"
	"task-platform/internal/observability/metrics"
)

func setupTestRouter(t *testing.T) (*gin.Engine, *gorm.DB) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	metrics.InitRegistry()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	// `:memory:` is per-connection, keep the pool at one
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

	cfg := &config.Config{Engine: config.DefaultEngineConfig()}
	return Setup(db, cfg), db
}

// signToken 用服务端同一个密钥签发测试JWT
func signToken(t *testing.T, userID string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": userID,
		"exp":     time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte(config.GetJWTSecret()))
	require.NoError(t, err)
	return signed
}

func doJSON(t *testing.T, r *gin.Engine, method, path, userID string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, path, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if userID != "" {
		req.Header.Set("Authorization", "Bearer "+signToken(t, userID))
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAPI_RequiresAuthentication(t *testing.T) {
	r, _ := setupTestRouter(t)

	w := doJSON(t, r, "GET", "/api/v1/organizations", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// 伪造签名的token同样被拒绝
	req, _ := http.NewRequest("GET", "/api/v1/organizations", nil)
	req.Header.Set("Authorization", "Bearer not.a.token")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAPI_CreateOrganization(t *testing.T) {
	r, _ := setupTestRouter(t)

	w := doJSON(t, r, "POST", "/api/v1/organizations", "alice@acme.io", gin.H{
		"name": "Acme", "slug": "acme",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	var org entity.Organization
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &org))
	assert.Equal(t, "Acme", org.Name)
	assert.NotZero(t, org.ID)

	// slug重复返回409
	w = doJSON(t, r, "POST", "/api/v1/organizations", "bob@acme.io", gin.H{
		"name": "Acme Two", "slug": "acme",
	})
	assert.Equal(t, http.StatusConflict, w.Code)

	// 缺字段返回400
	w = doJSON(t, r, "POST", "/api/v1/organizations", "alice@acme.io", gin.H{"name": "NoSlug"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAPI_PermissionEnforcement(t *testing.T) {
	r, _ := setupTestRouter(t)

	w := doJSON(t, r, "POST", "/api/v1/organizations", "alice@acme.io", gin.H{
		"name": "Acme", "slug": "acme",
	})
	require.Equal(t, http.StatusCreated, w.Code)
	var org entity.Organization
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &org))
	base := fmt.Sprintf("/api/v1/organizations/%d", org.ID)

	// 非成员读组织被拒绝
	w = doJSON(t, r, "GET", base, "mallory@evil.io", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	// 把bob加为普通成员后，他能读但不能建团队
	w = doJSON(t, r, "POST", base+"/members", "alice@acme.io", gin.H{
		"user_id": "bob@acme.io", "role": "MEMBER",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	w = doJSON(t, r, "GET", base, "bob@acme.io", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, r, "POST", base+"/teams", "bob@acme.io", gin.H{"name": "Shadow"})
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestAPI_InvitationFlow(t *testing.T) {
	r, _ := setupTestRouter(t)

	w := doJSON(t, r, "POST", "/api/v1/organizations", "alice@acme.io", gin.H{
		"name": "Acme", "slug": "acme",
	})
	require.Equal(t, http.StatusCreated, w.Code)
	var org entity.Organization
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &org))

	// 邀请bob入组织
	w = doJSON(t, r, "POST", fmt.Sprintf("/api/v1/organizations/%d/invitations", org.ID), "alice@acme.io", gin.H{
		"email": "bob@acme.io", "role": "MEMBER",
	})
	require.Equal(t, http.StatusCreated, w.Code)
	var invitation entity.Invitation
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &invitation))
	require.NotEmpty(t, invitation.Token)

	// 别人拿token接受：403
	w = doJSON(t, r, "POST", "/api/v1/invitations/accept", "mallory@evil.io", gin.H{
		"token": invitation.Token,
	})
	assert.Equal(t, http.StatusForbidden, w.Code)

	// bob接受：200，之后能读组织
	w = doJSON(t, r, "POST", "/api/v1/invitations/accept", "bob@acme.io", gin.H{
		"token": invitation.Token,
	})
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, r, "GET", fmt.Sprintf("/api/v1/organizations/%d", org.ID), "bob@acme.io", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	// 二次接受：409
	w = doJSON(t, r, "POST", "/api/v1/invitations/accept", "bob@acme.io", gin.H{
		"token": invitation.Token,
	})
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestAPI_ExpiredInvitationGone(t *testing.T) {
	r, db := setupTestRouter(t)

	w := doJSON(t, r, "POST", "/api/v1/organizations", "alice@acme.io", gin.H{
		"name": "Acme", "slug": "acme",
	})
	require.Equal(t, http.StatusCreated, w.Code)
	var org entity.Organization
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &org))

	w = doJSON(t, r, "POST", fmt.Sprintf("/api/v1/organizations/%d/invitations", org.ID), "alice@acme.io", gin.H{
		"email": "bob@acme.io", "role": "MEMBER",
	})
	require.Equal(t, http.StatusCreated, w.Code)
	var invitation entity.Invitation
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &invitation))

	require.NoError(t, db.Model(&entity.Invitation{}).
		Where("invitation_id = ?", invitation.ID).
		Update("expires_at", time.Now().Add(-time.Hour)).Error)

	w = doJSON(t, r, "POST", "/api/v1/invitations/accept", "bob@acme.io", gin.H{
		"token": invitation.Token,
	})
	assert.Equal(t, http.StatusGone, w.Code)
}

func TestAPI_PermissionCheckEndpoint(t *testing.T) {
	r, _ := setupTestRouter(t)

	w := doJSON(t, r, "POST", "/api/v1/organizations", "alice@acme.io", gin.H{
		"name": "Acme", "slug": "acme",
	})
	require.Equal(t, http.StatusCreated, w.Code)
	var org entity.Organization
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &org))

	w = doJSON(t, r, "POST", "/api/v1/permissions/check", "alice@acme.io", gin.H{
		"action":     "DELETE",
		"scope_type": "ORGANIZATION",
		"scope_id":   fmt.Sprintf("%d", org.ID),
	})
	require.Equal(t, http.StatusOK, w.Code)

	var decision map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &decision))
	assert.Equal(t, true, decision["allowed"])
	assert.Equal(t, "ORGANIZATION", decision["grant_scope"])
}

func TestHealthAndMetricsEndpoints(t *testing.T) {
	r, _ := setupTestRouter(t)

	req, _ := http.NewRequest("GET", "/health/live", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	req, _ = http.NewRequest("GET", "/metrics", nil)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}
