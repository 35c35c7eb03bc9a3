package main

import (
	"context"
	"log"
	"time"

	"task-platform/internal/config"
	"task-platform/internal/database"
	"task-platform/internal/iam"
	"task-platform/internal/observability/health"
	"task-platform/internal/observability/metrics"
	"task-platform/internal/router"

	"github.com/gin-gonic/gin"
)

// @title Task Platform API
// @version 1.0
// @description Multi-tenant task platform with hierarchical authorization
// @termsOfService http://swagger.io/terms/

// @contact.name API Support
// @contact.email support@task-platform.io

// @license.name Apache 2.0
// @license.url http://www.apache.org/licenses/LICENSE-2.0.html

// @host localhost:8080
// @BasePath /
// @schemes http https

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

func main() {
	// 加载配置
	cfg := config.Load()

	// 初始化Prometheus注册表（必须先于数据库和路由）
	reg := metrics.InitRegistry()
	metrics.RegisterDBMetrics(reg)
	metrics.RegisterBusinessMetrics(reg)

	// 初始化数据库
	db, err := database.Initialize(cfg.Database)
	if err != nil {
		log.Fatal("Failed to initialize database:", err)
	}

	// 启动邀请过期清扫（幂等，多实例并发清扫安全）
	factory := iam.NewServiceFactory(db, cfg.Engine)
	sweepCtx, sweepCancel := context.WithCancel(context.Background())
	defer sweepCancel()
	go func() {
		ticker := time.NewTicker(1 * time.Minute)
		defer ticker.Stop()

		log.Println("Invitation expiry sweeper started (1 minute interval)")

		for {
			select {
			case <-sweepCtx.Done():
				return
			case <-ticker.C:
				swept, err := factory.GetInvitationService().ExpireSweep(sweepCtx)
				if err != nil {
					log.Printf("Error sweeping expired invitations: %v", err)
					continue
				}
				if swept > 0 {
					log.Printf("Expired %d stale invitations", swept)
				}
			}
		}
	}()

	// 设置Gin模式
	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// 设置路由并启动服务
	r := router.Setup(db, cfg)
	health.MarkStartupReady()

	log.Printf("Server starting on port %s", cfg.Server.Port)
	if err := r.Run(":" + cfg.Server.Port); err != nil {
		log.Fatal("Failed to start server:", err)
	}
}
