package database

import (
	"fmt"
	"time"

	"task-platform/internal/config"
	"task-platform/internal/domain/entity"
	"task-platform/internal/observability/metrics"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func Initialize(cfg config.DatabaseConfig) (*gorm.DB, error) {
	dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=UTC",
		cfg.Host, cfg.User, cfg.Password, cfg.Name, cfg.Port, cfg.SSLMode)
	if cfg.SSLRootCert != "" {
		dsn += fmt.Sprintf(" sslrootcert=%s", cfg.SSLRootCert)
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		TranslateError: true,
	})
	if err != nil {
		return nil, err
	}

	if err := Migrate(db); err != nil {
		return nil, err
	}

	// Register observability GORM callbacks
	metrics.RegisterGORMCallbacks(db)

	// Start DB connection stats collector
	sqlDB, err := db.DB()
	if err == nil {
		metrics.StartDBStatsCollector(sqlDB, 15*time.Second)
	}

	return db, nil
}

// Migrate 迁移全部领域表
// 成员表上的复合唯一索引由AutoMigrate建出，它是并发成员写入的仲裁机制
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&entity.Organization{},
		&entity.Team{},
		&entity.Project{},
		&entity.Task{},
		&entity.OrganizationMember{},
		&entity.TeamMember{},
		&entity.ProjectMember{},
		&entity.Invitation{},
		&entity.AuditLog{},
	)
}
