package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	JWT      JWTConfig
	Engine   EngineConfig
}

type ServerConfig struct {
	Port string
	Env  string
}

type DatabaseConfig struct {
	Host        string
	Port        string
	Name        string
	User        string
	Password    string
	SSLMode     string
	SSLRootCert string
}

type JWTConfig struct {
	Secret string
}

// EngineConfig 授权引擎配置
// 显式结构体在构造时传入，不依赖进程级可变全局状态，
// 测试可以在同一进程内运行多个相互隔离的引擎实例
type EngineConfig struct {
	// InvitationTTL 邀请默认有效期
	InvitationTTL time.Duration
	// ProtectLastOwner 是否禁止移除组织最后一个OWNER
	ProtectLastOwner bool
}

func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Port: getEnv("SERVER_PORT", "8080"),
			Env:  getEnv("ENV", "development"),
		},
		Database: DatabaseConfig{
			Host:        getEnv("DB_HOST", "localhost"),
			Port:        getEnv("DB_PORT", "5432"),
			Name:        getEnv("DB_NAME", "task_platform"),
			User:        getEnv("DB_USER", "postgres"),
			Password:    getEnv("DB_PASSWORD", "postgres"),
			SSLMode:     getEnv("DB_SSLMODE", "disable"),
			SSLRootCert: getEnv("DB_SSLROOTCERT", ""),
		},
		JWT: JWTConfig{
			Secret: GetJWTSecret(),
		},
		Engine: DefaultEngineConfig(),
	}
}

// DefaultEngineConfig 返回引擎默认配置（可被环境变量覆盖）
func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		InvitationTTL:    time.Duration(getEnvInt("INVITATION_TTL_HOURS", 168)) * time.Hour,
		ProtectLastOwner: getEnvBool("PROTECT_LAST_OWNER", true),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}
