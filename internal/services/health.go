package services

import (
	"context"
	"fmt"

	"github.com/localnerve/jam-build-admindb/internal/config"
	"github.com/localnerve/jam-build-admindb/internal/utils"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type HealthCheckResult struct {
	Status       string            `json:"status"`
	Database     string            `json:"database"`
	Authorizer   string            `json:"authorizer"`
	Redis        string            `json:"redis,omitempty"`
	Tables       int               `json:"tables"`
	Details      map[string]string `json:"details,omitempty"`
	ErrorMessage string            `json:"error,omitempty"`
}

// HealthCheck pings the database and the Authorizer. tables is the number of
// navigable registry tables.
func HealthCheck(ctx context.Context, cfg *config.Config, db *gorm.DB, tables int, log *zap.Logger) HealthCheckResult {
	result := HealthCheckResult{
		Status:  "healthy",
		Tables:  tables,
		Details: make(map[string]string),
	}
	fail := func(msg string) {
		result.Status = "unhealthy"
		if result.ErrorMessage == "" {
			result.ErrorMessage = msg
		} else {
			result.ErrorMessage += "; " + msg
		}
		log.Warn("health check failed", zap.String("reason", msg))
	}

	// Check database connectivity
	sqlDB, err := db.DB()
	if err != nil {
		result.Database = "error"
		result.Details["database_error"] = err.Error()
		fail(fmt.Sprintf("Database connection error: %v", err))
	} else if err := sqlDB.PingContext(ctx); err != nil {
		result.Database = "unreachable"
		result.Details["database_ping_error"] = err.Error()
		fail(fmt.Sprintf("Database ping failed: %v", err))
	} else {
		result.Database = "ok"
		result.Details["database_type"] = cfg.DBType
		result.Details["database_name"] = cfg.DBAppDatabase
	}

	// Check Authorizer connectivity
	if err := utils.PingAuthorizer(ctx, cfg.AuthzURL); err != nil {
		result.Authorizer = "unreachable"
		result.Details["authorizer_error"] = err.Error()
		fail(fmt.Sprintf("Authorizer ping failed: %v", err))
	} else {
		result.Authorizer = "ok"
		result.Details["authorizer_url"] = cfg.AuthzURL
	}

	// Notifications degrade to the log when the broker is down
	if cfg.RedisURL != "" {
		if err := utils.PingRedis(ctx, cfg.RedisURL); err != nil {
			result.Redis = "unreachable"
			result.Details["redis_error"] = err.Error()
			log.Warn("redis unreachable", zap.Error(err))
		} else {
			result.Redis = "ok"
		}
	}

	if result.Status == "healthy" {
		log.Debug("health check passed")
	}
	return result
}
