package services

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/localnerve/docsdb/internal/config"
	"github.com/localnerve/docsdb/internal/utils"
)

// HealthCheckResult represents the result of a health check
type HealthCheckResult struct {
	Status       string            `json:"status"`
	Database     string            `json:"database"`
	Authorizer   string            `json:"authorizer"`
	Storage      string            `json:"storage"`
	Details      map[string]string `json:"details,omitempty"`
	ErrorMessage string            `json:"error,omitempty"`
}

func (r *HealthCheckResult) fail(component, message string, err error) {
	r.Status = "unhealthy"
	r.Details[component+"_error"] = err.Error()
	msg := fmt.Sprintf("%s: %v", message, err)
	if r.ErrorMessage == "" {
		r.ErrorMessage = msg
	} else {
		r.ErrorMessage += "; " + msg
	}
	logrus.WithField("component", component).WithError(err).Warn("health check failed")
}

// HealthCheck performs a comprehensive health check of the service
func HealthCheck(cfg *config.Config, db *gorm.DB) HealthCheckResult {
	result := HealthCheckResult{
		Status:  "healthy",
		Details: make(map[string]string),
	}

	// Check database connectivity
	sqlDB, err := db.DB()
	if err != nil {
		result.Database = "error"
		result.fail("database", "Database connection error", err)
	} else if err := sqlDB.Ping(); err != nil {
		result.Database = "unreachable"
		result.fail("database", "Database ping failed", err)
	} else {
		result.Database = "ok"
		result.Details["database_type"] = cfg.DBType
		result.Details["database_name"] = cfg.DBDatabase
	}

	// Check Authorizer connectivity
	if err := utils.PingAuthorizer(cfg.AuthzURL); err != nil {
		result.Authorizer = "unreachable"
		result.fail("authorizer", "Authorizer ping failed", err)
	} else {
		result.Authorizer = "ok"
		result.Details["authorizer_url"] = cfg.AuthzURL
	}

	// S3 endpoints are probed; the local media root only needs to exist
	switch {
	case cfg.StorageBackend == "s3" && cfg.S3Endpoint != "":
		if err := utils.PingStorage(cfg.S3Endpoint); err != nil {
			result.Storage = "unreachable"
			result.fail("storage", "Storage ping failed", err)
		} else {
			result.Storage = "ok"
		}
	default:
		result.Storage = "ok"
	}
	result.Details["storage_backend"] = cfg.StorageBackend

	if result.Status == "healthy" {
		logrus.Debug("health check passed - all systems operational")
	}

	return result
}
