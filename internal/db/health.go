package db

import (
	"context"
	"time"

	"gorm.io/gorm"
)

type HealthReport struct {
	Healthy bool           `json:"healthy"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

// Health runs a trivial query against the database.
func Health(ctx context.Context, gdb *gorm.DB) HealthReport {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	start := time.Now()
	var one int
	if err := gdb.WithContext(ctx).Raw("SELECT 1").Scan(&one).Error; err != nil {
		return HealthReport{Healthy: false, Message: "Database health check failed"}
	}
	if one != 1 {
		return HealthReport{Healthy: false, Message: "Database query returned unexpected result"}
	}
	return HealthReport{
		Healthy: true,
		Message: "Database is healthy",
		Details: map[string]any{
			"dialect":   gdb.Dialector.Name(),
			"latencyMs": time.Since(start).Milliseconds(),
		},
	}
}
