package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// Health reports liveness and verifies the database connection.
func Health(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		status := http.StatusOK
		dbStatus := "ok"

		sqlDB, err := db.DB()
		if err == nil {
			err = sqlDB.PingContext(c.Request.Context())
		}
		if err != nil {
			status = http.StatusServiceUnavailable
			dbStatus = "unavailable"
		}

		c.JSON(status, gin.H{
			"success":    status == http.StatusOK,
			"database":   dbStatus,
			"checked_at": time.Now().UTC(),
		})
	}
}
