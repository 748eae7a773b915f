package monitor

import (
	"bytes"
	"net/http"
	"os"
	"strconv"
	"time"

	"referral-tracking-api/config"

	"github.com/gin-gonic/gin"
)

var startedAt = time.Now()

// RegisterLogsRoute exposes the tail of the API log file. It is only mounted
// when MONITOR_TOKEN is set, and every request must carry ?token=.
func RegisterLogsRoute(router *gin.Engine) {
	token := os.Getenv("MONITOR_TOKEN")
	if token == "" {
		return
	}

	router.GET("/logs", func(c *gin.Context) {
		if c.Query("token") != token {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		logData, err := os.ReadFile(config.LogFilePath())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Unable to read log"})
			return
		}
		lines, _ := strconv.Atoi(c.DefaultQuery("lines", "500"))
		c.Data(http.StatusOK, "text/plain; charset=utf-8", tail(logData, lines))
	})

	router.GET("/status", func(c *gin.Context) {
		if c.Query("token") != token {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		status := gin.H{
			"uptime_seconds": int(time.Since(startedAt).Seconds()),
			"database":       "ok",
		}
		if sqlDB, err := config.DB.DB(); err != nil || sqlDB.PingContext(c.Request.Context()) != nil {
			status["database"] = "unreachable"
		}
		c.JSON(http.StatusOK, status)
	})
}

// tail returns the last n lines of data. n <= 0 returns everything.
func tail(data []byte, n int) []byte {
	if n <= 0 {
		return data
	}
	end := len(data)
	if end > 0 && data[end-1] == '\n' {
		end--
	}
	cut := end
	for i := 0; i < n; i++ {
		idx := bytes.LastIndexByte(data[:cut], '\n')
		if idx < 0 {
			return data
		}
		cut = idx
	}
	return data[cut+1:]
}
