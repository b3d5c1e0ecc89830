package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/procurehub/core/internal/services"
)

// LogHandler exposes the operation log
type LogHandler struct {
	logService *services.LogService
}

// NewLogHandler creates a new LogHandler instance
func NewLogHandler(logService *services.LogService) *LogHandler {
	return &LogHandler{logService: logService}
}

// ListLogs returns log entries matching the query filters
// GET /api/logs
func (h *LogHandler) ListLogs(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))

	opts := services.LogListOptions{
		Level:  c.Query("level"),
		Module: c.Query("module"),
		Page:   page,
		Limit:  limit,
	}
	if since := c.Query("since"); since != "" {
		if parsed, err := time.Parse(time.RFC3339, since); err == nil {
			opts.Since = &parsed
		}
	}

	result, err := h.logService.ListLogs(opts)
	if err != nil {
		internalError(c, "Failed to retrieve logs")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"logs":  result.Logs,
			"total": result.Total,
			"page":  result.Page,
			"limit": result.Limit,
		},
	})
}
