package httpapi

import (
	"context"
	"net/http"

	"attendance-bot/internal/app/automation"

	"github.com/gin-gonic/gin"
)

// AutomationHandler позволяет оператору запустить задания вне расписания.
type AutomationHandler struct {
	Engine *automation.Engine
}

func (h *AutomationHandler) AutoClose(c *gin.Context) {
	h.run(c, h.Engine.AutoClose)
}

func (h *AutomationHandler) AutoOpen(c *gin.Context) {
	h.run(c, h.Engine.AutoOpen)
}

func (h *AutomationHandler) run(c *gin.Context, job func(context.Context) (automation.Report, error)) {
	rep, err := job(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "job failed", "detail": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "data": rep})
}
