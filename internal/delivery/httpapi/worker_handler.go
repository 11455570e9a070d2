package httpapi

import (
	"net/http"
	"strconv"

	"attendance-bot/internal/app/service"
	"attendance-bot/internal/domain"

	"github.com/gin-gonic/gin"
)

type WorkerHandler struct {
	Workers *service.WorkerService
}

type workerBody struct {
	Name      string       `json:"name"`
	ChatID    int64        `json:"chat_id"`
	Role      domain.Role  `json:"role"`
	Shift     domain.Shift `json:"shift"`
	ManagerID int64        `json:"manager_id"`
}

func (h *WorkerHandler) List(c *gin.Context) {
	list, err := h.Workers.GetAllWorkers(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "data": list})
}

// Put заводит работника или обновляет его карточку. is_working не принимается.
func (h *WorkerHandler) Put(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "validation", "detail": "bad worker id"})
		return
	}
	var body workerBody
	if err := c.ShouldBindJSON(&body); err != nil {
		badBody(c, err)
		return
	}
	if body.Role == domain.RoleAdmin && actor(c).Role != domain.RoleAdmin {
		c.JSON(http.StatusForbidden, gin.H{"error": "forbidden", "detail": "only admins can grant admin role"})
		return
	}
	ctx := c.Request.Context()
	err = h.Workers.CreateOrUpdateWorker(ctx, domain.Worker{
		ID:        id,
		Name:      body.Name,
		ChatID:    body.ChatID,
		Role:      body.Role,
		Shift:     body.Shift,
		ManagerID: body.ManagerID,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	w, err := h.Workers.GetWorkerByID(ctx, id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "data": w})
}
