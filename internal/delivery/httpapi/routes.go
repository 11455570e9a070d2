package httpapi

import (
	"net/http"

	"attendance-bot/internal/app/automation"
	"attendance-bot/internal/app/service"
	"attendance-bot/internal/domain"

	"github.com/gin-gonic/gin"
)

func NewRouter(svc domain.AttendanceService, workers *service.WorkerService, engine *automation.Engine) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), RequestLog())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	att := NewAttendanceHandler(svc)
	api := r.Group("/", ActorFromHeaders())
	api.POST("/attendance/step-in", att.StepIn)
	api.POST("/attendance/:id/step-out", att.StepOut)
	api.GET("/attendance/:id", att.Get)

	mgr := api.Group("/", RequireManager())
	mgr.GET("/attendance", att.List)
	mgr.PATCH("/attendance/:id", att.Update)
	mgr.DELETE("/attendance/:id", att.Delete)
	mgr.POST("/attendance/bulk/step-in", att.BulkStepIn)
	mgr.PATCH("/attendance/bulk", att.BulkUpdate)

	wh := &WorkerHandler{Workers: workers}
	mgr.GET("/workers", wh.List)
	mgr.PUT("/workers/:id", wh.Put)

	auto := &AutomationHandler{Engine: engine}
	mgr.POST("/automation/auto-close", auto.AutoClose)
	mgr.POST("/automation/auto-open", auto.AutoOpen)
	return r
}
