package httpapi

import (
	"errors"
	"net/http"

	"attendance-bot/internal/domain"

	"github.com/gin-gonic/gin"
)

type AttendanceHandler struct {
	Attendance domain.AttendanceService
}

func NewAttendanceHandler(svc domain.AttendanceService) *AttendanceHandler {
	return &AttendanceHandler{Attendance: svc}
}

func writeError(c *gin.Context, err error) {
	status, kind := http.StatusInternalServerError, "internal"
	switch {
	case errors.Is(err, domain.ErrValidation):
		status, kind = http.StatusBadRequest, "validation"
	case errors.Is(err, domain.ErrNotFound):
		status, kind = http.StatusNotFound, "not_found"
	case errors.Is(err, domain.ErrAlreadyOpen):
		status, kind = http.StatusConflict, "already_open"
	case errors.Is(err, domain.ErrConflict):
		status, kind = http.StatusConflict, "conflict"
	}
	c.JSON(status, gin.H{"error": kind, "detail": err.Error()})
}

func badBody(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body", "detail": err.Error()})
}

func (h *AttendanceHandler) StepIn(c *gin.Context) {
	var req domain.StepInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badBody(c, err)
		return
	}
	a := actor(c)
	if req.EmployeeID == 0 {
		req.EmployeeID = a.ID
	}
	if a.Role == domain.RoleWorker {
		if req.EmployeeID != a.ID {
			c.JSON(http.StatusForbidden, gin.H{"error": "forbidden", "detail": "workers can only step in themselves"})
			return
		}
		// менеджер берётся из справочника
		req.ManagerID = 0
	}
	req.Actor = a.Creator()
	res, err := h.Attendance.StepIn(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"status": "ok", "data": res})
}

func (h *AttendanceHandler) StepOut(c *gin.Context) {
	var req domain.StepOutRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			badBody(c, err)
			return
		}
	}
	req.RecordID = c.Param("id")
	if _, ok := h.owned(c, req.RecordID); !ok {
		return
	}
	rec, err := h.Attendance.StepOut(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "data": rec})
}

func (h *AttendanceHandler) Update(c *gin.Context) {
	var p domain.RecordPatch
	if err := c.ShouldBindJSON(&p); err != nil {
		badBody(c, err)
		return
	}
	rec, err := h.Attendance.Update(c.Request.Context(), c.Param("id"), p)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "data": rec})
}

func (h *AttendanceHandler) Delete(c *gin.Context) {
	rec, err := h.Attendance.Delete(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "data": rec})
}

func (h *AttendanceHandler) Get(c *gin.Context) {
	rec, ok := h.owned(c, c.Param("id"))
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "data": rec})
}

// owned загружает запись и пускает работника только к его собственным записям.
// При отказе ответ уже записан.
func (h *AttendanceHandler) owned(c *gin.Context, id string) (domain.Record, bool) {
	rec, err := h.Attendance.Get(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return rec, false
	}
	if a := actor(c); a.Role == domain.RoleWorker && rec.EmployeeID != a.ID {
		c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
		return rec, false
	}
	return rec, true
}

// List: сводка за сутки: ?date=2006-01-02&shift=morning
func (h *AttendanceHandler) List(c *gin.Context) {
	sum, err := h.Attendance.Summary(c.Request.Context(), c.Query("date"), domain.Shift(c.Query("shift")))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "data": sum})
}

func (h *AttendanceHandler) BulkStepIn(c *gin.Context) {
	var req domain.BulkStepInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badBody(c, err)
		return
	}
	req.Actor = actor(c).Creator()
	res, err := h.Attendance.BulkStepIn(c.Request.Context(), req)
	if errors.Is(err, domain.ErrPartialBatch) {
		c.JSON(http.StatusMultiStatus, gin.H{"status": "partial", "data": res, "detail": err.Error()})
		return
	}
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "data": res})
}

func (h *AttendanceHandler) BulkUpdate(c *gin.Context) {
	var req domain.BulkUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badBody(c, err)
		return
	}
	recs, err := h.Attendance.BulkUpdate(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "data": recs, "count": len(recs)})
}
