package domain

import (
	"context"
	"time"
)

type StepInRequest struct {
	EmployeeID int64   `json:"employee_id"`
	ManagerID  int64   `json:"manager_id"`
	Shift      *Shift  `json:"shift,omitempty"`
	Capture    Capture `json:"capture"`
	Note       string  `json:"note,omitempty"`
	Actor      Creator `json:"-"`
}

type StepInResult struct {
	Record   Record    `json:"record"`
	ShiftEnd time.Time `json:"shift_end"`
}

type StepOutRequest struct {
	RecordID string  `json:"-"`
	Capture  Capture `json:"capture"`
	Note     *string `json:"note,omitempty"`
}

type BulkStepInRequest struct {
	Shift   Shift   `json:"shift"`
	Capture Capture `json:"capture"`
	Note    string  `json:"note,omitempty"`
	Actor   Creator `json:"-"`
}

type BulkFailure struct {
	EmployeeID int64  `json:"employee_id"`
	Error      string `json:"error"`
}

// BulkStepInResult: три непересекающихся набора результатов.
type BulkStepInResult struct {
	Succeeded      []Record      `json:"succeeded"`
	Failed         []BulkFailure `json:"failed"`
	AlreadyWorking []int64       `json:"already_working"`
	SuccessCount   int           `json:"success_count"`
	FailureCount   int           `json:"failure_count"`
	AlreadyCount   int           `json:"already_working_count"`
}

type BulkUpdateRequest struct {
	IDs   []string    `json:"ids"`
	Patch RecordPatch `json:"patch"`
}

type Summary struct {
	Day          string   `json:"day"`
	Shift        Shift    `json:"shift,omitempty"`
	Records      []Record `json:"records"`
	Open         int      `json:"open"`
	TotalMinutes int      `json:"total_minutes"`
}

type AttendanceService interface {
	StepIn(ctx context.Context, req StepInRequest) (StepInResult, error)
	StepOut(ctx context.Context, req StepOutRequest) (Record, error)
	Update(ctx context.Context, id string, p RecordPatch) (Record, error)
	Delete(ctx context.Context, id string) (Record, error)
	Get(ctx context.Context, id string) (Record, error)
	Current(ctx context.Context, employeeID int64) (Record, error)
	Summary(ctx context.Context, day string, shift Shift) (Summary, error)
	BulkStepIn(ctx context.Context, req BulkStepInRequest) (BulkStepInResult, error)
	BulkUpdate(ctx context.Context, req BulkUpdateRequest) ([]Record, error)
}
