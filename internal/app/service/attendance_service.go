package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"attendance-bot/internal/domain"
	"attendance-bot/pkg/shiftcal"

	"github.com/google/uuid"
)

type AttendanceServiceImpl struct {
	Repo    domain.AttendanceRepo
	Workers domain.WorkerRepo
	Cal     *shiftcal.Calendar
	Async   *AsyncService
	Now     func() time.Time
	NewID   func() string
}

func NewAttendanceService(repo domain.AttendanceRepo, workers domain.WorkerRepo, cal *shiftcal.Calendar, async *AsyncService) *AttendanceServiceImpl {
	return &AttendanceServiceImpl{
		Repo:    repo,
		Workers: workers,
		Cal:     cal,
		Async:   async,
		Now:     time.Now,
		NewID:   uuid.NewString,
	}
}

var _ domain.AttendanceService = (*AttendanceServiceImpl)(nil)

func (s *AttendanceServiceImpl) StepIn(ctx context.Context, req domain.StepInRequest) (domain.StepInResult, error) {
	if req.EmployeeID == 0 {
		return domain.StepInResult{}, fmt.Errorf("%w: employee_id is required", domain.ErrValidation)
	}
	if req.Shift != nil && !req.Shift.Valid() {
		return domain.StepInResult{}, fmt.Errorf("%w: unknown shift %q", domain.ErrValidation, *req.Shift)
	}
	worker, err := s.Workers.GetByID(ctx, req.EmployeeID)
	if err != nil {
		return domain.StepInResult{}, fmt.Errorf("worker %d: %w", req.EmployeeID, err)
	}
	if err := s.ensureClosed(ctx, worker.ID); err != nil {
		return domain.StepInResult{}, err
	}

	now := s.Now()
	shift := s.Cal.Detect(now)
	if req.Shift != nil {
		shift = *req.Shift
	}
	managerID := req.ManagerID
	if managerID == 0 {
		managerID = worker.ManagerID
	}
	actor := req.Actor
	if actor.Type == "" {
		actor = worker.Creator()
	}
	rec := domain.Record{
		ID:            s.NewID(),
		EmployeeID:    worker.ID,
		ManagerID:     managerID,
		StepIn:        now,
		Shift:         shift,
		WorkDay:       s.Cal.Day(now),
		StepInCapture: req.Capture,
		Note:          req.Note,
		Origin:        domain.OriginManual,
		CreatedBy:     actor,
	}
	if err := s.Repo.Create(ctx, rec); err != nil {
		return domain.StepInResult{}, err
	}
	log.Printf("[stepin] worker=%d record=%s shift=%s", worker.ID, rec.ID, shift)
	return domain.StepInResult{Record: rec, ShiftEnd: s.Cal.End(now, shift)}, nil
}

// ensureClosed возвращает ErrAlreadyOpen, если у работника есть открытая запись.
func (s *AttendanceServiceImpl) ensureClosed(ctx context.Context, employeeID int64) error {
	_, err := s.Repo.FindOpen(ctx, employeeID)
	switch {
	case err == nil:
		return domain.ErrAlreadyOpen
	case errors.Is(err, domain.ErrNotFound):
		return nil
	default:
		return err
	}
}

func (s *AttendanceServiceImpl) StepOut(ctx context.Context, req domain.StepOutRequest) (domain.Record, error) {
	if req.RecordID == "" {
		return domain.Record{}, fmt.Errorf("%w: record id is required", domain.ErrValidation)
	}
	rec, err := s.Repo.Close(ctx, req.RecordID, s.Now(), req.Capture, req.Note)
	if err != nil {
		return domain.Record{}, err
	}
	log.Printf("[stepout] worker=%d record=%s total=%d", rec.EmployeeID, rec.ID, *rec.TotalTime)
	return rec, nil
}

func (s *AttendanceServiceImpl) Update(ctx context.Context, id string, p domain.RecordPatch) (domain.Record, error) {
	if p.Empty() {
		return domain.Record{}, fmt.Errorf("%w: nothing to update", domain.ErrValidation)
	}
	rec, err := s.Repo.Update(ctx, id, p)
	if err != nil {
		return domain.Record{}, err
	}
	log.Printf("[update] record=%s worker=%d open=%t", rec.ID, rec.EmployeeID, rec.Open())
	return rec, nil
}

func (s *AttendanceServiceImpl) Delete(ctx context.Context, id string) (domain.Record, error) {
	rec, err := s.Repo.Delete(ctx, id)
	if err != nil {
		return domain.Record{}, err
	}
	log.Printf("[delete] record=%s worker=%d was_open=%t", rec.ID, rec.EmployeeID, rec.Open())
	return rec, nil
}

func (s *AttendanceServiceImpl) Get(ctx context.Context, id string) (domain.Record, error) {
	return s.Repo.Get(ctx, id)
}

func (s *AttendanceServiceImpl) Current(ctx context.Context, employeeID int64) (domain.Record, error) {
	return s.Repo.FindOpen(ctx, employeeID)
}

// Summary собирает записи, пришедшие в течение суток day, опционально по одной смене.
func (s *AttendanceServiceImpl) Summary(ctx context.Context, day string, shift domain.Shift) (domain.Summary, error) {
	date, err := s.Cal.ParseDay(day)
	if err != nil {
		return domain.Summary{}, fmt.Errorf("%w: bad date %q", domain.ErrValidation, day)
	}
	if shift != "" && !shift.Valid() {
		return domain.Summary{}, fmt.Errorf("%w: unknown shift %q", domain.ErrValidation, shift)
	}
	from, to := s.Cal.DayBounds(date)
	records, err := s.Repo.ListRange(ctx, from, to, shift)
	if err != nil {
		return domain.Summary{}, err
	}
	sum := domain.Summary{Day: day, Shift: shift, Records: records}
	for _, r := range records {
		if r.Open() {
			sum.Open++
			continue
		}
		if r.TotalTime != nil {
			sum.TotalMinutes += *r.TotalTime
		}
	}
	return sum, nil
}
