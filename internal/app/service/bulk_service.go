package service

import (
	"context"
	"errors"
	"fmt"
	"log"

	"attendance-bot/internal/domain"
)

// BulkStepIn открывает записи всем работникам смены, у которых нет открытой записи.
// Частичный отказ не прерывает пакет: ошибка ErrPartialBatch возвращается
// вместе с заполненным результатом.
func (s *AttendanceServiceImpl) BulkStepIn(ctx context.Context, req domain.BulkStepInRequest) (domain.BulkStepInResult, error) {
	var res domain.BulkStepInResult
	if !req.Shift.Valid() {
		return res, fmt.Errorf("%w: unknown shift %q", domain.ErrValidation, req.Shift)
	}
	workers, err := s.Workers.ListByShift(ctx, req.Shift)
	if err != nil {
		return res, err
	}

	now := s.Now()
	actor := req.Actor
	if actor.Type == "" {
		actor = domain.SystemCreator
	}

	var (
		eligible []domain.Worker
		tasks    []func() (any, error)
	)
	for _, w := range workers {
		err := s.ensureClosed(ctx, w.ID)
		if errors.Is(err, domain.ErrAlreadyOpen) {
			res.AlreadyWorking = append(res.AlreadyWorking, w.ID)
			continue
		}
		if err != nil {
			res.Failed = append(res.Failed, domain.BulkFailure{EmployeeID: w.ID, Error: err.Error()})
			continue
		}
		w := w
		eligible = append(eligible, w)
		tasks = append(tasks, func() (any, error) {
			rec := domain.Record{
				ID:            s.NewID(),
				EmployeeID:    w.ID,
				ManagerID:     w.ManagerID,
				StepIn:        now,
				Shift:         req.Shift,
				WorkDay:       s.Cal.Day(now),
				StepInCapture: req.Capture,
				Note:          req.Note,
				Origin:        domain.OriginBulk,
				CreatedBy:     actor,
			}
			return rec, s.Repo.Create(ctx, rec)
		})
	}

	for i, r := range s.Async.SubmitAll(tasks) {
		w := eligible[i]
		switch {
		case r.Err == nil:
			res.Succeeded = append(res.Succeeded, r.Value.(domain.Record))
		case errors.Is(r.Err, domain.ErrConflict):
			// кто-то открыл запись между проверкой и вставкой
			res.AlreadyWorking = append(res.AlreadyWorking, w.ID)
		default:
			log.Printf("[bulk] stepin worker=%d: %v", w.ID, r.Err)
			res.Failed = append(res.Failed, domain.BulkFailure{EmployeeID: w.ID, Error: r.Err.Error()})
		}
	}

	res.SuccessCount = len(res.Succeeded)
	res.FailureCount = len(res.Failed)
	res.AlreadyCount = len(res.AlreadyWorking)
	log.Printf("[bulk] stepin shift=%s ok=%d failed=%d already=%d", req.Shift, res.SuccessCount, res.FailureCount, res.AlreadyCount)
	if res.FailureCount > 0 {
		return res, fmt.Errorf("%w: %d of %d workers failed", domain.ErrPartialBatch, res.FailureCount, len(workers))
	}
	return res, nil
}

// BulkUpdate применяет одинаковую правку к списку записей. Если правка
// выставляет время ухода, флаг снимается с каждого затронутого работника.
func (s *AttendanceServiceImpl) BulkUpdate(ctx context.Context, req domain.BulkUpdateRequest) ([]domain.Record, error) {
	if len(req.IDs) == 0 {
		return nil, fmt.Errorf("%w: ids are required", domain.ErrValidation)
	}
	if req.Patch.Empty() {
		return nil, fmt.Errorf("%w: nothing to update", domain.ErrValidation)
	}
	recs, err := s.Repo.BulkUpdate(ctx, req.IDs, req.Patch)
	if err != nil {
		return nil, err
	}
	log.Printf("[bulk] update ids=%d matched=%d closes=%t", len(req.IDs), len(recs), req.Patch.Closes())
	return recs, nil
}
