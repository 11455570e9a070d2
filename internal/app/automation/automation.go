// Package automation содержит фоновые задания: автозакрытие зависших смен
// и автоматическую отметку начала смены.
package automation

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

// MaxSession: после стольких часов открытая запись закрывается автоматически.
const MaxSession = 8 * time.Hour

const (
	AutoCloseNote = "Закрыто автоматически: смена длилась дольше 8 часов"
	AutoOpenNote  = "Начало смены отмечено автоматически"
)

// DefaultLocations: адреса по умолчанию для автоматической отметки, по кругу.
var DefaultLocations = map[domain.Shift][]domain.Capture{
	shiftcal.Morning: {{Address: "КПП-1, главный вход"}, {Address: "КПП-2, склад"}},
	shiftcal.Evening: {{Address: "КПП-1, главный вход"}, {Address: "КПП-3, цех"}},
	shiftcal.Night:   {{Address: "КПП-2, склад"}},
}

type Outcome string

const (
	Closed         Outcome = "closed"
	SteppedIn      Outcome = "stepped_in"
	SkippedWorking Outcome = "skipped_working"
	SkippedToday   Outcome = "skipped_today"
	SkippedClosed  Outcome = "skipped_closed"
	Failed         Outcome = "failed"
)

type Item struct {
	EmployeeID int64   `json:"employee_id"`
	RecordID   string  `json:"record_id,omitempty"`
	Outcome    Outcome `json:"outcome"`
	Reason     string  `json:"reason,omitempty"`
}

// Report: итог одного запуска задания.
type Report struct {
	Job   string       `json:"job"`
	At    time.Time    `json:"at"`
	Shift domain.Shift `json:"shift,omitempty"`
	Items []Item       `json:"items"`
}

func (r Report) Count(o Outcome) int {
	n := 0
	for _, it := range r.Items {
		if it.Outcome == o {
			n++
		}
	}
	return n
}

func (r Report) String() string {
	return fmt.Sprintf("at=%s shift=%s closed=%d stepped_in=%d skipped=%d failed=%d",
		r.At.Format(time.RFC3339), r.Shift, r.Count(Closed), r.Count(SteppedIn),
		r.Count(SkippedWorking)+r.Count(SkippedToday)+r.Count(SkippedClosed), r.Count(Failed))
}

type Engine struct {
	Repo    domain.AttendanceRepo
	Workers domain.WorkerRepo
	Cal     *shiftcal.Calendar
	Now     func() time.Time
	NewID   func() string
}

func NewEngine(repo domain.AttendanceRepo, workers domain.WorkerRepo, cal *shiftcal.Calendar) *Engine {
	return &Engine{Repo: repo, Workers: workers, Cal: cal, Now: time.Now, NewID: uuid.NewString}
}

// AutoClose закрывает открытые записи старше MaxSession. Ошибка возвращается,
// только если не удалось прочитать список; ошибки по записям попадают в отчёт.
func (e *Engine) AutoClose(ctx context.Context) (Report, error) {
	now := e.Now()
	rep := Report{Job: "autoclose", At: now}
	stale, err := e.Repo.ListOpenSince(ctx, now.Add(-MaxSession))
	if err != nil {
		return rep, fmt.Errorf("list open records: %w", err)
	}
	for _, rec := range stale {
		var note *string
		if rec.Note == "" {
			n := AutoCloseNote
			note = &n
		}
		closed, err := e.Repo.Close(ctx, rec.ID, now, domain.Capture{}, note)
		switch {
		case err == nil:
			rep.Items = append(rep.Items, Item{EmployeeID: rec.EmployeeID, RecordID: rec.ID, Outcome: Closed})
			log.Printf("[autoclose] worker=%d record=%s total=%d", rec.EmployeeID, rec.ID, *closed.TotalTime)
		case errors.Is(err, domain.ErrConflict), errors.Is(err, domain.ErrNotFound):
			// закрыта или удалена вручную между выборкой и обновлением
			rep.Items = append(rep.Items, Item{EmployeeID: rec.EmployeeID, RecordID: rec.ID, Outcome: SkippedClosed, Reason: err.Error()})
		default:
			log.Printf("[autoclose] worker=%d record=%s: %v", rec.EmployeeID, rec.ID, err)
			rep.Items = append(rep.Items, Item{EmployeeID: rec.EmployeeID, RecordID: rec.ID, Outcome: Failed, Reason: err.Error()})
		}
	}
	return rep, nil
}

// AutoOpen отмечает начало смены всем неработающим работникам смены,
// которая начинается в текущий час. В другие часы ничего не делает.
func (e *Engine) AutoOpen(ctx context.Context) (Report, error) {
	now := e.Now()
	rep := Report{Job: "autoopen", At: now}
	shift, ok := e.Cal.ShiftStartingAt(now)
	if !ok {
		return rep, nil
	}
	rep.Shift = shift
	workers, err := e.Workers.ListByShift(ctx, shift)
	if err != nil {
		return rep, fmt.Errorf("list %s workers: %w", shift, err)
	}

	day := e.Cal.Day(now)
	locations := DefaultLocations[shift]
	for i, w := range workers {
		item := e.openOne(ctx, w, shift, day, now, pick(locations, i))
		if item.Outcome == Failed {
			log.Printf("[autoopen] worker=%d: %s", w.ID, item.Reason)
		}
		rep.Items = append(rep.Items, item)
	}
	return rep, nil
}

func (e *Engine) openOne(ctx context.Context, w domain.Worker, shift domain.Shift, day string, now time.Time, loc domain.Capture) Item {
	item := Item{EmployeeID: w.ID}
	if w.IsWorking {
		item.Outcome = SkippedWorking
		return item
	}
	if _, err := e.Repo.FindOpen(ctx, w.ID); err == nil {
		item.Outcome = SkippedWorking
		return item
	} else if !errors.Is(err, domain.ErrNotFound) {
		item.Outcome, item.Reason = Failed, err.Error()
		return item
	}
	done, err := e.Repo.HasAutoOpen(ctx, w.ID, shift, day)
	if err != nil {
		item.Outcome, item.Reason = Failed, err.Error()
		return item
	}
	if done {
		item.Outcome = SkippedToday
		return item
	}

	rec := domain.Record{
		ID:            e.NewID(),
		EmployeeID:    w.ID,
		ManagerID:     w.ManagerID,
		StepIn:        now,
		Shift:         shift,
		WorkDay:       day,
		StepInCapture: loc,
		Note:          AutoOpenNote,
		Origin:        domain.OriginAuto,
		CreatedBy:     domain.SystemCreator,
	}
	if err := e.Repo.Create(ctx, rec); err != nil {
		if errors.Is(err, domain.ErrConflict) {
			// проиграли гонку: либо ручная отметка, либо параллельный запуск задания
			item.Outcome, item.Reason = SkippedToday, err.Error()
			if _, ferr := e.Repo.FindOpen(ctx, w.ID); ferr == nil {
				item.Outcome = SkippedWorking
			}
			return item
		}
		item.Outcome, item.Reason = Failed, err.Error()
		return item
	}
	item.RecordID, item.Outcome = rec.ID, SteppedIn
	log.Printf("[autoopen] worker=%d record=%s shift=%s", w.ID, rec.ID, shift)
	return item
}

func pick(locations []domain.Capture, i int) domain.Capture {
	if len(locations) == 0 {
		return domain.Capture{}
	}
	return locations[i%len(locations)]
}
