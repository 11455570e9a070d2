package service

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"attendance-bot/internal/domain"
	"attendance-bot/internal/repository/sqlite"
	"attendance-bot/pkg/shiftcal"
	"attendance-bot/pkg/workerpool"
)

type fixture struct {
	svc     *AttendanceServiceImpl
	workers *WorkerService
	now     time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db, err := sqlite.Open(filepath.Join(t.TempDir(), "svc.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := sqlite.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	pool := workerpool.NewWorkerPool(4, 8)
	t.Cleanup(pool.Close)

	cal := shiftcal.New(time.UTC)
	workerRepo := sqlite.NewSqliteWorkerRepo(db)
	f := &fixture{workers: NewWorkerService(workerRepo)}
	f.svc = NewAttendanceService(sqlite.NewSqliteAttendanceRepo(db, cal), workerRepo, cal, NewAsyncService(pool))
	f.svc.Now = func() time.Time { return f.now }
	var (
		mu  sync.Mutex
		seq int
	)
	f.svc.NewID = func() string {
		mu.Lock()
		defer mu.Unlock()
		seq++
		return fmt.Sprintf("rec-%d", seq)
	}
	return f
}

func (f *fixture) addWorker(t *testing.T, id int64, shift domain.Shift) {
	t.Helper()
	err := f.workers.CreateOrUpdateWorker(context.Background(), domain.Worker{ID: id, Name: fmt.Sprintf("worker %d", id), Shift: shift, ManagerID: 900})
	if err != nil {
		t.Fatalf("add worker %d: %v", id, err)
	}
}

func (f *fixture) working(t *testing.T, id int64) bool {
	t.Helper()
	w, err := f.workers.GetWorkerByID(context.Background(), id)
	if err != nil {
		t.Fatalf("get worker %d: %v", id, err)
	}
	return w.IsWorking
}

func at(hour, minute int) time.Time {
	return time.Date(2024, 3, 10, hour, minute, 0, 0, time.UTC)
}

func TestStepInStepOutScenario(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.addWorker(t, 1, shiftcal.Morning)

	f.now = at(8, 0)
	res, err := f.svc.StepIn(ctx, domain.StepInRequest{EmployeeID: 1})
	if err != nil {
		t.Fatalf("step in: %v", err)
	}
	if res.Record.Shift != shiftcal.Morning {
		t.Fatalf("shift = %s, want morning", res.Record.Shift)
	}
	if !res.ShiftEnd.Equal(at(15, 0)) {
		t.Fatalf("shift end = %v, want 15:00", res.ShiftEnd)
	}
	if res.Record.ManagerID != 900 || res.Record.Origin != domain.OriginManual {
		t.Fatalf("unexpected record %+v", res.Record)
	}
	if !f.working(t, 1) {
		t.Fatalf("worker must be working")
	}

	f.now = at(8, 5)
	if _, err := f.svc.StepIn(ctx, domain.StepInRequest{EmployeeID: 1}); !errors.Is(err, domain.ErrAlreadyOpen) {
		t.Fatalf("second step in err = %v, want ErrAlreadyOpen", err)
	}

	f.now = at(16, 0)
	rec, err := f.svc.StepOut(ctx, domain.StepOutRequest{RecordID: res.Record.ID})
	if err != nil {
		t.Fatalf("step out: %v", err)
	}
	if rec.TotalTime == nil || *rec.TotalTime != 480 {
		t.Fatalf("total = %v, want 480", rec.TotalTime)
	}
	if f.working(t, 1) {
		t.Fatalf("worker must not be working")
	}
}

func TestStepOutFloorsMinutes(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.addWorker(t, 1, shiftcal.Evening)

	f.now = at(15, 0)
	res, err := f.svc.StepIn(ctx, domain.StepInRequest{EmployeeID: 1})
	if err != nil {
		t.Fatal(err)
	}
	f.now = at(15, 10).Add(59 * time.Second)
	rec, err := f.svc.StepOut(ctx, domain.StepOutRequest{RecordID: res.Record.ID})
	if err != nil {
		t.Fatal(err)
	}
	if *rec.TotalTime != 10 {
		t.Fatalf("total = %d, want 10", *rec.TotalTime)
	}
}

func TestStepInValidation(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.now = at(9, 0)

	if _, err := f.svc.StepIn(ctx, domain.StepInRequest{}); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("missing id err = %v, want ErrValidation", err)
	}
	if _, err := f.svc.StepIn(ctx, domain.StepInRequest{EmployeeID: 42}); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("unknown worker err = %v, want ErrNotFound", err)
	}
	f.addWorker(t, 1, shiftcal.Morning)
	bad := domain.Shift("swing")
	if _, err := f.svc.StepIn(ctx, domain.StepInRequest{EmployeeID: 1, Shift: &bad}); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("bad shift err = %v, want ErrValidation", err)
	}
	if _, err := f.svc.StepOut(ctx, domain.StepOutRequest{RecordID: "nope"}); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("step out missing err = %v, want ErrNotFound", err)
	}
}

func TestStepInShiftOverride(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.addWorker(t, 1, shiftcal.Night)

	f.now = at(23, 30)
	night := shiftcal.Night
	res, err := f.svc.StepIn(ctx, domain.StepInRequest{EmployeeID: 1, Shift: &night})
	if err != nil {
		t.Fatal(err)
	}
	want := time.Date(2024, 3, 11, 7, 0, 0, 0, time.UTC)
	if !res.ShiftEnd.Equal(want) {
		t.Fatalf("night end = %v, want %v", res.ShiftEnd, want)
	}
}

func TestCorrectionUpdate(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.addWorker(t, 1, shiftcal.Morning)

	f.now = at(8, 0)
	res, err := f.svc.StepIn(ctx, domain.StepInRequest{EmployeeID: 1})
	if err != nil {
		t.Fatal(err)
	}

	rec, err := f.svc.Update(ctx, res.Record.ID, domain.RecordPatch{StepOut: domain.SetTime(at(12, 30))})
	if err != nil {
		t.Fatalf("close via update: %v", err)
	}
	if rec.TotalTime == nil || *rec.TotalTime != 270 {
		t.Fatalf("total = %v, want 270", rec.TotalTime)
	}
	if f.working(t, 1) {
		t.Fatalf("concrete step_out must clear the flag")
	}

	explicit := 200
	rec, err = f.svc.Update(ctx, res.Record.ID, domain.RecordPatch{StepIn: ptrTime(at(7, 0)), TotalTime: &explicit})
	if err != nil {
		t.Fatal(err)
	}
	if *rec.TotalTime != 200 {
		t.Fatalf("explicit total = %d, want 200", *rec.TotalTime)
	}

	rec, err = f.svc.Update(ctx, res.Record.ID, domain.RecordPatch{StepOut: domain.ClearTime})
	if err != nil {
		t.Fatal(err)
	}
	if rec.TotalTime != nil {
		t.Fatalf("clearing step_out must clear total, got %d", *rec.TotalTime)
	}

	if _, err := f.svc.Update(ctx, res.Record.ID, domain.RecordPatch{}); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("empty patch err = %v, want ErrValidation", err)
	}
}

func TestDeleteOpenRecordClearsFlag(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.addWorker(t, 1, shiftcal.Morning)
	f.now = at(8, 0)
	res, err := f.svc.StepIn(ctx, domain.StepInRequest{EmployeeID: 1})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := f.svc.Delete(ctx, res.Record.ID); err != nil {
		t.Fatal(err)
	}
	if f.working(t, 1) {
		t.Fatalf("flag must be cleared after deleting the open record")
	}
}

func TestConcurrentStepInOpensOnce(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.addWorker(t, 1, shiftcal.Morning)
	f.now = at(9, 0)

	var (
		wg        sync.WaitGroup
		okCount   int
		countLock sync.Mutex
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.svc.StepIn(ctx, domain.StepInRequest{EmployeeID: 1})
			switch {
			case err == nil:
				countLock.Lock()
				okCount++
				countLock.Unlock()
			case errors.Is(err, domain.ErrAlreadyOpen), errors.Is(err, domain.ErrConflict):
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()
	if okCount != 1 {
		t.Fatalf("successful step-ins = %d, want 1", okCount)
	}
}

func TestSummary(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.addWorker(t, 1, shiftcal.Morning)
	f.addWorker(t, 2, shiftcal.Morning)

	f.now = at(7, 0)
	r1, err := f.svc.StepIn(ctx, domain.StepInRequest{EmployeeID: 1})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := f.svc.StepIn(ctx, domain.StepInRequest{EmployeeID: 2}); err != nil {
		t.Fatal(err)
	}
	f.now = at(9, 0)
	if _, err := f.svc.StepOut(ctx, domain.StepOutRequest{RecordID: r1.Record.ID}); err != nil {
		t.Fatal(err)
	}

	sum, err := f.svc.Summary(ctx, "2024-03-10", shiftcal.Morning)
	if err != nil {
		t.Fatal(err)
	}
	if len(sum.Records) != 2 || sum.Open != 1 || sum.TotalMinutes != 120 {
		t.Fatalf("summary = %+v", sum)
	}
	if _, err := f.svc.Summary(ctx, "10.03.2024", ""); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("bad date err = %v, want ErrValidation", err)
	}
}

func ptrTime(t time.Time) *time.Time { return &t }
