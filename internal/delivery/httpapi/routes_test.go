package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"attendance-bot/internal/app/automation"
	"attendance-bot/internal/app/service"
	"attendance-bot/internal/domain"
	"attendance-bot/internal/repository/sqlite"
	"attendance-bot/pkg/shiftcal"
	"attendance-bot/pkg/workerpool"

	"github.com/gin-gonic/gin"
)

type testServer struct {
	router *gin.Engine
	svc    *service.AttendanceServiceImpl
	engine *automation.Engine
	now    time.Time
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := sqlite.Open(filepath.Join(t.TempDir(), "api.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := sqlite.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	pool := workerpool.NewWorkerPool(2, 8)
	t.Cleanup(pool.Close)

	cal := shiftcal.New(time.UTC)
	repo := sqlite.NewSqliteAttendanceRepo(db, cal)
	workers := sqlite.NewSqliteWorkerRepo(db)
	for _, w := range []domain.Worker{
		{ID: 1, Name: "Алишер", Role: domain.RoleWorker, Shift: shiftcal.Morning, ManagerID: 9},
		{ID: 2, Name: "Дилноза", Role: domain.RoleWorker, Shift: shiftcal.Morning, ManagerID: 9},
		{ID: 9, Name: "Менеджер", Role: domain.RoleManager, Shift: shiftcal.Morning},
	} {
		if err := workers.CreateOrUpdate(context.Background(), w); err != nil {
			t.Fatal(err)
		}
	}

	ts := &testServer{now: time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC)}
	ts.svc = service.NewAttendanceService(repo, workers, cal, service.NewAsyncService(pool))
	ts.engine = automation.NewEngine(repo, workers, cal)
	clock := func() time.Time { return ts.now }
	ts.svc.Now, ts.engine.Now = clock, clock
	var (
		mu  sync.Mutex
		seq int
	)
	ts.svc.NewID = func() string {
		mu.Lock()
		defer mu.Unlock()
		seq++
		return fmt.Sprintf("r%d", seq)
	}
	ts.engine.NewID = ts.svc.NewID
	ts.router = NewRouter(ts.svc, service.NewWorkerService(workers), ts.engine)
	return ts
}

func (ts *testServer) do(t *testing.T, method, path string, actorID int64, role domain.Role, body string) (int, map[string]any) {
	t.Helper()
	var rd *bytes.Reader
	if body != "" {
		rd = bytes.NewReader([]byte(body))
	} else {
		rd = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, rd)
	req.Header.Set("Content-Type", "application/json")
	if actorID != 0 {
		req.Header.Set("X-Actor-ID", fmt.Sprint(actorID))
		req.Header.Set("X-Actor-Role", string(role))
	}
	w := httptest.NewRecorder()
	ts.router.ServeHTTP(w, req)
	out := map[string]any{}
	_ = json.Unmarshal(w.Body.Bytes(), &out)
	return w.Code, out
}

func data(t *testing.T, body map[string]any) map[string]any {
	t.Helper()
	d, ok := body["data"].(map[string]any)
	if !ok {
		t.Fatalf("no data in %v", body)
	}
	return d
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t)
	if code, _ := ts.do(t, http.MethodGet, "/health", 0, "", ""); code != http.StatusOK {
		t.Fatalf("health = %d", code)
	}
}

func TestActorHeaderRequired(t *testing.T) {
	ts := newTestServer(t)
	code, _ := ts.do(t, http.MethodPost, "/attendance/step-in", 0, "", `{}`)
	if code != http.StatusUnauthorized {
		t.Fatalf("code = %d, want 401", code)
	}
}

func TestStepInStepOutOverHTTP(t *testing.T) {
	ts := newTestServer(t)

	code, body := ts.do(t, http.MethodPost, "/attendance/step-in", 1, domain.RoleWorker, `{"manager_id":77,"capture":{"address":"КПП-1"}}`)
	if code != http.StatusCreated {
		t.Fatalf("step-in = %d %v", code, body)
	}
	rec := data(t, body)["record"].(map[string]any)
	if rec["shift"] != "morning" || rec["id"] != "r1" {
		t.Fatalf("record = %v", rec)
	}
	if rec["manager_id"] != float64(9) {
		t.Fatalf("manager_id = %v, want the directory manager 9", rec["manager_id"])
	}

	if code, _ = ts.do(t, http.MethodGet, "/attendance/r1", 2, domain.RoleWorker, ""); code != http.StatusForbidden {
		t.Fatalf("foreign get = %d, want 403", code)
	}
	if code, _ = ts.do(t, http.MethodGet, "/attendance/r1", 1, domain.RoleWorker, ""); code != http.StatusOK {
		t.Fatalf("own get = %d, want 200", code)
	}

	code, body = ts.do(t, http.MethodPost, "/attendance/step-in", 1, domain.RoleWorker, `{}`)
	if code != http.StatusConflict || body["error"] != "already_open" {
		t.Fatalf("second step-in = %d %v", code, body)
	}

	code, _ = ts.do(t, http.MethodPost, "/attendance/step-in", 1, domain.RoleWorker, `{"employee_id":2}`)
	if code != http.StatusForbidden {
		t.Fatalf("worker stepping in someone else = %d, want 403", code)
	}

	code, _ = ts.do(t, http.MethodPost, "/attendance/r1/step-out", 2, domain.RoleWorker, "")
	if code != http.StatusForbidden {
		t.Fatalf("foreign step-out = %d, want 403", code)
	}

	ts.now = ts.now.Add(95*time.Minute + 30*time.Second)
	code, body = ts.do(t, http.MethodPost, "/attendance/r1/step-out", 1, domain.RoleWorker, "")
	if code != http.StatusOK {
		t.Fatalf("step-out = %d %v", code, body)
	}
	if got := data(t, body)["total_time"]; got != float64(95) {
		t.Fatalf("total_time = %v, want 95", got)
	}

	code, body = ts.do(t, http.MethodPost, "/attendance/r1/step-out", 1, domain.RoleWorker, "")
	if code != http.StatusConflict {
		t.Fatalf("double step-out = %d %v", code, body)
	}
}

func TestManagerEndpoints(t *testing.T) {
	ts := newTestServer(t)

	code, _ := ts.do(t, http.MethodPost, "/attendance/bulk/step-in", 1, domain.RoleWorker, `{"shift":"morning"}`)
	if code != http.StatusForbidden {
		t.Fatalf("worker bulk = %d, want 403", code)
	}

	code, body := ts.do(t, http.MethodPost, "/attendance/bulk/step-in", 9, domain.RoleManager, `{"shift":"morning"}`)
	if code != http.StatusOK {
		t.Fatalf("bulk = %d %v", code, body)
	}
	if got := data(t, body)["success_count"]; got != float64(3) {
		t.Fatalf("success_count = %v, want 3", got)
	}

	code, body = ts.do(t, http.MethodPost, "/attendance/bulk/step-in", 9, domain.RoleManager, `{"shift":"morning"}`)
	if code != http.StatusOK || data(t, body)["already_working_count"] != float64(3) {
		t.Fatalf("repeat bulk = %d %v", code, body)
	}

	code, body = ts.do(t, http.MethodGet, "/workers", 9, domain.RoleManager, "")
	if list, _ := body["data"].([]any); code != http.StatusOK || len(list) != 3 {
		t.Fatalf("workers = %d %v", code, body)
	}

	code, body = ts.do(t, http.MethodGet, "/attendance?date=2024-03-10&shift=morning", 9, domain.RoleManager, "")
	if code != http.StatusOK || data(t, body)["open"] != float64(3) {
		t.Fatalf("list = %d %v", code, body)
	}

	code, body = ts.do(t, http.MethodPatch, "/attendance/bulk", 9, domain.RoleManager,
		`{"ids":["r1","r2","missing"],"patch":{"step_in":"2024-03-10T07:00:00Z","step_out":"2024-03-10T15:00:00Z"}}`)
	if code != http.StatusOK || body["count"] != float64(2) {
		t.Fatalf("bulk update = %d %v", code, body)
	}

	code, body = ts.do(t, http.MethodPatch, "/attendance/r1", 9, domain.RoleManager, `{"step_out":null}`)
	if code != http.StatusOK {
		t.Fatalf("reopen = %d %v", code, body)
	}
	if _, ok := data(t, body)["total_time"]; ok {
		t.Fatalf("reopened record still has total_time: %v", body)
	}

	code, _ = ts.do(t, http.MethodPatch, "/attendance/r1", 9, domain.RoleManager, `{"shift":"weekend"}`)
	if code != http.StatusBadRequest {
		t.Fatalf("bad shift = %d, want 400", code)
	}

	code, _ = ts.do(t, http.MethodDelete, "/attendance/r2", 9, domain.RoleManager, "")
	if code != http.StatusOK {
		t.Fatalf("delete = %d", code)
	}
	code, _ = ts.do(t, http.MethodGet, "/attendance/r2", 9, domain.RoleManager, "")
	if code != http.StatusNotFound {
		t.Fatalf("get deleted = %d, want 404", code)
	}
}

func TestAutomationTrigger(t *testing.T) {
	ts := newTestServer(t)
	ts.now = time.Date(2024, 3, 10, 7, 0, 0, 0, time.UTC)

	code, body := ts.do(t, http.MethodPost, "/automation/auto-open", 9, domain.RoleAdmin, "")
	if code != http.StatusOK {
		t.Fatalf("auto-open = %d %v", code, body)
	}
	items, _ := data(t, body)["items"].([]any)
	if len(items) != 3 {
		t.Fatalf("auto-open items = %v", items)
	}

	ts.now = ts.now.Add(9 * time.Hour)
	code, body = ts.do(t, http.MethodPost, "/automation/auto-close", 9, domain.RoleAdmin, "")
	if code != http.StatusOK {
		t.Fatalf("auto-close = %d %v", code, body)
	}
	items, _ = data(t, body)["items"].([]any)
	if len(items) != 3 {
		t.Fatalf("auto-close items = %v", items)
	}
}

type failingRepo struct {
	domain.AttendanceRepo
	failFor int64
}

func (r failingRepo) Create(ctx context.Context, rec domain.Record) error {
	if rec.EmployeeID == r.failFor {
		return errors.New("disk I/O error")
	}
	return r.AttendanceRepo.Create(ctx, rec)
}

func TestBulkStepInPartialIsMultiStatus(t *testing.T) {
	ts := newTestServer(t)
	ts.svc.Repo = failingRepo{AttendanceRepo: ts.svc.Repo, failFor: 2}

	code, body := ts.do(t, http.MethodPost, "/attendance/bulk/step-in", 9, domain.RoleManager, `{"shift":"morning"}`)
	if code != http.StatusMultiStatus || body["status"] != "partial" {
		t.Fatalf("bulk = %d %v, want 207", code, body)
	}
	d := data(t, body)
	if d["success_count"] != float64(2) || d["failure_count"] != float64(1) || d["already_working_count"] != float64(0) {
		t.Fatalf("counts = %v", d)
	}
	failed := d["failed"].([]any)
	if failed[0].(map[string]any)["employee_id"] != float64(2) {
		t.Fatalf("failed = %v", failed)
	}
}

func TestWorkerDirectoryUpsert(t *testing.T) {
	ts := newTestServer(t)
	card := `{"name":"Шахноза","chat_id":555,"shift":"evening","manager_id":9}`

	if code, _ := ts.do(t, http.MethodPut, "/workers/20", 1, domain.RoleWorker, card); code != http.StatusForbidden {
		t.Fatalf("worker upsert = %d, want 403", code)
	}
	if code, _ := ts.do(t, http.MethodPut, "/workers/20", 9, domain.RoleManager, `{"name":"x","shift":"evening","role":"admin"}`); code != http.StatusForbidden {
		t.Fatalf("manager granting admin = %d, want 403", code)
	}
	if code, _ := ts.do(t, http.MethodPut, "/workers/20", 9, domain.RoleManager, `{"name":"x","shift":"weekend"}`); code != http.StatusBadRequest {
		t.Fatalf("bad shift = %d, want 400", code)
	}
	if code, _ := ts.do(t, http.MethodPut, "/workers/abc", 9, domain.RoleManager, card); code != http.StatusBadRequest {
		t.Fatalf("bad id = %d, want 400", code)
	}

	code, body := ts.do(t, http.MethodPut, "/workers/20", 9, domain.RoleManager, card)
	if code != http.StatusOK {
		t.Fatalf("upsert = %d %v", code, body)
	}
	w := data(t, body)
	if w["name"] != "Шахноза" || w["role"] != "worker" || w["shift"] != "evening" || w["is_working"] != false {
		t.Fatalf("worker = %v", w)
	}

	ts.now = time.Date(2024, 3, 10, 16, 0, 0, 0, time.UTC)
	code, body = ts.do(t, http.MethodPost, "/attendance/step-in", 20, domain.RoleWorker, `{}`)
	if code != http.StatusCreated {
		t.Fatalf("new worker step-in = %d %v", code, body)
	}

	code, body = ts.do(t, http.MethodPut, "/workers/20", 9, domain.RoleManager, `{"name":"Шахноза К.","chat_id":555,"shift":"evening","manager_id":9}`)
	if code != http.StatusOK || data(t, body)["is_working"] != true {
		t.Fatalf("update must keep the derived flag: %d %v", code, body)
	}
}
