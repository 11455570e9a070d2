package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"attendance-bot/internal/domain"
	"attendance-bot/pkg/shiftcal"
)

type SqliteAttendanceRepo struct {
	db  *sql.DB
	cal *shiftcal.Calendar
}

func NewSqliteAttendanceRepo(db *sql.DB, cal *shiftcal.Calendar) *SqliteAttendanceRepo {
	return &SqliteAttendanceRepo{db: db, cal: cal}
}

const recordColumns = `id, employee_id, manager_id, step_in, step_out, total_time, shift, work_day,
    step_in_lat, step_in_lng, step_in_address, step_in_image,
    step_out_lat, step_out_lng, step_out_address, step_out_image,
    note, origin, creator_type, creator_id`

const syncWorking = `UPDATE workers SET is_working = EXISTS(
    SELECT 1 FROM attendance WHERE employee_id = ? AND step_out IS NULL
) WHERE id = ?`

type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(s scanner) (domain.Record, error) {
	var (
		r                  domain.Record
		stepIn             string
		stepOut            sql.NullString
		total              sql.NullInt64
		inLat, inLng       sql.NullFloat64
		outLat, outLng     sql.NullFloat64
		shift, origin, cty string
	)
	err := s.Scan(&r.ID, &r.EmployeeID, &r.ManagerID, &stepIn, &stepOut, &total, &shift, &r.WorkDay,
		&inLat, &inLng, &r.StepInCapture.Address, &r.StepInCapture.Image,
		&outLat, &outLng, &r.StepOutCapture.Address, &r.StepOutCapture.Image,
		&r.Note, &origin, &cty, &r.CreatedBy.ID)
	if err != nil {
		return domain.Record{}, err
	}
	r.Shift = domain.Shift(shift)
	r.Origin = domain.Origin(origin)
	r.CreatedBy.Type = domain.CreatorType(cty)
	if r.StepIn, err = parseTime(stepIn); err != nil {
		return domain.Record{}, err
	}
	if stepOut.Valid {
		t, err := parseTime(stepOut.String)
		if err != nil {
			return domain.Record{}, err
		}
		r.StepOut = &t
	}
	if total.Valid {
		v := int(total.Int64)
		r.TotalTime = &v
	}
	r.StepInCapture.Latitude = floatPtr(inLat)
	r.StepInCapture.Longitude = floatPtr(inLng)
	r.StepOutCapture.Latitude = floatPtr(outLat)
	r.StepOutCapture.Longitude = floatPtr(outLng)
	return r, nil
}

func floatPtr(f sql.NullFloat64) *float64 {
	if !f.Valid {
		return nil
	}
	v := f.Float64
	return &v
}

func nullTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return formatTime(*t)
}

func nullInt(v *int) any {
	if v == nil {
		return nil
	}
	return *v
}

func nullFloat(v *float64) any {
	if v == nil {
		return nil
	}
	return *v
}

func getRecord(ctx context.Context, q querier, id string) (domain.Record, error) {
	r, err := scanRecord(q.QueryRowContext(ctx, `SELECT `+recordColumns+` FROM attendance WHERE id = ?`, id))
	return r, mapErr(err)
}

func saveRecord(ctx context.Context, q querier, r domain.Record) error {
	_, err := q.ExecContext(ctx, `UPDATE attendance SET
        step_in = ?, step_out = ?, total_time = ?, shift = ?, work_day = ?,
        step_in_lat = ?, step_in_lng = ?, step_in_address = ?, step_in_image = ?,
        step_out_lat = ?, step_out_lng = ?, step_out_address = ?, step_out_image = ?,
        note = ?
        WHERE id = ?`,
		formatTime(r.StepIn), nullTime(r.StepOut), nullInt(r.TotalTime), string(r.Shift), r.WorkDay,
		nullFloat(r.StepInCapture.Latitude), nullFloat(r.StepInCapture.Longitude), r.StepInCapture.Address, r.StepInCapture.Image,
		nullFloat(r.StepOutCapture.Latitude), nullFloat(r.StepOutCapture.Longitude), r.StepOutCapture.Address, r.StepOutCapture.Image,
		r.Note, r.ID,
	)
	return mapErr(err)
}

func syncWorker(ctx context.Context, q querier, employeeID int64) error {
	_, err := q.ExecContext(ctx, syncWorking, employeeID, employeeID)
	return err
}

func (r *SqliteAttendanceRepo) Get(ctx context.Context, id string) (domain.Record, error) {
	return getRecord(ctx, r.db, id)
}

func (r *SqliteAttendanceRepo) FindOpen(ctx context.Context, employeeID int64) (domain.Record, error) {
	rec, err := scanRecord(r.db.QueryRowContext(ctx,
		`SELECT `+recordColumns+` FROM attendance WHERE employee_id = ? AND step_out IS NULL`, employeeID))
	return rec, mapErr(err)
}

func (r *SqliteAttendanceRepo) Create(ctx context.Context, rec domain.Record) error {
	if rec.ID == "" || rec.EmployeeID == 0 {
		return fmt.Errorf("%w: record id and employee id are required", domain.ErrValidation)
	}
	if rec.WorkDay == "" {
		rec.WorkDay = r.cal.Day(rec.StepIn)
	}
	return withTx(ctx, r.db, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `INSERT INTO attendance (`+recordColumns+`)
            VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			rec.ID, rec.EmployeeID, rec.ManagerID, formatTime(rec.StepIn), nullTime(rec.StepOut), nullInt(rec.TotalTime),
			string(rec.Shift), rec.WorkDay,
			nullFloat(rec.StepInCapture.Latitude), nullFloat(rec.StepInCapture.Longitude), rec.StepInCapture.Address, rec.StepInCapture.Image,
			nullFloat(rec.StepOutCapture.Latitude), nullFloat(rec.StepOutCapture.Longitude), rec.StepOutCapture.Address, rec.StepOutCapture.Image,
			rec.Note, string(rec.Origin), string(rec.CreatedBy.Type), rec.CreatedBy.ID,
		)
		if err != nil {
			return mapErr(err)
		}
		return syncWorker(ctx, tx, rec.EmployeeID)
	})
}

// Close закрывает только открытую запись. Повторное закрытие: ErrConflict.
func (r *SqliteAttendanceRepo) Close(ctx context.Context, id string, at time.Time, capture domain.Capture, note *string) (domain.Record, error) {
	var out domain.Record
	err := withTx(ctx, r.db, func(tx *sql.Tx) error {
		rec, err := getRecord(ctx, tx, id)
		if err != nil {
			return err
		}
		if !rec.Open() {
			return fmt.Errorf("%w: record %s already closed", domain.ErrConflict, id)
		}
		p := domain.RecordPatch{StepOut: domain.SetTime(at), StepOutCapture: &capture, Note: note}
		if err := rec.Apply(p, r.cal); err != nil {
			return err
		}
		if err := saveRecord(ctx, tx, rec); err != nil {
			return err
		}
		out = rec
		return syncWorker(ctx, tx, rec.EmployeeID)
	})
	return out, err
}

func (r *SqliteAttendanceRepo) Update(ctx context.Context, id string, p domain.RecordPatch) (domain.Record, error) {
	var out domain.Record
	err := withTx(ctx, r.db, func(tx *sql.Tx) error {
		rec, err := getRecord(ctx, tx, id)
		if err != nil {
			return err
		}
		if err := rec.Apply(p, r.cal); err != nil {
			return err
		}
		if err := saveRecord(ctx, tx, rec); err != nil {
			return err
		}
		out = rec
		return syncWorker(ctx, tx, rec.EmployeeID)
	})
	return out, err
}

// BulkUpdate применяет одну правку ко всем найденным записям в одной транзакции.
// Отсутствующие id пропускаются.
func (r *SqliteAttendanceRepo) BulkUpdate(ctx context.Context, ids []string, p domain.RecordPatch) ([]domain.Record, error) {
	var out []domain.Record
	err := withTx(ctx, r.db, func(tx *sql.Tx) error {
		touched := make(map[int64]struct{})
		for _, id := range ids {
			rec, err := getRecord(ctx, tx, id)
			if errors.Is(err, domain.ErrNotFound) {
				continue
			}
			if err != nil {
				return err
			}
			if err := rec.Apply(p, r.cal); err != nil {
				return fmt.Errorf("record %s: %w", id, err)
			}
			if err := saveRecord(ctx, tx, rec); err != nil {
				return fmt.Errorf("record %s: %w", id, err)
			}
			touched[rec.EmployeeID] = struct{}{}
			out = append(out, rec)
		}
		for employeeID := range touched {
			if err := syncWorker(ctx, tx, employeeID); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *SqliteAttendanceRepo) Delete(ctx context.Context, id string) (domain.Record, error) {
	var out domain.Record
	err := withTx(ctx, r.db, func(tx *sql.Tx) error {
		rec, err := getRecord(ctx, tx, id)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM attendance WHERE id = ?`, id); err != nil {
			return err
		}
		out = rec
		return syncWorker(ctx, tx, rec.EmployeeID)
	})
	return out, err
}

func (r *SqliteAttendanceRepo) ListOpenSince(ctx context.Context, cutoff time.Time) ([]domain.Record, error) {
	return r.list(ctx, `WHERE step_out IS NULL AND step_in <= ? ORDER BY step_in`, formatTime(cutoff))
}

func (r *SqliteAttendanceRepo) ListRange(ctx context.Context, from, to time.Time, shift domain.Shift) ([]domain.Record, error) {
	where := []string{"step_in >= ?", "step_in < ?"}
	args := []any{formatTime(from), formatTime(to)}
	if shift != "" {
		where = append(where, "shift = ?")
		args = append(args, string(shift))
	}
	return r.list(ctx, "WHERE "+strings.Join(where, " AND ")+" ORDER BY step_in", args...)
}

func (r *SqliteAttendanceRepo) HasAutoOpen(ctx context.Context, employeeID int64, shift domain.Shift, day string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, `SELECT EXISTS(
        SELECT 1 FROM attendance WHERE employee_id = ? AND shift = ? AND work_day = ? AND origin = ?
    )`, employeeID, string(shift), day, string(domain.OriginAuto)).Scan(&exists)
	return exists, err
}

func (r *SqliteAttendanceRepo) list(ctx context.Context, clause string, args ...any) ([]domain.Record, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+recordColumns+` FROM attendance `+clause, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var records []domain.Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}
