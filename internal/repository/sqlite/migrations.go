package sqlite

import (
	"database/sql"
)

const createWorkersTable = `
CREATE TABLE IF NOT EXISTS workers (
    id INTEGER PRIMARY KEY,
    name TEXT NOT NULL,
    chat_id INTEGER NOT NULL DEFAULT 0,
    role TEXT NOT NULL DEFAULT 'worker',
    shift TEXT NOT NULL,
    manager_id INTEGER NOT NULL DEFAULT 0,
    is_working BOOLEAN NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS idx_workers_shift ON workers(shift);
CREATE INDEX IF NOT EXISTS idx_workers_chat_id ON workers(chat_id);
`

const createAttendanceTable = `
CREATE TABLE IF NOT EXISTS attendance (
    id TEXT PRIMARY KEY,
    employee_id INTEGER NOT NULL,
    manager_id INTEGER NOT NULL DEFAULT 0,
    step_in TEXT NOT NULL,
    step_out TEXT,
    total_time INTEGER,
    shift TEXT NOT NULL,
    work_day TEXT NOT NULL,
    step_in_lat REAL,
    step_in_lng REAL,
    step_in_address TEXT NOT NULL DEFAULT '',
    step_in_image TEXT NOT NULL DEFAULT '',
    step_out_lat REAL,
    step_out_lng REAL,
    step_out_address TEXT NOT NULL DEFAULT '',
    step_out_image TEXT NOT NULL DEFAULT '',
    note TEXT NOT NULL DEFAULT '',
    origin TEXT NOT NULL,
    creator_type TEXT NOT NULL,
    creator_id INTEGER NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS idx_attendance_employee ON attendance(employee_id);
CREATE INDEX IF NOT EXISTS idx_attendance_shift_step_in ON attendance(shift, step_in);
CREATE INDEX IF NOT EXISTS idx_attendance_step_in ON attendance(step_in);
`

// Уникальные частичные индексы: последняя линия защиты от гонок:
// не больше одной открытой записи на работника и одной автоматической
// отметки на (работник, смена, сутки).
const createAttendanceGuards = `
CREATE UNIQUE INDEX IF NOT EXISTS idx_attendance_one_open
    ON attendance(employee_id) WHERE step_out IS NULL;
CREATE UNIQUE INDEX IF NOT EXISTS idx_attendance_auto_daily
    ON attendance(employee_id, shift, work_day) WHERE origin = 'auto';
`

func Migrate(db *sql.DB) error {
	if _, err := db.Exec(createWorkersTable); err != nil {
		return err
	}
	if _, err := db.Exec(createAttendanceTable); err != nil {
		return err
	}
	if _, err := db.Exec(createAttendanceGuards); err != nil {
		return err
	}
	return nil
}
