package sqlite

import (
	"context"
	"database/sql"

	"attendance-bot/internal/domain"
)

type SqliteWorkerRepo struct {
	db *sql.DB
}

func NewSqliteWorkerRepo(db *sql.DB) *SqliteWorkerRepo {
	return &SqliteWorkerRepo{db: db}
}

const workerColumns = `id, name, chat_id, role, shift, manager_id, is_working`

func scanWorker(s scanner) (domain.Worker, error) {
	var (
		w           domain.Worker
		role, shift string
	)
	if err := s.Scan(&w.ID, &w.Name, &w.ChatID, &role, &shift, &w.ManagerID, &w.IsWorking); err != nil {
		return domain.Worker{}, err
	}
	w.Role = domain.Role(role)
	w.Shift = domain.Shift(shift)
	return w, nil
}

// CreateOrUpdate не трогает is_working: флагом владеет хранилище отметок.
func (r *SqliteWorkerRepo) CreateOrUpdate(ctx context.Context, w domain.Worker) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE workers SET name = ?, chat_id = ?, role = ?, shift = ?, manager_id = ? WHERE id = ?`,
		w.Name, w.ChatID, string(w.Role), string(w.Shift), w.ManagerID, w.ID)
	if err != nil {
		return err
	}
	rows, _ := res.RowsAffected()
	if rows == 0 {
		_, err = r.db.ExecContext(ctx,
			`INSERT INTO workers (id, name, chat_id, role, shift, manager_id) VALUES (?, ?, ?, ?, ?, ?)`,
			w.ID, w.Name, w.ChatID, string(w.Role), string(w.Shift), w.ManagerID)
		return mapErr(err)
	}
	return nil
}

func (r *SqliteWorkerRepo) GetAll(ctx context.Context) ([]domain.Worker, error) {
	return r.list(ctx, `ORDER BY id`)
}

func (r *SqliteWorkerRepo) GetByID(ctx context.Context, id int64) (domain.Worker, error) {
	w, err := scanWorker(r.db.QueryRowContext(ctx, `SELECT `+workerColumns+` FROM workers WHERE id = ?`, id))
	return w, mapErr(err)
}

func (r *SqliteWorkerRepo) GetByChatID(ctx context.Context, chatID int64) (domain.Worker, error) {
	w, err := scanWorker(r.db.QueryRowContext(ctx, `SELECT `+workerColumns+` FROM workers WHERE chat_id = ? LIMIT 1`, chatID))
	return w, mapErr(err)
}

func (r *SqliteWorkerRepo) ListByShift(ctx context.Context, shift domain.Shift) ([]domain.Worker, error) {
	return r.list(ctx, `WHERE shift = ? ORDER BY id`, string(shift))
}

func (r *SqliteWorkerRepo) SyncWorking(ctx context.Context, id int64) error {
	return syncWorker(ctx, r.db, id)
}

func (r *SqliteWorkerRepo) list(ctx context.Context, clause string, args ...any) ([]domain.Worker, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+workerColumns+` FROM workers `+clause, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var workers []domain.Worker
	for rows.Next() {
		w, err := scanWorker(rows)
		if err != nil {
			return nil, err
		}
		workers = append(workers, w)
	}
	return workers, rows.Err()
}
