package domain

import "context"

type WorkerRepo interface {
	GetAll(ctx context.Context) ([]Worker, error)
	GetByID(ctx context.Context, id int64) (Worker, error)
	GetByChatID(ctx context.Context, chatID int64) (Worker, error)
	ListByShift(ctx context.Context, shift Shift) ([]Worker, error)
	CreateOrUpdate(ctx context.Context, w Worker) error
	// SyncWorking пересчитывает is_working по наличию открытой записи.
	SyncWorking(ctx context.Context, id int64) error
}
