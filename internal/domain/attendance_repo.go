package domain

import (
	"context"
	"time"
)

// AttendanceRepo: хранилище отметок. Каждая запись, открывающая или
// закрывающая отметку, в той же транзакции обновляет workers.is_working.
type AttendanceRepo interface {
	Get(ctx context.Context, id string) (Record, error)
	// FindOpen возвращает ErrNotFound, если открытой записи нет.
	FindOpen(ctx context.Context, employeeID int64) (Record, error)
	// Create возвращает ErrConflict, если у работника уже есть открытая запись
	// или автоматическая отметка за эти сутки и смену.
	Create(ctx context.Context, r Record) error
	Close(ctx context.Context, id string, at time.Time, capture Capture, note *string) (Record, error)
	Update(ctx context.Context, id string, p RecordPatch) (Record, error)
	BulkUpdate(ctx context.Context, ids []string, p RecordPatch) ([]Record, error)
	Delete(ctx context.Context, id string) (Record, error)
	// ListOpenSince возвращает открытые записи с StepIn <= cutoff.
	ListOpenSince(ctx context.Context, cutoff time.Time) ([]Record, error)
	// ListRange возвращает записи с StepIn в [from, to). Пустая смена: все смены.
	ListRange(ctx context.Context, from, to time.Time, shift Shift) ([]Record, error)
	HasAutoOpen(ctx context.Context, employeeID int64, shift Shift, day string) (bool, error)
}
