package service

import (
	"context"
	"fmt"

	"attendance-bot/internal/domain"
)

type WorkerService struct {
	Repo domain.WorkerRepo
}

func NewWorkerService(repo domain.WorkerRepo) *WorkerService {
	return &WorkerService{Repo: repo}
}

func (s *WorkerService) CreateOrUpdateWorker(ctx context.Context, w domain.Worker) error {
	if w.ID == 0 || w.Name == "" {
		return fmt.Errorf("%w: worker id and name are required", domain.ErrValidation)
	}
	if !w.Shift.Valid() {
		return fmt.Errorf("%w: unknown shift %q", domain.ErrValidation, w.Shift)
	}
	switch w.Role {
	case "":
		w.Role = domain.RoleWorker
	case domain.RoleWorker, domain.RoleManager, domain.RoleAdmin:
	default:
		return fmt.Errorf("%w: unknown role %q", domain.ErrValidation, w.Role)
	}
	if err := s.Repo.CreateOrUpdate(ctx, w); err != nil {
		return err
	}
	// флаг берётся из отметок, а не из запроса
	return s.Repo.SyncWorking(ctx, w.ID)
}

func (s *WorkerService) GetAllWorkers(ctx context.Context) ([]domain.Worker, error) {
	return s.Repo.GetAll(ctx)
}

func (s *WorkerService) GetWorkerByID(ctx context.Context, id int64) (domain.Worker, error) {
	return s.Repo.GetByID(ctx, id)
}

func (s *WorkerService) GetWorkerByChat(ctx context.Context, chatID int64) (domain.Worker, error) {
	return s.Repo.GetByChatID(ctx, chatID)
}
