package automation

import (
	"context"
	"log"
	"time"

	"github.com/robfig/cron/v3"
)

const (
	AutoCloseSpec = "*/30 * * * *"
	AutoOpenSpec  = "0 * * * *"

	jobTimeout = 5 * time.Minute
)

// Scheduler запускает задания Engine по расписанию в таймзоне смен.
type Scheduler struct {
	engine *Engine
	cron   *cron.Cron
	ctx    context.Context
}

func NewScheduler(engine *Engine) (*Scheduler, error) {
	logger := cron.PrintfLogger(log.Default())
	s := &Scheduler{
		engine: engine,
		ctx:    context.Background(),
		cron: cron.New(
			cron.WithLocation(engine.Cal.Loc),
			cron.WithLogger(logger),
			cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
		),
	}
	if _, err := s.cron.AddFunc(AutoCloseSpec, s.job("autoclose", engine.AutoClose)); err != nil {
		return nil, err
	}
	if _, err := s.cron.AddFunc(AutoOpenSpec, s.job("autoopen", engine.AutoOpen)); err != nil {
		return nil, err
	}
	return s, nil
}

// Start запускает расписание и останавливает его по отмене ctx.
func (s *Scheduler) Start(ctx context.Context) {
	s.ctx = ctx
	s.cron.Start()
	go func() {
		<-ctx.Done()
		<-s.Stop().Done()
	}()
}

// Stop возвращает контекст, который завершится после окончания текущих заданий.
func (s *Scheduler) Stop() context.Context {
	return s.cron.Stop()
}

func (s *Scheduler) Entries() int {
	return len(s.cron.Entries())
}

// job оборачивает задание: ошибка чтения входных данных логируется,
// следующий запуск по расписанию повторит попытку.
func (s *Scheduler) job(name string, fn func(context.Context) (Report, error)) func() {
	return func() {
		ctx, cancel := context.WithTimeout(s.ctx, jobTimeout)
		defer cancel()
		rep, err := fn(ctx)
		if err != nil {
			log.Printf("[%s] run failed: %v", name, err)
			return
		}
		log.Printf("[%s] %s", name, rep)
	}
}
