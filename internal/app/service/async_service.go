package service

import (
	"errors"

	"attendance-bot/pkg/workerpool"
)

var errPoolClosed = errors.New("worker pool closed")

type AsyncService struct {
	Pool *workerpool.WorkerPool
}

func NewAsyncService(pool *workerpool.WorkerPool) *AsyncService {
	return &AsyncService{Pool: pool}
}

// SubmitAll раздаёт задачи пулу и собирает результаты в исходном порядке.
// У каждой задачи свой буферизованный канал, поэтому воркеры не блокируются на отправке.
func (a *AsyncService) SubmitAll(fns []func() (any, error)) []workerpool.Result {
	out := make([]workerpool.Result, len(fns))
	chans := make([]chan workerpool.Result, len(fns))
	for i, fn := range fns {
		chans[i] = make(chan workerpool.Result, 1)
		if !a.Pool.Submit(workerpool.Task{Fn: fn, ResultC: chans[i]}) {
			chans[i] <- workerpool.Result{Err: errPoolClosed}
		}
	}
	for i, ch := range chans {
		out[i] = <-ch
	}
	return out
}
