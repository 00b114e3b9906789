package server

import (
	"github.com/rs/zerolog/log"
	tomb "gopkg.in/tomb.v2"
)

const taskChanSize = 100

// WorkerFunction is the unit of work a pool worker runs per task, ported
// unchanged from the teacher's internal/worker.go.
type WorkerFunction = func(t *tomb.Tomb, task any) error

// WorkerPool runs up to n WorkerFunction invocations concurrently, each
// reading its next task off a shared channel, exactly as the teacher's
// WorkerPool does for connection handling.
type WorkerPool struct {
	n     int
	tasks chan any
	work  WorkerFunction
}

func NewWorkerPool(size int) WorkerPool {
	return WorkerPool{
		tasks: make(chan any, taskChanSize),
		n:     size,
	}
}

// Setup spins up the pool's workers under t, restarting none of them —
// each worker runs until t dies, matching the teacher's one-shot pool.
func (pool *WorkerPool) Setup(t *tomb.Tomb, work WorkerFunction) {
	pool.work = work
	log.Info().Int("workers", pool.n).Msg("starting worker pool")
	for i := 0; i < pool.n; i++ {
		t.Go(func() error {
			return pool.workerLoop(t)
		})
	}
}

func (pool *WorkerPool) workerLoop(t *tomb.Tomb) error {
	for {
		select {
		case <-t.Dying():
			return nil
		case task := <-pool.tasks:
			if err := pool.work(t, task); err != nil {
				log.Error().Err(err).Msg("worker task failed")
			}
		}
	}
}
