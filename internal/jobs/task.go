package jobs

import (
	"context"
	"fmt"
	"log"
	"sync/atomic"
	"time"

	"github.com/Eursukkul/booking-microservice/inventory-service/internal/metrics"
)

// Task is one recurring reconciliation job.
type Task struct {
	Name     string
	Interval time.Duration
	Run      func(ctx context.Context) error
}

// guard keeps a task from overlapping with itself inside this process and
// isolates its failures from the rest of the schedule.
type guard struct {
	task    Task
	running atomic.Bool
}

func newGuard(task Task) *guard {
	return &guard{task: task}
}

// run reports whether the task body was executed.
func (g *guard) run(ctx context.Context) (ran bool, err error) {
	if !g.running.CompareAndSwap(false, true) {
		log.Printf("[Scheduler] %s still running, skipping", g.task.Name)
		metrics.ObserveJob(g.task.Name, metrics.OutcomeSkipped, 0)
		return false, nil
	}
	defer g.running.Store(false)

	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
		outcome := metrics.OutcomeSuccess
		if err != nil {
			outcome = metrics.OutcomeFailure
			log.Printf("[Scheduler] %s failed: %v", g.task.Name, err)
		}
		metrics.ObserveJob(g.task.Name, outcome, time.Since(start))
	}()

	ran = true
	err = g.task.Run(ctx)
	return ran, err
}
