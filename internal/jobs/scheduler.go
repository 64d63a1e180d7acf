package jobs

import (
	"context"
	"fmt"
	"log"

	"github.com/go-co-op/gocron/v2"
)

type Scheduler struct {
	inner  gocron.Scheduler
	ctx    context.Context
	cancel context.CancelFunc
	guards []*guard
}

// NewScheduler registers every task. A non-nil locker makes each run
// exclusive across instances as well.
func NewScheduler(tasks []Task, locker gocron.Locker) (*Scheduler, error) {
	var opts []gocron.SchedulerOption
	if locker != nil {
		opts = append(opts, gocron.WithDistributedLocker(locker))
	}
	inner, err := gocron.NewScheduler(opts...)
	if err != nil {
		return nil, fmt.Errorf("create scheduler: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &Scheduler{inner: inner, ctx: ctx, cancel: cancel}

	for _, task := range tasks {
		if task.Interval <= 0 {
			cancel()
			return nil, fmt.Errorf("task %s: interval must be positive", task.Name)
		}
		g := newGuard(task)
		_, err := inner.NewJob(
			gocron.DurationJob(task.Interval),
			gocron.NewTask(func() { g.run(s.ctx) }),
			gocron.WithName(task.Name),
			gocron.WithSingletonMode(gocron.LimitModeReschedule),
		)
		if err != nil {
			cancel()
			return nil, fmt.Errorf("register %s: %w", task.Name, err)
		}
		s.guards = append(s.guards, g)
		log.Printf("[Scheduler] registered %s every %s", task.Name, task.Interval)
	}
	return s, nil
}

func (s *Scheduler) Start() {
	s.inner.Start()
}

// Shutdown cancels in-flight tasks and waits for them to return.
func (s *Scheduler) Shutdown() error {
	s.cancel()
	return s.inner.Shutdown()
}

// RunNow executes a registered task synchronously, honouring its guard.
func (s *Scheduler) RunNow(ctx context.Context, name string) (bool, error) {
	for _, g := range s.guards {
		if g.task.Name == name {
			return g.run(ctx)
		}
	}
	return false, fmt.Errorf("unknown task %q", name)
}

func (s *Scheduler) TaskNames() []string {
	names := make([]string, 0, len(s.guards))
	for _, g := range s.guards {
		names = append(names, g.task.Name)
	}
	return names
}
