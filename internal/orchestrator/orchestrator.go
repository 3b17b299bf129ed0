// Package orchestrator runs the boot sequence of the tasks registered with
// it (the daemon's main wires the HAL, configuration store, ranging core,
// display compositor, and serial-frame network interface and registers
// them), then supervises them. A critical task that fails to start aborts
// boot; a running task that declares a Check is restarted when the check
// fails, up to maxRestarts times. Tasks without a Check are not restarted.
package orchestrator

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CheckFunc is a liveness probe for a running task. A nil CheckFunc means
// the task is never automatically restarted once started.
type CheckFunc func() error

// Task is one supervised unit of the system: a named start/stop pair, with
// an optional periodic liveness check.
type Task struct {
	Name     string
	Critical bool
	Start    func() error
	Stop     func() error
	Check    CheckFunc
	Interval time.Duration
}

type registeredTask struct {
	task     Task
	running  bool
	restarts int
}

// maxRestarts bounds how many times Supervise will restart a single task
// before giving up and leaving it stopped.
const maxRestarts = 5

// Orchestrator boots and supervises the fixed task set. sessionID tags
// every subsystem's log lines for the lifetime of one process run.
type Orchestrator struct {
	mu        sync.Mutex
	tasks     []*registeredTask
	sessionID string
	logger    *zap.Logger

	stopCh chan struct{}
	wg     sync.WaitGroup
}

// New creates an orchestrator with a fresh boot-session id. The given
// logger is tagged with that id for every log line the orchestrator itself
// emits.
func New(logger *zap.Logger) *Orchestrator {
	sessionID := uuid.NewString()
	return &Orchestrator{
		sessionID: sessionID,
		logger:    logger.With(zap.String("session_id", sessionID)),
	}
}

// SessionID returns this boot's session identifier.
func (o *Orchestrator) SessionID() string { return o.sessionID }

// Register adds a task to the boot sequence, in call order.
func (o *Orchestrator) Register(t Task) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.tasks = append(o.tasks, &registeredTask{task: t})
}

// Boot starts every registered task in registration order. A critical
// task's start failure aborts the boot and returns the error; a
// non-critical task's failure is logged and boot continues.
func (o *Orchestrator) Boot() error {
	o.mu.Lock()
	defer o.mu.Unlock()

	for _, rt := range o.tasks {
		if err := rt.task.Start(); err != nil {
			o.logger.Error("task failed to start",
				zap.String("task", rt.task.Name),
				zap.Bool("critical", rt.task.Critical),
				zap.Error(err))
			if rt.task.Critical {
				return err
			}
			continue
		}
		rt.running = true
	}
	return nil
}

// Supervise launches one monitoring goroutine per task that declares a
// Check function, restarting it on failure up to maxRestarts times.
func (o *Orchestrator) Supervise() {
	o.mu.Lock()
	o.stopCh = make(chan struct{})
	tasks := make([]*registeredTask, len(o.tasks))
	copy(tasks, o.tasks)
	o.mu.Unlock()

	for _, rt := range tasks {
		if rt.task.Check == nil {
			continue
		}
		o.wg.Add(1)
		go o.superviseTask(rt)
	}
}

func (o *Orchestrator) superviseTask(rt *registeredTask) {
	defer o.wg.Done()
	ticker := time.NewTicker(rt.task.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-o.stopCh:
			return
		case <-ticker.C:
		}

		o.mu.Lock()
		running := rt.running
		o.mu.Unlock()
		if !running {
			continue
		}

		if err := rt.task.Check(); err == nil {
			continue
		}

		o.mu.Lock()
		if rt.restarts >= maxRestarts {
			o.mu.Unlock()
			o.logger.Error("task exceeded restart budget, leaving stopped",
				zap.String("task", rt.task.Name))
			continue
		}
		rt.restarts++
		restarts := rt.restarts
		o.mu.Unlock()

		o.logger.Warn("restarting unhealthy task",
			zap.String("task", rt.task.Name),
			zap.Int("attempt", restarts))

		if rt.task.Stop != nil {
			_ = rt.task.Stop()
		}
		if err := rt.task.Start(); err != nil {
			o.logger.Error("task restart failed",
				zap.String("task", rt.task.Name), zap.Error(err))
			o.mu.Lock()
			rt.running = false
			o.mu.Unlock()
		}
	}
}

// Shutdown stops every task in reverse registration order and waits for
// the supervision goroutines to exit.
func (o *Orchestrator) Shutdown() error {
	o.mu.Lock()
	if o.stopCh != nil {
		close(o.stopCh)
	}
	tasks := make([]*registeredTask, len(o.tasks))
	copy(tasks, o.tasks)
	o.mu.Unlock()

	o.wg.Wait()

	var firstErr error
	for i := len(tasks) - 1; i >= 0; i-- {
		rt := tasks[i]
		if !rt.running || rt.task.Stop == nil {
			continue
		}
		if err := rt.task.Stop(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
