package orchestrator

import (
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestBootStartsTasksInOrder(t *testing.T) {
	o := New(zap.NewNop())
	var started []string

	o.Register(Task{Name: "a", Start: func() error { started = append(started, "a"); return nil }})
	o.Register(Task{Name: "b", Start: func() error { started = append(started, "b"); return nil }})

	require.NoError(t, o.Boot())
	assert.Equal(t, []string{"a", "b"}, started)
}

func TestBootAbortsOnCriticalFailure(t *testing.T) {
	o := New(zap.NewNop())
	var bStarted bool

	o.Register(Task{Name: "a", Critical: true, Start: func() error { return errors.New("boom") }})
	o.Register(Task{Name: "b", Start: func() error { bStarted = true; return nil }})

	err := o.Boot()
	assert.Error(t, err)
	assert.False(t, bStarted)
}

func TestBootContinuesPastNonCriticalFailure(t *testing.T) {
	o := New(zap.NewNop())
	var bStarted bool

	o.Register(Task{Name: "a", Critical: false, Start: func() error { return errors.New("boom") }})
	o.Register(Task{Name: "b", Start: func() error { bStarted = true; return nil }})

	require.NoError(t, o.Boot())
	assert.True(t, bStarted)
}

func TestSuperviseRestartsFailingTask(t *testing.T) {
	o := New(zap.NewNop())
	var starts atomic.Int32
	var healthy atomic.Bool

	o.Register(Task{
		Name:     "flaky",
		Start:    func() error { starts.Add(1); return nil },
		Stop:     func() error { return nil },
		Check:    func() error {
			if healthy.Load() {
				return nil
			}
			return errors.New("unhealthy")
		},
		Interval: 5 * time.Millisecond,
	})

	require.NoError(t, o.Boot())
	o.Supervise()
	defer o.Shutdown()

	require.Eventually(t, func() bool {
		return starts.Load() >= 2
	}, time.Second, 5*time.Millisecond)

	healthy.Store(true)
}

func TestShutdownStopsInReverseOrder(t *testing.T) {
	o := New(zap.NewNop())
	var stopped []string

	o.Register(Task{Name: "a", Start: func() error { return nil }, Stop: func() error { stopped = append(stopped, "a"); return nil }})
	o.Register(Task{Name: "b", Start: func() error { return nil }, Stop: func() error { stopped = append(stopped, "b"); return nil }})

	require.NoError(t, o.Boot())
	require.NoError(t, o.Shutdown())
	assert.Equal(t, []string{"b", "a"}, stopped)
}
