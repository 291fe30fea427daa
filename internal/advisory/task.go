package advisory

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrPending is returned by Task.Start while a request is in flight.
var ErrPending = errors.New("briefing request already pending")

// State is the externally visible status of a briefing task.
type State struct {
	Pending   bool      `json:"pending"`
	Text      string    `json:"text,omitempty"`
	OK        bool      `json:"ok"`
	UpdatedAt time.Time `json:"updated_at,omitempty"`
}

// Task runs at most one briefing request at a time. The simulation keeps
// ticking while it is pending and never reads its outcome.
type Task struct {
	gen     Generator
	system  string
	timeout time.Duration
	observe func(ok bool)
	now     func() time.Time
	mu      sync.Mutex
	state   State
	done    chan struct{}
}

// NewTask creates a task using gen. A nil gen makes every request settle
// with FailureMessage.
func NewTask(gen Generator, system string, timeout time.Duration) *Task {
	done := make(chan struct{})
	close(done)
	return &Task{gen: gen, system: system, timeout: timeout, now: time.Now, done: done}
}

// SetObserver registers a callback invoked after each request settles.
func (t *Task) SetObserver(fn func(ok bool)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.observe = fn
}

// Start launches a briefing request for s. It returns ErrPending if one is
// already running. The request outlives ctx cancellation but keeps its
// values, so a finished HTTP handler does not abort it.
func (t *Task) Start(ctx context.Context, s Summary) error {
	t.mu.Lock()
	if t.state.Pending {
		t.mu.Unlock()
		return ErrPending
	}
	t.state.Pending = true
	done := make(chan struct{})
	t.done = done
	t.mu.Unlock()

	go func() {
		rctx := context.WithoutCancel(ctx)
		var cancel context.CancelFunc = func() {}
		if t.timeout > 0 {
			rctx, cancel = context.WithTimeout(rctx, t.timeout)
		}
		text, ok := Brief(rctx, t.gen, t.system, s)
		cancel()

		t.mu.Lock()
		t.state = State{Pending: false, Text: text, OK: ok, UpdatedAt: t.now().UTC()}
		observe := t.observe
		t.mu.Unlock()
		if observe != nil {
			observe(ok)
		}
		close(done)
	}()
	return nil
}

// State returns the current task state.
func (t *Task) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// Wait blocks until the current request settles or ctx is done.
func (t *Task) Wait(ctx context.Context) (State, error) {
	t.mu.Lock()
	done := t.done
	t.mu.Unlock()
	select {
	case <-done:
		return t.State(), nil
	case <-ctx.Done():
		return t.State(), ctx.Err()
	}
}
