package behavior

import "time"

type waitHandler struct {
	duration time.Duration
	deadline time.Time
}

// NewWait returns an action that stays RUNNING until the tree clock has advanced
// by d since it started.
func NewWait(name string, d time.Duration) *Action {
	return NewAction(name, &waitHandler{duration: d})
}

func (w *waitHandler) Execute(tc *TickContext) Result {
	if w.duration <= 0 {
		return ResultSuccess
	}
	w.deadline = tc.Now().Add(w.duration)
	return ResultRunning
}

func (w *waitHandler) CheckExecute(tc *TickContext) Result {
	if tc.Now().Before(w.deadline) {
		return ResultRunning
	}
	return ResultSuccess
}

type timeoutHandler struct {
	inner    ActionHandler
	timeout  time.Duration
	deadline time.Time
}

// NewTimeout wraps handler so that it is stopped and reported as FAILURE once it
// has been running for longer than timeout on the tree clock.
func NewTimeout(name string, handler ActionHandler, timeout time.Duration) *Action {
	return NewAction(name, &timeoutHandler{inner: handler, timeout: timeout})
}

func (t *timeoutHandler) Execute(tc *TickContext) Result {
	t.deadline = tc.Now().Add(t.timeout)
	return t.inner.Execute(tc)
}

func (t *timeoutHandler) CheckExecute(tc *TickContext) Result {
	if !tc.Now().Before(t.deadline) {
		t.Stop(tc)
		return ResultFailure
	}
	return t.inner.CheckExecute(tc)
}

func (t *timeoutHandler) Stop(tc *TickContext) {
	if s, ok := t.inner.(Stopper); ok {
		s.Stop(tc)
	}
}
