package behavior

import (
	"context"
	"fmt"
	"time"

	"github.com/zeusync/liquid/internal/core/observability/log"
)

var (
	_ ExecutionNode = (*Action)(nil)
	_ ExecutionNode = (*Condition)(nil)
)

// TickContext is handed to every leaf the tree ticks.
type TickContext struct {
	Ctx   context.Context
	Tree  *BehaviorTree
	BB    *Blackboard
	Log   log.Log
	Delta time.Duration

	now time.Time
}

// Now returns the tree clock, which only advances through Update.
func (tc *TickContext) Now() time.Time { return tc.now }

// ActionHandler implements the work behind an Action. Execute starts the work,
// CheckExecute polls it while the action reports RUNNING. Returning NONE from
// CheckExecute asks for a fresh Execute in the same tick.
type ActionHandler interface {
	Execute(tc *TickContext) Result
	CheckExecute(tc *TickContext) Result
}

// Stopper is implemented by handlers that need to release work when the tree
// cancels a running action.
type Stopper interface {
	Stop(tc *TickContext)
}

// ActionFunc adapts a single polling function to ActionHandler.
type ActionFunc func(tc *TickContext) Result

func (f ActionFunc) Execute(tc *TickContext) Result      { return f(tc) }
func (f ActionFunc) CheckExecute(tc *TickContext) Result { return f(tc) }

// ConditionFunc is the predicate evaluated by a Condition.
type ConditionFunc func(tc *TickContext) bool

type execCore struct {
	nodeCore
	result Result
}

func (e *execCore) Result() Result { return e.result }

func (e *execCore) Reset() { e.result = ResultNone }

// Action runs an ActionHandler and may stay RUNNING across ticks.
type Action struct {
	execCore
	handler ActionHandler
}

func NewAction(name string, handler ActionHandler) *Action {
	a := &Action{handler: handler}
	a.init(a, name)
	return a
}

// NewActionFunc is shorthand for NewAction(name, ActionFunc(fn)).
func NewActionFunc(name string, fn func(tc *TickContext) Result) *Action {
	return NewAction(name, ActionFunc(fn))
}

func (a *Action) Handler() ActionHandler { return a.handler }

func (a *Action) tick(tc *TickContext) error {
	if a.handler == nil {
		a.result = ResultFailure
		return nil
	}
	if a.result == ResultRunning {
		a.result = a.handler.CheckExecute(tc)
	}
	if a.result == ResultNone {
		a.result = a.handler.Execute(tc)
	}
	if a.result == ResultNone {
		return fmt.Errorf("action %q: %w", a.name, ErrNoneResult)
	}
	return nil
}

// stop cancels the action: its result becomes FAILURE and the handler is told to
// release any work in flight.
func (a *Action) stop(tc *TickContext) {
	a.result = ResultFailure
	if s, ok := a.handler.(Stopper); ok {
		s.Stop(tc)
	}
}

// Condition evaluates a predicate and resolves in the same tick.
type Condition struct {
	execCore
	fn ConditionFunc
}

func NewCondition(name string, fn ConditionFunc) *Condition {
	c := &Condition{fn: fn}
	c.init(c, name)
	return c
}

func (c *Condition) evaluate(tc *TickContext) Result {
	if c.fn != nil && c.fn(tc) {
		return ResultSuccess
	}
	return ResultFailure
}

func (c *Condition) tick(tc *TickContext) error {
	c.result = c.evaluate(tc)
	return nil
}
