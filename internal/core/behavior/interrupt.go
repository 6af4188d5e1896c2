package behavior

import (
	"slices"

	"github.com/zeusync/liquid/internal/core/events"
	"github.com/zeusync/liquid/internal/core/observability/log"
)

// tryInterrupt re-checks the conditions watched by interrupting control nodes on
// the stack, outermost first, and restarts the first branch whose guard changed.
// The restarted node is left on top of the stack, so the same tick dispatches
// its children again.
func (t *BehaviorTree) tryInterrupt(tc *TickContext) bool {
	for i, c := range t.stack {
		mode := c.InterruptMode()
		if mode == InterruptNone {
			continue
		}
		for _, ch := range c.core().children {
			r := ch.Result()
			if !r.Terminal() {
				break
			}
			if r == ResultSuccess && !mode.watchesSelf() || r == ResultFailure && !mode.watchesLowPriority() {
				continue
			}
			cond := guardCondition(ch)
			if cond == nil || !cond.Result().Terminal() {
				continue
			}
			if cond.evaluate(tc) != cond.Result() {
				t.abort(tc, i, cond)
				return true
			}
		}
	}
	return false
}

// guardCondition follows decorators down to the condition leaf they wrap.
func guardCondition(n Node) *Condition {
	for n != nil {
		switch v := n.(type) {
		case *Condition:
			return v
		case Decorator:
			n = v.Child()
		default:
			return nil
		}
	}
	return nil
}

func (t *BehaviorTree) abort(tc *TickContext, depth int, trigger *Condition) {
	c := t.stack[depth]
	aborted := ""
	for _, a := range slices.Clone(t.running) {
		if !slices.Contains(a.Path(), Node(c)) {
			continue
		}
		a.stop(tc)
		t.unregister(a)
		aborted = a.Name()
	}
	ResetSubtree(c)
	t.stack = t.stack[:depth+1]

	t.log.Info("branch interrupted",
		log.String("interrupter", c.Name()),
		log.String("condition", trigger.Name()),
		log.String("aborted", aborted),
	)
	t.publish(events.TypeTreeInterrupted, events.TreeInterrupted{Tree: t.name, Interrupter: c.Name(), Aborted: aborted})
}
