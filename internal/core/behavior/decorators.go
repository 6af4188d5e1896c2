package behavior

var (
	_ Decorator = (*Inverse)(nil)
	_ Decorator = (*ForceRaise)(nil)
	_ Decorator = (*Repeat)(nil)
	_ Decorator = (*RetryUntil)(nil)
)

// decoratorCore is a control node with a single optional child. Decorators never
// watch for interrupts themselves.
type decoratorCore struct {
	controlCore
}

func (d *decoratorCore) Child() Node { return d.first() }

// Inverse swaps SUCCESS and FAILURE of its child.
type Inverse struct {
	decoratorCore
}

func NewInverse(name string) *Inverse {
	n := &Inverse{}
	n.init(n, name)
	return n
}

func (n *Inverse) Result() Result {
	if n.result.Terminal() {
		return n.result
	}
	child := n.Child()
	if child == nil {
		n.result = ResultFailure
		return n.result
	}
	switch r := child.Result(); r {
	case ResultSuccess:
		n.result = ResultFailure
	case ResultFailure:
		n.result = ResultSuccess
	default:
		return r
	}
	return n.result
}

// ForceRaise runs its child and then reports a fixed result.
type ForceRaise struct {
	decoratorCore
	forced Result
}

// NewForceRaise builds a ForceRaise reporting forced, which must be SUCCESS or
// FAILURE; anything else is treated as SUCCESS.
func NewForceRaise(name string, forced Result) *ForceRaise {
	if !forced.Terminal() {
		forced = ResultSuccess
	}
	n := &ForceRaise{forced: forced}
	n.init(n, name)
	return n
}

func NewForceSuccess(name string) *ForceRaise { return NewForceRaise(name, ResultSuccess) }

func NewForceFailure(name string) *ForceRaise { return NewForceRaise(name, ResultFailure) }

func (n *ForceRaise) Forced() Result { return n.forced }

func (n *ForceRaise) Result() Result {
	if n.result.Terminal() {
		return n.result
	}
	if child := n.Child(); child != nil {
		if r := child.Result(); !r.Terminal() {
			return r
		}
	}
	n.result = n.forced
	return n.result
}

// Repeat runs its child a fixed number of times and reports the last outcome.
type Repeat struct {
	decoratorCore
	times     int
	iteration int
}

func NewRepeat(name string, times int) *Repeat {
	if times < 1 {
		times = 1
	}
	n := &Repeat{times: times}
	n.init(n, name)
	return n
}

func (n *Repeat) Times() int { return n.times }

// Iteration is the zero-based index of the run in progress.
func (n *Repeat) Iteration() int { return n.iteration }

func (n *Repeat) Reset() {
	n.controlCore.Reset()
	n.iteration = 0
}

func (n *Repeat) exhausted() bool { return n.iteration+1 >= n.times }

func (n *Repeat) Next() Node {
	if n.result.Terminal() {
		return nil
	}
	child := n.Child()
	if child == nil {
		return nil
	}
	if !child.Result().Terminal() {
		return child
	}
	if n.exhausted() {
		return nil
	}
	n.iteration++
	ResetSubtree(child)
	return child
}

func (n *Repeat) Result() Result {
	if n.result.Terminal() {
		return n.result
	}
	child := n.Child()
	if child == nil {
		n.result = ResultFailure
		return n.result
	}
	r := child.Result()
	switch {
	case r == ResultRunning:
		return ResultRunning
	case r.Terminal() && n.exhausted():
		n.result = r
		return r
	default:
		return ResultNone
	}
}

// RetryUntil re-runs its child until it reports the target result. MaxAttempts of
// zero retries without limit.
type RetryUntil struct {
	decoratorCore
	target      Result
	maxAttempts int
	attempt     int
}

func NewRetryUntil(name string, target Result, maxAttempts int) *RetryUntil {
	if !target.Terminal() {
		target = ResultSuccess
	}
	if maxAttempts < 0 {
		maxAttempts = 0
	}
	n := &RetryUntil{target: target, maxAttempts: maxAttempts}
	n.init(n, name)
	return n
}

func NewRetryUntilSuccess(name string, maxAttempts int) *RetryUntil {
	return NewRetryUntil(name, ResultSuccess, maxAttempts)
}

func NewRetryUntilFailure(name string, maxAttempts int) *RetryUntil {
	return NewRetryUntil(name, ResultFailure, maxAttempts)
}

func (n *RetryUntil) Target() Result { return n.target }

// Attempt is the zero-based index of the attempt in progress.
func (n *RetryUntil) Attempt() int { return n.attempt }

func (n *RetryUntil) Reset() {
	n.controlCore.Reset()
	n.attempt = 0
}

func (n *RetryUntil) outOfAttempts() bool {
	return n.maxAttempts > 0 && n.attempt+1 >= n.maxAttempts
}

func (n *RetryUntil) Next() Node {
	if n.result.Terminal() {
		return nil
	}
	child := n.Child()
	if child == nil {
		return nil
	}
	r := child.Result()
	if !r.Terminal() {
		return child
	}
	if r == n.target || n.outOfAttempts() {
		return nil
	}
	n.attempt++
	ResetSubtree(child)
	return child
}

func (n *RetryUntil) Result() Result {
	if n.result.Terminal() {
		return n.result
	}
	child := n.Child()
	if child == nil {
		n.result = ResultFailure
		return n.result
	}
	r := child.Result()
	switch {
	case r == n.target, r.Terminal() && n.outOfAttempts():
		n.result = r
		return r
	case r == ResultRunning:
		return ResultRunning
	default:
		return ResultNone
	}
}
