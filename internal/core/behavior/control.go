package behavior

var (
	_ ControlNode = (*Sequence)(nil)
	_ ControlNode = (*Fallback)(nil)
	_ ControlNode = (*Parallel)(nil)
)

// controlCore carries what every control node shares: the interrupt mode, the
// terminal result cached for the current cycle and the default child scan.
type controlCore struct {
	nodeCore
	mode   InterruptMode
	result Result
}

func (c *controlCore) InterruptMode() InterruptMode { return c.mode }

func (c *controlCore) Reset() { c.result = ResultNone }

// Next returns the first child that is still NONE or RUNNING.
func (c *controlCore) Next() Node {
	for _, ch := range c.children {
		if !ch.Result().Terminal() {
			return ch
		}
	}
	return nil
}

type childTally struct {
	running   bool
	pending   bool
	succeeded int
	failed    int
}

func (c *controlCore) tally() childTally {
	var t childTally
	for _, ch := range c.children {
		switch ch.Result() {
		case ResultRunning:
			t.running = true
		case ResultNone:
			t.pending = true
		case ResultSuccess:
			t.succeeded++
		case ResultFailure:
			t.failed++
		}
	}
	return t
}

// Sequence dispatches every child and succeeds when none of them failed.
type Sequence struct {
	controlCore
}

func NewSequence(name string, mode InterruptMode) *Sequence {
	s := &Sequence{}
	s.init(s, name)
	s.mode = mode
	return s
}

func (s *Sequence) Result() Result {
	if s.result.Terminal() {
		return s.result
	}
	switch t := s.tally(); {
	case t.running:
		return ResultRunning
	case t.pending:
		return ResultNone
	case t.failed > 0:
		s.result = ResultFailure
	default:
		s.result = ResultSuccess
	}
	return s.result
}

// Fallback dispatches every child and succeeds when any of them succeeded.
type Fallback struct {
	controlCore
}

func NewFallback(name string, mode InterruptMode) *Fallback {
	f := &Fallback{}
	f.init(f, name)
	f.mode = mode
	return f
}

func (f *Fallback) Result() Result {
	if f.result.Terminal() {
		return f.result
	}
	switch t := f.tally(); {
	case t.running:
		return ResultRunning
	case t.pending:
		return ResultNone
	case t.succeeded > 0:
		f.result = ResultSuccess
	default:
		f.result = ResultFailure
	}
	return f.result
}

// Parallel dispatches every child and succeeds when at least Required of them
// succeeded.
type Parallel struct {
	controlCore
	required int
}

func NewParallel(name string, mode InterruptMode, required int) *Parallel {
	if required < 1 {
		required = 1
	}
	p := &Parallel{required: required}
	p.init(p, name)
	p.mode = mode
	return p
}

func (p *Parallel) Required() int { return p.required }

func (p *Parallel) Result() Result {
	if p.result.Terminal() {
		return p.result
	}
	switch t := p.tally(); {
	case t.running:
		return ResultRunning
	case t.pending:
		return ResultNone
	case t.succeeded >= p.required:
		p.result = ResultSuccess
	default:
		p.result = ResultFailure
	}
	return p.result
}
