package behavior

// Result is the outcome a node reports for the current cycle.
type Result int

const (
	ResultNone Result = iota
	ResultSuccess
	ResultFailure
	ResultRunning
)

func (r Result) String() string {
	switch r {
	case ResultSuccess:
		return "Success"
	case ResultFailure:
		return "Failure"
	case ResultRunning:
		return "Running"
	default:
		return "None"
	}
}

// Terminal reports whether r is SUCCESS or FAILURE.
func (r Result) Terminal() bool {
	return r == ResultSuccess || r == ResultFailure
}

// InterruptMode selects which conditions a control node keeps watching while
// actions beneath it are running.
type InterruptMode int

const (
	InterruptNone InterruptMode = iota
	InterruptSelf
	InterruptLowPriority
	InterruptBoth
)

func (m InterruptMode) String() string {
	switch m {
	case InterruptSelf:
		return "Self"
	case InterruptLowPriority:
		return "LowPriority"
	case InterruptBoth:
		return "Both"
	default:
		return "None"
	}
}

func (m InterruptMode) watchesSelf() bool {
	return m == InterruptSelf || m == InterruptBoth
}

func (m InterruptMode) watchesLowPriority() bool {
	return m == InterruptLowPriority || m == InterruptBoth
}

// ParseInterruptMode maps config strings such as "self" or "both".
func ParseInterruptMode(s string) InterruptMode {
	switch s {
	case "self", "Self", "SELF":
		return InterruptSelf
	case "low_priority", "lowPriority", "LowPriority", "LOW_PRIORITY":
		return InterruptLowPriority
	case "both", "Both", "BOTH":
		return InterruptBoth
	default:
		return InterruptNone
	}
}
