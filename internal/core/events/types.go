package events

// Event types published by the core packages.
const (
	TypeTreeCompleted   = "behavior.completed"
	TypeTreeInterrupted = "behavior.interrupted"
	TypePoolResized     = "pool.resized"
	TypePatternLearned  = "pool.pattern_learned"
	TypeElementsExpired = "pool.expired"
)

// TreeCompleted is the payload of TypeTreeCompleted: the root reached a terminal result.
type TreeCompleted struct {
	Tree   string
	Result string
	Ticks  uint64
}

// TreeInterrupted is the payload of TypeTreeInterrupted.
type TreeInterrupted struct {
	Tree        string
	Interrupter string
	Aborted     string
}

// PoolResized is the payload of TypePoolResized.
type PoolResized struct {
	Pool   string
	Before int
	After  int
	InUse  int
	Reason string
}

// PatternLearned is the payload of TypePatternLearned.
type PatternLearned struct {
	Pool   string
	Values []int
	Stored int
}

// ElementsExpired is the payload of TypeElementsExpired.
type ElementsExpired struct {
	Pool  string
	Count int
}
