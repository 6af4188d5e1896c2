package behavior

import (
	"encoding/json"
	"fmt"
	"maps"
	"sync"
)

// Blackboard is the key/value memory shared by the leaves of a tree. It is safe
// for concurrent use so hosts can write sensor data from other goroutines.
type Blackboard struct {
	mu      sync.RWMutex
	data    map[string]any
	version uint64
}

func NewBlackboard() *Blackboard {
	return &Blackboard{data: make(map[string]any)}
}

func (bb *Blackboard) Set(key string, value any) {
	bb.mu.Lock()
	defer bb.mu.Unlock()

	bb.data[key] = value
	bb.version++
}

func (bb *Blackboard) Get(key string) (any, bool) {
	bb.mu.RLock()
	defer bb.mu.RUnlock()

	v, ok := bb.data[key]
	return v, ok
}

func (bb *Blackboard) GetString(key string) (string, bool) {
	v, ok := bb.Get(key)
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// GetInt accepts ints and the float64 values produced by JSON decoding.
func (bb *Blackboard) GetInt(key string) (int, bool) {
	v, ok := bb.Get(key)
	if !ok {
		return 0, false
	}
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		return int(n), true
	default:
		return 0, false
	}
}

func (bb *Blackboard) GetFloat(key string) (float64, bool) {
	v, ok := bb.Get(key)
	if !ok {
		return 0, false
	}
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}

func (bb *Blackboard) GetBool(key string) (bool, bool) {
	v, ok := bb.Get(key)
	if !ok {
		return false, false
	}
	b, ok := v.(bool)
	return b, ok
}

func (bb *Blackboard) Has(key string) bool {
	_, ok := bb.Get(key)
	return ok
}

func (bb *Blackboard) Delete(key string) {
	bb.mu.Lock()
	defer bb.mu.Unlock()

	delete(bb.data, key)
	bb.version++
}

func (bb *Blackboard) Clear() {
	bb.mu.Lock()
	defer bb.mu.Unlock()

	bb.data = make(map[string]any)
	bb.version++
}

// Version increases on every write.
func (bb *Blackboard) Version() uint64 {
	bb.mu.RLock()
	defer bb.mu.RUnlock()

	return bb.version
}

// Snapshot returns a shallow copy of the stored values.
func (bb *Blackboard) Snapshot() map[string]any {
	bb.mu.RLock()
	defer bb.mu.RUnlock()

	return maps.Clone(bb.data)
}

func (bb *Blackboard) MarshalJSON() ([]byte, error) {
	return json.Marshal(bb.Snapshot())
}

func (bb *Blackboard) UnmarshalJSON(data []byte) error {
	values := make(map[string]any)
	if err := json.Unmarshal(data, &values); err != nil {
		return fmt.Errorf("unmarshal blackboard: %w", err)
	}

	bb.mu.Lock()
	defer bb.mu.Unlock()

	bb.data = values
	bb.version++
	return nil
}
