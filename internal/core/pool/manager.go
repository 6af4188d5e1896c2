package pool

import (
	"fmt"
	"time"
)

// DefaultPreheatVolume is used by Manager.Preheat when no amount is given.
const DefaultPreheatVolume = 40

// Manager owns one ObjectPool per key and creates pools on first use.
type Manager struct {
	factory  ResourceFactory
	settings Settings
	opts     []Option
	pools    map[string]*ObjectPool
	order    []string
}

func NewManager(factory ResourceFactory, settings Settings, opts ...Option) *Manager {
	return &Manager{
		factory:  factory,
		settings: settings,
		opts:     opts,
		pools:    make(map[string]*ObjectPool),
	}
}

// Register creates the pool for key with its own settings.
func (m *Manager) Register(key string, settings Settings) (*ObjectPool, error) {
	if _, ok := m.pools[key]; ok {
		return nil, fmt.Errorf("pool %s already registered", key)
	}
	p, err := NewObjectPool(key, m.factory, settings, m.opts...)
	if err != nil {
		return nil, err
	}
	m.pools[key] = p
	m.order = append(m.order, key)
	return p, nil
}

// Settings are the defaults used for pools created on demand.
func (m *Manager) Settings() Settings { return m.settings }

func (m *Manager) Pool(key string) (*ObjectPool, bool) {
	p, ok := m.pools[key]
	return p, ok
}

// Pools returns the pools in registration order.
func (m *Manager) Pools() []*ObjectPool {
	out := make([]*ObjectPool, 0, len(m.order))
	for _, key := range m.order {
		out = append(out, m.pools[key])
	}
	return out
}

func (m *Manager) poolFor(key string) (*ObjectPool, error) {
	if p, ok := m.pools[key]; ok {
		return p, nil
	}
	return m.Register(key, m.settings)
}

// Preheat fills the pool for key up to amount free elements, or
// DefaultPreheatVolume when amount is not positive.
func (m *Manager) Preheat(key string, amount int) error {
	if amount <= 0 {
		amount = DefaultPreheatVolume
	}
	p, err := m.poolFor(key)
	if err != nil {
		return err
	}
	return p.Preheat(amount)
}

func (m *Manager) Spawn(key string, expire time.Duration) (*Element, error) {
	p, err := m.poolFor(key)
	if err != nil {
		return nil, err
	}
	return p.Spawn(expire)
}

// Recycle returns e to the pool that produced it.
func (m *Manager) Recycle(e *Element) error {
	if e == nil {
		return ErrNilElement
	}
	if e.pool == nil || m.pools[e.pool.key] != e.pool {
		return ErrForeignElement
	}
	return e.pool.Recycle(e)
}

func (m *Manager) Update(delta, unscaledDelta time.Duration) {
	for _, key := range m.order {
		m.pools[key].Update(delta, unscaledDelta)
	}
}

// Clear destroys every pool.
func (m *Manager) Clear() {
	for _, key := range m.order {
		m.pools[key].Clear()
	}
	m.pools = make(map[string]*ObjectPool)
	m.order = nil
}
