package pool

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/zeusync/liquid/internal/core/events"
	"github.com/zeusync/liquid/internal/core/observability/log"
)

var (
	ErrNilElement     = errors.New("pool: nil element")
	ErrForeignElement = errors.New("pool: element belongs to another pool")
	ErrNotInUse       = errors.New("pool: element is not in use")
	ErrNilFactory     = errors.New("pool: nil resource factory")
)

// WaterLevel classifies the pool's usage rate.
type WaterLevel int

const (
	WaterNormal WaterLevel = iota
	WaterHigh
	WaterLow
)

func (w WaterLevel) String() string {
	switch w {
	case WaterHigh:
		return "High"
	case WaterLow:
		return "Low"
	default:
		return "Normal"
	}
}

type options struct {
	log log.Log
	bus events.Bus
}

type Option func(*options)

func WithLogger(l log.Log) Option {
	return func(o *options) { o.log = log.OrNop(l) }
}

func WithBus(b events.Bus) Option {
	return func(o *options) { o.bus = b }
}

func buildOptions(opts []Option) options {
	o := options{log: log.NewNop()}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Stats is a point-in-time view of a pool.
type Stats struct {
	Key        string
	Size       int
	InUse      int
	Free       int
	NeedCreate int
	Patterns   int
	History    []int

	Created   uint64
	Destroyed uint64
	Spawned   uint64
	Recycled  uint64
	Expired   uint64
	Learned   uint64
}

// ObjectPool keeps a set of resources for one key and resizes itself from the
// usage patterns it has seen. Not safe for concurrent use.
type ObjectPool struct {
	key      string
	settings Settings
	factory  ResourceFactory
	elements []*Element
	inUse    int

	patterns     *PatternManager
	history      []int
	recordTimer  time.Duration
	predictTimer time.Duration
	protectLeft  time.Duration
	needCreate   int

	stats Stats
	log   log.Log
	bus   events.Bus
}

func NewObjectPool(key string, factory ResourceFactory, settings Settings, opts ...Option) (*ObjectPool, error) {
	if factory == nil {
		return nil, ErrNilFactory
	}
	if err := settings.Validate(); err != nil {
		return nil, fmt.Errorf("pool %s: %w", key, err)
	}
	o := buildOptions(opts)
	return &ObjectPool{
		key:         key,
		settings:    settings,
		factory:     factory,
		patterns:    NewPatternManager(settings.MaximumPatternCount, settings.MinimumFitRate),
		history:     []int{0},
		protectLeft: settings.NewPoolProtectTime,
		log:         o.log.With(log.String("pool", key)),
		bus:         o.bus,
	}, nil
}

func (p *ObjectPool) Key() string               { return p.key }
func (p *ObjectPool) Settings() Settings        { return p.settings }
func (p *ObjectPool) Size() int                 { return len(p.elements) }
func (p *ObjectPool) InUse() int                { return p.inUse }
func (p *ObjectPool) Patterns() *PatternManager { return p.patterns }
func (p *ObjectPool) History() []int            { return slices.Clone(p.history) }
func (p *ObjectPool) NeedCreate() int           { return p.needCreate }

func (p *ObjectPool) Stats() Stats {
	s := p.stats
	s.Key = p.key
	s.Size = len(p.elements)
	s.InUse = p.inUse
	s.Free = len(p.elements) - p.inUse
	s.NeedCreate = p.needCreate
	s.Patterns = p.patterns.Len()
	s.History = slices.Clone(p.history)
	return s
}

// Preheat makes sure at least amount elements are free.
func (p *ObjectPool) Preheat(amount int) error {
	if free := len(p.elements) - p.inUse; free < amount {
		return p.Expand(amount - free)
	}
	return nil
}

// Expand creates n free elements. Elements created before a factory error are
// kept.
func (p *ObjectPool) Expand(n int) error {
	before := len(p.elements)
	var err error
	for range n {
		if _, err = p.create(); err != nil {
			break
		}
	}
	if added := len(p.elements) - before; added > 0 {
		p.resized(before, "expand")
	}
	return err
}

func (p *ObjectPool) create() (*Element, error) {
	res, err := p.factory.Create(p.key)
	if err != nil {
		return nil, fmt.Errorf("pool %s: create: %w", p.key, err)
	}
	p.factory.Deactivate(res)
	e := newElement(p, res)
	p.elements = append(p.elements, e)
	p.stats.Created++
	return e, nil
}

// Shrink destroys up to n free elements without going below MinimumVolume and
// returns how many of the n could not be removed.
func (p *ObjectPool) Shrink(n int) int {
	if n <= 0 {
		return 0
	}
	allowed := min(n, len(p.elements)-p.settings.MinimumVolume)
	before := len(p.elements)
	removed := 0
	for i := len(p.elements) - 1; i >= 0 && removed < allowed; i-- {
		e := p.elements[i]
		if e.inUse {
			continue
		}
		p.elements = slices.Delete(p.elements, i, i+1)
		p.factory.Destroy(e.resource)
		e.pool = nil
		p.stats.Destroyed++
		removed++
	}
	if removed > 0 {
		p.resized(before, "shrink")
	}
	return n - removed
}

// Spawn hands out a free element, creating exactly one when none is free. A
// positive expire recycles the element automatically once that much time has
// passed through Update.
func (p *ObjectPool) Spawn(expire time.Duration) (*Element, error) {
	var e *Element
	for _, cur := range p.elements {
		if !cur.inUse {
			e = cur
			break
		}
	}
	if e == nil {
		before := len(p.elements)
		created, err := p.create()
		if err != nil {
			return nil, err
		}
		p.resized(before, "spawn")
		e = created
	}
	e.inUse = true
	e.expiring = expire > 0
	e.expire = expire
	p.inUse++
	p.stats.Spawned++
	p.factory.Activate(e.resource)
	return e, nil
}

func (p *ObjectPool) Recycle(e *Element) error {
	switch {
	case e == nil:
		return ErrNilElement
	case e.pool != p:
		return fmt.Errorf("pool %s: %w", p.key, ErrForeignElement)
	case !e.inUse:
		return fmt.Errorf("pool %s: %w", p.key, ErrNotInUse)
	}
	p.release(e)
	return nil
}

func (p *ObjectPool) release(e *Element) {
	e.inUse = false
	e.expiring = false
	e.expire = 0
	p.inUse--
	p.stats.Recycled++
	p.factory.Deactivate(e.resource)
}

// Clear destroys every element and restarts the prediction state. Learned
// patterns are kept.
func (p *ObjectPool) Clear() {
	before := len(p.elements)
	for _, e := range p.elements {
		p.factory.Destroy(e.resource)
		e.pool = nil
		p.stats.Destroyed++
	}
	p.elements = nil
	p.inUse = 0
	p.history = []int{0}
	p.recordTimer, p.predictTimer = 0, 0
	p.protectLeft = p.settings.NewPoolProtectTime
	p.needCreate = 0
	if before > 0 {
		p.resized(before, "clear")
	}
}

// Update advances the pool by one frame. delta drives element expiry and may
// be scaled by the host; unscaledDelta drives recording and prediction.
func (p *ObjectPool) Update(delta, unscaledDelta time.Duration) {
	p.expire(delta)
	if !p.settings.PredictionEnabled {
		return
	}

	p.protectLeft = max(p.protectLeft-unscaledDelta, 0)

	p.recordTimer += unscaledDelta
	if p.recordTimer >= p.settings.PatternRecordInterval {
		p.recordTimer = 0
		p.record()
	}

	p.predictTimer += unscaledDelta
	if p.predictTimer >= p.settings.PredictionInterval {
		p.predictTimer = 0
		p.needCreate += p.predict()
	}

	p.apply()
}

func (p *ObjectPool) expire(delta time.Duration) {
	expired := 0
	for _, e := range p.elements {
		if !e.inUse || !e.expiring {
			continue
		}
		e.expire -= delta
		if e.expire <= 0 {
			p.release(e)
			expired++
		}
	}
	if expired > 0 {
		p.stats.Expired += uint64(expired)
		p.publish(events.TypeElementsExpired, events.ElementsExpired{Pool: p.key, Count: expired})
	}
}

func (p *ObjectPool) resized(before int, reason string) {
	after := len(p.elements)
	p.log.Debug("pool resized",
		log.Int("before", before),
		log.Int("after", after),
		log.Int("in_use", p.inUse),
		log.String("reason", reason),
	)
	p.publish(events.TypePoolResized, events.PoolResized{
		Pool: p.key, Before: before, After: after, InUse: p.inUse, Reason: reason,
	})
}

func (p *ObjectPool) publish(typ string, data any) {
	if err := events.Publish(p.bus, typ, p.key, data); err != nil {
		p.log.Warn("event handler failed", log.String("event", typ), log.Error(err))
	}
}
