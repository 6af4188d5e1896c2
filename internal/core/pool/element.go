package pool

import (
	"time"

	"github.com/google/uuid"
)

// Element is a pooled handle. It belongs to exactly one pool for its lifetime.
type Element struct {
	id       string
	resource any
	pool     *ObjectPool

	inUse    bool
	expiring bool
	expire   time.Duration
}

func newElement(p *ObjectPool, resource any) *Element {
	return &Element{id: uuid.NewString(), resource: resource, pool: p}
}

func (e *Element) ID() string        { return e.id }
func (e *Element) Resource() any     { return e.resource }
func (e *Element) InUse() bool       { return e.inUse }
func (e *Element) Pool() *ObjectPool { return e.pool }

// Remaining is the time left before an expiring element is recycled.
func (e *Element) Remaining() (time.Duration, bool) {
	return e.expire, e.expiring
}
