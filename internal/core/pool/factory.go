package pool

// ResourceFactory produces and manages the opaque resources a pool hands out.
type ResourceFactory interface {
	Create(key string) (any, error)
	Destroy(resource any)
	// Activate is called when a resource is spawned, Deactivate when it returns
	// to the pool or is first created.
	Activate(resource any)
	Deactivate(resource any)
}

// Factory adapts typed callbacks to ResourceFactory. Only New is required.
type Factory[T any] struct {
	New          func(key string) (T, error)
	OnDestroy    func(T)
	OnActivate   func(T)
	OnDeactivate func(T)
}

var _ ResourceFactory = Factory[int]{}

func (f Factory[T]) Create(key string) (any, error) {
	return f.New(key)
}

func (f Factory[T]) Destroy(resource any) {
	if f.OnDestroy != nil {
		f.OnDestroy(resource.(T))
	}
}

func (f Factory[T]) Activate(resource any) {
	if f.OnActivate != nil {
		f.OnActivate(resource.(T))
	}
}

func (f Factory[T]) Deactivate(resource any) {
	if f.OnDeactivate != nil {
		f.OnDeactivate(resource.(T))
	}
}
