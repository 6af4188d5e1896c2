package behavior

import (
	"fmt"
	"sync"
)

type (
	ActionFactory    func(params map[string]any) (ActionHandler, error)
	ConditionFactory func(params map[string]any) (ConditionFunc, error)
	// DecoratorFactory receives the node name because decorators are nodes
	// themselves, not pluggable logic.
	DecoratorFactory func(name string, params map[string]any) (Decorator, error)
)

// Registry maps config names to leaf logic and decorators.
type Registry interface {
	RegisterAction(name string, factory ActionFactory)
	RegisterCondition(name string, factory ConditionFactory)
	RegisterDecorator(name string, factory DecoratorFactory)

	NewAction(name string, params map[string]any) (ActionHandler, error)
	NewCondition(name string, params map[string]any) (ConditionFunc, error)
	NewDecorator(kind, name string, params map[string]any) (Decorator, error)
}

type registry struct {
	mu    sync.RWMutex
	acts  map[string]ActionFactory
	conds map[string]ConditionFactory
	decos map[string]DecoratorFactory
}

func NewRegistry() Registry {
	return &registry{
		acts:  make(map[string]ActionFactory),
		conds: make(map[string]ConditionFactory),
		decos: make(map[string]DecoratorFactory),
	}
}

func (r *registry) RegisterAction(name string, factory ActionFactory) {
	r.mu.Lock()
	r.acts[name] = factory
	r.mu.Unlock()
}

func (r *registry) RegisterCondition(name string, factory ConditionFactory) {
	r.mu.Lock()
	r.conds[name] = factory
	r.mu.Unlock()
}

func (r *registry) RegisterDecorator(name string, factory DecoratorFactory) {
	r.mu.Lock()
	r.decos[name] = factory
	r.mu.Unlock()
}

func (r *registry) NewAction(name string, params map[string]any) (ActionHandler, error) {
	r.mu.RLock()
	f := r.acts[name]
	r.mu.RUnlock()
	if f == nil {
		return nil, fmt.Errorf("unknown action: %s", name)
	}
	return f(params)
}

func (r *registry) NewCondition(name string, params map[string]any) (ConditionFunc, error) {
	r.mu.RLock()
	f := r.conds[name]
	r.mu.RUnlock()
	if f == nil {
		return nil, fmt.Errorf("unknown condition: %s", name)
	}
	return f(params)
}

func (r *registry) NewDecorator(kind, name string, params map[string]any) (Decorator, error) {
	r.mu.RLock()
	f := r.decos[kind]
	r.mu.RUnlock()
	if f == nil {
		return nil, fmt.Errorf("unknown decorator: %s", kind)
	}
	return f(name, params)
}
