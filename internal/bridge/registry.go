package bridge

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
)

var (
	ErrUnknownModule = errors.New("bridge: unknown module")
	ErrUnknownMethod = errors.New("bridge: unknown method")
	ErrArity         = errors.New("bridge: wrong number of arguments")
)

// NativeModule is a named set of methods callable by the host application.
type NativeModule interface {
	Name() string
	MethodNames() []string
	// Invoke dispatches a call by method name. Dispatch errors are returned
	// and leave p untouched; call outcomes settle p.
	Invoke(ctx context.Context, method string, args []string, p Promise) error
}

type method struct {
	arity int
	call  func(ctx context.Context, args []string, p Promise)
}

func (f *FaceAuth) methods() map[string]method {
	return map[string]method{
		"enroll": {arity: 3, call: func(ctx context.Context, a []string, p Promise) {
			f.Enroll(ctx, a[0], a[1], a[2], p)
		}},
		"verify": {arity: 1, call: func(ctx context.Context, a []string, p Promise) {
			f.Verify(ctx, a[0], p)
		}},
		"clearAll": {arity: 0, call: func(ctx context.Context, _ []string, p Promise) {
			f.ClearAll(ctx, p)
		}},
		"listAll": {arity: 0, call: func(ctx context.Context, _ []string, p Promise) {
			f.ListAll(ctx, p)
		}},
	}
}

// MethodNames lists the callable methods in sorted order.
func (f *FaceAuth) MethodNames() []string {
	methods := f.methods()
	names := make([]string, 0, len(methods))
	for name := range methods {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Invoke implements NativeModule.
func (f *FaceAuth) Invoke(ctx context.Context, name string, args []string, p Promise) error {
	m, ok := f.methods()[name]
	if !ok {
		return fmt.Errorf("%w: %s.%s", ErrUnknownMethod, f.Name(), name)
	}
	if len(args) != m.arity {
		return fmt.Errorf("%w: %s.%s takes %d, got %d", ErrArity, f.Name(), name, m.arity, len(args))
	}
	m.call(ctx, args, p)
	return nil
}

// Registry holds the modules exposed to the host application.
type Registry struct {
	mu      sync.RWMutex
	modules map[string]NativeModule
}

func NewRegistry(modules ...NativeModule) *Registry {
	r := &Registry{modules: make(map[string]NativeModule)}
	for _, m := range modules {
		r.Register(m)
	}
	return r
}

// Register adds m, replacing any module with the same name.
func (r *Registry) Register(m NativeModule) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.modules[m.Name()] = m
}

func (r *Registry) Lookup(name string) (NativeModule, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.modules[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownModule, name)
	}
	return m, nil
}

// Names lists registered modules in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.modules))
	for name := range r.modules {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Describe maps every registered module to its method names.
func (r *Registry) Describe() map[string][]string {
	names := r.Names()
	described := make(map[string][]string, len(names))
	for _, name := range names {
		m, err := r.Lookup(name)
		if err != nil {
			continue
		}
		described[name] = m.MethodNames()
	}
	return described
}

// Invoke looks up module and dispatches method on it.
func (r *Registry) Invoke(ctx context.Context, module, method string, args []string, p Promise) error {
	m, err := r.Lookup(module)
	if err != nil {
		return err
	}
	return m.Invoke(ctx, method, args, p)
}
