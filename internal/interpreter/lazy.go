package interpreter

import (
	"errors"
	"fmt"
	"sync"
)

// Launcher starts a runtime.
type Launcher func() (Runtime, error)

// Lazy starts its runtime on first use and hands out the same runtime
// afterwards. A failed launch is not remembered; the next Start tries again.
type Lazy struct {
	mu     sync.Mutex
	launch Launcher
	rt     Runtime
	starts int
}

// NewLazy returns a guard that launches the runtime on first Start.
func NewLazy(launch Launcher) *Lazy {
	return &Lazy{launch: launch}
}

var (
	sharedOnce sync.Once
	shared     *Lazy
)

// Shared returns the process-wide guard. The launcher passed by the first
// caller is the one used; later launchers are ignored.
func Shared(launch Launcher) *Lazy {
	sharedOnce.Do(func() {
		shared = NewLazy(launch)
	})
	return shared
}

// Start returns the running runtime, launching it if needed.
func (l *Lazy) Start() (Runtime, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.rt != nil {
		return l.rt, nil
	}
	if l.launch == nil {
		return nil, errors.New("interpreter: no launcher configured")
	}
	rt, err := l.launch()
	if err != nil {
		return nil, fmt.Errorf("interpreter: start: %w", err)
	}
	l.rt = rt
	l.starts++
	return rt, nil
}

// Starts is the number of successful launches; it never exceeds one.
func (l *Lazy) Starts() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.starts
}

// Close shuts the runtime down if it was started. The guard stays spent:
// Start keeps returning the closed runtime, whose calls fail with
// ErrRuntimeClosed.
func (l *Lazy) Close() error {
	l.mu.Lock()
	rt := l.rt
	l.mu.Unlock()
	if rt == nil {
		return nil
	}
	return rt.Close()
}
