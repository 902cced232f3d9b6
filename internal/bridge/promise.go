package bridge

import (
	"context"
	"fmt"
	"sync"
)

// Promise is the completion handle a caller passes with every bridge call.
// Exactly one of Resolve or Reject is called per invocation.
type Promise interface {
	Resolve(value string)
	Reject(code, message string)
}

// Rejection is a settled failure: a fixed per-operation code and the
// message of the underlying error.
type Rejection struct {
	Code    string
	Message string
}

func (r *Rejection) Error() string {
	return fmt.Sprintf("%s: %s", r.Code, r.Message)
}

// Deferred is a Promise that can be awaited. Only the first settlement
// counts.
type Deferred struct {
	once  sync.Once
	done  chan struct{}
	value string
	err   *Rejection
}

// NewDeferred returns an unsettled Deferred.
func NewDeferred() *Deferred {
	return &Deferred{done: make(chan struct{})}
}

func (d *Deferred) Resolve(value string) {
	d.once.Do(func() {
		d.value = value
		close(d.done)
	})
}

func (d *Deferred) Reject(code, message string) {
	d.once.Do(func() {
		d.err = &Rejection{Code: code, Message: message}
		close(d.done)
	})
}

// Done is closed once the Deferred is settled.
func (d *Deferred) Done() <-chan struct{} { return d.done }

// Await blocks until the Deferred settles or ctx ends. A settled Deferred
// wins over a finished ctx. A rejection is returned as *Rejection.
func (d *Deferred) Await(ctx context.Context) (string, error) {
	select {
	case <-d.done:
	default:
		select {
		case <-d.done:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	if d.err != nil {
		return "", d.err
	}
	return d.value, nil
}
