// Package interpreter hosts the embedded scripting runtime that owns the
// face-recognition logic and exposes it as plain function calls.
package interpreter

import (
	"context"
	"errors"
)

// ErrRuntimeClosed is returned once the interpreter has exited or been closed.
var ErrRuntimeClosed = errors.New("interpreter: runtime closed")

// Runtime calls functions of modules loaded in an interpreter.
type Runtime interface {
	// Call invokes module.function with args in order and blocks until the
	// function returns or raises. A raised exception is reported as *ScriptError.
	Call(ctx context.Context, module, function string, args ...string) (Value, error)
	Close() error
}

// Value is the result of a call.
type Value struct {
	text string
}

// NewValue builds a Value from the string form of a result.
func NewValue(text string) Value {
	return Value{text: text}
}

// String returns the string form of the result as rendered by the interpreter.
func (v Value) String() string { return v.text }

// ScriptError is an exception raised inside the interpreter.
type ScriptError struct {
	Type    string
	Message string
}

func (e *ScriptError) Error() string {
	if e.Type == "" {
		return e.Message
	}
	if e.Message == "" {
		return e.Type
	}
	return e.Type + ": " + e.Message
}
