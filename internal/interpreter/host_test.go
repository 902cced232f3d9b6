package interpreter

import (
	"context"
	"errors"
	"os/exec"
	"path/filepath"
	"testing"
	"time"

	"go.uber.org/zap"
)

func startPythonHost(t *testing.T) *Process {
	t.Helper()
	python, err := exec.LookPath("python3")
	if err != nil {
		t.Skip("python3 not available")
	}
	modulePath, err := filepath.Abs("testdata")
	if err != nil {
		t.Fatalf("resolve testdata: %v", err)
	}
	p, err := StartProcess(ProcessConfig{
		Command:     python,
		ModulePath:  modulePath,
		StopTimeout: 5 * time.Second,
	}, zap.NewNop())
	if err != nil {
		t.Fatalf("start host: %v", err)
	}
	t.Cleanup(func() { _ = p.Close() })
	return p
}

func TestHostResolvesWithStringForm(t *testing.T) {
	p := startPythonHost(t)

	cases := []struct {
		name     string
		function string
		args     []string
		want     string
	}{
		{name: "dict", function: "profile", args: []string{"u-1", "Ada"}, want: "{'id': 'u-1', 'name': 'Ada'}"},
		{name: "non-finite floats", function: "score", want: "{'score': nan, 'best': inf}"},
		{name: "none", function: "nothing", want: "None"},
		{name: "prints to stdout", function: "noisy", want: "ready"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			value, err := p.Call(context.Background(), "hostfixture", tc.function, tc.args...)
			if err != nil {
				t.Fatalf("call %s: %v", tc.function, err)
			}
			if value.String() != tc.want {
				t.Fatalf("expected %q, got %q", tc.want, value.String())
			}
		})
	}
}

func TestHostReportsExceptions(t *testing.T) {
	p := startPythonHost(t)

	_, err := p.Call(context.Background(), "hostfixture", "reject", "no face detected")
	var scriptErr *ScriptError
	if !errors.As(err, &scriptErr) {
		t.Fatalf("expected ScriptError, got %T (%v)", err, err)
	}
	if scriptErr.Error() != "ValueError: no face detected" {
		t.Fatalf("unexpected error %q", scriptErr.Error())
	}

	_, err = p.Call(context.Background(), "hostfixture", "missing")
	if !errors.As(err, &scriptErr) || scriptErr.Type != "AttributeError" {
		t.Fatalf("expected AttributeError, got %v", err)
	}

	_, err = p.Call(context.Background(), "no_such_module", "enroll")
	if !errors.As(err, &scriptErr) || scriptErr.Type != "ModuleNotFoundError" {
		t.Fatalf("expected ModuleNotFoundError, got %v", err)
	}

	value, err := p.Call(context.Background(), "hostfixture", "profile", "u-2", "")
	if err != nil {
		t.Fatalf("call after exceptions: %v", err)
	}
	if value.String() != "{'id': 'u-2', 'name': ''}" {
		t.Fatalf("unexpected result %q", value.String())
	}
}
