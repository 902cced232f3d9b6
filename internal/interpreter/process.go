package interpreter

import (
	"bufio"
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

//go:embed host.py
var hostScript string

// ProcessConfig describes the child interpreter.
type ProcessConfig struct {
	// Command is the interpreter binary, python3 when empty.
	Command string
	// Args replaces the default "-u -c <host script>" arguments.
	Args []string
	// ModulePath is prepended to PYTHONPATH so the face module can be imported.
	ModulePath string
	// Env is appended to the parent environment.
	Env []string
	// StopTimeout bounds how long Close waits for a clean exit before killing.
	StopTimeout time.Duration
}

type callRequest struct {
	ID       uint64   `json:"id"`
	Module   string   `json:"module"`
	Function string   `json:"function"`
	Args     []string `json:"args"`
}

type callReply struct {
	ID     uint64 `json:"id"`
	OK     bool   `json:"ok"`
	Result string `json:"result"`
	Error  *struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// Process is a Runtime backed by a child interpreter speaking line-delimited
// JSON over stdin and stdout. Calls are serialised.
type Process struct {
	cmd         *exec.Cmd
	stdin       io.WriteCloser
	stdoutR     *io.PipeReader
	replies     chan []byte
	logger      *zap.Logger
	stopTimeout time.Duration

	mu     sync.Mutex
	nextID uint64

	done      chan struct{}
	exitErr   error
	closeOnce sync.Once
}

// StartProcess launches the child interpreter.
func StartProcess(cfg ProcessConfig, logger *zap.Logger) (*Process, error) {
	command := cfg.Command
	if command == "" {
		command = "python3"
	}
	args := cfg.Args
	if len(args) == 0 {
		args = []string{"-u", "-c", hostScript}
	}

	cmd := exec.Command(command, args...)
	cmd.Env = append(os.Environ(), cfg.Env...)
	if cfg.ModulePath != "" {
		pythonPath := cfg.ModulePath
		if existing := os.Getenv("PYTHONPATH"); existing != "" {
			pythonPath += string(os.PathListSeparator) + existing
		}
		cmd.Env = append(cmd.Env, "PYTHONPATH="+pythonPath)
	}

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("stdin pipe: %w", err)
	}
	pr, pw := io.Pipe()
	cmd.Stdout = pw

	logger = logger.Named("interpreter")
	cmd.Stderr = &stderrWriter{logger: logger}

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start %s: %w", command, err)
	}

	stopTimeout := cfg.StopTimeout
	if stopTimeout <= 0 {
		stopTimeout = 5 * time.Second
	}

	p := &Process{
		cmd:         cmd,
		stdin:       stdin,
		stdoutR:     pr,
		replies:     make(chan []byte, replyBuffer),
		logger:      logger,
		stopTimeout: stopTimeout,
		done:        make(chan struct{}),
	}
	go p.drain(bufio.NewReaderSize(pr, 64*1024))
	go p.wait(pw)

	logger.Info("interpreter started", zap.String("command", command), zap.Int("pid", cmd.Process.Pid))
	return p, nil
}

func (p *Process) wait(pw *io.PipeWriter) {
	err := p.cmd.Wait()
	p.exitErr = err
	pw.CloseWithError(ErrRuntimeClosed)
	close(p.done)

	if err != nil {
		p.logger.Warn("interpreter exited", zap.Error(err))
		return
	}
	p.logger.Info("interpreter exited")
}

// replyBuffer bounds reply lines held for Call. Calls are serialised, so
// more than one pending reply only happens when the child misbehaves.
const replyBuffer = 16

// drain reads child stdout continuously so that output written between
// calls never stalls the child or cmd.Wait. Lines that cannot be replies
// are logged and dropped here. replies is closed when stdout ends.
func (p *Process) drain(r *bufio.Reader) {
	defer close(p.replies)
	for {
		line, err := r.ReadBytes('\n')
		if trimmed := bytes.TrimSpace(line); len(trimmed) > 0 {
			if trimmed[0] != '{' {
				p.logger.Debug("discarding stray interpreter output", zap.ByteString("line", trimmed))
			} else {
				select {
				case p.replies <- trimmed:
				default:
					p.logger.Warn("reply buffer full, dropping interpreter output", zap.ByteString("line", trimmed))
				}
			}
		}
		if err != nil {
			if !errors.Is(err, ErrRuntimeClosed) && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrClosedPipe) {
				p.logger.Warn("read interpreter output", zap.Error(err))
			}
			return
		}
	}
}

// Call implements Runtime. Once a call has been written to the child it is
// not abandoned; ctx is only checked before sending.
func (p *Process) Call(ctx context.Context, module, function string, args ...string) (Value, error) {
	if err := ctx.Err(); err != nil {
		return Value{}, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	select {
	case <-p.done:
		return Value{}, ErrRuntimeClosed
	default:
	}

	if args == nil {
		args = []string{}
	}
	p.nextID++
	id := p.nextID

	line, err := json.Marshal(callRequest{ID: id, Module: module, Function: function, Args: args})
	if err != nil {
		return Value{}, fmt.Errorf("encode call: %w", err)
	}
	line = append(line, '\n')
	if _, err := p.stdin.Write(line); err != nil {
		if p.exited() {
			return Value{}, ErrRuntimeClosed
		}
		return Value{}, fmt.Errorf("write call: %w", err)
	}

	for {
		raw, ok := <-p.replies
		if !ok {
			return Value{}, ErrRuntimeClosed
		}

		var reply callReply
		if err := json.Unmarshal(raw, &reply); err != nil {
			p.logger.Warn("discarding undecodable interpreter output", zap.ByteString("line", raw), zap.Error(err))
			continue
		}
		if reply.ID != id {
			p.logger.Warn("discarding reply for another call", zap.Uint64("want", id), zap.Uint64("got", reply.ID))
			continue
		}
		if !reply.OK {
			if reply.Error == nil {
				return Value{}, &ScriptError{Message: "call failed without error detail"}
			}
			return Value{}, &ScriptError{Type: reply.Error.Type, Message: reply.Error.Message}
		}
		return NewValue(reply.Result), nil
	}
}

func (p *Process) exited() bool {
	select {
	case <-p.done:
		return true
	case <-time.After(50 * time.Millisecond):
		return false
	}
}

// Done is closed when the child has exited.
func (p *Process) Done() <-chan struct{} { return p.done }

// ExitErr is the child's exit error; it is only meaningful after Done.
func (p *Process) ExitErr() error {
	select {
	case <-p.done:
		return p.exitErr
	default:
		return nil
	}
}

// Close ends stdin so the host loop returns, then kills the child if it has
// not exited within the stop timeout.
func (p *Process) Close() error {
	var err error
	p.closeOnce.Do(func() {
		_ = p.stdin.Close()
		select {
		case <-p.done:
		case <-time.After(p.stopTimeout):
			p.logger.Warn("interpreter did not exit, killing")
			_ = p.stdoutR.Close()
			if killErr := p.cmd.Process.Kill(); killErr != nil && !errors.Is(killErr, os.ErrProcessDone) {
				err = killErr
			}
			<-p.done
		}
	})
	return err
}

// ProcessLauncher adapts StartProcess to a Launcher.
func ProcessLauncher(cfg ProcessConfig, logger *zap.Logger) Launcher {
	return func() (Runtime, error) {
		return StartProcess(cfg, logger)
	}
}

type stderrWriter struct {
	logger *zap.Logger
}

func (w *stderrWriter) Write(b []byte) (int, error) {
	for _, line := range strings.Split(strings.TrimRight(string(b), "\n"), "\n") {
		if line != "" {
			w.logger.Info("interpreter stderr", zap.String("line", line))
		}
	}
	return len(b), nil
}
