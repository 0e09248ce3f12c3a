package process

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"
	"syscall"
	"time"

	"github.com/Iron-Ham/claudia/internal/errors"
	"github.com/Iron-Ham/claudia/internal/logging"
	"github.com/creack/pty"
	"github.com/sourcegraph/conc"
)

const (
	// readBufferSize is the largest chunk read from the terminal at once.
	readBufferSize = 4096

	// retryDelay is how long the reader backs off after a would-block read.
	retryDelay = 50 * time.Millisecond

	// outputBacklog is the number of chunks buffered for the consumer.
	outputBacklog = 256
)

// PTYSession implements Session on top of a creack/pty pseudo-terminal.
// Output is produced by a reader goroutine and consumed through Output();
// the child is reaped by a second goroutine so TryWait never blocks.
type PTYSession struct {
	config Config
	logger *logging.Logger
	mu     sync.Mutex

	// State
	cmd     *exec.Cmd
	ptmx    *os.File
	started bool

	output    chan []byte
	done      chan struct{}
	exited    chan struct{}
	waitErr   error
	workers   conc.WaitGroup
	closeOnce sync.Once
	closeErr  error
}

// NewPTYSession creates a session that will run config.Command once started.
func NewPTYSession(config Config, logger *logging.Logger) *PTYSession {
	if logger == nil {
		logger = logging.NopLogger()
	}
	return &PTYSession{
		config: config,
		logger: logger.WithComponent("pty"),
		output: make(chan []byte, outputBacklog),
		done:   make(chan struct{}),
		exited: make(chan struct{}),
	}
}

// Start opens the pseudo-terminal and spawns the child in it.
func (p *PTYSession) Start(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.started {
		return errors.ErrSessionStarted
	}

	select {
	case <-p.done:
		return ErrClosed
	default:
	}

	if err := p.config.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	ptmx, tty, err := pty.Open()
	if err != nil {
		return p.sessionError("failed to open pty", errors.ErrPTYOpen, err)
	}

	size := &pty.Winsize{Rows: uint16(p.config.Rows), Cols: uint16(p.config.Cols)}
	if err := pty.Setsize(ptmx, size); err != nil {
		_ = tty.Close()
		_ = ptmx.Close()
		return p.sessionError("failed to size pty", errors.ErrPTYOpen, err)
	}

	cmd := exec.Command(p.config.Command, p.config.Args...)
	cmd.Dir = p.config.Dir
	cmd.Env = append(os.Environ(), "TERM=xterm-256color")
	cmd.Stdin = tty
	cmd.Stdout = tty
	cmd.Stderr = tty
	cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true, Setctty: true}

	if err := cmd.Start(); err != nil {
		_ = tty.Close()
		_ = ptmx.Close()
		return p.sessionError("failed to spawn child", errors.ErrSpawn, err)
	}

	// The child holds its own copy of the slave side. Closing ours lets reads
	// on the master end with EIO once the child exits.
	_ = tty.Close()

	p.cmd = cmd
	p.ptmx = ptmx
	p.started = true

	p.logger.Info("child started",
		"command", p.config.Command,
		"dir", p.config.Dir,
		"pid", cmd.Process.Pid,
		"rows", p.config.Rows,
		"cols", p.config.Cols,
	)

	p.workers.Go(p.readLoop)
	p.workers.Go(p.waitLoop)

	return nil
}

// readLoop copies terminal output to the echo writer and the output channel.
func (p *PTYSession) readLoop() {
	defer close(p.output)

	buf := make([]byte, readBufferSize)
	for {
		n, err := p.ptmx.Read(buf)
		if n > 0 {
			chunk := make([]byte, n)
			copy(chunk, buf[:n])

			if p.config.Echo != nil {
				_, _ = p.config.Echo.Write(chunk)
			}

			select {
			case p.output <- chunk:
			case <-p.done:
				return
			}
		}

		if err == nil {
			continue
		}
		if isWouldBlock(err) {
			select {
			case <-time.After(retryDelay):
				continue
			case <-p.done:
				return
			}
		}
		if !isEndOfStream(err) {
			p.logger.Warn("pty read failed", "error", err.Error())
		}
		return
	}
}

// waitLoop reaps the child and records how it ended.
func (p *PTYSession) waitLoop() {
	err := p.cmd.Wait()

	p.mu.Lock()
	p.waitErr = err
	p.mu.Unlock()

	p.logger.Info("child exited", "exit_code", p.cmd.ProcessState.ExitCode())
	close(p.exited)
}

// Write sends raw bytes to the child.
func (p *PTYSession) Write(b []byte) (int, error) {
	p.mu.Lock()
	ptmx := p.ptmx
	started := p.started
	p.mu.Unlock()

	if !started {
		return 0, errors.ErrSessionNotStarted
	}

	n, err := ptmx.Write(b)
	if err != nil {
		werr := p.sessionError("failed to write to child", errors.ErrChildWrite, err)
		if n == 0 && isWouldBlock(err) {
			// Nothing reached the child, so the caller may simply try again.
			werr = werr.WithSeverity(errors.SeverityWarning)
		}
		return n, werr
	}
	return n, nil
}

// Output returns the channel of chunks read from the child.
func (p *PTYSession) Output() <-chan []byte {
	return p.output
}

// TryWait reports whether the child has exited. A non-zero exit status is
// not an error; only a failure to reap the child is.
func (p *PTYSession) TryWait() (bool, error) {
	p.mu.Lock()
	started := p.started
	p.mu.Unlock()

	if !started {
		return false, errors.ErrSessionNotStarted
	}

	select {
	case <-p.exited:
	default:
		return false, nil
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	var exitErr *exec.ExitError
	if p.waitErr != nil && !errors.As(p.waitErr, &exitErr) {
		return true, p.sessionError("failed to reap child", errors.ErrChildWait, p.waitErr)
	}
	return true, nil
}

// ExitCode returns the child's exit code, or -1 while it is still running.
func (p *PTYSession) ExitCode() int {
	select {
	case <-p.exited:
		return p.cmd.ProcessState.ExitCode()
	default:
		return -1
	}
}

// Kill terminates the child.
func (p *PTYSession) Kill() error {
	p.mu.Lock()
	cmd := p.cmd
	p.mu.Unlock()

	if cmd == nil {
		return nil
	}

	select {
	case <-p.exited:
		return nil
	default:
	}

	if err := cmd.Process.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
		return p.sessionError("failed to kill child", errors.ErrChildWait, err)
	}
	p.logger.Debug("child killed", "pid", cmd.Process.Pid)
	return nil
}

// Close releases every resource held by the session.
func (p *PTYSession) Close() error {
	p.closeOnce.Do(func() {
		p.mu.Lock()
		started := p.started
		close(p.done)
		p.mu.Unlock()

		if !started {
			close(p.output)
			return
		}

		p.closeErr = p.Kill()
		if err := p.ptmx.Close(); err != nil && p.closeErr == nil {
			p.closeErr = err
		}
		p.workers.Wait()
	})
	return p.closeErr
}

// PID returns the child's process id, or 0 before Start.
func (p *PTYSession) PID() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cmd == nil || p.cmd.Process == nil {
		return 0
	}
	return p.cmd.Process.Pid
}

func (p *PTYSession) sessionError(msg string, sentinel, cause error) *errors.SessionError {
	err := errors.NewSessionError(msg, fmt.Errorf("%w: %w", sentinel, cause)).
		WithCommand(p.config.Command).
		WithWorkDir(p.config.Dir)
	if p.cmd != nil && p.cmd.Process != nil {
		err = err.WithPID(p.cmd.Process.Pid)
	}
	return err
}

// isWouldBlock reports whether a read found no data on a non-blocking fd.
func isWouldBlock(err error) bool {
	return errors.Is(err, syscall.EAGAIN) || errors.Is(err, syscall.EWOULDBLOCK)
}

// isEndOfStream reports whether a read error just means the child is gone.
// Linux returns EIO from the master once the last slave fd is closed.
func isEndOfStream(err error) bool {
	return errors.Is(err, io.EOF) || errors.Is(err, syscall.EIO) || errors.Is(err, os.ErrClosed)
}

// Verify interface implementations at compile time.
var (
	_ Session   = (*PTYSession)(nil)
	_ ChildInfo = (*PTYSession)(nil)
)
