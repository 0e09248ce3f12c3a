package process

import (
	"context"
	"io"
	"math"

	"github.com/Iron-Ham/claudia/internal/errors"
)

// Default child settings.
const (
	DefaultCommand = "claude"
	DefaultRows    = 40
	DefaultCols    = 120
)

// ErrClosed is returned by Start on a session that was already closed.
var ErrClosed = errors.New("session closed")

// DefaultArgs are passed to the default command so it never stops to ask
// for tool permissions.
var DefaultArgs = []string{"--dangerously-skip-permissions"}

// Config holds the configuration for spawning a supervised child.
type Config struct {
	// Command is the executable to run. It is resolved against PATH.
	Command string

	// Args are passed to Command.
	Args []string

	// Dir is the working directory of the child. Empty means the current
	// directory.
	Dir string

	// Rows and Cols are the pseudo-terminal dimensions.
	Rows int
	Cols int

	// Echo receives every byte the child writes, verbatim. It is normally
	// the operator's stdout. Nil disables echoing.
	Echo io.Writer
}

// DefaultConfig returns a Config for running claude at the default size.
func DefaultConfig() Config {
	return Config{
		Command: DefaultCommand,
		Args:    append([]string(nil), DefaultArgs...),
		Rows:    DefaultRows,
		Cols:    DefaultCols,
	}
}

// Validate checks that the Config has all required fields set.
func (c *Config) Validate() error {
	if c.Command == "" {
		return errors.New("command is required")
	}
	if c.Rows <= 0 || c.Cols <= 0 {
		return errors.New("rows and cols must be positive")
	}
	if c.Rows > math.MaxUint16 || c.Cols > math.MaxUint16 {
		return errors.New("rows and cols must fit a terminal window size")
	}
	return nil
}

// Session is a child process attached to a pseudo-terminal.
//
// The typical lifecycle is:
//  1. Create a Session with NewPTYSession(config, logger)
//  2. Start it with Start(ctx)
//  3. Drain Output() and poll TryWait() from a single goroutine
//  4. Write input as needed
//  5. Close it on every exit path
//
// Example usage:
//
//	sess := NewPTYSession(config, logger)
//	if err := sess.Start(ctx); err != nil {
//	    return err
//	}
//	defer sess.Close()
//
//	for chunk := range sess.Output() {
//	    window.Push(chunk)
//	}
type Session interface {
	// Start opens the pseudo-terminal and spawns the child. It fails fast
	// with a *errors.SessionError wrapping ErrPTYOpen or ErrSpawn. All
	// resources acquired before the failure are released.
	Start(ctx context.Context) error

	// Write sends raw bytes to the child's terminal input.
	Write(p []byte) (int, error)

	// Output returns the channel of chunks read from the child. A receive
	// that would block means no output is pending. The channel is closed
	// once the child's output stream ends.
	Output() <-chan []byte

	// TryWait reports whether the child has exited without blocking.
	TryWait() (exited bool, err error)

	// Kill terminates the child. It is safe to call more than once or after
	// the child has exited.
	Kill() error

	// Close kills the child if needed, releases the terminal, reaps the
	// child and joins the background goroutines. It is safe to call more
	// than once.
	Close() error
}

// ChildInfo is an optional interface for sessions that can report on the
// child process itself.
type ChildInfo interface {
	// PID returns the child's process id, or 0 before Start.
	PID() int

	// ExitCode returns the child's exit code, or -1 while it is running.
	ExitCode() int
}
