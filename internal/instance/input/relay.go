package input

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/Iron-Ham/claudia/internal/errors"
	"github.com/Iron-Ham/claudia/internal/logging"
	"github.com/mattn/go-isatty"
	"github.com/muesli/cancelreader"
	"github.com/sourcegraph/conc"
	"golang.org/x/term"
)

const (
	// readBufferSize bounds a single keystroke read. Pastes larger than this
	// arrive as several chunks.
	readBufferSize = 1024

	// keyBacklog is how many chunks may queue before the reader blocks.
	keyBacklog = 64
)

// IsTerminal reports whether f is attached to an interactive terminal.
func IsTerminal(f *os.File) bool {
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// Relay reads the operator's keystrokes on a background goroutine and
// publishes them, translated, on a buffered channel. When the input is a
// terminal it is switched to raw mode for the lifetime of the relay, and a
// Ctrl-C keystroke is reported on Interrupted instead of being forwarded.
type Relay struct {
	in     *os.File
	logger *logging.Logger

	reader   cancelreader.CancelReader
	rawState *term.State
	raw      bool

	keys        chan []byte
	interrupted chan struct{}
	interrupt   sync.Once
	wg          conc.WaitGroup

	mu      sync.Mutex
	started bool
	stopped bool
}

// NewRelay creates a relay reading from in, normally os.Stdin.
func NewRelay(in *os.File, logger *logging.Logger) *Relay {
	if logger == nil {
		logger = logging.NopLogger()
	}
	return &Relay{
		in:          in,
		logger:      logger.WithComponent("input"),
		keys:        make(chan []byte, keyBacklog),
		interrupted: make(chan struct{}),
	}
}

// Start enters raw mode if the input is a terminal and begins reading.
func (r *Relay) Start() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.started {
		return nil
	}

	if IsTerminal(r.in) {
		state, err := term.MakeRaw(int(r.in.Fd()))
		if err != nil {
			return errors.NewTerminalError("failed to set raw mode",
				fmt.Errorf("%w: %w", errors.ErrRawMode, err)).WithOp("make_raw")
		}
		r.rawState = state
		r.raw = true
	}

	reader, err := cancelreader.NewReader(r.in)
	if err != nil {
		_ = r.restoreLocked()
		return fmt.Errorf("failed to create input reader: %w", err)
	}
	r.reader = reader
	r.started = true

	r.logger.Debug("input relay started", "raw_mode", r.raw)
	r.wg.Go(r.readLoop)
	return nil
}

// Keys returns the channel of translated keystroke chunks.
func (r *Relay) Keys() <-chan []byte {
	return r.keys
}

// Interrupted returns a channel closed when the operator presses Ctrl-C in
// raw mode.
func (r *Relay) Interrupted() <-chan struct{} {
	return r.interrupted
}

// RawMode reports whether the relay switched the terminal to raw mode.
func (r *Relay) RawMode() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.raw
}

// Stop cancels the pending read, joins the reader and restores the terminal
// mode. It is safe to call more than once.
func (r *Relay) Stop() error {
	r.mu.Lock()
	if !r.started || r.stopped {
		r.mu.Unlock()
		return nil
	}
	r.stopped = true
	reader := r.reader
	r.mu.Unlock()

	reader.Cancel()
	r.wg.Wait()
	_ = reader.Close()

	r.mu.Lock()
	defer r.mu.Unlock()
	return r.restoreLocked()
}

// restoreLocked puts the terminal back in the mode it was in before Start.
// Caller must hold r.mu.
func (r *Relay) restoreLocked() error {
	if !r.raw || r.rawState == nil {
		return nil
	}
	if err := term.Restore(int(r.in.Fd()), r.rawState); err != nil {
		return errors.NewTerminalError("failed to restore terminal",
			fmt.Errorf("%w: %w", errors.ErrRestore, err)).WithOp("restore")
	}
	r.raw = false
	r.logger.Debug("terminal restored")
	return nil
}

// readLoop forwards keystrokes until the reader is canceled or fails.
func (r *Relay) readLoop() {
	buf := make([]byte, readBufferSize)
	for {
		n, err := r.reader.Read(buf)
		if n > 0 {
			raw := buf[:n]
			if r.raw && IsInterrupt(raw) {
				r.logger.Info("operator interrupt")
				r.interrupt.Do(func() { close(r.interrupted) })
				return
			}

			select {
			case r.keys <- Translate(raw):
			default:
				r.logger.Warn("input backlog full, dropping keystroke", "bytes", n)
			}
		}

		if err != nil {
			if !errors.Is(err, cancelreader.ErrCanceled) && !errors.Is(err, io.EOF) {
				r.logger.Warn("input read failed", "error", err.Error())
			}
			return
		}
	}
}
