package process

import (
	"bytes"
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/Iron-Ham/claudia/internal/errors"
)

// syncBuffer is a bytes.Buffer safe for the reader goroutine to write while
// the test reads.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

// collectUntil drains output until it contains want or the deadline passes.
func collectUntil(t *testing.T, out <-chan []byte, want string, timeout time.Duration) string {
	t.Helper()

	var got strings.Builder
	deadline := time.After(timeout)
	for {
		select {
		case chunk, ok := <-out:
			if !ok {
				return got.String()
			}
			got.Write(chunk)
			if strings.Contains(got.String(), want) {
				return got.String()
			}
		case <-deadline:
			return got.String()
		}
	}
}

// waitForExit polls TryWait until the child has been reaped.
func waitForExit(t *testing.T, p *PTYSession, timeout time.Duration) {
	t.Helper()

	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		exited, err := p.TryWait()
		if err != nil {
			t.Fatalf("TryWait() error: %v", err)
		}
		if exited {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("child did not exit")
}

func shellConfig(script string) Config {
	return Config{
		Command: "/bin/sh",
		Args:    []string{"-c", script},
		Rows:    DefaultRows,
		Cols:    DefaultCols,
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Command != "claude" {
		t.Errorf("Command = %q, want claude", cfg.Command)
	}
	if len(cfg.Args) != 1 || cfg.Args[0] != "--dangerously-skip-permissions" {
		t.Errorf("Args = %v", cfg.Args)
	}
	if cfg.Rows != 40 || cfg.Cols != 120 {
		t.Errorf("size = %dx%d, want 40x120", cfg.Rows, cfg.Cols)
	}

	cfg.Args[0] = "mutated"
	if DefaultArgs[0] != "--dangerously-skip-permissions" {
		t.Error("DefaultConfig should copy DefaultArgs")
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr bool
	}{
		{"valid", DefaultConfig(), false},
		{"missing command", Config{Rows: 1, Cols: 1}, true},
		{"zero rows", Config{Command: "x", Cols: 1}, true},
		{"negative cols", Config{Command: "x", Rows: 1, Cols: -1}, true},
		{"rows too large", Config{Command: "x", Rows: 70000, Cols: 1}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestPTYSession_NotStarted(t *testing.T) {
	p := NewPTYSession(DefaultConfig(), nil)

	if _, err := p.Write([]byte("x")); !errors.Is(err, errors.ErrSessionNotStarted) {
		t.Errorf("Write() error = %v, want ErrSessionNotStarted", err)
	}
	if _, err := p.TryWait(); !errors.Is(err, errors.ErrSessionNotStarted) {
		t.Errorf("TryWait() error = %v, want ErrSessionNotStarted", err)
	}
	if err := p.Kill(); err != nil {
		t.Errorf("Kill() before Start = %v, want nil", err)
	}
	if p.PID() != 0 {
		t.Errorf("PID() = %d, want 0", p.PID())
	}
	if err := p.Close(); err != nil {
		t.Errorf("Close() = %v", err)
	}
	if _, ok := <-p.Output(); ok {
		t.Error("Output() should be closed after Close")
	}
	if err := p.Start(context.Background()); !errors.Is(err, ErrClosed) {
		t.Errorf("Start() after Close = %v, want ErrClosed", err)
	}
}

func TestPTYSession_SpawnFailure(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Command = "/nonexistent/claudia-test-binary"
	p := NewPTYSession(cfg, nil)
	defer p.Close()

	err := p.Start(context.Background())
	if !errors.Is(err, errors.ErrSpawn) {
		t.Fatalf("Start() error = %v, want ErrSpawn", err)
	}

	var sessErr *errors.SessionError
	if !errors.As(err, &sessErr) {
		t.Fatalf("Start() error should be a SessionError, got %T", err)
	}
	if sessErr.Command != cfg.Command {
		t.Errorf("SessionError.Command = %q, want %q", sessErr.Command, cfg.Command)
	}
}

func TestPTYSession_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := NewPTYSession(shellConfig("true"), nil)
	defer p.Close()

	if err := p.Start(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("Start() error = %v, want context.Canceled", err)
	}
}

func TestPTYSession_OutputAndExit(t *testing.T) {
	echo := &syncBuffer{}
	cfg := shellConfig("printf 'hello from child'")
	cfg.Echo = echo

	p := NewPTYSession(cfg, nil)
	if err := p.Start(context.Background()); err != nil {
		t.Fatalf("Start() error: %v", err)
	}
	defer p.Close()

	if p.PID() <= 0 {
		t.Error("PID() should be positive after Start")
	}
	if err := p.Start(context.Background()); !errors.Is(err, errors.ErrSessionStarted) {
		t.Errorf("second Start() error = %v, want ErrSessionStarted", err)
	}

	got := collectUntil(t, p.Output(), "hello from child", 5*time.Second)
	if !strings.Contains(got, "hello from child") {
		t.Fatalf("output = %q, want it to contain child text", got)
	}

	waitForExit(t, p, 5*time.Second)
	if p.ExitCode() != 0 {
		t.Errorf("ExitCode() = %d, want 0", p.ExitCode())
	}

	if err := p.Close(); err != nil {
		t.Errorf("Close() error: %v", err)
	}
	if !strings.Contains(echo.String(), "hello from child") {
		t.Errorf("echo = %q, want the child's output", echo.String())
	}
}

func TestPTYSession_NonZeroExitIsNotAnError(t *testing.T) {
	p := NewPTYSession(shellConfig("exit 3"), nil)
	if err := p.Start(context.Background()); err != nil {
		t.Fatalf("Start() error: %v", err)
	}
	defer p.Close()

	waitForExit(t, p, 5*time.Second)
	if p.ExitCode() != 3 {
		t.Errorf("ExitCode() = %d, want 3", p.ExitCode())
	}
}

func TestPTYSession_WriteAndKill(t *testing.T) {
	p := NewPTYSession(shellConfig("cat"), nil)
	if err := p.Start(context.Background()); err != nil {
		t.Fatalf("Start() error: %v", err)
	}
	defer p.Close()

	if exited, _ := p.TryWait(); exited {
		t.Fatal("cat exited immediately")
	}

	if _, err := p.Write([]byte("ping")); err != nil {
		t.Fatalf("Write() error: %v", err)
	}
	if _, err := p.Write([]byte{'\r'}); err != nil {
		t.Fatalf("Write() error: %v", err)
	}

	got := collectUntil(t, p.Output(), "ping", 5*time.Second)
	if !strings.Contains(got, "ping") {
		t.Fatalf("output = %q, want echoed input", got)
	}

	if p.ExitCode() != -1 {
		t.Errorf("ExitCode() while running = %d, want -1", p.ExitCode())
	}
	if err := p.Kill(); err != nil {
		t.Fatalf("Kill() error: %v", err)
	}
	waitForExit(t, p, 5*time.Second)
	if err := p.Kill(); err != nil {
		t.Errorf("second Kill() error: %v", err)
	}

	if err := p.Close(); err != nil {
		t.Errorf("Close() error: %v", err)
	}
	if err := p.Close(); err != nil {
		t.Errorf("second Close() error: %v", err)
	}
}
