package supervisor

import (
	"bytes"
	"strings"
	"testing"
	"time"
)

func TestFormatRemaining(t *testing.T) {
	tests := []struct {
		name string
		d    time.Duration
		want string
	}{
		{"zero", 0, "00:00"},
		{"negative", -5 * time.Second, "00:00"},
		{"truncates", 59*time.Second + 900*time.Millisecond, "00:59"},
		{"minutes", 5*time.Minute + 7*time.Second, "05:07"},
		{"over an hour", 2*time.Hour + 3*time.Minute + 4*time.Second, "123:04"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FormatRemaining(tt.d); got != tt.want {
				t.Errorf("FormatRemaining(%v) = %q, want %q", tt.d, got, tt.want)
			}
		})
	}
}

func TestStatusPrinter_Status(t *testing.T) {
	var out bytes.Buffer
	p := NewStatusPrinter(&out, &bytes.Buffer{})

	p.Status("Claude is working...", 0)
	if got := out.String(); !strings.Contains(got, "CLAUDIA STATUS") || !strings.Contains(got, "Claude is working...") {
		t.Errorf("Status() output = %q", got)
	}
	if strings.Contains(out.String(), "Continues sent") {
		t.Error("continue count should be hidden while zero")
	}

	out.Reset()
	p.Status("Claude is working...", 3)
	if !strings.Contains(out.String(), "Continues sent: 3") {
		t.Errorf("Status() output = %q, want the continue count", out.String())
	}
	if strings.Contains(out.String(), "\x1b[") {
		t.Error("non-terminal output should not contain escape sequences")
	}
}

func TestStatusPrinter_Summary(t *testing.T) {
	tests := []struct {
		name    string
		outcome Outcome
		want    []string
		absent  []string
	}{
		{
			name:    "success",
			outcome: Outcome{State: StateCompleted, Reason: ReasonCompleted, Continues: 4},
			want:    []string{"CLAUDIA SUMMARY", "Total Continue commands sent: 4", "Session ended successfully"},
			absent:  []string{"Permission prompts accepted", "Usage limit waits"},
		},
		{
			name: "stuck with extras",
			outcome: Outcome{
				State:             StateStuck,
				Reason:            ReasonStuck,
				Continues:         2,
				PermissionAccepts: 1,
				UsageLimitWaits:   1,
			},
			want: []string{
				"Total Continue commands sent: 2",
				"Permission prompts accepted: 1",
				"Usage limit waits: 1",
				"Session ended: stuck (stuck)",
			},
			absent: []string{"successfully"},
		},
		{
			name:    "child exit code",
			outcome: Outcome{State: StateTerminated, Reason: ReasonChildExited, ExitCode: 2},
			want:    []string{"Claude exit code: 2", "Session ended: child_exited (terminated)"},
		},
		{
			name:    "unknown exit code",
			outcome: Outcome{State: StateTerminated, Reason: ReasonChildExited, ExitCode: -1},
			absent:  []string{"exit code"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			NewStatusPrinter(&out, &bytes.Buffer{}).Summary(tt.outcome)

			got := out.String()
			for _, w := range tt.want {
				if !strings.Contains(got, w) {
					t.Errorf("Summary() missing %q in:\n%s", w, got)
				}
			}
			for _, a := range tt.absent {
				if strings.Contains(got, a) {
					t.Errorf("Summary() should not contain %q", a)
				}
			}
		})
	}
}

func TestStatusPrinter_UsageLimitGoesToErrorStream(t *testing.T) {
	var out, errOut bytes.Buffer
	p := NewStatusPrinter(&out, &errOut)

	p.UsageLimit(time.Date(2026, 3, 14, 17, 30, 0, 0, time.Local))

	if out.Len() != 0 {
		t.Errorf("stdout = %q, want nothing", out.String())
	}
	for _, want := range []string{"USAGE LIMIT DETECTED", "Claude has reached its usage limit.", "Waiting until 5:30PM to continue..."} {
		if !strings.Contains(errOut.String(), want) {
			t.Errorf("stderr missing %q", want)
		}
	}
}

func TestStatusPrinter_RawModeUsesCRLF(t *testing.T) {
	var out bytes.Buffer
	p := NewStatusPrinter(&out, &bytes.Buffer{})

	p.SetRawMode(true)
	p.Interrupted()
	if got := out.String(); got != "\r\n\r\nInterrupted by user. Exiting...\r\n" {
		t.Errorf("raw output = %q", got)
	}

	out.Reset()
	p.SetRawMode(false)
	p.Interrupted()
	if got := out.String(); got != "\n\nInterrupted by user. Exiting...\n" {
		t.Errorf("cooked output = %q", got)
	}
}

func TestStatusPrinter_Countdown(t *testing.T) {
	var out bytes.Buffer
	p := NewStatusPrinter(&out, &bytes.Buffer{})

	p.Countdown(90 * time.Second)
	p.CountdownDone()

	want := "\r  Time remaining: 01:30 \r  Time remaining: 00:00 - Resuming now!\n"
	if out.String() != want {
		t.Errorf("countdown output = %q, want %q", out.String(), want)
	}
}
