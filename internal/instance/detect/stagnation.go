package detect

import (
	"time"
)

// Verdict is the supervisor's response to a stagnation check.
type Verdict int

const (
	// VerdictNone means the child is not stagnant.
	VerdictNone Verdict = iota
	// VerdictContinue means a "Continue" command should be sent.
	VerdictContinue
	// VerdictComplete means every task is checked off; stop successfully.
	VerdictComplete
	// VerdictStuck means the last snapshots repeat; stop as a failure.
	VerdictStuck
	// VerdictCeiling means one more Continue would exceed the cap; stop.
	VerdictCeiling
)

// String returns a human-readable name for the verdict.
func (v Verdict) String() string {
	switch v {
	case VerdictNone:
		return "none"
	case VerdictContinue:
		return "continue"
	case VerdictComplete:
		return "complete"
	case VerdictStuck:
		return "stuck"
	case VerdictCeiling:
		return "ceiling"
	default:
		return "unknown"
	}
}

// IsTerminal reports whether the verdict ends the session.
func (v Verdict) IsTerminal() bool {
	return v == VerdictComplete || v == VerdictStuck || v == VerdictCeiling
}

// StagnationConfig holds the thresholds for stagnation handling.
type StagnationConfig struct {
	// IdleTimeout is how long output may stay unchanged, with no busy
	// marker, before the child counts as stagnant.
	IdleTimeout time.Duration

	// MaxContinues caps the number of Continue commands. Zero means the
	// first stagnation that is neither complete nor stuck ends the session.
	MaxContinues int
}

// DefaultStagnationConfig returns the standard thresholds.
func DefaultStagnationConfig() StagnationConfig {
	return StagnationConfig{
		IdleTimeout:  60 * time.Second,
		MaxContinues: 50,
	}
}

// StagnationDetector decides when the child has gone quiet and what to do
// about it. It is stateless: callers own the timestamps and counters.
type StagnationDetector struct {
	config StagnationConfig
}

// NewStagnationDetector creates a detector with the given thresholds.
func NewStagnationDetector(cfg StagnationConfig) *StagnationDetector {
	return &StagnationDetector{
		config: cfg,
	}
}

// CheckInput contains the inputs needed for the idle check.
type CheckInput struct {
	// Now is the current time.
	Now time.Time

	// LastActivityTime is when output was last received or a non-escape
	// key was relayed.
	LastActivityTime time.Time

	// Busy is true when the busy marker is currently visible.
	Busy bool
}

// IsStagnant reports whether the idle duration strictly exceeds the
// timeout and the child is not visibly busy.
func (d *StagnationDetector) IsStagnant(input CheckInput) bool {
	if input.Busy {
		return false
	}
	return input.Now.Sub(input.LastActivityTime) > d.config.IdleTimeout
}

// ResolveInput carries the facts gathered once the child is stagnant.
type ResolveInput struct {
	// Complete is the task-completion oracle's answer.
	Complete bool
	// Repeated is the repetition detector's answer.
	Repeated bool
	// Continues is the number of Continue commands already sent.
	Continues int
}

// Resolve picks the response to a stagnant child. Checks are ordered:
// completion, then repetition, then the Continue ceiling.
func (d *StagnationDetector) Resolve(input ResolveInput) Verdict {
	if input.Complete {
		return VerdictComplete
	}
	if input.Repeated {
		return VerdictStuck
	}
	if input.Continues+1 > d.config.MaxContinues {
		return VerdictCeiling
	}
	return VerdictContinue
}

// Config returns a copy of the detector's configuration.
func (d *StagnationDetector) Config() StagnationConfig {
	return d.config
}
