package detect

import "strings"

const (
	// DefaultRepetitionSuffix is how many trailing characters are snapshotted.
	DefaultRepetitionSuffix = 500
	// DefaultMinSnapshotLen is the trimmed length below which a snapshot
	// counts as empty.
	DefaultMinSnapshotLen = 10
	// historySize is how many consecutive snapshots must agree.
	historySize = 3

	// emptySnapshot stands in for any snapshot shorter than the minimum,
	// so that three near-empty responses compare equal.
	emptySnapshot = "\x00empty"
)

// RepetitionDetector remembers the last three trailing snapshots taken at
// stagnation time and reports when they are all the same. It is not safe
// for concurrent use.
type RepetitionDetector struct {
	suffix  int
	minLen  int
	history []string
}

// NewRepetitionDetector creates a detector that snapshots the last suffix
// characters. Non-positive arguments select the defaults.
func NewRepetitionDetector(suffix, minLen int) *RepetitionDetector {
	if suffix <= 0 {
		suffix = DefaultRepetitionSuffix
	}
	if minLen <= 0 {
		minLen = DefaultMinSnapshotLen
	}
	return &RepetitionDetector{
		suffix:  suffix,
		minLen:  minLen,
		history: make([]string, 0, historySize),
	}
}

// Observe records a snapshot of src and reports whether the child is stuck:
// the history is full and every entry is identical.
func (d *RepetitionDetector) Observe(src TextSource) bool {
	snap := d.normalize(src.Suffix(d.suffix))

	if len(d.history) == historySize {
		copy(d.history, d.history[1:])
		d.history = d.history[:historySize-1]
	}
	d.history = append(d.history, snap)

	if len(d.history) < historySize {
		return false
	}
	for _, s := range d.history[1:] {
		if s != d.history[0] {
			return false
		}
	}
	return true
}

func (d *RepetitionDetector) normalize(text string) string {
	trimmed := strings.TrimSpace(text)
	if len([]rune(trimmed)) < d.minLen {
		return emptySnapshot
	}
	return trimmed
}

// Len returns the number of snapshots held.
func (d *RepetitionDetector) Len() int {
	return len(d.history)
}

// Reset clears the history.
func (d *RepetitionDetector) Reset() {
	d.history = d.history[:0]
}
