package detect

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/x/ansi"
)

// Condition is what the classifier infers from the child's recent output.
type Condition int

const (
	// ConditionIdle means no marker matched: the child may be waiting at its
	// prompt or simply quiet. Stagnation timing decides what happens next.
	ConditionIdle Condition = iota

	// ConditionBusy means the child's "esc to interrupt" footer is visible,
	// so it is actively generating.
	ConditionBusy

	// ConditionPermissionPrompt means the bypass-permissions warning dialog
	// is on screen and expects "2" to accept.
	ConditionPermissionPrompt

	// ConditionUsageLimited means a usage or rate limit message with a
	// parseable resume time was seen. Result.ResumeAt holds that time.
	ConditionUsageLimited
)

// String returns a human-readable name for the condition.
func (c Condition) String() string {
	switch c {
	case ConditionIdle:
		return "idle"
	case ConditionBusy:
		return "busy"
	case ConditionPermissionPrompt:
		return "permission_prompt"
	case ConditionUsageLimited:
		return "usage_limited"
	default:
		return "unknown"
	}
}

// Result is the outcome of one classification.
type Result struct {
	Condition Condition
	// ResumeAt is set only for ConditionUsageLimited.
	ResumeAt time.Time
}

// TextSource is the read side of the output window.
type TextSource interface {
	// Suffix returns the last n characters.
	Suffix(n int) string
}

// Marker text the child prints. Matching is done on ANSI-stripped text.
var (
	// UsageLimitKeywords must appear (case-insensitively) before a resume
	// time is looked for.
	UsageLimitKeywords = []string{
		"usage limit",
		"rate limit",
		"try again",
		"please wait",
	}

	// BusyMarker appears in the child's footer while it is generating.
	BusyMarker = "esc to interrupt"

	// bypassPromptLower are all required, matched against lower-cased text.
	bypassPromptLower = []string{
		"bypass permissions mode",
		"1. no, exit",
		"2. yes, i accept",
	}

	// bypassWarning is matched case-sensitively together with one of
	// bypassOptions.
	bypassWarning = "WARNING: Claude Code running in Bypass Permissions mode"
	bypassOptions = []string{"1. No, exit", "2. Yes, I accept"}

	// resumeTimePattern captures hour, optional minutes and the am/pm marker,
	// e.g. "3pm", "3:30 pm", "11.15a.m".
	resumeTimePattern = regexp.MustCompile(`(\d{1,2})([:.]?\d{0,2})\s*([ap]\.?m)`)
)

// ClassifierConfig sets how many trailing characters each check examines.
type ClassifierConfig struct {
	BusySuffix       int
	PermissionSuffix int
	UsageSuffix      int
}

// DefaultClassifierConfig returns the suffix sizes the child's screen
// layout was tuned for.
func DefaultClassifierConfig() ClassifierConfig {
	return ClassifierConfig{
		BusySuffix:       200,
		PermissionSuffix: 1500,
		UsageSuffix:      2000,
	}
}

// Classifier maps window suffixes to a Condition. It holds no mutable state
// and is safe for concurrent use.
type Classifier struct {
	config ClassifierConfig
}

// NewClassifier creates a classifier with the given suffix sizes.
func NewClassifier(cfg ClassifierConfig) *Classifier {
	return &Classifier{config: cfg}
}

// Classify applies the fixed priority: usage limit, then permission
// prompt, then busy. Anything else is ConditionIdle.
func (c *Classifier) Classify(src TextSource, now time.Time) Result {
	if resumeAt, ok := UsageLimit(src.Suffix(c.config.UsageSuffix), now); ok {
		return Result{Condition: ConditionUsageLimited, ResumeAt: resumeAt}
	}
	if IsPermissionPrompt(src.Suffix(c.config.PermissionSuffix)) {
		return Result{Condition: ConditionPermissionPrompt}
	}
	if IsBusy(src.Suffix(c.config.BusySuffix)) {
		return Result{Condition: ConditionBusy}
	}
	return Result{Condition: ConditionIdle}
}

// IsBusy reports whether text contains the busy marker, ignoring case.
func IsBusy(text string) bool {
	return strings.Contains(strings.ToLower(StripAnsi(text)), BusyMarker)
}

// IsPermissionPrompt reports whether text shows the bypass-permissions
// dialog. Either the three lower-cased fragments, or the exact warning
// line plus one of the numbered options, is enough.
func IsPermissionPrompt(text string) bool {
	text = StripAnsi(text)

	lower := strings.ToLower(text)
	if containsAll(lower, bypassPromptLower) {
		return true
	}
	return strings.Contains(text, bypassWarning) && containsAny(text, bypassOptions)
}

// UsageLimit looks for a usage-limit message and returns the local time at
// which the child said it will accept work again. A keyword without a
// valid time is not a usage limit. A time of day not after now is taken to
// mean tomorrow.
func UsageLimit(text string, now time.Time) (time.Time, bool) {
	lower := strings.ToLower(StripAnsi(text))
	if !containsAny(lower, UsageLimitKeywords) {
		return time.Time{}, false
	}

	m := resumeTimePattern.FindStringSubmatch(lower)
	if m == nil {
		return time.Time{}, false
	}

	hour, err := strconv.Atoi(m[1])
	if err != nil || hour < 1 || hour > 12 {
		return time.Time{}, false
	}

	minutes := 0
	if len(m[2]) > 1 {
		digits := strings.TrimLeft(m[2], ":.")
		if v, err := strconv.Atoi(digits); err == nil {
			minutes = v
		}
	}
	if minutes > 59 {
		return time.Time{}, false
	}

	switch {
	case m[3][0] == 'p' && hour != 12:
		hour += 12
	case m[3][0] == 'a' && hour == 12:
		hour = 0
	}

	resumeAt := time.Date(now.Year(), now.Month(), now.Day(), hour, minutes, 0, 0, now.Location())
	if !resumeAt.After(now) {
		resumeAt = resumeAt.AddDate(0, 0, 1)
	}
	return resumeAt, true
}

// StripAnsi removes terminal escape sequences from text.
func StripAnsi(text string) string {
	return ansi.Strip(text)
}

func containsAll(text string, parts []string) bool {
	for _, p := range parts {
		if !strings.Contains(text, p) {
			return false
		}
	}
	return true
}

func containsAny(text string, parts []string) bool {
	for _, p := range parts {
		if strings.Contains(text, p) {
			return true
		}
	}
	return false
}
