package supervisor

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
	"github.com/muesli/termenv"
)

const (
	boxWidth    = 56
	bannerWidth = 60
)

var (
	primaryColor = lipgloss.Color("#A78BFA")
	successColor = lipgloss.Color("#10B981")
	warningColor = lipgloss.Color("#F59E0B")
	errorColor   = lipgloss.Color("#F87171")
	mutedColor   = lipgloss.Color("#9CA3AF")
)

// StatusPrinter writes the supervisor's own messages around the child's
// echoed output: status boxes, banners, the usage-limit countdown and the
// final summary. Colors are used only when the writer is a terminal.
type StatusPrinter struct {
	out    io.Writer
	errOut io.Writer

	mu  sync.Mutex
	raw bool

	box    lipgloss.Style
	title  lipgloss.Style
	banner lipgloss.Style
	warn   lipgloss.Style
	fail   lipgloss.Style
	ok     lipgloss.Style
	muted  lipgloss.Style
}

// NewStatusPrinter creates a printer writing status to out and alerts that
// must stay visible (usage limit, errors) to errOut.
func NewStatusPrinter(out, errOut io.Writer) *StatusPrinter {
	r := lipgloss.NewRenderer(out, termenv.WithProfile(colorProfile(out)))

	return &StatusPrinter{
		out:    out,
		errOut: errOut,
		box: r.NewStyle().
			Border(lipgloss.DoubleBorder()).
			BorderForeground(primaryColor).
			Padding(0, 1).
			Width(boxWidth),
		title:  r.NewStyle().Bold(true).Foreground(primaryColor).Width(boxWidth - 2).Align(lipgloss.Center),
		banner: r.NewStyle().Bold(true).Foreground(primaryColor).Width(bannerWidth).Align(lipgloss.Center),
		warn:   r.NewStyle().Bold(true).Foreground(warningColor),
		fail:   r.NewStyle().Bold(true).Foreground(errorColor),
		ok:     r.NewStyle().Foreground(successColor),
		muted:  r.NewStyle().Foreground(mutedColor),
	}
}

// DiscardPrinter returns a printer that writes nothing.
func DiscardPrinter() *StatusPrinter {
	return NewStatusPrinter(io.Discard, io.Discard)
}

// colorProfile picks ANSI colors for terminals and plain text otherwise.
func colorProfile(w io.Writer) termenv.Profile {
	f, ok := w.(*os.File)
	if !ok || !isatty.IsTerminal(f.Fd()) {
		return termenv.Ascii
	}
	return termenv.EnvColorProfile()
}

// SetRawMode tells the printer whether the terminal is in raw mode. Raw
// mode disables output post-processing, so line feeds must be written as
// CRLF to return the cursor to the first column.
func (p *StatusPrinter) SetRawMode(raw bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.raw = raw
}

// Starting announces the task document and working directory.
func (p *StatusPrinter) Starting(document, dir string) {
	p.write(p.out, fmt.Sprintf("Starting Claude with task file: %s\nWorking directory: %s\n\n", document, dir))
}

// Status prints the status box.
func (p *StatusPrinter) Status(message string, continues int) {
	lines := []string{p.title.Render("CLAUDIA STATUS"), message}
	if continues > 0 {
		lines = append(lines, fmt.Sprintf("Continues sent: %d", continues))
	}
	p.write(p.out, "\n"+p.box.Render(strings.Join(lines, "\n"))+"\n\n")
}

// SessionStart prints the banner shown before the child's output.
func (p *StatusPrinter) SessionStart() {
	p.write(p.out, "\n"+p.bannerBlock("CLAUDE SESSION START")+"\n")
}

// SessionEnd prints the banner shown after the child's output.
func (p *StatusPrinter) SessionEnd() {
	p.write(p.out, "\n"+p.bannerBlock("CLAUDE SESSION END"))
}

// UsageLimit prints the usage-limit alert on the error stream so the
// child's redraws do not overwrite it.
func (p *StatusPrinter) UsageLimit(resumeAt time.Time) {
	var b strings.Builder
	b.WriteString("\n\n\n")
	b.WriteString(p.bannerBlock("USAGE LIMIT DETECTED"))
	b.WriteString("\n")
	b.WriteString(p.warn.Render("  Claude has reached its usage limit.") + "\n")
	fmt.Fprintf(&b, "  Waiting until %s to continue...\n", resumeAt.Format(time.Kitchen))
	b.WriteString("\n")
	b.WriteString(p.muted.Render("  This message will remain visible during the wait.") + "\n")
	b.WriteString("\n")
	b.WriteString(rule())
	b.WriteString("\n\n")
	p.write(p.errOut, b.String())
}

// Countdown rewrites the remaining-time line in place.
func (p *StatusPrinter) Countdown(remaining time.Duration) {
	p.write(p.out, "\r  Time remaining: "+FormatRemaining(remaining)+" ")
}

// CountdownDone finishes the countdown line.
func (p *StatusPrinter) CountdownDone() {
	p.write(p.out, "\r  Time remaining: 00:00 - Resuming now!\n")
}

// Resuming prints the banner shown when a usage-limit wait ends.
func (p *StatusPrinter) Resuming() {
	p.write(p.errOut, "\n"+p.bannerBlock("RESUMING SESSION")+"\n")
}

// Error prints a failure message on the error stream.
func (p *StatusPrinter) Error(message string) {
	p.write(p.errOut, "\n"+p.fail.Render("[ERROR] "+message)+"\n")
}

// Debug prints a diagnostic line on the error stream.
func (p *StatusPrinter) Debug(message string) {
	p.write(p.errOut, p.muted.Render("[DEBUG] "+message)+"\n")
}

// Interrupted prints the message shown when the operator stops the session.
func (p *StatusPrinter) Interrupted() {
	p.write(p.out, "\n\nInterrupted by user. Exiting...\n")
}

// Summary prints the final summary box.
func (p *StatusPrinter) Summary(o Outcome) {
	lines := []string{
		p.title.Render("CLAUDIA SUMMARY"),
		fmt.Sprintf("Total Continue commands sent: %d", o.Continues),
	}
	if o.PermissionAccepts > 0 {
		lines = append(lines, fmt.Sprintf("Permission prompts accepted: %d", o.PermissionAccepts))
	}
	if o.UsageLimitWaits > 0 {
		lines = append(lines, fmt.Sprintf("Usage limit waits: %d", o.UsageLimitWaits))
	}
	if o.Reason == ReasonChildExited && o.ExitCode >= 0 {
		lines = append(lines, fmt.Sprintf("Claude exit code: %d", o.ExitCode))
	}
	if o.Success() {
		lines = append(lines, p.ok.Render("Session ended successfully"))
	} else {
		lines = append(lines, fmt.Sprintf("Session ended: %s (%s)", o.Reason, o.State))
	}
	p.write(p.out, "\n"+p.box.Render(strings.Join(lines, "\n"))+"\n\n")
}

func (p *StatusPrinter) bannerBlock(title string) string {
	return rule() + "\n" + p.banner.Render(title) + "\n" + rule() + "\n"
}

func rule() string {
	return strings.Repeat("═", bannerWidth)
}

// write sends s to w, translating line feeds when the terminal is raw.
func (p *StatusPrinter) write(w io.Writer, s string) {
	p.mu.Lock()
	raw := p.raw
	p.mu.Unlock()

	if raw {
		s = strings.ReplaceAll(s, "\n", "\r\n")
	}
	_, _ = io.WriteString(w, s)
}

// FormatRemaining renders a duration as MM:SS, truncated to whole seconds.
// Minutes are not capped at 59.
func FormatRemaining(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := int64(d / time.Second)
	return fmt.Sprintf("%02d:%02d", total/60, total%60)
}
