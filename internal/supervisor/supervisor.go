package supervisor

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/Iron-Ham/claudia/internal/config"
	"github.com/Iron-Ham/claudia/internal/errors"
	"github.com/Iron-Ham/claudia/internal/instance/capture"
	"github.com/Iron-Ham/claudia/internal/instance/detect"
	"github.com/Iron-Ham/claudia/internal/instance/input"
	"github.com/Iron-Ham/claudia/internal/instance/metrics"
	"github.com/Iron-Ham/claudia/internal/instance/process"
	"github.com/Iron-Ham/claudia/internal/logging"
)

// Commands injected into the child. Each is followed by a separate CR.
const (
	continueCommand = "Continue"
	acceptCommand   = "2"
)

// Status messages.
const (
	msgSendingPrompt = "Sending initial prompt to Claude..."
	msgWorking       = "Claude is working..."
	msgInterrupted   = "Interrupted by user"
)

// errInterrupted is returned by waits cut short by the operator's Ctrl-C.
var errInterrupted = errors.Wrap(errors.ErrCanceled, "interrupted by operator")

// InitialPrompt returns the first message sent to the child.
func InitialPrompt(documentPath string) string {
	return fmt.Sprintf("Please read and complete all tasks in the file: %s\n"+
		"The file is located at: %s\n"+
		"Work through each task and:\n"+
		"1. Complete the task as described\n"+
		"2. Edit the markdown file to change [ ] to [x] for each completed task",
		filepath.Base(documentPath), documentPath)
}

// Oracle answers whether the task document is finished.
type Oracle interface {
	Complete() (bool, error)
}

// Input is the operator's keystroke source.
type Input interface {
	// Keys delivers translated keystroke chunks.
	Keys() <-chan []byte
	// Interrupted is closed when the operator asks to quit.
	Interrupted() <-chan struct{}
	// Stop ends reading and restores the terminal.
	Stop() error
}

// Config holds the supervisor's timing, limits and window sizes.
type Config struct {
	// DocumentPath is the task document the child works through.
	DocumentPath string

	PollInterval  time.Duration
	IdleTimeout   time.Duration
	SettleDelay   time.Duration
	StartupDelay  time.Duration
	CountdownStep time.Duration
	MaxContinues  int

	WindowSize       int
	RepetitionSuffix int
	Classifier       detect.ClassifierConfig

	// Debug echoes every injected command and detection to the error stream.
	Debug bool
}

// DefaultConfig returns the standard supervisor settings for documentPath.
func DefaultConfig(documentPath string) Config {
	return NewConfig(config.Default(), documentPath)
}

// NewConfig derives supervisor settings from the application config.
func NewConfig(cfg *config.Config, documentPath string) Config {
	return Config{
		DocumentPath:     documentPath,
		PollInterval:     cfg.Supervisor.PollInterval(),
		IdleTimeout:      cfg.Supervisor.IdleTimeout(),
		SettleDelay:      cfg.Supervisor.SettleDelay(),
		StartupDelay:     cfg.Supervisor.StartupDelay(),
		CountdownStep:    cfg.Supervisor.CountdownStep(),
		MaxContinues:     cfg.Supervisor.MaxContinues,
		WindowSize:       cfg.Window.Size,
		RepetitionSuffix: cfg.Window.RepetitionSuffix,
		Classifier: detect.ClassifierConfig{
			BusySuffix:       cfg.Window.BusySuffix,
			PermissionSuffix: cfg.Window.PermissionSuffix,
			UsageSuffix:      cfg.Window.UsageSuffix,
		},
		Debug: cfg.Debug,
	}
}

// Options wires the supervisor's collaborators. Session and Oracle are
// required; everything else has a usable default.
type Options struct {
	Config   Config
	Session  process.Session
	Oracle   Oracle
	Input    Input
	Clock    Clock
	Printer  *StatusPrinter
	Recorder *metrics.Recorder
	Logger   *logging.Logger
}

// Supervisor drives the child through the task document. It owns the
// output window, the activity timestamp, the Continue counter, the
// repetition history and the session state; none of these are shared with
// other goroutines. Start, Tick, Run and Shutdown must be called from a
// single goroutine.
type Supervisor struct {
	config   Config
	session  process.Session
	oracle   Oracle
	operator Input
	clock    Clock
	printer  *StatusPrinter
	recorder *metrics.Recorder
	logger   *logging.Logger

	classifier *detect.Classifier
	repetition *detect.RepetitionDetector
	stagnation *detect.StagnationDetector

	// Owned state
	window       *capture.Window
	output       <-chan []byte
	keys         <-chan []byte
	interrupts   <-chan struct{}
	state        State
	statusMsg    string
	lastActivity time.Time
	outcome      Outcome
	started      bool
	finished     bool
	shutdown     bool
}

// New creates a supervisor from opts.
func New(opts Options) *Supervisor {
	if opts.Clock == nil {
		opts.Clock = RealClock()
	}
	if opts.Printer == nil {
		opts.Printer = DiscardPrinter()
	}
	if opts.Logger == nil {
		opts.Logger = logging.NopLogger()
	}

	cfg := opts.Config
	s := &Supervisor{
		config:     cfg,
		session:    opts.Session,
		oracle:     opts.Oracle,
		operator:   opts.Input,
		clock:      opts.Clock,
		printer:    opts.Printer,
		recorder:   opts.Recorder,
		logger:     opts.Logger.WithComponent("supervisor"),
		classifier: detect.NewClassifier(cfg.Classifier),
		repetition: detect.NewRepetitionDetector(cfg.RepetitionSuffix, 0),
		stagnation: detect.NewStagnationDetector(detect.StagnationConfig{
			IdleTimeout:  cfg.IdleTimeout,
			MaxContinues: cfg.MaxContinues,
		}),
		window:  capture.NewWindow(cfg.WindowSize),
		state:   StateWorking,
		outcome: Outcome{ExitCode: -1},
	}
	if opts.Input != nil {
		s.keys = opts.Input.Keys()
		s.interrupts = opts.Input.Interrupted()
	}
	return s
}

// State returns the current session state.
func (s *Supervisor) State() State {
	return s.state
}

// Continues returns the number of Continue commands sent so far.
func (s *Supervisor) Continues() int {
	return s.outcome.Continues
}

// Outcome returns the session summary. It is final once Tick reports done.
func (s *Supervisor) Outcome() Outcome {
	o := s.outcome
	o.State = s.state
	return o
}

// Run starts the session, ticks until it ends and shuts down. Interruption
// is reported through the outcome, not as an error.
func (s *Supervisor) Run(ctx context.Context) (Outcome, error) {
	defer func() { _ = s.Shutdown() }()

	if err := s.Start(ctx); err != nil {
		switch {
		case isInterrupt(err):
			s.finish(StateTerminated, ReasonInterrupted, msgInterrupted)
			return s.Outcome(), nil
		case !s.started:
			return s.Outcome(), err
		}
		// Without the initial prompt the child has nothing to work on, so
		// even a write the loop could retry ends the session here.
		s.logger.Error("failed to submit initial prompt", "error", err.Error())
		s.finish(StateTerminated, ReasonError, "Session failed: "+err.Error())
		return s.Outcome(), err
	}

	for {
		done, err := s.Tick(ctx)
		if done {
			return s.Outcome(), err
		}
		if done, err := s.stopOn(s.pause(ctx, s.config.PollInterval)); done {
			return s.Outcome(), err
		}
	}
}

// Start spawns the child and submits the initial prompt.
func (s *Supervisor) Start(ctx context.Context) error {
	if s.started {
		return errors.ErrSessionStarted
	}

	s.printer.Starting(s.config.DocumentPath, filepath.Dir(s.config.DocumentPath))
	if err := s.session.Start(ctx); err != nil {
		return err
	}
	s.started = true
	s.output = s.session.Output()
	s.recorder.SetState(s.state.String())
	if info, ok := s.session.(process.ChildInfo); ok {
		s.logger.Info("session started", "document", s.config.DocumentPath, "pid", info.PID())
	} else {
		s.logger.Info("session started", "document", s.config.DocumentPath)
	}

	s.setStatus(StateWorking, msgSendingPrompt)
	if err := s.sendCommand(ctx, InitialPrompt(s.config.DocumentPath)); err != nil {
		return err
	}
	if err := s.pause(ctx, s.config.StartupDelay); err != nil {
		return err
	}

	s.lastActivity = s.clock.Now()
	s.setStatus(StateWorking, msgWorking)
	s.printer.SessionStart()
	return nil
}

// Tick performs one supervisor step: drain output, relay at most one
// keystroke, check liveness, then act on the classified output. It reports
// done once the session has ended. A non-nil error is fatal.
func (s *Supervisor) Tick(ctx context.Context) (bool, error) {
	if !s.started {
		return true, errors.ErrSessionNotStarted
	}
	if s.finished {
		return true, nil
	}
	if ctx.Err() != nil || s.interrupted() {
		s.finish(StateTerminated, ReasonInterrupted, msgInterrupted)
		return true, nil
	}

	now := s.clock.Now()
	s.drainOutput(now)
	if err := s.relayKey(now); err != nil {
		return s.stopOn(err)
	}

	exited, err := s.session.TryWait()
	if err != nil {
		return s.stopOn(err)
	}
	if exited {
		if info, ok := s.session.(process.ChildInfo); ok {
			s.outcome.ExitCode = info.ExitCode()
		}
		s.logger.Info("child exited on its own", "exit_code", s.outcome.ExitCode)
		s.finish(StateTerminated, ReasonChildExited, "Claude process exited")
		return true, nil
	}

	result := s.classifier.Classify(s.window, now)
	switch result.Condition {
	case detect.ConditionUsageLimited:
		return s.waitOutUsageLimit(ctx, result.ResumeAt)
	case detect.ConditionPermissionPrompt:
		return s.acceptPermission(ctx)
	}

	busy := result.Condition == detect.ConditionBusy
	if busy {
		s.setStatus(StateWorking, msgWorking)
	}

	stagnant := s.stagnation.IsStagnant(detect.CheckInput{
		Now:              now,
		LastActivityTime: s.lastActivity,
		Busy:             busy,
	})
	if !stagnant {
		return false, nil
	}
	return s.handleStagnation(ctx)
}

// drainOutput moves every pending chunk into the window.
func (s *Supervisor) drainOutput(now time.Time) {
	for {
		select {
		case chunk, ok := <-s.output:
			if !ok {
				s.window.Flush()
				s.output = nil
				return
			}
			s.window.Push(chunk)
			s.lastActivity = now
		default:
			return
		}
	}
}

// relayKey forwards at most one operator keystroke. Escape sequences are
// forwarded but do not count as activity.
func (s *Supervisor) relayKey(now time.Time) error {
	select {
	case key := <-s.keys:
		if err := s.write(key); err != nil {
			return err
		}
		if !input.IsEscapeSequence(key) {
			s.lastActivity = now
		}
	default:
	}
	return nil
}

// waitOutUsageLimit sleeps until resumeAt, then sends Continue.
func (s *Supervisor) waitOutUsageLimit(ctx context.Context, resumeAt time.Time) (bool, error) {
	s.outcome.UsageLimitWaits++
	s.recorder.IncUsageLimitWaits()
	s.logger.Info("usage limit detected", "resume_at", resumeAt.Format(time.RFC3339))
	s.debugf("Usage limit detected. Wait until: %s", resumeAt.Format(time.Kitchen))

	s.setStatus(StateUsageLimited, fmt.Sprintf("Usage limit reached. Waiting until %s...", resumeAt.Format(time.Kitchen)))
	s.printer.UsageLimit(resumeAt)

	waited := false
	for {
		remaining := resumeAt.Sub(s.clock.Now())
		if remaining <= 0 {
			break
		}
		waited = true
		s.printer.Countdown(remaining)

		step := s.config.CountdownStep
		if step <= 0 || step > remaining {
			step = remaining
		}
		if err := s.pause(ctx, step); err != nil {
			return s.stopOn(err)
		}
	}
	if waited {
		s.printer.CountdownDone()
	}
	s.printer.Resuming()

	s.setStatus(StateWorking, "Sending Continue after usage limit wait...")
	if err := s.sendCommand(ctx, continueCommand); err != nil {
		return s.stopOn(err)
	}
	s.outcome.Continues++
	s.recorder.IncContinues(metrics.ReasonUsageLimit)
	s.resetObservation()
	s.setStatus(StateWorking, msgWorking)
	return false, nil
}

// acceptPermission answers the bypass-permissions dialog with "2".
func (s *Supervisor) acceptPermission(ctx context.Context) (bool, error) {
	s.setStatus(StatePermissionPrompt, "Detected bypass permissions prompt, accepting...")
	s.debugf("Bypass permissions prompt detected, sending '2' to accept")

	if err := s.sendCommand(ctx, acceptCommand); err != nil {
		return s.stopOn(err)
	}
	s.outcome.PermissionAccepts++
	s.recorder.IncPermissionAccepts()
	s.resetObservation()
	s.setStatus(StateWorking, msgWorking)
	return false, nil
}

// handleStagnation decides between finishing, giving up and sending
// another Continue.
func (s *Supervisor) handleStagnation(ctx context.Context) (bool, error) {
	s.setStatus(StateIdle, "Claude appears idle. Checking task progress...")

	complete, err := s.oracle.Complete()
	if err != nil {
		s.logger.Warn("task document check failed", "error", err.Error())
	}
	repeated := s.repetition.Observe(s.window)

	verdict := s.stagnation.Resolve(detect.ResolveInput{
		Complete:  complete,
		Repeated:  repeated,
		Continues: s.outcome.Continues,
	})
	s.logger.Debug("stagnation verdict",
		"verdict", verdict.String(),
		"complete", complete,
		"repeated", repeated,
		"continues", s.outcome.Continues,
	)

	switch verdict {
	case detect.VerdictComplete:
		s.logger.Info("all tasks completed")
		s.finish(StateCompleted, ReasonCompleted, "All tasks completed! Exiting...")
		return true, nil
	case detect.VerdictStuck:
		s.logger.Warn("child appears stuck", "continues", s.outcome.Continues)
		s.printer.Error("Claude appears to be stuck in a loop. Exiting to prevent infinite retries.")
		s.finish(StateStuck, ReasonStuck, "Detected repeated pattern. Claude may be stuck. Exiting...")
		return true, nil
	case detect.VerdictCeiling:
		s.logger.Warn("continue limit reached", "max_continues", s.config.MaxContinues)
		s.printer.Error(fmt.Sprintf("Sent %d Continue commands. Something may be wrong. Exiting.", s.outcome.Continues))
		s.finish(StateTerminated, ReasonContinueLimit, "Maximum continue limit reached. Exiting...")
		return true, nil
	}

	s.setStatus(StateWorking, fmt.Sprintf("Claude stopped. Sending Continue #%d...", s.outcome.Continues+1))
	if err := s.sendCommand(ctx, continueCommand); err != nil {
		return s.stopOn(err)
	}
	s.outcome.Continues++
	s.recorder.IncContinues(metrics.ReasonStagnation)
	s.resetObservation()
	s.setStatus(StateWorking, msgWorking)
	return false, nil
}

// sendCommand writes text, waits the settle delay and submits it with a
// separate carriage return.
func (s *Supervisor) sendCommand(ctx context.Context, text string) error {
	s.logger.Debug("sending command", "text", text)
	s.debugf("Sending: %q", text)

	if err := s.write([]byte(text)); err != nil {
		return err
	}
	if err := s.pause(ctx, s.config.SettleDelay); err != nil {
		return err
	}
	return s.write([]byte{input.ByteEnter})
}

func (s *Supervisor) write(p []byte) error {
	_, err := s.session.Write(p)
	return err
}

// pause waits for d on the supervisor's clock. Output arriving meanwhile is
// still collected so the reader never stalls.
func (s *Supervisor) pause(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	timer := s.clock.After(d)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-s.interrupts:
			return errInterrupted
		case <-timer:
			return nil
		case chunk, ok := <-s.output:
			if !ok {
				s.window.Flush()
				s.output = nil
				continue
			}
			s.window.Push(chunk)
			s.lastActivity = s.clock.Now()
		}
	}
}

// resetObservation starts a fresh observation period after a command.
func (s *Supervisor) resetObservation() {
	s.window.Reset()
	s.lastActivity = s.clock.Now()
}

func (s *Supervisor) interrupted() bool {
	select {
	case <-s.interrupts:
		return true
	default:
		return false
	}
}

// setStatus records a state transition and prints the status box when the
// message changes.
func (s *Supervisor) setStatus(state State, message string) {
	if state != s.state {
		s.logger.Info("state changed", "from", s.state.String(), "to", state.String())
		s.recorder.SetState(state.String())
		s.state = state
	}
	if message != s.statusMsg {
		s.statusMsg = message
		s.printer.Status(message, s.outcome.Continues)
	}
}

// finish ends the session in state, killing the child.
func (s *Supervisor) finish(state State, reason Reason, message string) {
	if s.finished {
		return
	}
	s.finished = true
	s.outcome.Reason = reason

	if s.started {
		if err := s.session.Kill(); err != nil {
			s.logger.Warn("failed to kill child", "error", err.Error())
		}
	}
	s.setStatus(state, message)
	s.outcome.State = state
}

// stopOn converts an error from a step into Tick's return values. Errors
// below SeverityError abandon the step and leave the session running.
func (s *Supervisor) stopOn(err error) (bool, error) {
	if err == nil {
		return false, nil
	}
	if isInterrupt(err) {
		s.finish(StateTerminated, ReasonInterrupted, msgInterrupted)
		return true, nil
	}

	severity := errors.GetSeverity(err)
	if !errors.IsFatal(err) {
		s.logger.Warn("step abandoned", "error", err.Error(), "severity", severity.String())
		return false, nil
	}

	s.logger.Error("session failed", "error", err.Error(), "severity", severity.String())
	message := "Session failed. See the log for details."
	if errors.IsUserFacing(err) {
		message = "Session failed: " + err.Error()
	}
	s.finish(StateTerminated, ReasonError, message)
	return true, err
}

func isInterrupt(err error) bool {
	return errors.Is(err, errors.ErrCanceled) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded)
}

func (s *Supervisor) debugf(format string, args ...any) {
	if s.config.Debug {
		s.printer.Debug(fmt.Sprintf(format, args...))
	}
}

// Shutdown stops the input relay (restoring the terminal), closes the
// session and prints the summary. It runs once; later calls return nil.
func (s *Supervisor) Shutdown() error {
	if s.shutdown {
		return nil
	}
	s.shutdown = true

	var errs []error
	if s.operator != nil {
		if err := s.operator.Stop(); err != nil {
			errs = append(errs, err)
		}
		s.printer.SetRawMode(false)
	}
	if err := s.session.Close(); err != nil {
		errs = append(errs, err)
	}

	if s.started {
		outcome := s.Outcome()
		if outcome.Reason == ReasonInterrupted {
			s.printer.Interrupted()
		}
		s.printer.SessionEnd()
		s.printer.Summary(outcome)
		s.logger.Info("session finished",
			"state", outcome.State.String(),
			"reason", outcome.Reason.String(),
			"continues", outcome.Continues,
			"permission_accepts", outcome.PermissionAccepts,
			"usage_limit_waits", outcome.UsageLimitWaits,
		)
	}
	return errors.Join(errs...)
}
