package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/Iron-Ham/claudia/internal/checklist"
	"github.com/Iron-Ham/claudia/internal/config"
	"github.com/Iron-Ham/claudia/internal/errors"
	"github.com/Iron-Ham/claudia/internal/instance/input"
	"github.com/Iron-Ham/claudia/internal/instance/metrics"
	"github.com/Iron-Ham/claudia/internal/instance/process"
	"github.com/Iron-Ham/claudia/internal/logging"
	"github.com/Iron-Ham/claudia/internal/supervisor"
	"github.com/google/uuid"
	"github.com/sourcegraph/conc"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

// Wrapper functions for exec to allow testing
var execLookPath = exec.LookPath

// metricsShutdownTimeout bounds how long a final scrape may delay exit.
const metricsShutdownTimeout = 2 * time.Second

func runSupervise(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	cmd.SilenceUsage = true

	out := cmd.OutOrStdout()
	errOut := cmd.ErrOrStderr()
	fs := afero.NewOsFs()

	docPath, err := prepareDocument(fs, args[0], cfg.Checklist.Normalize, out)
	if err != nil {
		return err
	}

	command, err := resolveCommand(cfg.Child.Command)
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg, uuid.NewString())
	if err != nil {
		return err
	}
	defer func() { _ = logger.Close() }()
	logger.Info("claudia starting",
		"document", docPath,
		"command", command,
		"version", Version,
		"debug", cfg.Debug,
	)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var recorder *metrics.Recorder
	if cfg.Metrics.Enabled {
		recorder = metrics.NewRecorder()
		stopMetrics := serveMetrics(cfg.Metrics.Addr, recorder, logger)
		defer stopMetrics()
	}

	oracle := checklist.NewOracle(fs, docPath)
	if cfg.Checklist.Watch {
		stopWatch := watchProgress(oracle, recorder, logger)
		defer stopWatch()
	}

	printer := supervisor.NewStatusPrinter(out, errOut)

	opts := supervisor.Options{
		Config:   supervisor.NewConfig(cfg, docPath),
		Oracle:   oracle,
		Printer:  printer,
		Recorder: recorder,
		Logger:   logger,
	}

	if stdin := os.Stdin; input.IsTerminal(stdin) {
		relay := input.NewRelay(stdin, logger)
		if err := relay.Start(); err != nil {
			return err
		}
		printer.SetRawMode(relay.RawMode())
		opts.Input = relay
	}

	opts.Session = process.NewPTYSession(process.Config{
		Command: command,
		Args:    cfg.Child.Args,
		Dir:     filepath.Dir(docPath),
		Rows:    cfg.Child.Rows,
		Cols:    cfg.Child.Cols,
		Echo:    out,
	}, logger)

	outcome, err := supervisor.New(opts).Run(ctx)
	if err != nil {
		logger.Error("supervisor failed", "error", err.Error())
		return err
	}
	logger.Info("claudia exiting", "state", outcome.State.String(), "reason", outcome.Reason.String())
	return nil
}

// prepareDocument resolves the task document, fails if it is missing, and
// adds checkboxes to bare list items when normalize is set.
func prepareDocument(fs afero.Fs, arg string, normalize bool, out io.Writer) (string, error) {
	path, err := filepath.Abs(arg)
	if err != nil {
		return "", errors.NewDocumentError("failed to resolve document path",
			fmt.Errorf("%w: %w", errors.ErrDocumentUnreadable, err)).WithPath(arg)
	}

	info, err := fs.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", errors.NewDocumentError("task document not found", errors.ErrDocumentNotFound).WithPath(path)
		}
		return "", errors.NewDocumentError("failed to stat task document",
			fmt.Errorf("%w: %w", errors.ErrDocumentUnreadable, err)).WithPath(path)
	}
	if info.IsDir() {
		return "", errors.NewDocumentError("task document is a directory", errors.ErrDocumentUnreadable).WithPath(path)
	}

	if normalize {
		changed, err := checklist.EnsureCheckboxes(fs, path)
		if err != nil {
			return "", err
		}
		if changed {
			fmt.Fprintf(out, "Added checkboxes to tasks in %s\n", path)
		}
	}
	return path, nil
}

// resolveCommand finds the child executable on PATH.
func resolveCommand(name string) (string, error) {
	path, err := execLookPath(name)
	if err != nil {
		return "", errors.NewSessionError(
			fmt.Sprintf("%s not found on PATH; install it or set child.command", name),
			fmt.Errorf("%w: %w", errors.ErrCommandNotFound, err),
		).WithCommand(name)
	}
	return path, nil
}

// newLogger opens the rotating log file for this run, tagged with sessionID.
func newLogger(cfg *config.Config, sessionID string) (*logging.Logger, error) {
	if !cfg.Logging.Enabled {
		return logging.NopLogger(), nil
	}

	logger, err := logging.NewLoggerWithRotation(cfg.Logging.LogDir(), cfg.EffectiveLevel(), logging.RotationConfig{
		MaxSizeMB:  cfg.Logging.MaxSizeMB,
		MaxBackups: cfg.Logging.MaxBackups,
		Compress:   cfg.Logging.Compress,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open log: %w", err)
	}
	return logger.WithSession(sessionID), nil
}

// serveMetrics starts the /metrics listener and returns its shutdown func.
func serveMetrics(addr string, recorder *metrics.Recorder, logger *logging.Logger) func() {
	srv := metrics.NewServer(addr, recorder, logger)

	var wg conc.WaitGroup
	wg.Go(func() {
		_ = srv.ListenAndServe()
	})

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), metricsShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			logger.Warn("metrics shutdown failed", "error", err.Error())
		}
		wg.Wait()
	}
}

// watchProgress logs checklist progress as the child edits the document.
// Failure to watch is not fatal; the supervisor still reads the document
// whenever it needs a decision.
func watchProgress(oracle *checklist.Oracle, recorder *metrics.Recorder, logger *logging.Logger) func() {
	watcher, err := checklist.NewWatcher(oracle, logger)
	if err != nil {
		logger.Warn("checklist watcher unavailable", "error", err.Error())
		return func() {}
	}

	watcher.SetProgressCallback(func(c checklist.Counts) {
		recorder.SetTasks(c.Checked, c.Unchecked)
	})
	if err := watcher.Start(); err != nil {
		logger.Warn("failed to watch task document", "error", err.Error())
		watcher.Stop()
		return func() {}
	}
	return watcher.Stop
}
