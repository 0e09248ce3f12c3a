package config

import (
	"fmt"
	"slices"
	"strings"
)

// ValidationError represents a single validation failure
type ValidationError struct {
	Field   string // The config field path (e.g., "window.size")
	Value   any    // The invalid value
	Message string // Human-readable error description
}

// Error implements the error interface for ValidationError
func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s (got: %v)", e.Field, e.Message, e.Value)
}

// ValidationErrors is a collection of validation errors
type ValidationErrors []ValidationError

// Error implements the error interface for ValidationErrors
func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	if len(e) == 1 {
		return e[0].Error()
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%d validation errors:\n", len(e)))
	for i, err := range e {
		sb.WriteString(fmt.Sprintf("  %d. %s\n", i+1, err.Error()))
	}
	return sb.String()
}

// ValidLogLevels returns the list of valid log levels
func ValidLogLevels() []string {
	return []string{"debug", "info", "warn", "error"}
}

// Validate checks the Config for invalid values and returns all validation errors found
func (c *Config) Validate() []ValidationError {
	var errors []ValidationError

	errors = append(errors, c.validateChild()...)
	errors = append(errors, c.validateSupervisor()...)
	errors = append(errors, c.validateWindow()...)
	errors = append(errors, c.validateLogging()...)
	errors = append(errors, c.validateMetrics()...)

	return errors
}

func (c *Config) validateChild() []ValidationError {
	var errors []ValidationError

	if strings.TrimSpace(c.Child.Command) == "" {
		errors = append(errors, ValidationError{
			Field:   "child.command",
			Value:   c.Child.Command,
			Message: "must not be empty",
		})
	}
	if c.Child.Rows < 1 || c.Child.Rows > 1000 {
		errors = append(errors, ValidationError{
			Field:   "child.rows",
			Value:   c.Child.Rows,
			Message: "must be between 1 and 1000",
		})
	}
	if c.Child.Cols < 1 || c.Child.Cols > 1000 {
		errors = append(errors, ValidationError{
			Field:   "child.cols",
			Value:   c.Child.Cols,
			Message: "must be between 1 and 1000",
		})
	}

	return errors
}

func (c *Config) validateSupervisor() []ValidationError {
	var errors []ValidationError
	s := c.Supervisor

	positive := []struct {
		field string
		value int
	}{
		{"supervisor.poll_interval_ms", s.PollIntervalMs},
		{"supervisor.idle_timeout_seconds", s.IdleTimeoutSeconds},
		{"supervisor.countdown_step_seconds", s.CountdownStepSeconds},
	}
	for _, p := range positive {
		if p.value <= 0 {
			errors = append(errors, ValidationError{
				Field:   p.field,
				Value:   p.value,
				Message: "must be positive",
			})
		}
	}

	nonNegative := []struct {
		field string
		value int
	}{
		{"supervisor.max_continues", s.MaxContinues},
		{"supervisor.settle_delay_ms", s.SettleDelayMs},
		{"supervisor.startup_delay_ms", s.StartupDelayMs},
	}
	for _, n := range nonNegative {
		if n.value < 0 {
			errors = append(errors, ValidationError{
				Field:   n.field,
				Value:   n.value,
				Message: "must be non-negative",
			})
		}
	}

	return errors
}

// validateWindow checks that every detector suffix fits inside the window.
func (c *Config) validateWindow() []ValidationError {
	var errors []ValidationError
	w := c.Window

	if w.Size <= 0 {
		errors = append(errors, ValidationError{
			Field:   "window.size",
			Value:   w.Size,
			Message: "must be positive",
		})
		return errors
	}

	suffixes := []struct {
		field string
		value int
	}{
		{"window.busy_suffix", w.BusySuffix},
		{"window.permission_suffix", w.PermissionSuffix},
		{"window.usage_suffix", w.UsageSuffix},
		{"window.repetition_suffix", w.RepetitionSuffix},
	}
	for _, s := range suffixes {
		if s.value <= 0 || s.value > w.Size {
			errors = append(errors, ValidationError{
				Field:   s.field,
				Value:   s.value,
				Message: fmt.Sprintf("must be between 1 and window.size (%d)", w.Size),
			})
		}
	}

	return errors
}

func (c *Config) validateLogging() []ValidationError {
	var errors []ValidationError

	if c.Logging.Level != "" && !slices.Contains(ValidLogLevels(), strings.ToLower(c.Logging.Level)) {
		errors = append(errors, ValidationError{
			Field:   "logging.level",
			Value:   c.Logging.Level,
			Message: fmt.Sprintf("must be one of: %s", strings.Join(ValidLogLevels(), ", ")),
		})
	}
	if c.Logging.MaxSizeMB < 0 {
		errors = append(errors, ValidationError{
			Field:   "logging.max_size_mb",
			Value:   c.Logging.MaxSizeMB,
			Message: "must be non-negative",
		})
	}
	if c.Logging.MaxBackups < 0 {
		errors = append(errors, ValidationError{
			Field:   "logging.max_backups",
			Value:   c.Logging.MaxBackups,
			Message: "must be non-negative",
		})
	}

	return errors
}

func (c *Config) validateMetrics() []ValidationError {
	var errors []ValidationError

	if c.Metrics.Enabled && strings.TrimSpace(c.Metrics.Addr) == "" {
		errors = append(errors, ValidationError{
			Field:   "metrics.addr",
			Value:   c.Metrics.Addr,
			Message: "must be set when metrics are enabled",
		})
	}

	return errors
}
