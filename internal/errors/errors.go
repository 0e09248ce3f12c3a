// Package errors provides the error taxonomy for claudia. It defines sentinel
// errors for every fatal startup and session condition, typed errors that carry
// the context needed to explain a failure to the operator, and classification
// helpers used by the command layer to decide how to report an error.
//
// # Error Types
//
//   - SessionError: the supervised child process or its PTY (spawn, write, wait)
//   - DocumentError: the Markdown task document (missing, unreadable, unwritable)
//   - TerminalError: the operator's terminal (raw mode enable/restore)
//
// # Usage
//
//	err := errors.NewSessionError("failed to spawn child", errors.ErrSpawn).
//	    WithCommand("claude")
//
//	if errors.Is(err, errors.ErrSpawn) { ... }
//
//	var docErr *errors.DocumentError
//	if errors.As(err, &docErr) { ... }
//
// # Error Classification
//
// Session errors are critical and end the supervised session, except a
// write the child could not accept yet, which is downgraded to a warning.
// [IsFatal] draws that line; the command layer uses [GetSeverity] to label
// what it prints. Transient read conditions never leave the process package,
// and runaway conditions (stuck output, continuation ceiling) are outcomes,
// not errors.
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Re-export standard library functions for convenience.
// This allows callers to import only this package for all error handling.
var (
	Is     = errors.Is
	As     = errors.As
	Unwrap = errors.Unwrap
	New    = errors.New
	Join   = errors.Join
)

// Severity represents the severity level of an error.
type Severity int

const (
	// SeverityDebug is for errors that are useful for debugging but not critical.
	SeverityDebug Severity = iota
	// SeverityInfo is for informational errors that don't indicate a problem.
	SeverityInfo
	// SeverityWarning is for errors that might indicate a problem but aren't critical.
	SeverityWarning
	// SeverityError is for errors that indicate a real problem.
	SeverityError
	// SeverityCritical is for errors that end the supervised session.
	SeverityCritical
)

// String returns the string representation of the severity level.
func (s Severity) String() string {
	switch s {
	case SeverityDebug:
		return "debug"
	case SeverityInfo:
		return "info"
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	case SeverityCritical:
		return "critical"
	default:
		return "unknown"
	}
}

// -----------------------------------------------------------------------------
// Sentinel Errors
// -----------------------------------------------------------------------------

// Session-related sentinel errors
var (
	// ErrCommandNotFound indicates the child command is not on PATH.
	ErrCommandNotFound = New("command not found")
	// ErrPTYOpen indicates the pseudo-terminal could not be allocated.
	ErrPTYOpen = New("failed to open pty")
	// ErrSpawn indicates the child process could not be started.
	ErrSpawn = New("failed to spawn child process")
	// ErrChildWrite indicates a write to the child's input failed.
	ErrChildWrite = New("failed to write to child")
	// ErrChildWait indicates the child's liveness could not be determined.
	ErrChildWait = New("failed to poll child status")
	// ErrSessionNotStarted indicates an operation on a session that was never started.
	ErrSessionNotStarted = New("session not started")
	// ErrSessionStarted indicates Start was called twice.
	ErrSessionStarted = New("session already started")
)

// Document-related sentinel errors
var (
	// ErrDocumentNotFound indicates the task document does not exist.
	ErrDocumentNotFound = New("document not found")
	// ErrDocumentUnreadable indicates the task document could not be read.
	ErrDocumentUnreadable = New("document unreadable")
	// ErrDocumentWrite indicates the normalized document could not be written back.
	ErrDocumentWrite = New("document write failed")
)

// Terminal-related sentinel errors
var (
	// ErrRawMode indicates raw mode could not be enabled on the operator terminal.
	ErrRawMode = New("failed to enable raw mode")
	// ErrRestore indicates the terminal could not be restored.
	ErrRestore = New("failed to restore terminal")
)

// General sentinel errors
var (
	// ErrCanceled indicates that the operator interrupted the session.
	ErrCanceled = New("operation canceled")
	// ErrInvalidInput indicates that input validation failed.
	ErrInvalidInput = New("invalid input")
)

// -----------------------------------------------------------------------------
// Base Error Interface
// -----------------------------------------------------------------------------

// ClaudiaError is the base interface for all claudia errors.
type ClaudiaError interface {
	error

	// Unwrap returns the underlying error, if any.
	Unwrap() error

	// Is reports whether this error matches the target error.
	Is(target error) bool

	// Severity returns the severity level of this error.
	Severity() Severity

	// IsUserFacing returns true if the message is safe to show the operator.
	IsUserFacing() bool
}

// -----------------------------------------------------------------------------
// Base Error Implementation
// -----------------------------------------------------------------------------

// baseError provides common functionality for all error types.
type baseError struct {
	message    string
	cause      error
	severity   Severity
	userFacing bool
}

// Error returns the error message.
func (e *baseError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.message, e.cause)
	}
	return e.message
}

// Unwrap returns the underlying error.
func (e *baseError) Unwrap() error {
	return e.cause
}

// Is checks if this error matches the target.
func (e *baseError) Is(target error) bool {
	if e.cause != nil {
		return errors.Is(e.cause, target)
	}
	return false
}

// Severity returns the error severity.
func (e *baseError) Severity() Severity {
	return e.severity
}

// IsUserFacing returns whether the error is safe to show users.
func (e *baseError) IsUserFacing() bool {
	return e.userFacing
}

// format renders "<kind> [k=v, ...]: message: cause".
func (e *baseError) format(kind string, parts []string) string {
	prefix := kind
	if len(parts) > 0 {
		prefix = fmt.Sprintf("%s [%s]", kind, strings.Join(parts, ", "))
	}
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", prefix, e.message, e.cause)
	}
	return fmt.Sprintf("%s: %s", prefix, e.message)
}

// -----------------------------------------------------------------------------
// Domain-Specific Errors
// -----------------------------------------------------------------------------

// SessionError represents failures of the supervised child process or its PTY.
//
// Example:
//
//	err := errors.NewSessionError("failed to spawn child", errors.ErrSpawn)
//	err = err.WithCommand("claude").WithWorkDir("/tmp/project")
//	fmt.Println(err) // "session error [command=claude, dir=/tmp/project]: failed to spawn child: failed to spawn child process"
type SessionError struct {
	baseError
	Command string
	WorkDir string
	PID     int
}

// NewSessionError creates a new SessionError. Session errors are critical:
// the relationship with the child is assumed broken.
func NewSessionError(message string, cause error) *SessionError {
	return &SessionError{
		baseError: baseError{
			message:    message,
			cause:      cause,
			severity:   SeverityCritical,
			userFacing: true,
		},
	}
}

// WithCommand adds the child command name to the error context.
func (e *SessionError) WithCommand(command string) *SessionError {
	e.Command = command
	return e
}

// WithWorkDir adds the child's working directory to the error context.
func (e *SessionError) WithWorkDir(dir string) *SessionError {
	e.WorkDir = dir
	return e
}

// WithPID adds the child's process id to the error context.
func (e *SessionError) WithPID(pid int) *SessionError {
	e.PID = pid
	return e
}

// WithSeverity sets the error severity.
func (e *SessionError) WithSeverity(s Severity) *SessionError {
	e.severity = s
	return e
}

// Error returns the formatted error message.
func (e *SessionError) Error() string {
	var parts []string
	if e.Command != "" {
		parts = append(parts, fmt.Sprintf("command=%s", e.Command))
	}
	if e.WorkDir != "" {
		parts = append(parts, fmt.Sprintf("dir=%s", e.WorkDir))
	}
	if e.PID > 0 {
		parts = append(parts, fmt.Sprintf("pid=%d", e.PID))
	}
	return e.format("session error", parts)
}

// Is checks if this error matches the target.
func (e *SessionError) Is(target error) bool {
	if _, ok := target.(*SessionError); ok {
		return true
	}
	return e.baseError.Is(target)
}

// DocumentError represents failures reading or rewriting the task document.
//
// Example:
//
//	err := errors.NewDocumentError("failed to read tasks", errors.ErrDocumentUnreadable).
//	    WithPath("TODO.md")
type DocumentError struct {
	baseError
	Path string
}

// NewDocumentError creates a new DocumentError.
func NewDocumentError(message string, cause error) *DocumentError {
	return &DocumentError{
		baseError: baseError{
			message:    message,
			cause:      cause,
			severity:   SeverityError,
			userFacing: true,
		},
	}
}

// WithPath adds the document path to the error context.
func (e *DocumentError) WithPath(path string) *DocumentError {
	e.Path = path
	return e
}

// Error returns the formatted error message.
func (e *DocumentError) Error() string {
	var parts []string
	if e.Path != "" {
		parts = append(parts, fmt.Sprintf("path=%s", e.Path))
	}
	return e.format("document error", parts)
}

// Is checks if this error matches the target.
func (e *DocumentError) Is(target error) bool {
	if _, ok := target.(*DocumentError); ok {
		return true
	}
	return e.baseError.Is(target)
}

// TerminalError represents failures manipulating the operator's terminal.
type TerminalError struct {
	baseError
	Op string
}

// NewTerminalError creates a new TerminalError.
func NewTerminalError(message string, cause error) *TerminalError {
	return &TerminalError{
		baseError: baseError{
			message:    message,
			cause:      cause,
			severity:   SeverityError,
			userFacing: true,
		},
	}
}

// WithOp records which terminal operation failed (e.g. "make_raw", "restore").
func (e *TerminalError) WithOp(op string) *TerminalError {
	e.Op = op
	return e
}

// Error returns the formatted error message.
func (e *TerminalError) Error() string {
	var parts []string
	if e.Op != "" {
		parts = append(parts, fmt.Sprintf("op=%s", e.Op))
	}
	return e.format("terminal error", parts)
}

// Is checks if this error matches the target.
func (e *TerminalError) Is(target error) bool {
	if _, ok := target.(*TerminalError); ok {
		return true
	}
	return e.baseError.Is(target)
}

// -----------------------------------------------------------------------------
// Error Classification Helpers
// -----------------------------------------------------------------------------

// IsUserFacing returns true if the error message is safe to display to the
// operator as-is.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}

	var claudiaErr ClaudiaError
	if As(err, &claudiaErr) {
		return claudiaErr.IsUserFacing()
	}
	return false
}

// GetSeverity returns the severity level of the error.
// Returns SeverityError for errors that don't implement ClaudiaError.
func GetSeverity(err error) Severity {
	if err == nil {
		return SeverityDebug
	}

	var claudiaErr ClaudiaError
	if As(err, &claudiaErr) {
		return claudiaErr.Severity()
	}
	return SeverityError
}

// IsFatal reports whether err must end the supervised session. Cancellation
// and errors below SeverityError are not fatal.
func IsFatal(err error) bool {
	if err == nil {
		return false
	}
	if Is(err, ErrCanceled) {
		return false
	}
	return GetSeverity(err) >= SeverityError
}

// Wrap wraps an error with additional context message.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}
