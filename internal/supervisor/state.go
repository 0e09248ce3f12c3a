package supervisor

// State is the supervisor's view of the child session.
type State int

const (
	// StateWorking means the child is (or is assumed to be) making progress.
	StateWorking State = iota
	// StateIdle means the child went quiet and is being evaluated.
	StateIdle
	// StateUsageLimited means the supervisor is waiting out a usage limit.
	StateUsageLimited
	// StatePermissionPrompt means the bypass-permissions dialog is being
	// accepted.
	StatePermissionPrompt
	// StateCompleted means every task in the document is checked.
	StateCompleted
	// StateStuck means the child repeated itself and was stopped.
	StateStuck
	// StateTerminated means the session ended for any other reason.
	StateTerminated
)

// String returns a human-readable string for the state.
func (s State) String() string {
	switch s {
	case StateWorking:
		return "working"
	case StateIdle:
		return "idle"
	case StateUsageLimited:
		return "usage_limited"
	case StatePermissionPrompt:
		return "permission_prompt"
	case StateCompleted:
		return "completed"
	case StateStuck:
		return "stuck"
	case StateTerminated:
		return "terminated"
	default:
		return "unknown"
	}
}

// IsFinal reports whether the state ends the session.
func (s State) IsFinal() bool {
	return s == StateCompleted || s == StateStuck || s == StateTerminated
}

// Reason explains why a session ended.
type Reason int

const (
	// ReasonNone means the session has not ended.
	ReasonNone Reason = iota
	// ReasonCompleted means the task document was finished.
	ReasonCompleted
	// ReasonStuck means three identical snapshots were seen.
	ReasonStuck
	// ReasonContinueLimit means the Continue cap was reached.
	ReasonContinueLimit
	// ReasonChildExited means the child exited on its own.
	ReasonChildExited
	// ReasonInterrupted means the operator or a signal stopped the session.
	ReasonInterrupted
	// ReasonError means a fatal error ended the session.
	ReasonError
)

// String returns a human-readable string for the reason.
func (r Reason) String() string {
	switch r {
	case ReasonNone:
		return "none"
	case ReasonCompleted:
		return "completed"
	case ReasonStuck:
		return "stuck"
	case ReasonContinueLimit:
		return "continue_limit"
	case ReasonChildExited:
		return "child_exited"
	case ReasonInterrupted:
		return "interrupted"
	case ReasonError:
		return "error"
	default:
		return "unknown"
	}
}

// Outcome summarizes a finished session.
type Outcome struct {
	State             State
	Reason            Reason
	Continues         int
	PermissionAccepts int
	UsageLimitWaits   int

	// ExitCode is the child's exit status when it exited on its own and the
	// session can report it, and -1 otherwise.
	ExitCode int
}

// Success reports whether the task document was completed.
func (o Outcome) Success() bool {
	return o.Reason == ReasonCompleted
}
