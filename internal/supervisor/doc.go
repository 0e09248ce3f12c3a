// Package supervisor drives a Claude session through a Markdown task
// document.
//
// A [Supervisor] spawns the child on a pseudo-terminal, submits the initial
// prompt and then polls. Every tick it drains the child's output into a
// bounded window, relays at most one operator keystroke and classifies the
// window:
//
//   - a usage-limit message starts a countdown to the advertised resume
//     time, after which "Continue" is sent
//   - the bypass-permissions dialog is answered with "2"
//   - the "esc to interrupt" footer marks the child as busy
//
// When the child has been quiet and not busy for longer than the idle
// timeout it is stagnant. The supervisor then asks the task document whether
// every item is checked, asks the repetition detector whether the last three
// snapshots are identical, and either finishes, gives up, or sends another
// "Continue" up to the configured cap.
//
// All mutable state is owned by the goroutine calling [Supervisor.Run]. The
// child's output and the operator's keystrokes arrive over channels fed by
// their own reader goroutines. Time is read through a [Clock] so tests can
// step through idle timeouts and usage-limit waits instantly.
package supervisor
