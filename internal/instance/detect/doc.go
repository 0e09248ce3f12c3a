// Package detect infers the supervised child's state from its recent
// terminal output.
//
// The child exposes no structured API, so every decision here is a
// heuristic over plain text. Escape sequences are stripped before matching.
//
// # Main Types
//
//   - [Classifier]: maps window suffixes to a [Condition]
//   - [RepetitionDetector]: notices when the child keeps printing the same thing
//   - [StagnationDetector]: decides when silence warrants intervention and
//     which [Verdict] applies
//
// # Classification Priority
//
// Each check reads its own trailing slice of the window:
//
//  1. Usage limit (last 2000 characters): a limit keyword plus a parseable
//     time such as "3pm" or "11:30 am"
//  2. Permission prompt (last 1500 characters): the bypass-permissions dialog
//  3. Busy (last 200 characters): the "esc to interrupt" footer
//
// Nothing matching means [ConditionIdle].
//
// # Stagnation
//
// The child is stagnant when output has not changed for longer than the idle
// timeout and no busy marker is visible. [StagnationDetector.Resolve] then
// checks, in order, checklist completion, repeated output and the Continue
// ceiling.
package detect
