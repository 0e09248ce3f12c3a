// Package checklist reads and prepares the Markdown task document that the
// supervised child works through.
//
// The document is the ground truth for completion: "[ ]" marks an open task,
// "[x]" or "[X]" a finished one. [Oracle] answers "is everything done?" by
// re-reading the file on each call. [EnsureCheckboxes] runs once before the
// child starts and turns plain list items into checkbox items so that the
// child has something to tick off. [Watcher] logs progress as the child edits
// the file.
//
// All file access goes through an afero.Fs so tests can use an in-memory
// filesystem.
package checklist
