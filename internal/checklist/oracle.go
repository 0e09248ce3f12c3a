package checklist

import (
	"fmt"
	"os"
	"strings"

	"github.com/Iron-Ham/claudia/internal/errors"
	"github.com/spf13/afero"
)

// Checkbox markers. Counting is by substring over the whole document, so a
// marker inside prose or a code block counts too.
const (
	markerUnchecked  = "[ ]"
	markerChecked    = "[x]"
	markerCheckedCap = "[X]"
)

// Counts is the number of unchecked and checked markers in a document.
type Counts struct {
	Unchecked int
	Checked   int
}

// Total returns the number of markers of either kind.
func (c Counts) Total() int {
	return c.Unchecked + c.Checked
}

// Complete reports whether nothing is left unchecked and at least one task
// was checked. A document without any checkboxes is never complete.
func (c Counts) Complete() bool {
	return c.Unchecked == 0 && c.Checked > 0
}

// CountMarkers counts checkbox markers in text.
func CountMarkers(text string) Counts {
	return Counts{
		Unchecked: strings.Count(text, markerUnchecked),
		Checked:   strings.Count(text, markerChecked) + strings.Count(text, markerCheckedCap),
	}
}

// Oracle answers whether the task document is finished. It re-reads the
// file on every call because the child edits it while working.
type Oracle struct {
	fs   afero.Fs
	path string
}

// NewOracle creates an oracle for the document at path on fs.
func NewOracle(fs afero.Fs, path string) *Oracle {
	return &Oracle{fs: fs, path: path}
}

// Path returns the document path.
func (o *Oracle) Path() string {
	return o.path
}

// Counts reads the document and counts its markers.
func (o *Oracle) Counts() (Counts, error) {
	data, err := afero.ReadFile(o.fs, o.path)
	if err != nil {
		return Counts{}, readError(o.path, err)
	}
	return CountMarkers(string(data)), nil
}

// Complete reads the document and reports whether every task is checked.
// On a read error it returns false along with the error.
func (o *Oracle) Complete() (bool, error) {
	counts, err := o.Counts()
	if err != nil {
		return false, err
	}
	return counts.Complete(), nil
}

// readError classifies a failed read of the document.
func readError(path string, err error) error {
	sentinel := errors.ErrDocumentUnreadable
	msg := "failed to read task document"
	if os.IsNotExist(err) {
		sentinel = errors.ErrDocumentNotFound
		msg = "task document not found"
	}
	return errors.NewDocumentError(msg, fmt.Errorf("%w: %w", sentinel, err)).WithPath(path)
}
