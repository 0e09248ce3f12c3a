package checklist

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/Iron-Ham/claudia/internal/errors"
	"github.com/spf13/afero"
)

// bulletMarkers are the unordered list markers that get a checkbox inserted.
var bulletMarkers = []string{"- ", "* ", "+ "}

// numberedItem matches "12. text". Other enumerations such as "1)" are left
// alone.
var numberedItem = regexp.MustCompile(`^\d+\.\s+(.*)$`)

// Normalize turns every list item in text into a checkbox item. Bullets get
// "[ ] " after the marker, and numbered items become "- [ ] text" at the
// same indentation. Items that already start with a checkbox are kept, so
// Normalize is idempotent. It reports whether anything changed. Whether the
// text ends in a newline is preserved.
func Normalize(text string) (string, bool) {
	lines := strings.Split(text, "\n")
	modified := false

	for i, line := range lines {
		if out, ok := normalizeLine(line); ok {
			lines[i] = out
			modified = true
		}
	}

	if !modified {
		return text, false
	}
	return strings.Join(lines, "\n"), true
}

func normalizeLine(line string) (string, bool) {
	body := strings.TrimLeft(line, " \t")
	indent := line[:len(line)-len(body)]

	for _, marker := range bulletMarkers {
		if !strings.HasPrefix(body, marker) {
			continue
		}
		rest := body[len(marker):]
		if hasCheckbox(rest) {
			return line, false
		}
		return indent + marker + markerUnchecked + " " + rest, true
	}

	if m := numberedItem.FindStringSubmatch(body); m != nil {
		rest := m[1]
		if hasCheckbox(rest) {
			return indent + "- " + rest, true
		}
		return indent + "- " + markerUnchecked + " " + rest, true
	}

	return line, false
}

// hasCheckbox reports whether list item text already begins with a marker.
func hasCheckbox(rest string) bool {
	return strings.HasPrefix(rest, markerUnchecked) ||
		strings.HasPrefix(rest, markerChecked) ||
		strings.HasPrefix(rest, markerCheckedCap)
}

// EnsureCheckboxes normalizes the document at path in place. The file is
// written only when Normalize changed something, keeping its permissions.
func EnsureCheckboxes(fs afero.Fs, path string) (bool, error) {
	info, err := fs.Stat(path)
	if err != nil {
		return false, readError(path, err)
	}

	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return false, readError(path, err)
	}

	out, changed := Normalize(string(data))
	if !changed {
		return false, nil
	}

	if err := afero.WriteFile(fs, path, []byte(out), info.Mode().Perm()); err != nil {
		return false, errors.NewDocumentError("failed to write normalized document",
			fmt.Errorf("%w: %w", errors.ErrDocumentWrite, err)).WithPath(path)
	}
	return true, nil
}
