package checklist

import (
	"testing"

	"github.com/Iron-Ham/claudia/internal/errors"
	"github.com/spf13/afero"
)

func TestCountMarkers(t *testing.T) {
	tests := []struct {
		name string
		text string
		want Counts
	}{
		{"empty", "", Counts{}},
		{"no checkboxes", "# Tasks\n- write code\n", Counts{}},
		{"mixed", "- [ ] a\n- [x] b\n* [X] c\n+ [ ] d\n", Counts{Unchecked: 2, Checked: 2}},
		{"markers in prose count too", "use [ ] for open tasks", Counts{Unchecked: 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CountMarkers(tt.text); got != tt.want {
				t.Errorf("CountMarkers() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestCounts_Complete(t *testing.T) {
	tests := []struct {
		counts Counts
		want   bool
	}{
		{Counts{}, false},
		{Counts{Unchecked: 1}, false},
		{Counts{Unchecked: 1, Checked: 2}, false},
		{Counts{Checked: 3}, true},
	}

	for _, tt := range tests {
		if got := tt.counts.Complete(); got != tt.want {
			t.Errorf("%+v.Complete() = %v, want %v", tt.counts, got, tt.want)
		}
	}
	if got := (Counts{Unchecked: 2, Checked: 3}).Total(); got != 5 {
		t.Errorf("Total() = %d, want 5", got)
	}
}

func TestOracle_ReadsFreshEachCall(t *testing.T) {
	fs := afero.NewMemMapFs()
	path := "/work/TODO.md"

	if err := afero.WriteFile(fs, path, []byte("- [x] one\n- [x] two\n- [ ] three\n"), 0644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	oracle := NewOracle(fs, path)
	done, err := oracle.Complete()
	if err != nil {
		t.Fatalf("Complete() error: %v", err)
	}
	if done {
		t.Error("Complete() = true with one unchecked task, want false")
	}

	if err := afero.WriteFile(fs, path, []byte("- [x] one\n- [x] two\n- [X] three\n"), 0644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	done, err = oracle.Complete()
	if err != nil {
		t.Fatalf("Complete() error: %v", err)
	}
	if !done {
		t.Error("Complete() = false after last task checked, want true")
	}

	counts, err := oracle.Counts()
	if err != nil {
		t.Fatalf("Counts() error: %v", err)
	}
	if counts != (Counts{Checked: 3}) {
		t.Errorf("Counts() = %+v, want 3 checked", counts)
	}
}

func TestOracle_NoCheckboxesNeverComplete(t *testing.T) {
	fs := afero.NewMemMapFs()
	_ = afero.WriteFile(fs, "/plan.md", []byte("# nothing to do\n"), 0644)

	done, err := NewOracle(fs, "/plan.md").Complete()
	if err != nil {
		t.Fatalf("Complete() error: %v", err)
	}
	if done {
		t.Error("Complete() = true for a document without checkboxes")
	}
}

func TestOracle_MissingDocument(t *testing.T) {
	oracle := NewOracle(afero.NewMemMapFs(), "/missing.md")

	done, err := oracle.Complete()
	if done {
		t.Error("Complete() = true for a missing document")
	}
	if !errors.Is(err, errors.ErrDocumentNotFound) {
		t.Errorf("Complete() error = %v, want ErrDocumentNotFound", err)
	}

	var docErr *errors.DocumentError
	if !errors.As(err, &docErr) || docErr.Path != "/missing.md" {
		t.Errorf("error should be a DocumentError with the path, got %v", err)
	}
}
