package capture

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestNewWindow(t *testing.T) {
	tests := []struct {
		size int
		want int
	}{
		{10, 10},
		{0, DefaultWindowSize},
		{-5, DefaultWindowSize},
	}

	for _, tt := range tests {
		w := NewWindow(tt.size)
		if w.Cap() != tt.want {
			t.Errorf("NewWindow(%d).Cap() = %d, want %d", tt.size, w.Cap(), tt.want)
		}
		if w.Len() != 0 {
			t.Errorf("NewWindow(%d).Len() = %d, want 0", tt.size, w.Len())
		}
	}
}

func TestWindow_PushAndString(t *testing.T) {
	tests := []struct {
		name   string
		size   int
		pushes []string
		want   string
	}{
		{
			name:   "single push within capacity",
			size:   10,
			pushes: []string{"hello"},
			want:   "hello",
		},
		{
			name:   "multiple pushes within capacity",
			size:   10,
			pushes: []string{"he", "llo"},
			want:   "hello",
		},
		{
			name:   "push exactly fills window",
			size:   5,
			pushes: []string{"hello"},
			want:   "hello",
		},
		{
			name:   "push overflows window",
			size:   5,
			pushes: []string{"hello world"},
			want:   "world",
		},
		{
			name:   "multi-byte characters count once",
			size:   5,
			pushes: []string{"héllo", "!?"},
			want:   "llo!?",
		},
		{
			name:   "truncation never splits a character",
			size:   3,
			pushes: []string{"a日本語"},
			want:   "日本語",
		},
		{
			name:   "empty push is a no-op",
			size:   5,
			pushes: []string{"abc", ""},
			want:   "abc",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := NewWindow(tt.size)
			for _, p := range tt.pushes {
				w.PushString(p)
			}
			if got := w.String(); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
			if !utf8.ValidString(w.String()) {
				t.Error("window contents are not valid UTF-8")
			}
		})
	}
}

func TestWindow_CapInvariant(t *testing.T) {
	w := NewWindow(2000)
	chunk := strings.Repeat("ab€", 97)
	for range 50 {
		w.PushString(chunk)
		if w.Len() > 2000 {
			t.Fatalf("Len() = %d, exceeds capacity", w.Len())
		}
	}
	if w.Len() != 2000 {
		t.Errorf("Len() = %d, want 2000", w.Len())
	}
}

func TestWindow_Suffix(t *testing.T) {
	w := NewWindow(10)
	w.PushString("abcdefghijklmno")

	tests := []struct {
		n    int
		want string
	}{
		{3, "mno"},
		{10, "fghijklmno"},
		{100, "fghijklmno"},
		{0, ""},
		{-1, ""},
	}

	for _, tt := range tests {
		if got := w.Suffix(tt.n); got != tt.want {
			t.Errorf("Suffix(%d) = %q, want %q", tt.n, got, tt.want)
		}
	}
}

func TestWindow_SuffixShorterThanRequested(t *testing.T) {
	w := NewWindow(2000)
	w.PushString("short")
	if got := w.Suffix(200); got != "short" {
		t.Errorf("Suffix(200) = %q, want %q", got, "short")
	}
}

func TestWindow_SplitSequenceAcrossChunks(t *testing.T) {
	w := NewWindow(100)
	euro := []byte("€") // 3 bytes

	w.Push([]byte{'x', euro[0]})
	if got := w.String(); got != "x" {
		t.Fatalf("after partial chunk String() = %q, want %q", got, "x")
	}

	w.Push([]byte{euro[1]})
	if got := w.String(); got != "x" {
		t.Fatalf("after second byte String() = %q, want %q", got, "x")
	}

	w.Push([]byte{euro[2], 'y'})
	if got := w.String(); got != "x€y" {
		t.Errorf("after completing sequence String() = %q, want %q", got, "x€y")
	}
}

func TestWindow_FlushTruncatedSequence(t *testing.T) {
	w := NewWindow(100)
	euro := []byte("€")

	w.Flush()
	if got := w.String(); got != "" {
		t.Fatalf("Flush() on an empty window produced %q", got)
	}

	w.Push([]byte{'x', euro[0], euro[1]})
	w.Flush()
	if got := w.String(); got != "x\uFFFD" {
		t.Errorf("String() after Flush = %q, want %q", got, "x\uFFFD")
	}

	w.Flush()
	w.Push([]byte{'y'})
	if got := w.String(); got != "x\uFFFDy" {
		t.Errorf("String() = %q, want the partial sequence flushed once", got)
	}
}

func TestWindow_InvalidBytesBecomeReplacement(t *testing.T) {
	w := NewWindow(100)
	w.Push([]byte{'a', 0xff, 'b', 0x80, 'c'})

	want := "a�b�c"
	if got := w.String(); got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}

func TestWindow_Reset(t *testing.T) {
	w := NewWindow(5)
	w.PushString("hello world")
	w.Push([]byte{0xe2}) // dangling lead byte

	w.Reset()

	if w.Len() != 0 {
		t.Errorf("Len() after Reset = %d, want 0", w.Len())
	}
	if w.String() != "" {
		t.Errorf("String() after Reset = %q, want empty", w.String())
	}

	// The dangling byte must not leak into new output.
	w.PushString("ok")
	if got := w.String(); got != "ok" {
		t.Errorf("String() = %q, want %q", got, "ok")
	}
}
