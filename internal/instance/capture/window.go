package capture

import "unicode/utf8"

// DefaultWindowSize is the number of characters retained by NewWindow(0).
const DefaultWindowSize = 2000

// Window is a circular buffer of the most recent characters of child output.
//
// It works like a byte ring buffer, but each slot holds a rune:
//   - start: index of the oldest character
//   - end: index where the next character is written
//
// Once full, every new character advances both, dropping the oldest one.
//
// Visual example with a 5-character window:
//
//	Push "héllo": [h, é, l, l, o]  start=0, end=0, full=true
//	Push "!?":    [!, ?, l, l, o]  start=2, end=2 → String() returns "llo!?"
type Window struct {
	data  []rune
	size  int
	start int
	end   int
	full  bool

	// pending holds an incomplete UTF-8 sequence from the previous chunk.
	pending []byte
}

// NewWindow creates a window holding at most size characters. A size of
// zero or less selects DefaultWindowSize.
func NewWindow(size int) *Window {
	if size <= 0 {
		size = DefaultWindowSize
	}
	return &Window{
		data: make([]rune, size),
		size: size,
	}
}

// Push decodes chunk and appends it, discarding the oldest characters once
// the window is full. A trailing partial UTF-8 sequence is kept back and
// completed by the next Push, or turned into U+FFFD by Flush.
func (w *Window) Push(chunk []byte) {
	if len(chunk) == 0 {
		return
	}

	data := chunk
	if len(w.pending) > 0 {
		data = append(w.pending, chunk...)
		w.pending = nil
	}

	data, w.pending = splitIncomplete(data)

	for len(data) > 0 {
		r, n := utf8.DecodeRune(data)
		w.put(r)
		data = data[n:]
	}
}

// Flush appends a held-back partial sequence as a single U+FFFD. Call it
// once the output stream has ended and no Push can complete the sequence.
func (w *Window) Flush() {
	if len(w.pending) == 0 {
		return
	}
	w.pending = nil
	w.put(utf8.RuneError)
}

// PushString appends s. It is a convenience for tests and callers that
// already hold decoded text.
func (w *Window) PushString(s string) {
	w.Push([]byte(s))
}

// put writes one character into the ring.
func (w *Window) put(r rune) {
	w.data[w.end] = r
	w.end = (w.end + 1) % w.size

	if w.full {
		w.start = (w.start + 1) % w.size
	}

	if w.end == w.start {
		w.full = true
	}
}

// splitIncomplete separates a trailing incomplete UTF-8 sequence from data.
// Invalid bytes are left in place so that decoding turns them into U+FFFD.
func splitIncomplete(data []byte) (complete, rest []byte) {
	for i := len(data) - 1; i >= 0 && i >= len(data)-utf8.UTFMax; i-- {
		if !utf8.RuneStart(data[i]) {
			continue
		}
		if utf8.FullRune(data[i:]) {
			return data, nil
		}
		rest = make([]byte, len(data)-i)
		copy(rest, data[i:])
		return data[:i], rest
	}
	return data, nil
}

// Suffix returns the last n characters, or the whole window when it holds
// fewer. It returns "" for n <= 0.
func (w *Window) Suffix(n int) string {
	if n <= 0 {
		return ""
	}
	length := w.Len()
	if n > length {
		n = length
	}

	out := make([]rune, n)
	from := (w.start + length - n) % w.size
	for i := range n {
		out[i] = w.data[(from+i)%w.size]
	}
	return string(out)
}

// String returns the full window contents, oldest first.
func (w *Window) String() string {
	return w.Suffix(w.Len())
}

// Len returns the number of characters currently held.
func (w *Window) Len() int {
	if w.full {
		return w.size
	}
	if w.end >= w.start {
		return w.end - w.start
	}
	return w.size - w.start + w.end
}

// Cap returns the maximum number of characters the window holds.
func (w *Window) Cap() int {
	return w.size
}

// Reset discards all characters, including any held-back partial sequence.
func (w *Window) Reset() {
	w.start = 0
	w.end = 0
	w.full = false
	w.pending = nil
}
