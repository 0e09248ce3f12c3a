// Package input relays operator keystrokes from the local terminal to the
// supervised child.
//
// The operator's terminal is put in raw mode so individual keys arrive
// immediately. Raw bytes are mostly passed through untouched; [Translate]
// only rewrites the few encodings that differ between what a local terminal
// sends and what the child's terminal expects.
package input

import (
	"bytes"
	"unicode/utf8"
)

// Control bytes.
const (
	ByteInterrupt = 0x03 // Ctrl-C
	ByteBackspace = 0x08
	ByteTab       = 0x09
	ByteLineFeed  = 0x0A
	ByteEnter     = 0x0D
	ByteEscape    = 0x1B
	ByteDelete    = 0x7F
)

// Key is a non-printable key the child understands.
type Key int

const (
	// KeyEnter submits the current line.
	KeyEnter Key = iota
	// KeyBackspace deletes the character before the cursor.
	KeyBackspace
	// KeyTab is a horizontal tab.
	KeyTab
	// KeyEscape is a bare escape.
	KeyEscape
	// KeyUp is the up arrow.
	KeyUp
	// KeyDown is the down arrow.
	KeyDown
	// KeyRight is the right arrow.
	KeyRight
	// KeyLeft is the left arrow.
	KeyLeft
)

// String returns a human-readable string for the key.
func (k Key) String() string {
	switch k {
	case KeyEnter:
		return "enter"
	case KeyBackspace:
		return "backspace"
	case KeyTab:
		return "tab"
	case KeyEscape:
		return "escape"
	case KeyUp:
		return "up"
	case KeyDown:
		return "down"
	case KeyRight:
		return "right"
	case KeyLeft:
		return "left"
	default:
		return "unknown"
	}
}

// Bytes returns the byte sequence the child expects for the key.
func (k Key) Bytes() []byte {
	switch k {
	case KeyEnter:
		return []byte{ByteEnter}
	case KeyBackspace:
		return []byte{ByteDelete}
	case KeyTab:
		return []byte{ByteTab}
	case KeyEscape:
		return []byte{ByteEscape}
	case KeyUp:
		return []byte{ByteEscape, '[', 'A'}
	case KeyDown:
		return []byte{ByteEscape, '[', 'B'}
	case KeyRight:
		return []byte{ByteEscape, '[', 'C'}
	case KeyLeft:
		return []byte{ByteEscape, '[', 'D'}
	default:
		return nil
	}
}

// EncodeRune returns the UTF-8 encoding of a printable rune.
func EncodeRune(r rune) []byte {
	buf := make([]byte, utf8.RuneLen(r))
	utf8.EncodeRune(buf, r)
	return buf
}

// ss3Arrows maps application-mode cursor keys (ESC O A..D) to their normal
// mode form.
var ss3Arrows = map[byte]Key{
	'A': KeyUp,
	'B': KeyDown,
	'C': KeyRight,
	'D': KeyLeft,
}

// Translate rewrites raw terminal input into what the child expects:
// line feed becomes Enter, ^H becomes DEL and application-mode arrows become
// normal-mode arrows. Everything else, including UTF-8 text and other escape
// sequences, passes through unchanged.
func Translate(raw []byte) []byte {
	out := make([]byte, 0, len(raw))
	for i := 0; i < len(raw); i++ {
		b := raw[i]
		switch {
		case b == ByteLineFeed:
			out = append(out, KeyEnter.Bytes()...)
		case b == ByteBackspace:
			out = append(out, KeyBackspace.Bytes()...)
		case b == ByteEscape && i+2 < len(raw) && raw[i+1] == 'O':
			if key, ok := ss3Arrows[raw[i+2]]; ok {
				out = append(out, key.Bytes()...)
				i += 2
				continue
			}
			out = append(out, b)
		default:
			out = append(out, b)
		}
	}
	return out
}

// IsInterrupt reports whether the input contains Ctrl-C.
func IsInterrupt(raw []byte) bool {
	return bytes.IndexByte(raw, ByteInterrupt) >= 0
}

// IsEscapeSequence reports whether the input starts with ESC. Such input
// (arrows, focus reports, bare Escape) is not counted as operator activity.
func IsEscapeSequence(raw []byte) bool {
	return len(raw) > 0 && raw[0] == ByteEscape
}
