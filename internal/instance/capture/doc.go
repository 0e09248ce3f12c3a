// Package capture holds the sliding window of recent child output that the
// detectors classify.
//
// # Main Types
//
//   - [Window]: a fixed-capacity circular buffer of characters fed with raw
//     PTY chunks
//
// # Design
//
// The child writes arbitrary bytes, and a multi-byte character can be split
// across two reads. [Window.Push] decodes leniently: invalid bytes become
// U+FFFD and an incomplete trailing sequence is held back until the next
// chunk completes it. Capacity is measured in characters, so truncation
// never splits one.
//
// # Thread Safety
//
// Window is not safe for concurrent use. It is owned by the supervisor
// goroutine, which is the only reader and writer.
//
// # Basic Usage
//
//	w := capture.NewWindow(2000)
//	w.Push(chunk)
//	if strings.Contains(strings.ToLower(w.Suffix(200)), "esc to interrupt") {
//	    // child is busy
//	}
//	w.Reset() // after injecting a command
package capture
