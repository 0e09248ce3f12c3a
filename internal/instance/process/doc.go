// Package process runs the supervised child inside a pseudo-terminal.
//
// The child is an interactive program that only behaves normally when it
// believes a human is at a terminal, so it is spawned on the slave side of a
// PTY (github.com/creack/pty) while the supervisor holds the master.
//
// # Main Types
//
// Interfaces:
//   - [Session]: Start, Write, Output, TryWait, Kill, Close
//   - [ChildInfo]: Child process id and exit code
//
// Implementations:
//   - [PTYSession]: creack/pty backed session
//
// # Output
//
// A reader goroutine reads up to 4096 bytes at a time, tees each chunk to
// [Config].Echo so the operator sees the child's screen, and publishes a copy
// on the [Session.Output] channel. A receive with a default case is the
// non-blocking read; a closed channel means the child's output has ended.
// Would-block reads are retried after 50ms and never surfaced.
//
// # Thread Safety
//
// [PTYSession] methods may be called from any goroutine, but the output
// channel is meant for a single consumer.
//
// # Basic Usage
//
//	config := process.DefaultConfig()
//	config.Dir = "/path/to/project"
//	config.Echo = os.Stdout
//
//	sess := process.NewPTYSession(config, logger)
//	if err := sess.Start(ctx); err != nil {
//	    return err
//	}
//	defer sess.Close()
//
//	sess.Write([]byte("Continue"))
//	sess.Write([]byte{'\r'})
package process
