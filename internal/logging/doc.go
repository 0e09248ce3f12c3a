// Package logging provides structured logging for claudia.
//
// It wraps Go's log/slog to write JSON lines to a file next to, never on top
// of, the supervised child's terminal output. The child's TUI owns the
// screen, so nothing in this package writes to stdout, and stderr is used
// only for rotation warnings.
//
// # Basic Usage
//
//	logger, err := logging.NewLoggerWithRotation(dir, "INFO", logging.DefaultRotationConfig())
//	if err != nil {
//	    return err
//	}
//	defer logger.Close()
//
//	log := logger.WithSession(sessionID).WithComponent("supervisor")
//	log.Info("state changed", "from", "working", "to", "idle")
//
// Output:
//
//	{"time":"...","level":"INFO","msg":"state changed","session_id":"...","component":"supervisor","from":"working","to":"idle"}
//
// # Log Rotation
//
// [RotatingWriter] rotates claudia.log once it would exceed MaxSizeMB.
// Backups are named claudia.log.1 (newest) to claudia.log.N, and become
// claudia.log.1.gz and so on when Compress is set.
//
// # Testing
//
// Use [NopLogger] to discard output, or [NewLogger] with a temporary
// directory to assert on the entries written to claudia.log.
package logging
