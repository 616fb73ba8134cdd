package domain

import "errors"

// Domain errors represent error conditions in the watchlater domain.
// These errors are returned by the public API and can be checked with errors.Is.
var (
	// ErrAlreadyRunning is returned when Start() is called on a running instance.
	ErrAlreadyRunning = errors.New("watchlater: already running")

	// ErrNotRunning is returned when Stop() is called on a stopped instance.
	ErrNotRunning = errors.New("watchlater: not running")

	// ErrShutdownTimeout is returned when graceful shutdown times out.
	ErrShutdownTimeout = errors.New("watchlater: shutdown timeout")

	// ErrInvalidConfig is returned when configuration validation fails.
	ErrInvalidConfig = errors.New("watchlater: invalid configuration")

	// ErrNoSession is returned when a progress or close signal arrives
	// without a preceding file-opened signal.
	ErrNoSession = errors.New("watchlater: no open session")
)
