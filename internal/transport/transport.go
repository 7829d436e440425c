// Package transport owns the tool-server child process and frames the
// newline-delimited protocol over its standard streams.
package transport

import (
	"errors"
	"time"
)

// Transport is the pipe-level contract the session engine drives. Exactly one
// line goes out per WriteLine and one line comes back per ReadLine; framing
// and correlation live above this interface.
type Transport interface {
	// Start spawns the child process and verifies it survived startup.
	Start() error

	// WriteLine writes one line, appending the newline terminator, and
	// flushes immediately.
	WriteLine(line string) error

	// ReadLine blocks until one newline-terminated line is available. It
	// returns io.EOF when the child's output stream closes.
	ReadLine() (string, error)

	// Terminate asks the child to exit by closing its input, escalating to
	// a forced kill after the grace period. Idempotent; never fails.
	Terminate(grace time.Duration)
}

// Sentinel errors for the two fatal transport conditions.
var (
	// ErrSpawn means the child process could not be started or exited
	// during the startup settle window.
	ErrSpawn = errors.New("failed to spawn server process")

	// ErrTransport means the pipe pair to the child is broken: the process
	// exited, a write hit a closed pipe, or the read stream ended.
	ErrTransport = errors.New("transport failure")
)
