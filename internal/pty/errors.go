package pty

import "errors"

// Common errors returned by the pty package.
var (
	// ErrClosed is returned when operating on a closed master.
	ErrClosed = errors.New("pty closed")

	// ErrNotStarted is returned for a child whose process never started.
	ErrNotStarted = errors.New("process not started")

	// ErrWait is returned when the exit status of a child is unknown.
	ErrWait = errors.New("wait failed")
)
