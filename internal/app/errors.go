package app

import "errors"

var (
	// ErrQuit signals that the user detached from the pane.
	ErrQuit = errors.New("quit requested")

	// ErrAlreadyRunning is returned by Run when the application is running.
	ErrAlreadyRunning = errors.New("application already running")

	// ErrNotRunning is returned by Shutdown before Run.
	ErrNotRunning = errors.New("application not running")
)
