package pane

import "errors"

// Errors returned by pane operations.
var (
	// ErrReentrantAccess is the panic value when a session is mutated
	// while its renderable view is borrowed.
	ErrReentrantAccess = errors.New("pane accessed while renderable view is held")

	// ErrResize indicates a resize was rejected. The pane keeps its
	// previous geometry.
	ErrResize = errors.New("resize failed")
)
