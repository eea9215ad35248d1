// Package terminal implements the virtual terminal emulator that backs a pane.
//
// The emulator consumes the byte stream produced by a child process and
// maintains:
//
//   - a cell grid with soft-wrap tracking per line
//   - scrollback history addressed by stable row indices
//   - an alternate screen without scrollback
//   - window title, color palette and the shell-reported working directory
//   - shell-integration semantic zones (OSC 133)
//
// Input destined for the child (keys, mouse reports, paste, focus reports
// and device status replies) is encoded by the emulator and written to the
// io.Writer supplied to New, which is normally the pty master.
//
// # Architecture
//
//   - Terminal: emulator state and the operations a pane forwards to it
//   - Parser: ANSI escape sequence parser driving the active Screen
//   - Screen: cell grid, cursor and scroll region
//   - History: scrollback lines and the stable row offset
//   - Snapshot: an immutable copy of scrollback plus the visible screen
//
// # Thread Safety
//
// Screen is safe for concurrent use. Terminal is not; callers serialise
// access to it (the pane session holds an exclusive lock around every call).
package terminal
