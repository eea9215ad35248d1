// Package pane binds a child process running on a pseudo-terminal to a
// terminal emulator.
//
// A Session owns three things exclusively: the emulator holding the
// screen state, the child process, and the master side of its
// pseudo-terminal. Output read from the master is fed to the emulator
// with Feed; input events are encoded by the emulator and written back to
// the child.
//
// # Ownership
//
// A Session belongs to one goroutine, normally the loop that renders it.
// Output should be read from a Reader on another goroutine and handed to
// the owner, which calls Feed. Mutators and writes through Writer are
// serialised by a mutex; callers on other goroutines wait their turn. A
// WithRenderable callback that calls back into its own session panics
// with ErrReentrantAccess rather than deadlocking. Process operations
// (Kill, IsDead, Pid, Reader, Close) do not touch the emulator and may be
// called at any time.
//
// # Teardown
//
// Close kills the child and waits for it exactly once, even when the child
// was already seen to exit, so no zombie is left behind:
//
//	sess, err := pane.Spawn(cmd, pane.SpawnOptions{Size: size})
//	if err != nil {
//		return err
//	}
//	defer sess.Close()
package pane
