// Package pty spawns child processes attached to a pseudo-terminal.
//
// Spawn returns two handles. The Child owns the process: it can be killed,
// polled for exit without blocking, and waited on. The Master owns the
// controlling side of the pseudo-terminal: the parent writes input to it,
// resizes it, and clones read handles from it so output can be pumped on
// another goroutine.
//
// A Child is reaped by a single background goroutine started at spawn
// time. Wait and TryWait observe that goroutine's result, so both are safe
// to call any number of times and from any goroutine.
//
//	cmd := exec.Command("/bin/sh")
//	child, master, err := pty.Spawn(cmd, pty.Size{Rows: 24, Cols: 80})
//	if err != nil {
//		return err
//	}
//	defer master.Close()
//	r, err := master.CloneReader()
//
// Unix platforms use github.com/creack/pty. Windows uses ConPTY through
// github.com/aymanbagabas/go-pty.
package pty
