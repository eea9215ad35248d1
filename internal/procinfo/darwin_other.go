//go:build !darwin || !cgo

package procinfo

import "net/url"

// DarwinProbe asks the kernel for the current directory of a process.
// Built without cgo it goes through ProcessProbe.
type DarwinProbe struct{}

// WorkingDir returns the current directory of pid.
func (DarwinProbe) WorkingDir(pid int) (*url.URL, bool) {
	return ProcessProbe{}.WorkingDir(pid)
}
