// Package procinfo discovers facts about processes from the operating
// system.
//
// The only fact currently probed is a process's working directory, used
// as a fallback when the program in a pane has not reported it through an
// escape sequence. Probing is best effort: any failure yields no result.
package procinfo

import (
	"net/url"
	"path/filepath"
	"runtime"
)

// Probe looks up the working directory of a process.
type Probe interface {
	// WorkingDir returns the working directory of pid as a file URL with
	// host "localhost". ok is false when pid is not positive or the
	// directory cannot be determined.
	WorkingDir(pid int) (u *url.URL, ok bool)
}

// ProbeFunc adapts a function to the Probe interface.
type ProbeFunc func(pid int) (*url.URL, bool)

// WorkingDir calls f(pid).
func (f ProbeFunc) WorkingDir(pid int) (*url.URL, bool) {
	return f(pid)
}

// ForPlatform returns the probe for the named operating system, using the
// values of runtime.GOOS.
func ForPlatform(goos string) Probe {
	switch goos {
	case "linux", "android":
		return LinuxProbe{Root: "/proc"}
	case "darwin":
		return DarwinProbe{}
	case "freebsd", "openbsd", "solaris", "windows":
		return ProcessProbe{}
	default:
		return UnsupportedProbe{}
	}
}

// Default returns the probe for the running operating system.
func Default() Probe {
	return ForPlatform(runtime.GOOS)
}

// UnsupportedProbe never finds a working directory.
type UnsupportedProbe struct{}

// WorkingDir always reports no result.
func (UnsupportedProbe) WorkingDir(int) (*url.URL, bool) {
	return nil, false
}

// FileURL returns the file URL for an absolute local path.
func FileURL(path string) (*url.URL, bool) {
	if path == "" || !filepath.IsAbs(path) {
		return nil, false
	}
	return &url.URL{Scheme: "file", Host: "localhost", Path: filepath.ToSlash(path)}, true
}
