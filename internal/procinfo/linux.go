package procinfo

import (
	"net/url"
	"os"
	"path/filepath"
	"strconv"
)

// LinuxProbe reads the cwd symlink of a procfs mount.
type LinuxProbe struct {
	// Root is the procfs mount point, normally "/proc".
	Root string
}

// WorkingDir resolves <Root>/<pid>/cwd.
func (p LinuxProbe) WorkingDir(pid int) (*url.URL, bool) {
	if pid <= 0 {
		return nil, false
	}
	root := p.Root
	if root == "" {
		root = "/proc"
	}
	target, err := os.Readlink(filepath.Join(root, strconv.Itoa(pid), "cwd"))
	if err != nil {
		return nil, false
	}
	return FileURL(target)
}
