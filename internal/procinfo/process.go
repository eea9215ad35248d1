package procinfo

import (
	"context"
	"math"
	"net/url"

	"github.com/shirou/gopsutil/v4/process"
)

// ProcessProbe asks the operating system through gopsutil. It needs no
// cgo and covers macOS, the BSDs and Windows.
type ProcessProbe struct{}

// WorkingDir returns the current directory gopsutil reports for pid.
func (ProcessProbe) WorkingDir(pid int) (*url.URL, bool) {
	if pid <= 0 || pid > math.MaxInt32 {
		return nil, false
	}
	ctx := context.Background()
	p, err := process.NewProcessWithContext(ctx, int32(pid))
	if err != nil {
		return nil, false
	}
	dir, err := p.CwdWithContext(ctx)
	if err != nil {
		return nil, false
	}
	return FileURL(dir)
}
