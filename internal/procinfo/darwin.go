//go:build darwin && cgo

package procinfo

/*
#include <libproc.h>
#include <sys/proc_info.h>
*/
import "C"

import (
	"net/url"
	"unsafe"
)

// DarwinProbe asks the kernel for the current directory vnode path of a
// process with proc_pidinfo.
type DarwinProbe struct{}

// WorkingDir returns the cdir path of pid.
func (DarwinProbe) WorkingDir(pid int) (*url.URL, bool) {
	if pid <= 0 {
		return nil, false
	}
	var info C.struct_proc_vnodepathinfo
	size := C.int(unsafe.Sizeof(info))
	if C.proc_pidinfo(C.int(pid), C.PROC_PIDVNODEPATHINFO, 0, unsafe.Pointer(&info), size) != size {
		return nil, false
	}
	return FileURL(C.GoString(&info.pvi_cdir.vip_path[0]))
}
