package spawn

import (
	"unsafe"

	"golang.org/x/sys/unix"
)

// taskNameLen is the visible length of the kernel task name
// (TASK_COMM_LEN minus the terminator).
const taskNameLen = 15

// setProcessName sets the short process name to name, truncated to
// taskNameLen. External tooling uses the name to detect that the
// container init is up before exec resets it to the target executable.
func setProcessName(name string) error {
	if len(name) > taskNameLen {
		name = name[:taskNameLen]
	}
	p, err := unix.BytePtrFromString(name)
	if err != nil {
		return err
	}
	return unix.Prctl(unix.PR_SET_NAME, uintptr(unsafe.Pointer(p)), 0, 0, 0)
}
