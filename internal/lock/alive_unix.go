//go:build unix

package lock

import (
	"errors"
	"syscall"
)

// alive reports whether pid names a running process. Signal 0 performs the
// existence check without delivering anything; EPERM means it exists but
// belongs to another user.
func alive(pid int) bool {
	if pid <= 0 {
		return false
	}
	err := syscall.Kill(pid, 0)
	return err == nil || errors.Is(err, syscall.EPERM)
}
