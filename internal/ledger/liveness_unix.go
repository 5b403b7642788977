//go:build !windows

package ledger

import "syscall"

// processAlive sends signal 0 to pid, which performs permission and
// existence checks without actually delivering a signal. ESRCH means the
// process is gone; any other outcome (including "exists but not ours",
// EPERM) is treated as alive, since we cannot disprove liveness.
func processAlive(pid int) bool {
	err := syscall.Kill(pid, 0)
	return err != syscall.ESRCH
}
