//go:build windows

package ledger

// processAlive has no zero-signal probe on this platform. Per spec.md §9,
// when the probe is unavailable the lock must default to "alive" so a
// live remote holder is never stolen from.
func processAlive(pid int) bool {
	return true
}
