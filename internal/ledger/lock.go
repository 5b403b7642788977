package ledger

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"

	"sigl/internal/errs"
)

// LockOptions configures the acquisition timeout and retry cadence used by
// Lock.Acquire. Zero values fall back to the spec's defaults (30s
// timeout, 100ms poll).
type LockOptions struct {
	AcquireTimeout time.Duration
	RetryDelay     time.Duration
	StaleAfter     time.Duration
}

// DefaultLockOptions matches spec.md §4.4's default acquire timeout (30s)
// and poll interval (100ms); a lock is considered stale after the same
// 30s window.
func DefaultLockOptions() LockOptions {
	return LockOptions{
		AcquireTimeout: 30 * time.Second,
		RetryDelay:     100 * time.Millisecond,
		StaleAfter:     30 * time.Second,
	}
}

func (o LockOptions) withDefaults() LockOptions {
	if o.AcquireTimeout <= 0 {
		o.AcquireTimeout = 30 * time.Second
	}
	if o.RetryDelay <= 0 {
		o.RetryDelay = 100 * time.Millisecond
	}
	if o.StaleAfter <= 0 {
		o.StaleAfter = 30 * time.Second
	}
	return o
}

// lockInfo is the JSON document written to the lock file.
type lockInfo struct {
	PID        int    `json:"pid"`
	Hostname   string `json:"hostname"`
	LockID     string `json:"lockId"`
	AcquiredAt string `json:"acquiredAt"`
}

// Lock is an OS-level atomic-file-presence mutual-exclusion lock guarding
// one ledger file against concurrent writers, including across processes
// and hosts.
type Lock struct {
	path string
	opts LockOptions

	held   bool
	lockID string
}

func newLock(path string, opts LockOptions) *Lock {
	return &Lock{path: path, opts: opts.withDefaults()}
}

// Acquire implements the three-step protocol from spec.md §4.4: steal a
// provably stale lock, then atomically claim the lock path, retrying until
// AcquireTimeout elapses. The claim step writes a per-attempt temp file and
// hard-links it onto the lock path rather than renaming onto it: os.Rename
// unconditionally overwrites an existing destination on POSIX, which would
// let a losing attempt silently clobber another goroutine's or process's
// already-held lock; os.Link fails atomically with EEXIST when the lock
// path is already taken, which is what actually gives two concurrent
// acquirers the "exactly one succeeds" guarantee.
func (l *Lock) Acquire() error {
	deadline := time.Now().Add(l.opts.AcquireTimeout)

	for {
		l.stealIfStale()

		id := uuid.NewString()
		if err := l.writeCandidate(id); err == nil {
			l.held = true
			l.lockID = id
			return nil
		}

		if time.Now().After(deadline) {
			holder := "unknown"
			if owner, err := readLockInfo(l.path); err == nil {
				holder = fmt.Sprintf("pid %d on %s", owner.PID, owner.Hostname)
			}
			return &errs.IntegrityError{Filename: l.path, Reason: fmt.Sprintf("lock acquisition timed out after %s; currently held by %s", l.opts.AcquireTimeout, holder)}
		}

		time.Sleep(l.opts.RetryDelay)
	}
}

// Release unlinks the lock file. It is a no-op (returns nil) if this Lock
// value never successfully acquired it.
func (l *Lock) Release() error {
	if !l.held {
		return nil
	}
	l.held = false

	owner, err := readLockInfo(l.path)
	if err != nil {
		// Already gone or corrupted; nothing more we can safely do.
		return nil
	}
	if owner.LockID != l.lockID {
		// Someone else's lock is there now; never remove it.
		return nil
	}
	if err := os.Remove(l.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("ledger: cannot release lock %s: %w", l.path, err)
	}
	return nil
}

// stealIfStale unlinks an existing lock file when its recorded
// acquisition time is older than StaleAfter, its hostname matches this
// host, and its pid is not alive on this host. Locks from a different
// host, or whose liveness cannot be disproven, are left untouched.
func (l *Lock) stealIfStale() {
	owner, err := readLockInfo(l.path)
	if err != nil {
		return
	}

	acquiredAt, err := time.Parse(timeLayout, owner.AcquiredAt)
	if err != nil || time.Since(acquiredAt) < l.opts.StaleAfter {
		return
	}

	hostname, _ := os.Hostname()
	if owner.Hostname != hostname {
		return
	}

	if processAlive(owner.PID) {
		return
	}

	_ = os.Remove(l.path)
}

func (l *Lock) writeCandidate(id string) error {
	hostname, _ := os.Hostname()
	info := lockInfo{
		PID:        os.Getpid(),
		Hostname:   hostname,
		LockID:     id,
		AcquiredAt: time.Now().UTC().Format(timeLayout),
	}

	data, err := json.Marshal(info)
	if err != nil {
		return err
	}

	tmpPath := fmt.Sprintf("%s.tmp-%s", l.path, id)
	f, err := os.OpenFile(tmpPath, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		_ = os.Remove(tmpPath)
		return err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return err
	}
	defer func() { _ = os.Remove(tmpPath) }()

	if err := os.Link(tmpPath, l.path); err != nil {
		return err
	}
	return nil
}

func readLockInfo(path string) (lockInfo, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return lockInfo{}, err
	}
	var info lockInfo
	if err := json.Unmarshal(data, &info); err != nil {
		return lockInfo{}, &errs.IntegrityError{Filename: path, Reason: fmt.Sprintf("lock file is corrupted: %v", err)}
	}
	return info, nil
}

// forceUnlock unconditionally removes path, regardless of liveness.
func forceUnlock(path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("ledger: force-unlock failed for %s: %w", path, err)
	}
	return nil
}
