package ledger

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeLockInfo(t *testing.T, path string, info lockInfo) {
	t.Helper()
	data, err := json.Marshal(info)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data, 0o644))
}

func TestLockAcquireReleaseRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.lock")
	l := newLock(path, DefaultLockOptions())

	require.NoError(t, l.Acquire())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var info lockInfo
	require.NoError(t, json.Unmarshal(data, &info))
	assert.Equal(t, os.Getpid(), info.PID)
	assert.NotEmpty(t, info.LockID)

	require.NoError(t, l.Release())
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}

func TestLockReleaseNoopWhenNeverHeld(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.lock")
	l := newLock(path, DefaultLockOptions())
	assert.NoError(t, l.Release())
	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}

func TestLockReleaseNeverRemovesAnotherOwnersLock(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.lock")
	l := newLock(path, DefaultLockOptions())
	require.NoError(t, l.Acquire())

	hostname, _ := os.Hostname()
	writeLockInfo(t, path, lockInfo{PID: 1, Hostname: hostname, LockID: "someone-else", AcquiredAt: time.Now().UTC().Format(timeLayout)})

	require.NoError(t, l.Release())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var info lockInfo
	require.NoError(t, json.Unmarshal(data, &info))
	assert.Equal(t, "someone-else", info.LockID)
}

func TestStealIfStaleRemovesDeadProcessLock(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.lock")
	hostname, _ := os.Hostname()
	writeLockInfo(t, path, lockInfo{
		PID:        999999999,
		Hostname:   hostname,
		LockID:     "stale-owner",
		AcquiredAt: time.Now().Add(-time.Hour).UTC().Format(timeLayout),
	})

	l := newLock(path, LockOptions{StaleAfter: time.Second})
	l.stealIfStale()

	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}

func TestStealIfStaleIgnoresLiveProcessLock(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.lock")
	hostname, _ := os.Hostname()
	writeLockInfo(t, path, lockInfo{
		PID:        os.Getpid(),
		Hostname:   hostname,
		LockID:     "live-owner",
		AcquiredAt: time.Now().Add(-time.Hour).UTC().Format(timeLayout),
	})

	l := newLock(path, LockOptions{StaleAfter: time.Second})
	l.stealIfStale()

	_, err := os.Stat(path)
	assert.NoError(t, err)
}

func TestStealIfStaleIgnoresDifferentHost(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.lock")
	writeLockInfo(t, path, lockInfo{
		PID:        999999999,
		Hostname:   "some-other-host",
		LockID:     "remote-owner",
		AcquiredAt: time.Now().Add(-time.Hour).UTC().Format(timeLayout),
	})

	l := newLock(path, LockOptions{StaleAfter: time.Second})
	l.stealIfStale()

	_, err := os.Stat(path)
	assert.NoError(t, err)
}

func TestStealIfStaleIgnoresFreshLock(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.lock")
	hostname, _ := os.Hostname()
	writeLockInfo(t, path, lockInfo{
		PID:        999999999,
		Hostname:   hostname,
		LockID:     "fresh-owner",
		AcquiredAt: time.Now().UTC().Format(timeLayout),
	})

	l := newLock(path, LockOptions{StaleAfter: time.Hour})
	l.stealIfStale()

	_, err := os.Stat(path)
	assert.NoError(t, err)
}

func TestLockAcquireTimesOutWhenPathUnwritable(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "ledger.lock")
	// A directory already at the lock path makes every link attempt fail
	// with EEXIST, so every acquisition attempt fails and the loop must
	// time out.
	require.NoError(t, os.Mkdir(path, 0o755))

	l := newLock(path, LockOptions{AcquireTimeout: 50 * time.Millisecond, RetryDelay: 10 * time.Millisecond, StaleAfter: time.Hour})
	err := l.Acquire()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "lock acquisition timed out")
}

func TestLockAcquireIsMutuallyExclusive(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.lock")
	opts := LockOptions{AcquireTimeout: 2 * time.Second, RetryDelay: time.Millisecond, StaleAfter: time.Hour}

	const racers = 16
	var successes int32
	var wg sync.WaitGroup
	start := make(chan struct{})

	locks := make([]*Lock, racers)
	for i := range locks {
		locks[i] = newLock(path, opts)
	}

	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func(l *Lock) {
			defer wg.Done()
			<-start
			if err := l.Acquire(); err == nil {
				atomic.AddInt32(&successes, 1)
			}
		}(locks[i])
	}

	close(start)
	wg.Wait()

	assert.Equal(t, int32(1), successes, "exactly one concurrent acquirer must succeed while the others time out")
}

func TestForceUnlockRemovesRegardlessOfOwnership(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.lock")
	writeLockInfo(t, path, lockInfo{PID: os.Getpid(), LockID: "x", AcquiredAt: time.Now().UTC().Format(timeLayout)})

	require.NoError(t, forceUnlock(path))
	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}

func TestForceUnlockMissingFileIsNotError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.lock")
	assert.NoError(t, forceUnlock(path))
}
