// Package ledger implements the durable, atomically-locked journal of
// applied migrations.
package ledger

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"sigl/internal/clock"
	"sigl/internal/errs"
)

// Entry records one applied migration: its filename, the SHA-256 hash of
// its bytes at application time, the ISO-8601 instant it was applied, and
// the batch it belongs to.
type Entry struct {
	Filename    string `json:"filename"`
	ContentHash string `json:"hash"`
	AppliedAt   string `json:"appliedAt"`
	BatchNumber int    `json:"batch"`
}

// Ledger is the in-memory representation of the journal, mirroring the
// on-disk JSON document one-for-one.
type Ledger struct {
	Entries      []Entry `json:"migrations"`
	CurrentBatch int     `json:"currentBatch"`
}

const timeLayout = "2006-01-02T15:04:05.999999999Z07:00"

// Load reads path, returning an empty Ledger if it does not exist. A file
// that exists but fails to parse as JSON is an IntegrityError; the ledger
// is never auto-repaired.
func Load(path string) (*Ledger, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &Ledger{}, nil
		}
		return nil, &errs.IntegrityError{Filename: path, Reason: fmt.Sprintf("cannot read ledger: %v", err)}
	}

	var l Ledger
	if err := json.Unmarshal(data, &l); err != nil {
		return nil, &errs.IntegrityError{Filename: path, Reason: fmt.Sprintf("ledger is corrupted: %v", err)}
	}
	return &l, nil
}

// CheckWritable verifies that a new ledger file could be created and
// persisted at path, without disturbing any existing ledger. It creates and
// immediately removes a temp file in the same directory as path — the exact
// operation persist performs before its rename — so an unwritable directory,
// a read-only filesystem, or a missing parent directory is caught before any
// migration is executed against the database.
func CheckWritable(path string) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".writetest-*")
	if err != nil {
		return &errs.ValidationError{Subject: path, Reason: fmt.Sprintf("ledger file is not writable: %v", err)}
	}
	tmpPath := tmp.Name()
	_ = tmp.Close()
	_ = os.Remove(tmpPath)
	return nil
}

// ComputeHash returns the lowercase hex SHA-256 of data.
func ComputeHash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// ValidateIntegrity checks every entry against fileBytes (filename → file
// contents as currently read from disk), failing loudly on the first
// missing or modified file.
func (l *Ledger) ValidateIntegrity(fileBytes map[string][]byte) error {
	for _, e := range l.Entries {
		data, ok := fileBytes[e.Filename]
		if !ok {
			return &errs.IntegrityError{Filename: e.Filename, Reason: "missing: applied migration file no longer exists on disk"}
		}
		if ComputeHash(data) != e.ContentHash {
			return &errs.IntegrityError{Filename: e.Filename, Reason: "modified: file contents no longer match the recorded hash"}
		}
	}
	return nil
}

// Pending returns the entries of discovered not already recorded in the
// ledger, preserving discovery order.
func (l *Ledger) Pending(discovered []string) []string {
	applied := make(map[string]bool, len(l.Entries))
	for _, e := range l.Entries {
		applied[e.Filename] = true
	}

	var out []string
	for _, f := range discovered {
		if !applied[f] {
			out = append(out, f)
		}
	}
	return out
}

// LastBatchEntries returns the entries whose batch equals CurrentBatch, in
// the reverse of their append order — the order rollback must undo them in.
func (l *Ledger) LastBatchEntries() []Entry {
	var out []Entry
	for i := len(l.Entries) - 1; i >= 0; i-- {
		if l.Entries[i].BatchNumber == l.CurrentBatch {
			out = append(out, l.Entries[i])
		}
	}
	return out
}

// File is the durable, lock-protected ledger backed by a JSON file at
// Path, with a sibling lock file at Path+".lock".
type File struct {
	Path  string
	Lock  LockOptions
	Clock clock.Clock
}

// NewFile returns a File using clock.System and the given lock options.
func NewFile(path string, lock LockOptions) *File {
	return &File{Path: path, Lock: lock, Clock: clock.System{}}
}

// RecordBatch acquires the lock, assigns CurrentBatch+1 and one shared
// timestamp to every (filename, bytes) pair, appends them, persists
// atomically, and releases the lock. An empty input is a no-op that never
// touches the lock.
func (f *File) RecordBatch(files []FileContent) error {
	if len(files) == 0 {
		return nil
	}

	l, releaseFn, err := f.loadLocked()
	if err != nil {
		return err
	}
	defer releaseFn()

	batch := l.CurrentBatch + 1
	appliedAt := f.Clock.Now().UTC().Format(timeLayout)

	for _, fc := range files {
		l.Entries = append(l.Entries, Entry{
			Filename:    fc.Filename,
			ContentHash: ComputeHash(fc.Bytes),
			AppliedAt:   appliedAt,
			BatchNumber: batch,
		})
	}
	l.CurrentBatch = batch

	return persist(f.Path, l)
}

// RollbackLastBatch acquires the lock, drops every entry in the current
// batch, decrements CurrentBatch, persists, and releases the lock.
func (f *File) RollbackLastBatch() error {
	l, releaseFn, err := f.loadLocked()
	if err != nil {
		return err
	}
	defer releaseFn()

	if l.CurrentBatch == 0 {
		return nil
	}

	kept := l.Entries[:0:0]
	for _, e := range l.Entries {
		if e.BatchNumber != l.CurrentBatch {
			kept = append(kept, e)
		}
	}
	l.Entries = kept
	l.CurrentBatch--

	return persist(f.Path, l)
}

// FileContent pairs a migration filename with its bytes, as recorded by
// RecordBatch.
type FileContent struct {
	Filename string
	Bytes    []byte
}

// ForceUnlock unconditionally removes the lock file, regardless of
// liveness. This is an operator-visible escape hatch, never called
// automatically.
func (f *File) ForceUnlock() error {
	return forceUnlock(lockPath(f.Path))
}

func (f *File) loadLocked() (*Ledger, func(), error) {
	lock := newLock(lockPath(f.Path), f.Lock)
	if err := lock.Acquire(); err != nil {
		return nil, nil, err
	}

	l, err := Load(f.Path)
	if err != nil {
		_ = lock.Release()
		return nil, nil, err
	}

	return l, func() { _ = lock.Release() }, nil
}

func lockPath(ledgerPath string) string {
	return ledgerPath + ".lock"
}

// persist writes the ledger as pretty-printed (two-space indent) JSON to a
// temp file in the same directory, then renames it onto path — the single
// linearization point for readers.
func persist(path string, l *Ledger) error {
	data, err := json.MarshalIndent(l, "", "  ")
	if err != nil {
		return fmt.Errorf("ledger: cannot marshal: %w", err)
	}

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("ledger: cannot create temp file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("ledger: cannot write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("ledger: cannot close temp file: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("ledger: cannot rename temp file onto %s: %w", path, err)
	}

	return nil
}
