package validate

import (
	"fmt"
	"os"

	"sigl/internal/errs"
)

const (
	// DefaultMaxFileSize is the per-file cap (5 MiB).
	DefaultMaxFileSize int64 = 5 * 1024 * 1024
	// DefaultMaxTotalSize is the aggregate cap across one run's discovered files (50 MiB).
	DefaultMaxTotalSize int64 = 50 * 1024 * 1024
)

// FileSizes checks every discovered migration file against the per-file cap
// before any of them is read, then checks the aggregate against the total
// cap. Both caps are skipped entirely when enabled is false.
func FileSizes(paths []string, maxFile, maxTotal int64, enabled bool) error {
	if !enabled {
		return nil
	}

	var total int64
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return &errs.ValidationError{Subject: p, Reason: fmt.Sprintf("cannot stat file: %v", err)}
		}
		if maxFile > 0 && info.Size() > maxFile {
			return &errs.ValidationError{Subject: p, Reason: fmt.Sprintf("file size %d bytes exceeds per-file cap of %d bytes", info.Size(), maxFile)}
		}
		total += info.Size()
	}

	if maxTotal > 0 && total > maxTotal {
		return &errs.ValidationError{Subject: "migrations directory", Reason: fmt.Sprintf("aggregate size %d bytes exceeds total cap of %d bytes", total, maxTotal)}
	}

	return nil
}
