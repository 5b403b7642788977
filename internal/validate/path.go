package validate

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"

	"sigl/internal/errs"
)

var migrationNameRe = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_-]*$`)

const maxMigrationNameLen = 100
const maxDecodePasses = 5

// MigrationName decodes (up to maxDecodePasses URL-decoding passes),
// NFC-normalizes, and validates a user-supplied migration name, rejecting
// anything that could be used for path traversal.
func MigrationName(raw string) (string, error) {
	name := raw
	for i := 0; i < maxDecodePasses; i++ {
		decoded, err := url.QueryUnescape(name)
		if err != nil || decoded == name {
			break
		}
		name = decoded
	}

	name = norm.NFC.String(name)

	if name == "" {
		return "", &errs.ValidationError{Subject: raw, Reason: "migration name is empty"}
	}
	if len(name) > maxMigrationNameLen {
		return "", &errs.ValidationError{Subject: raw, Reason: fmt.Sprintf("migration name exceeds %d characters", maxMigrationNameLen)}
	}
	if !migrationNameRe.MatchString(name) {
		return "", &errs.ValidationError{Subject: raw, Reason: "must match [A-Za-z0-9][A-Za-z0-9_-]* after decoding"}
	}
	if strings.Contains(name, "..") {
		return "", &errs.ValidationError{Subject: raw, Reason: "contains a path traversal sequence"}
	}

	return name, nil
}

// ResolveMigrationPath validates that migrationsDir is not itself a symlink
// and that the resolved candidate path for name is a strict descendant of
// migrationsDir, returning the final path to write or read.
func ResolveMigrationPath(migrationsDir, filename string) (string, error) {
	info, err := os.Lstat(migrationsDir)
	if err != nil {
		return "", &errs.ValidationError{Subject: migrationsDir, Reason: fmt.Sprintf("cannot stat migrations directory: %v", err)}
	}
	if info.Mode()&os.ModeSymlink != 0 {
		return "", &errs.ValidationError{Subject: migrationsDir, Reason: "migrations directory must not be a symbolic link"}
	}

	absDir, err := filepath.Abs(migrationsDir)
	if err != nil {
		return "", &errs.ValidationError{Subject: migrationsDir, Reason: fmt.Sprintf("cannot resolve absolute path: %v", err)}
	}

	candidate := filepath.Join(absDir, filename)
	rel, err := filepath.Rel(absDir, candidate)
	if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) || filepath.IsAbs(rel) {
		return "", &errs.ValidationError{Subject: filename, Reason: "resolved path escapes the migrations directory"}
	}

	return candidate, nil
}
