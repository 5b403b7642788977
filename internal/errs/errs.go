// Package errs defines the tagged error kinds used across the compiler
// pipeline, the ledger, and the engine. Each kind is a distinct Go type so
// callers can dispatch on it with errors.As instead of walking an exception
// hierarchy.
package errs

import "fmt"

// ParseError reports a lexer or parser failure at a specific source location.
type ParseError struct {
	Line    int
	Column  int
	Message string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error at line %d, column %d: %s", e.Line, e.Column, e.Message)
}

// GeneratorError reports a semantic misuse caught while generating DDL
// (unknown type, unknown decorator, malformed decorator arguments, ...).
type GeneratorError struct {
	Dialect string
	Model   string
	Column  string
	Message string
}

func (e *GeneratorError) Error() string {
	switch {
	case e.Model != "" && e.Column != "":
		return fmt.Sprintf("%s generator: %s.%s: %s", e.Dialect, e.Model, e.Column, e.Message)
	case e.Model != "":
		return fmt.Sprintf("%s generator: %s: %s", e.Dialect, e.Model, e.Message)
	default:
		return fmt.Sprintf("%s generator: %s", e.Dialect, e.Message)
	}
}

// IntegrityError reports a ledger integrity violation: a missing or modified
// migration file, a lock-acquisition timeout, or a corrupted lock owner.
type IntegrityError struct {
	Filename string
	Reason   string
}

func (e *IntegrityError) Error() string {
	if e.Filename == "" {
		return fmt.Sprintf("integrity error: %s", e.Reason)
	}
	return fmt.Sprintf("integrity error: %s: %s", e.Filename, e.Reason)
}

// ValidationError reports a rejected identifier, migration name, path, or a
// file-size cap violation.
type ValidationError struct {
	Subject string
	Reason  string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error: %s: %s", e.Subject, e.Reason)
}

// AdapterError reports a database connectivity or transaction execution
// failure surfaced by a concrete adapter.
type AdapterError struct {
	Op   string
	Err  error
	SQL  string
}

func (e *AdapterError) Error() string {
	if e.SQL != "" {
		return fmt.Sprintf("adapter error during %s: %v (statement: %s)", e.Op, e.Err, truncate(e.SQL, 80))
	}
	return fmt.Sprintf("adapter error during %s: %v", e.Op, e.Err)
}

func (e *AdapterError) Unwrap() error { return e.Err }

// CriticalInconsistencyError is raised when a migration's DDL has already
// committed against the database but the ledger could not be updated to
// record it. It is the highest-severity error kind: the caller must stop and
// reconcile manually, never retry automatically.
type CriticalInconsistencyError struct {
	Filenames []string
	Err       error
}

func (e *CriticalInconsistencyError) Error() string {
	return fmt.Sprintf(
		"CRITICAL: %d migration(s) committed to the database but could not be recorded in the ledger (%v); "+
			"the database and the ledger are now out of sync — reconcile manually before running sigl again: %v",
		len(e.Filenames), e.Filenames, e.Err,
	)
}

func (e *CriticalInconsistencyError) Unwrap() error { return e.Err }

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
