// Package validate provides defense-in-depth guards used throughout the
// compiler and engine: identifier/literal validation, migration-name path
// safety, and file-size caps.
package validate

import (
	"fmt"
	"regexp"
	"strings"

	"sigl/internal/errs"
)

// DialectIdentifierLimit is the maximum identifier length per dialect.
var DialectIdentifierLimit = map[string]int{
	"postgres": 63,
	"mysql":    64,
	"sqlite":   256,
}

var identifierRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// dangerousChars is checked first so the caller gets a more specific
// message for the classic injection characters rather than a generic
// "doesn't match" complaint.
const dangerousChars = `;'"\/*#`

// Identifier rejects (never escapes) a SQL identifier that contains
// dangerous characters, doesn't start with a letter or underscore, doesn't
// match the allowed character class, or exceeds the dialect's length cap.
func Identifier(name, dialect string) error {
	if strings.ContainsAny(name, dangerousChars) {
		return &errs.ValidationError{Subject: name, Reason: "contains a disallowed character"}
	}
	if name == "" {
		return &errs.ValidationError{Subject: name, Reason: "identifier is empty"}
	}
	if !identifierRe.MatchString(name) {
		return &errs.ValidationError{Subject: name, Reason: "must match [A-Za-z_][A-Za-z0-9_]*"}
	}
	if limit, ok := DialectIdentifierLimit[dialect]; ok && len(name) > limit {
		return &errs.ValidationError{Subject: name, Reason: fmt.Sprintf("exceeds %d-character limit for %s", limit, dialect)}
	}
	return nil
}
