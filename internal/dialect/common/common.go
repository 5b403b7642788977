// Package common holds generation logic shared across the PostgreSQL,
// MySQL, and SQLite dialects: decorator interpretation, default-value
// formatting, and column-level validation that does not vary by dialect.
package common

import (
	"regexp"
	"strconv"
	"strings"

	"sigl/internal/ast"
	"sigl/internal/errs"
)

// ValidOnDeleteActions is the closed set of actions an @onDelete
// decorator may name.
var ValidOnDeleteActions = map[string]bool{
	"CASCADE":    true,
	"SET NULL":   true,
	"SET DEFAULT": true,
	"RESTRICT":   true,
	"NO ACTION":  true,
}

// IsNumericLexeme reports whether raw is a bare integer or decimal literal,
// as opposed to a bareword or quoted string that happened to pass through
// the lexer as an identifier/string argument.
func IsNumericLexeme(raw string) bool {
	return numericLexemeRe.MatchString(raw)
}

var numericLexemeRe = regexp.MustCompile(`^[0-9]+(\.[0-9]+)?$`)

// BoolLiteral renders a PostgreSQL-native TRUE/FALSE literal. MySQL and
// SQLite instead use FormatDefault's 1/0 fallback.
func BoolLiteral(raw string) (string, bool) {
	switch strings.ToLower(raw) {
	case "true":
		return "TRUE", true
	case "false":
		return "FALSE", true
	}
	return "", false
}

// QuoteStringLiteral single-quotes value, doubling embedded single quotes,
// per the escaping rule shared by all three dialects.
func QuoteStringLiteral(value string) string {
	return "'" + strings.ReplaceAll(value, "'", "''") + "'"
}

// FormatDefault renders the argument of an @default decorator per the
// shared rule: the bareword "now" (case-insensitive) becomes
// CURRENT_TIMESTAMP; "true"/"false" become nativeBool (when set) or
// "1"/"0"; a numeric lexeme is emitted verbatim; anything else becomes a
// quoted string literal.
func FormatDefault(raw string, nativeBool bool) string {
	if strings.EqualFold(raw, "now") {
		return "CURRENT_TIMESTAMP"
	}
	if lit, ok := BoolLiteral(raw); ok {
		if nativeBool {
			return lit
		}
		if lit == "TRUE" {
			return "1"
		}
		return "0"
	}
	if IsNumericLexeme(raw) {
		return raw
	}
	return QuoteStringLiteral(raw)
}

// EnumValues formats the comma-separated value list used inside an
// Enum(...) column's ENUM(...) or IN (...) clause. Values are quoted string
// literals.
func EnumValues(args []string) string {
	quoted := make([]string, len(args))
	for i, a := range args {
		quoted[i] = QuoteStringLiteral(a)
	}
	return strings.Join(quoted, ", ")
}

// DecoratorPlan is the result of interpreting a column's decorators,
// shared across dialects before each applies its own column-definition
// syntax and ordering.
type DecoratorPlan struct {
	PrimaryKey    bool
	Unique        bool
	NotNull       bool
	HasDefault    bool
	DefaultRaw    string
	HasRef        bool
	RefTable      string
	RefColumn     string
	HasOnDelete   bool
	OnDeleteAction string
}

// Plan interprets a column's decorators, returning a *errs.GeneratorError
// naming the model, column, and the first unknown or malformed decorator
// encountered.
func Plan(dialectName, modelName string, col *ast.Column) (DecoratorPlan, error) {
	var plan DecoratorPlan

	fail := func(message string) (DecoratorPlan, error) {
		return plan, &errs.GeneratorError{Dialect: dialectName, Model: modelName, Column: col.Name, Message: message}
	}

	for _, d := range col.Decorators {
		switch d.Name {
		case "pk":
			if d.HasArgs {
				return fail("@pk takes no arguments")
			}
			plan.PrimaryKey = true
		case "unique":
			if d.HasArgs {
				return fail("@unique takes no arguments")
			}
			plan.Unique = true
		case "notnull":
			if d.HasArgs {
				return fail("@notnull takes no arguments")
			}
			plan.NotNull = true
		case "default":
			if len(d.Args) != 1 {
				return fail("@default takes exactly one argument")
			}
			plan.HasDefault = true
			plan.DefaultRaw = d.Args[0]
		case "ref":
			if len(d.Args) != 1 {
				return fail("@ref takes exactly one dotted argument")
			}
			table, column, ok := strings.Cut(d.Args[0], ".")
			if !ok || table == "" || column == "" {
				return fail("@ref argument must be a Table.column pair")
			}
			plan.HasRef = true
			plan.RefTable = table
			plan.RefColumn = column
		case "onDelete":
			if len(d.Args) != 1 {
				return fail("@onDelete takes exactly one argument")
			}
			action := strings.ToUpper(strings.TrimSpace(d.Args[0]))
			if !ValidOnDeleteActions[action] {
				return fail("@onDelete action must be one of CASCADE, SET NULL, SET DEFAULT, RESTRICT, NO ACTION")
			}
			plan.HasOnDelete = true
			plan.OnDeleteAction = action
		default:
			return fail("unknown decorator " + strconv.Quote(d.Name))
		}
	}

	if plan.HasOnDelete && !plan.HasRef {
		return fail("@onDelete without @ref")
	}

	return plan, nil
}

// VarCharLen returns the declared length for a VarChar/Char column,
// falling back to the type's default when no type arguments were given.
func VarCharLen(col *ast.Column, fallback string) string {
	if col.HasArgs && len(col.TypeArgs) > 0 {
		return col.TypeArgs[0]
	}
	return fallback
}

// DecimalArgs returns the (precision, scale) pair for a Decimal/Numeric
// column, falling back to (10, 2) when no type arguments were given (an
// empty argument list, e.g. "Decimal()", is treated the same as absent).
func DecimalArgs(col *ast.Column) (string, string) {
	if col.HasArgs && len(col.TypeArgs) >= 2 {
		return col.TypeArgs[0], col.TypeArgs[1]
	}
	return "10", "2"
}
