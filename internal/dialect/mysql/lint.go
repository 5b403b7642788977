package mysql

import (
	"fmt"

	"github.com/pingcap/tidb/pkg/parser"
	_ "github.com/pingcap/tidb/pkg/parser/test_driver"

	"sigl/internal/ast"
	"sigl/internal/errs"
)

// LintRawSQL runs a best-effort syntax check of every raw-SQL line in
// schema against the TiDB grammar. It is MySQL-only: PostgreSQL and SQLite
// raw SQL is never dialect-checked, since TiDB only understands MySQL
// syntax. The first line that fails to parse is returned as a
// *errs.ValidationError naming its source line, and GenerateUp aborts on
// it; lines are never rewritten.
func LintRawSQL(schema *ast.Schema) error {
	p := parser.New()
	for _, raw := range schema.RawSQLs {
		if _, _, err := p.Parse(raw.Text, "", ""); err != nil {
			return &errs.ValidationError{
				Subject: fmt.Sprintf("raw SQL at line %d", raw.Line),
				Reason:  fmt.Sprintf("failed MySQL syntax check: %v", err),
			}
		}
	}
	return nil
}
