// Package mysql implements the MySQL/MariaDB DDL generator.
package mysql

import (
	"fmt"
	"strings"

	"sigl/internal/ast"
	"sigl/internal/dialect"
	"sigl/internal/dialect/common"
	"sigl/internal/errs"
	"sigl/internal/validate"
)

func init() {
	dialect.Register(dialect.MySQL, func() dialect.Generator {
		return NewGenerator()
	})
}

// TableOptions controls the ENGINE/CHARSET/COLLATE suffix MySQL appends to
// every CREATE TABLE statement.
type TableOptions struct {
	Engine    string
	Charset   string
	Collation string
}

// DefaultTableOptions matches the source repository's defaults.
func DefaultTableOptions() TableOptions {
	return TableOptions{Engine: "InnoDB", Charset: "utf8mb4", Collation: "utf8mb4_unicode_ci"}
}

// Generator produces MySQL CREATE/DROP TABLE statements.
type Generator struct {
	Options TableOptions
}

// NewGenerator returns a Generator using DefaultTableOptions.
func NewGenerator() *Generator {
	return &Generator{Options: DefaultTableOptions()}
}

// QuoteIdentifier backtick-quotes name after rejecting dangerous characters
// and enforcing MySQL's 64-byte identifier cap.
func (g *Generator) QuoteIdentifier(name string) (string, error) {
	if err := validate.Identifier(name, string(dialect.MySQL)); err != nil {
		return "", err
	}
	return "`" + name + "`", nil
}

// QuoteString single-quotes value, doubling embedded quotes.
func (g *Generator) QuoteString(value string) string {
	return common.QuoteStringLiteral(value)
}

// GenerateUp emits one CREATE TABLE per model in source order, followed by
// the raw-SQL lines in source order. Raw-SQL lines are linted against the
// MySQL grammar first (see LintRawSQL); a line that fails the lint aborts
// generation instead of shipping malformed SQL to the database.
func (g *Generator) GenerateUp(schema *ast.Schema) ([]string, error) {
	if err := LintRawSQL(schema); err != nil {
		return nil, err
	}

	var out []string
	for _, m := range schema.Models {
		stmt, err := g.createTable(m)
		if err != nil {
			return nil, err
		}
		out = append(out, stmt)
	}
	for _, raw := range schema.RawSQLs {
		out = append(out, raw.Text)
	}
	return out, nil
}

// GenerateDown emits DROP TABLE IF EXISTS ... in the reverse of model
// source order. Raw-SQL lines have no inverse and are not re-emitted.
func (g *Generator) GenerateDown(schema *ast.Schema) ([]string, error) {
	out := make([]string, 0, len(schema.Models))
	for i := len(schema.Models) - 1; i >= 0; i-- {
		name, err := g.QuoteIdentifier(schema.Models[i].Name)
		if err != nil {
			return nil, err
		}
		out = append(out, fmt.Sprintf("DROP TABLE IF EXISTS %s;", name))
	}
	return out, nil
}

func (g *Generator) createTable(m *ast.Model) (string, error) {
	table, err := g.QuoteIdentifier(m.Name)
	if err != nil {
		return "", err
	}

	var lines []string
	var fks []string

	for _, col := range m.Columns {
		line, fk, err := g.columnDefinition(m.Name, col)
		if err != nil {
			return "", err
		}
		lines = append(lines, "  "+line)
		if fk != "" {
			fks = append(fks, "  "+fk)
		}
	}

	lines = append(lines, fks...)

	suffix := fmt.Sprintf(" ENGINE=%s DEFAULT CHARSET=%s COLLATE=%s", g.Options.Engine, g.Options.Charset, g.Options.Collation)

	return fmt.Sprintf("CREATE TABLE %s (\n%s\n)%s;", table, strings.Join(lines, ",\n"), suffix), nil
}

func (g *Generator) columnDefinition(modelName string, col *ast.Column) (def string, fk string, err error) {
	plan, err := common.Plan(string(dialect.MySQL), modelName, col)
	if err != nil {
		return "", "", err
	}

	name, err := g.QuoteIdentifier(col.Name)
	if err != nil {
		return "", "", err
	}

	typeSQL, err := g.typeSQL(modelName, col)
	if err != nil {
		return "", "", err
	}

	// AUTO_INCREMENT must land between the type and PRIMARY KEY/NOT NULL.
	if col.Type == "Serial" {
		typeSQL += " AUTO_INCREMENT"
	}

	defaultSQL := ""
	if plan.HasDefault {
		defaultSQL = common.FormatDefault(plan.DefaultRaw, false)
	}

	def = name + " " + typeSQL + common.ColumnSuffix(plan, defaultSQL)

	if plan.HasRef {
		refTable, err := g.QuoteIdentifier(plan.RefTable)
		if err != nil {
			return "", "", err
		}
		refColumn, err := g.QuoteIdentifier(plan.RefColumn)
		if err != nil {
			return "", "", err
		}
		fk = fmt.Sprintf("FOREIGN KEY (%s) REFERENCES %s(%s)", name, refTable, refColumn)
		if plan.HasOnDelete {
			fk += " ON DELETE " + plan.OnDeleteAction
		}
	}

	return def, fk, nil
}

func (g *Generator) typeSQL(modelName string, col *ast.Column) (string, error) {
	switch col.Type {
	case "Serial":
		return "INT", nil
	case "Int":
		return "INT", nil
	case "BigInt":
		return "BIGINT", nil
	case "SmallInt":
		return "SMALLINT", nil
	case "VarChar":
		return fmt.Sprintf("VARCHAR(%s)", common.VarCharLen(col, "255")), nil
	case "Char":
		return fmt.Sprintf("CHAR(%s)", common.VarCharLen(col, "1")), nil
	case "Text":
		return "TEXT", nil
	case "Boolean":
		return "BOOLEAN", nil
	case "Timestamp":
		return "TIMESTAMP", nil
	case "Date":
		return "DATE", nil
	case "Time":
		return "TIME", nil
	case "Decimal", "Numeric":
		p, s := common.DecimalArgs(col)
		return fmt.Sprintf("DECIMAL(%s, %s)", p, s), nil
	case "Real":
		return "FLOAT", nil
	case "DoublePrecision":
		return "DOUBLE", nil
	case "Json":
		return "JSON", nil
	case "Jsonb":
		return "JSON", nil
	case "Uuid":
		return "CHAR(36)", nil
	case "Enum":
		return fmt.Sprintf("ENUM(%s)", common.EnumValues(col.TypeArgs)), nil
	default:
		return "", &errs.GeneratorError{Dialect: string(dialect.MySQL), Model: modelName, Column: col.Name, Message: "unknown type " + col.Type}
	}
}
