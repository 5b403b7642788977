// Package sqlite implements the SQLite DDL generator.
package sqlite

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
	dialect.Register(dialect.SQLite, func() dialect.Generator {
		return &Generator{}
	})
}

// Generator produces SQLite CREATE/DROP TABLE statements.
type Generator struct{}

// QuoteIdentifier double-quotes name after rejecting dangerous characters
// and enforcing SQLite's 256-byte identifier cap.
func (g *Generator) QuoteIdentifier(name string) (string, error) {
	if err := validate.Identifier(name, string(dialect.SQLite)); err != nil {
		return "", err
	}
	return `"` + name + `"`, nil
}

// QuoteString single-quotes value, doubling embedded quotes.
func (g *Generator) QuoteString(value string) string {
	return common.QuoteStringLiteral(value)
}

const pragmaForeignKeys = "PRAGMA foreign_keys = ON;"

// GenerateUp prepends PRAGMA foreign_keys = ON;, then emits one CREATE
// TABLE per model in source order, followed by the raw-SQL lines in
// source order.
func (g *Generator) GenerateUp(schema *ast.Schema) ([]string, error) {
	out := []string{pragmaForeignKeys}
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

// GenerateDown prepends PRAGMA foreign_keys = ON;, then emits DROP TABLE
// IF EXISTS ... in the reverse of model source order. Raw-SQL lines have
// no inverse and are not re-emitted.
func (g *Generator) GenerateDown(schema *ast.Schema) ([]string, error) {
	out := []string{pragmaForeignKeys}
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

	return fmt.Sprintf("CREATE TABLE %s (\n%s\n);", table, strings.Join(lines, ",\n")), nil
}

func (g *Generator) columnDefinition(modelName string, col *ast.Column) (def string, fk string, err error) {
	plan, err := common.Plan(string(dialect.SQLite), modelName, col)
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

	isIntegerType := col.Type == "Int" || col.Type == "BigInt" || col.Type == "SmallInt"

	switch {
	case col.Type == "Serial":
		// Serial already carries INTEGER PRIMARY KEY AUTOINCREMENT; an
		// explicit @pk on a Serial column is redundant, not additive.
		def = name + " " + typeSQL
		plan.PrimaryKey = false
	case plan.PrimaryKey && isIntegerType:
		def = name + " INTEGER PRIMARY KEY AUTOINCREMENT"
		plan.PrimaryKey = false
	case plan.PrimaryKey:
		// Non-integer @pk (e.g. Uuid @pk): bare PRIMARY KEY, no
		// AUTOINCREMENT, and no implied @unique/@notnull.
		def = name + " " + typeSQL + " PRIMARY KEY"
		plan.PrimaryKey = false
	default:
		def = name + " " + typeSQL
	}

	defaultSQL := ""
	if plan.HasDefault {
		defaultSQL = common.FormatDefault(plan.DefaultRaw, false)
	}
	def += common.ColumnSuffix(plan, defaultSQL)

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
		return "INTEGER PRIMARY KEY AUTOINCREMENT", nil
	case "Int", "BigInt", "SmallInt":
		return "INTEGER", nil
	case "VarChar", "Char", "Text":
		return "TEXT", nil
	case "Boolean":
		return "INTEGER", nil
	case "Timestamp", "Date", "Time":
		return "TEXT", nil
	case "Decimal", "Numeric":
		return "REAL", nil
	case "Real", "DoublePrecision":
		return "REAL", nil
	case "Json", "Jsonb":
		return "TEXT", nil
	case "Uuid":
		return "TEXT", nil
	case "Enum":
		name, err := g.QuoteIdentifier(col.Name)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("TEXT CHECK (%s IN (%s))", name, common.EnumValues(col.TypeArgs)), nil
	default:
		return "", &errs.GeneratorError{Dialect: string(dialect.SQLite), Model: modelName, Column: col.Name, Message: "unknown type " + col.Type}
	}
}
