package common

import "strings"

// ColumnSuffix renders the NOT NULL / UNIQUE / PRIMARY KEY / DEFAULT tail
// shared by all three dialects' column definitions, in that fixed order.
// defaultSQL is the already-dialect-formatted default value; it is
// ignored unless plan.HasDefault.
func ColumnSuffix(plan DecoratorPlan, defaultSQL string) string {
	var parts []string
	if plan.NotNull {
		parts = append(parts, "NOT NULL")
	}
	if plan.Unique {
		parts = append(parts, "UNIQUE")
	}
	if plan.PrimaryKey {
		parts = append(parts, "PRIMARY KEY")
	}
	if plan.HasDefault {
		parts = append(parts, "DEFAULT "+defaultSQL)
	}
	if len(parts) == 0 {
		return ""
	}
	return " " + strings.Join(parts, " ")
}
