// Package mysql adapts the MySQL/MariaDB driver to the engine's Adapter
// interface, grounded directly in the teacher repository's own
// Applier.Connect/applyWithTransaction.
package mysql

import (
	"context"

	_ "github.com/go-sql-driver/mysql"

	"sigl/internal/adapter"
)

// Adapter connects to MySQL/MariaDB via go-sql-driver/mysql.
type Adapter struct {
	adapter.Base
	DSN string
}

// New returns an Adapter for the given DSN (e.g. "user:pass@tcp(host:3306)/db").
func New(dsn string) *Adapter {
	return &Adapter{DSN: dsn}
}

// Connect opens the connection and pings it.
func (a *Adapter) Connect(ctx context.Context) error {
	return a.Open(ctx, "mysql", a.DSN)
}
