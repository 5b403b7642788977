package adapter

import (
	"context"
	"database/sql"
	"fmt"

	"sigl/internal/errs"
)

// Base implements Disconnect, Query, and Transaction once, shared by every
// concrete dialect adapter; only Connect (which picks the driver name and
// DSN) differs per dialect.
type Base struct {
	DB *sql.DB
}

// Open calls sql.Open for driverName/dsn and pings it once on ctx, mirroring
// the teacher's own Applier.Connect. The ping is bounded only by ctx's
// deadline, and a failed ping is not retried.
func (b *Base) Open(ctx context.Context, driverName, dsn string) error {
	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return &errs.AdapterError{Op: "connect", Err: err}
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return &errs.AdapterError{Op: "ping", Err: err}
	}

	b.DB = db
	return nil
}

// Disconnect closes the connection. Safe to call when never connected.
func (b *Base) Disconnect() error {
	if b.DB == nil {
		return nil
	}
	db := b.DB
	b.DB = nil
	if err := db.Close(); err != nil {
		return &errs.AdapterError{Op: "disconnect", Err: err}
	}
	return nil
}

// Query runs a read-only statement.
func (b *Base) Query(ctx context.Context, query string) (*sql.Rows, error) {
	rows, err := b.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, &errs.AdapterError{Op: "query", Err: err, SQL: query}
	}
	return rows, nil
}

// Transaction begins a transaction, executes every statement via
// ExecContext in order, commits on success, and rolls back and returns an
// *errs.AdapterError on any statement failure or commit failure.
func (b *Base) Transaction(ctx context.Context, statements []string) error {
	tx, err := b.DB.BeginTx(ctx, nil)
	if err != nil {
		return &errs.AdapterError{Op: "begin", Err: err}
	}

	for _, stmt := range statements {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				return &errs.AdapterError{Op: "exec+rollback", Err: fmt.Errorf("%w (rollback also failed: %v)", err, rbErr), SQL: stmt}
			}
			return &errs.AdapterError{Op: "exec", Err: err, SQL: stmt}
		}
	}

	if err := tx.Commit(); err != nil {
		return &errs.AdapterError{Op: "commit", Err: err}
	}
	return nil
}
