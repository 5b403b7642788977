// Package adapter defines the engine's only view of a live database:
// connect, disconnect, a trivial query for introspection, and an atomic
// transaction executing an ordered list of statements.
package adapter

import (
	"context"
	"database/sql"
)

// Adapter is implemented once per supported dialect, each a thin wrapper
// over database/sql.
type Adapter interface {
	// Connect opens the connection and probes reachability with a single
	// ping on ctx. The ping has no timeout of its own beyond ctx's deadline
	// and is not retried.
	Connect(ctx context.Context) error
	// Disconnect closes the connection. Safe to call on an adapter that
	// never connected.
	Disconnect() error
	// Query runs a read-only statement, for introspection callers. Out of
	// scope for the migration engine itself, but part of the shared
	// contract.
	Query(ctx context.Context, query string) (*sql.Rows, error)
	// Transaction executes statements in order inside a single
	// transaction: begin, exec each, commit on success, rollback and
	// return an *errs.AdapterError on any failure.
	Transaction(ctx context.Context, statements []string) error
}
