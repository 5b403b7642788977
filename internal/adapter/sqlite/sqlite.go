// Package sqlite adapts the pure-Go modernc.org/sqlite driver to the
// engine's Adapter interface. Chosen over a cgo driver so the module
// builds without a C toolchain.
package sqlite

import (
	"context"

	_ "modernc.org/sqlite"

	"sigl/internal/adapter"
)

// Adapter connects to a SQLite database file via modernc.org/sqlite.
type Adapter struct {
	adapter.Base
	Path string
}

// New returns an Adapter for the given database file path.
func New(path string) *Adapter {
	return &Adapter{Path: path}
}

// Connect opens the connection and pings it.
func (a *Adapter) Connect(ctx context.Context) error {
	return a.Open(ctx, "sqlite", a.Path)
}
