// Package dialect provides a unified interface for all database dialects,
// so the engine can compile a schema to DDL without knowing which concrete
// dialect it is targeting.
package dialect

import (
	"fmt"
	"maps"
	"sync"

	"sigl/internal/ast"
)

// Type identifies a supported SQL dialect.
type Type string

const (
	PostgreSQL Type = "postgres"
	MySQL      Type = "mysql"
	SQLite     Type = "sqlite"
)

// Generator converts a schema AST into ordered lists of DDL statements.
// GenerateUp returns statements in source order; GenerateDown returns
// statements covering models in the reverse of source order, per the
// UP/DOWN ordering contract.
type Generator interface {
	GenerateUp(schema *ast.Schema) ([]string, error)
	GenerateDown(schema *ast.Schema) ([]string, error)
	QuoteIdentifier(name string) (string, error)
	QuoteString(value string) string
}

var (
	registryMu sync.RWMutex
	registry   = map[Type]func() Generator{}
)

// Register adds a constructor for the given dialect type to the registry.
// Dialect packages call this from an init function.
func Register(t Type, ctor func() Generator) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[t] = ctor
}

// Get returns a freshly constructed Generator for the given dialect type.
func Get(t Type) (Generator, error) {
	registryMu.RLock()
	defer registryMu.RUnlock()

	ctor, ok := registry[t]
	if !ok {
		return nil, fmt.Errorf("dialect: %q is not registered; supported dialects: %v", t, supportedLocked())
	}
	return ctor(), nil
}

func supportedLocked() []Type {
	out := make([]Type, 0, len(registry))
	for t := range maps.Keys(registry) {
		out = append(out, t)
	}
	return out
}

// resetRegistry replaces the registry with the given map. Intended for testing only.
func resetRegistry(r map[Type]func() Generator) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry = r
}

// snapshotRegistry returns a shallow copy of the current registry. Intended for testing only.
func snapshotRegistry() map[Type]func() Generator {
	registryMu.RLock()
	defer registryMu.RUnlock()
	snap := make(map[Type]func() Generator, len(registry))
	maps.Copy(snap, registry)
	return snap
}
