// Package config defines the engine's explicit options record, replacing
// the freely-extensible "kitchen sink" configuration bag the source
// repository used. Every recognized key is a named field; unknown keys
// encountered while loading a project file are a hard error.
package config

import (
	"fmt"

	"sigl/internal/dialect"
	"sigl/internal/validate"
)

// Options enumerates every setting the engine and ledger recognize.
type Options struct {
	Adapter                  dialect.Type
	Generator                dialect.Type
	MigrationsPath           string
	LedgerPath               string
	MaxFileSize              int64
	MaxTotalSize             int64
	EnableFileSizeValidation bool
	LockTimeoutMS            int
	LockRetryDelayMS         int
}

// Default returns the baseline Options before any project file or flags
// are applied.
func Default() Options {
	return Options{
		Adapter:                  dialect.SQLite,
		Generator:                dialect.SQLite,
		MigrationsPath:           "migrations",
		LedgerPath:               ".schemact_ledger.json",
		MaxFileSize:              validate.DefaultMaxFileSize,
		MaxTotalSize:             validate.DefaultMaxTotalSize,
		EnableFileSizeValidation: true,
		LockTimeoutMS:            30_000,
		LockRetryDelayMS:         100,
	}
}

// Validate rejects an Options value with an unsupported adapter/generator
// dialect or a non-positive lock timing field.
func (o Options) Validate() error {
	switch o.Adapter {
	case dialect.PostgreSQL, dialect.MySQL, dialect.SQLite:
	default:
		return fmt.Errorf("config: unsupported adapter %q", o.Adapter)
	}
	switch o.Generator {
	case dialect.PostgreSQL, dialect.MySQL, dialect.SQLite:
	default:
		return fmt.Errorf("config: unsupported generator %q", o.Generator)
	}
	if o.MigrationsPath == "" {
		return fmt.Errorf("config: migrations_path must not be empty")
	}
	if o.LedgerPath == "" {
		return fmt.Errorf("config: ledger_path must not be empty")
	}
	if o.LockTimeoutMS <= 0 {
		return fmt.Errorf("config: lock_timeout_ms must be positive")
	}
	if o.LockRetryDelayMS <= 0 {
		return fmt.Errorf("config: lock_retry_delay_ms must be positive")
	}
	return nil
}
