// Package engine orchestrates discovery, validation, compilation, and
// execution of pending migrations, and records outcomes in the ledger.
package engine

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"sigl/internal/adapter"
	"sigl/internal/ast"
	"sigl/internal/clock"
	"sigl/internal/config"
	"sigl/internal/dialect"
	"sigl/internal/errs"
	"sigl/internal/ledger"
	"sigl/internal/logging"
	"sigl/internal/parser"
	"sigl/internal/validate"
)

const migrationExtension = ".sigl"

// Engine is the up()/down()/status() runner. One Engine value should be
// shared by at most one in-process caller at a time per ledger file; mu
// serializes up/down so two goroutines sharing an *Engine cannot
// interleave ledger mutations.
type Engine struct {
	Options   config.Options
	Adapter   adapter.Adapter
	Generator dialect.Generator
	Logger    *logging.Logger
	Clock     clock.Clock

	// DumpSchema, if set, is called with each migration's filename and
	// parsed schema after a successful parse and before DDL generation, for
	// every migration applied or rolled back. Left nil by New; --debug
	// wires one in via buildEngine.
	DumpSchema func(filename string, schema *ast.Schema)

	mu     sync.Mutex
	ledger *ledger.File
}

// New constructs an Engine. logger may be nil, in which case logs are
// discarded.
func New(opts config.Options, ad adapter.Adapter, gen dialect.Generator, logger *logging.Logger) *Engine {
	if logger == nil {
		logger = logging.Discard()
	}
	lockOpts := ledger.LockOptions{
		AcquireTimeout: time.Duration(opts.LockTimeoutMS) * time.Millisecond,
		RetryDelay:     time.Duration(opts.LockRetryDelayMS) * time.Millisecond,
	}
	return &Engine{
		Options:   opts,
		Adapter:   ad,
		Generator: gen,
		Logger:    logger,
		Clock:     clock.System{},
		ledger:    ledger.NewFile(opts.LedgerPath, lockOpts),
	}
}

// AppliedMigration describes one migration applied (or rolled back) by a
// single Up/Down call, along with how long execution took.
type AppliedMigration struct {
	Filename string
	Duration time.Duration
}

// UpResult is the success payload of Up.
type UpResult struct {
	Applied []AppliedMigration
	Batch   int
}

// DownResult is the success payload of Down.
type DownResult struct {
	RolledBack []AppliedMigration
	Batch      int
}

// StatusResult is the (non-mutating) result of Status.
type StatusResult struct {
	Applied      []ledger.Entry
	Pending      []string
	CurrentBatch int
}

// discoverFiles returns every *.sigl filename (not full path) in
// MigrationsPath, in lexicographic order. Filenames carry a leading
// timestamp, so lexicographic order is chronological order.
func (e *Engine) discoverFiles() ([]string, error) {
	entries, err := os.ReadDir(e.Options.MigrationsPath)
	if err != nil {
		return nil, &errs.ValidationError{Subject: e.Options.MigrationsPath, Reason: fmt.Sprintf("cannot read migrations directory: %v", err)}
	}

	var names []string
	for _, ent := range entries {
		if ent.IsDir() || filepath.Ext(ent.Name()) != migrationExtension {
			continue
		}
		names = append(names, ent.Name())
	}
	sort.Strings(names)
	return names, nil
}

// readAll resolves and reads every named migration file, validating size
// caps before any file is read.
func (e *Engine) readAll(names []string) (map[string][]byte, error) {
	paths := make([]string, len(names))
	for i, name := range names {
		p, err := validate.ResolveMigrationPath(e.Options.MigrationsPath, name)
		if err != nil {
			return nil, err
		}
		paths[i] = p
	}

	if err := validate.FileSizes(paths, e.Options.MaxFileSize, e.Options.MaxTotalSize, e.Options.EnableFileSizeValidation); err != nil {
		return nil, err
	}

	out := make(map[string][]byte, len(names))
	for i, name := range names {
		data, err := os.ReadFile(paths[i])
		if err != nil {
			return nil, &errs.ValidationError{Subject: name, Reason: fmt.Sprintf("cannot read file: %v", err)}
		}
		out[name] = data
	}
	return out, nil
}

// probeReachability performs a trivial connectivity check: one Connect
// (which pings once on ctx). A failed check is not retried.
func (e *Engine) probeReachability(ctx context.Context) error {
	if err := e.Adapter.Connect(ctx); err != nil {
		return err
	}
	return nil
}

// preflight verifies the ledger file can be written and the database is
// reachable, in that order, before any migration is compiled or executed.
// Checking writability first means a misconfigured ledger path is never
// discovered only after DDL has already committed against the database.
func (e *Engine) preflight(ctx context.Context) error {
	if err := ledger.CheckWritable(e.Options.LedgerPath); err != nil {
		return err
	}
	return e.probeReachability(ctx)
}

// Up loads the ledger, discovers pending migrations, compiles and executes
// each inside its own transaction, and, once every pending migration has
// succeeded, records them all as one batch. If any migration fails, Up
// returns its error and records nothing, including migrations that already
// committed earlier in the same call.
func (e *Engine) Up(ctx context.Context) (UpResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	l, err := ledger.Load(e.Options.LedgerPath)
	if err != nil {
		return UpResult{}, err
	}

	names, err := e.discoverFiles()
	if err != nil {
		return UpResult{}, err
	}

	fileBytes, err := e.readAll(names)
	if err != nil {
		return UpResult{}, err
	}

	if err := l.ValidateIntegrity(fileBytes); err != nil {
		return UpResult{}, err
	}

	pendingNames := l.Pending(names)
	if len(pendingNames) == 0 {
		return UpResult{Batch: l.CurrentBatch}, nil
	}

	if err := e.preflight(ctx); err != nil {
		return UpResult{}, err
	}
	defer func() { _ = e.Adapter.Disconnect() }()

	var applied []AppliedMigration
	var toRecord []ledger.FileContent

	for _, name := range pendingNames {
		data := fileBytes[name]

		schema, err := parser.Parse(string(data))
		if err != nil {
			return UpResult{}, err
		}
		if e.DumpSchema != nil {
			e.DumpSchema(name, schema)
		}

		statements, err := e.Generator.GenerateUp(schema)
		if err != nil {
			return UpResult{}, err
		}

		start := e.Clock.Now()
		if err := e.Adapter.Transaction(ctx, statements); err != nil {
			e.Logger.Errorf("migration %s failed: %v", name, err)
			return UpResult{}, err
		}
		duration := e.Clock.Now().Sub(start)

		e.Logger.Event("migration applied", "filename", name, "duration_ms", duration.Milliseconds())
		applied = append(applied, AppliedMigration{Filename: name, Duration: duration})
		toRecord = append(toRecord, ledger.FileContent{Filename: name, Bytes: data})
	}

	if err := e.ledger.RecordBatch(toRecord); err != nil {
		names := make([]string, len(toRecord))
		for i, fc := range toRecord {
			names[i] = fc.Filename
		}
		return UpResult{}, &errs.CriticalInconsistencyError{Filenames: names, Err: err}
	}

	return UpResult{Applied: applied, Batch: l.CurrentBatch + 1}, nil
}

// Down loads the ledger, locates the most recent batch, rolls each
// migration back in reverse application order inside its own transaction,
// and then drops the batch from the ledger.
func (e *Engine) Down(ctx context.Context) (DownResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	l, err := ledger.Load(e.Options.LedgerPath)
	if err != nil {
		return DownResult{}, err
	}

	if l.CurrentBatch == 0 {
		return DownResult{}, nil
	}

	if err := e.preflight(ctx); err != nil {
		return DownResult{}, err
	}
	defer func() { _ = e.Adapter.Disconnect() }()

	entries := l.LastBatchEntries()
	var rolledBack []AppliedMigration

	for _, entry := range entries {
		path, err := validate.ResolveMigrationPath(e.Options.MigrationsPath, entry.Filename)
		if err != nil {
			return DownResult{}, err
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return DownResult{}, &errs.IntegrityError{Filename: entry.Filename, Reason: fmt.Sprintf("file required for rollback is missing: %v", err)}
		}

		schema, err := parser.Parse(string(data))
		if err != nil {
			return DownResult{}, err
		}
		if e.DumpSchema != nil {
			e.DumpSchema(entry.Filename, schema)
		}

		statements, err := e.Generator.GenerateDown(schema)
		if err != nil {
			return DownResult{}, err
		}

		start := e.Clock.Now()
		if err := e.Adapter.Transaction(ctx, statements); err != nil {
			e.Logger.Errorf("rollback of %s failed: %v", entry.Filename, err)
			return DownResult{}, err
		}
		duration := e.Clock.Now().Sub(start)

		e.Logger.Event("migration rolled back", "filename", entry.Filename, "duration_ms", duration.Milliseconds())
		rolledBack = append(rolledBack, AppliedMigration{Filename: entry.Filename, Duration: duration})
	}

	batch := l.CurrentBatch
	if err := e.ledger.RollbackLastBatch(); err != nil {
		names := make([]string, len(rolledBack))
		for i, a := range rolledBack {
			names[i] = a.Filename
		}
		return DownResult{}, &errs.CriticalInconsistencyError{Filenames: names, Err: err}
	}

	return DownResult{RolledBack: rolledBack, Batch: batch}, nil
}

// Status reports applied entries, pending filenames, and the current batch
// number without mutating anything or acquiring the ledger lock.
func (e *Engine) Status(ctx context.Context) (StatusResult, error) {
	l, err := ledger.Load(e.Options.LedgerPath)
	if err != nil {
		return StatusResult{}, err
	}

	names, err := e.discoverFiles()
	if err != nil {
		return StatusResult{}, err
	}

	return StatusResult{
		Applied:      l.Entries,
		Pending:      l.Pending(names),
		CurrentBatch: l.CurrentBatch,
	}, nil
}
