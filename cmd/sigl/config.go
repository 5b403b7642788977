package main

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"

	"sigl/internal/config"
	"sigl/internal/dialect"
)

// projectFile mirrors sigl.toml; every recognized key is a named field,
// so an unknown key in the file is a hard error rather than silently
// accepted.
type projectFile struct {
	MigrationsPath string `toml:"migrations_path"`
	LedgerPath     string `toml:"ledger_path"`
	Database       string `toml:"database"`
}

// loadProjectFile reads path (if present) and overlays its values onto
// base. A missing file is not an error; a present file with unknown keys
// or an unsupported dialect is.
func loadProjectFile(path string, base config.Options) (config.Options, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return base, nil
	}

	var pf projectFile
	meta, err := toml.DecodeFile(path, &pf)
	if err != nil {
		return base, fmt.Errorf("config: cannot parse %s: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return base, fmt.Errorf("config: %s: unrecognized key %q", path, undecoded[0].String())
	}

	if pf.MigrationsPath != "" {
		base.MigrationsPath = pf.MigrationsPath
	}
	if pf.LedgerPath != "" {
		base.LedgerPath = pf.LedgerPath
	}
	if pf.Database != "" {
		dt := dialect.Type(pf.Database)
		base.Adapter = dt
		base.Generator = dt
	}

	return base, base.Validate()
}
