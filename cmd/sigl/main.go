// Package main contains the cli implementation of the tool. It uses cobra
// for command dispatch, wiring the engine and a dialect-selected adapter.
package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/k0kubun/pp/v3"
	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"

	"sigl/internal/adapter"
	mysqladapter "sigl/internal/adapter/mysql"
	postgresadapter "sigl/internal/adapter/postgres"
	sqliteadapter "sigl/internal/adapter/sqlite"
	"sigl/internal/ast"
	"sigl/internal/config"
	"sigl/internal/dialect"
	_ "sigl/internal/dialect/mysql"
	_ "sigl/internal/dialect/postgres"
	_ "sigl/internal/dialect/sqlite"
	"sigl/internal/engine"
	"sigl/internal/errs"
	"sigl/internal/logging"
	"sigl/internal/validate"
)

const version = "0.1.0"

type rootFlags struct {
	database  string
	dsn       string
	config    string
	debug     bool
	assumeYes bool
}

func main() {
	flags := &rootFlags{}

	root := &cobra.Command{
		Use:   "sigl",
		Short: "Declarative relational schema migrations",
	}
	root.PersistentFlags().StringVar(&flags.database, "database", "", "Target dialect: postgres|mysql|sqlite (overrides sigl.toml)")
	root.PersistentFlags().StringVar(&flags.dsn, "dsn", "", "Database connection string (or SQLite file path)")
	root.PersistentFlags().StringVar(&flags.config, "config", "sigl.toml", "Path to the project config file")
	root.PersistentFlags().BoolVar(&flags.debug, "debug", false, "Pretty-print each compiled schema before executing")
	root.PersistentFlags().BoolVarP(&flags.assumeYes, "yes", "y", false, "Skip the rollback confirmation prompt")

	root.AddCommand(initCmd(flags))
	root.AddCommand(createCmd(flags))
	root.AddCommand(upCmd(flags))
	root.AddCommand(downCmd(flags))
	root.AddCommand(statusCmd(flags))
	root.AddCommand(pullCmd())
	root.AddCommand(versionCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the sigl version",
		RunE: func(cmd *cobra.Command, _ []string) error {
			fmt.Fprintln(cmd.OutOrStdout(), version)
			return nil
		},
	}
}

func pullCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "pull [schema]",
		Short: "Introspect a live database into DSL (not implemented)",
		RunE: func(*cobra.Command, []string) error {
			return &errs.ValidationError{Subject: "pull", Reason: "database introspection is not implemented"}
		},
	}
}

func initCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create a migrations directory and a default sigl.toml",
		RunE: func(cmd *cobra.Command, _ []string) error {
			opts, err := resolveOptions(flags)
			if err != nil {
				return err
			}
			if err := os.MkdirAll(opts.MigrationsPath, 0o755); err != nil {
				return fmt.Errorf("init: cannot create migrations directory: %w", err)
			}
			if _, err := os.Stat(flags.config); os.IsNotExist(err) {
				contents := fmt.Sprintf("migrations_path = %q\nledger_path = %q\ndatabase = %q\n",
					opts.MigrationsPath, opts.LedgerPath, opts.Adapter)
				if err := os.WriteFile(flags.config, []byte(contents), 0o644); err != nil {
					return fmt.Errorf("init: cannot write %s: %w", flags.config, err)
				}
			}
			fmt.Fprintf(cmd.OutOrStdout(), "initialized migrations directory %s\n", opts.MigrationsPath)
			return nil
		},
	}
}

func createCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "create <name>",
		Short: "Create a new, empty migration file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := resolveOptions(flags)
			if err != nil {
				return err
			}

			name, err := validate.MigrationName(args[0])
			if err != nil {
				return err
			}

			filename := fmt.Sprintf("%s_%s.sigl", time.Now().UTC().Format("20060102150405"), name)
			if err := os.MkdirAll(opts.MigrationsPath, 0o755); err != nil {
				return fmt.Errorf("create: cannot create migrations directory: %w", err)
			}

			path, err := validate.ResolveMigrationPath(opts.MigrationsPath, filename)
			if err != nil {
				return err
			}

			if err := os.WriteFile(path, []byte("model Example {\n  id Serial @pk\n}\n"), 0o644); err != nil {
				return fmt.Errorf("create: cannot write %s: %w", path, err)
			}

			fmt.Fprintln(cmd.OutOrStdout(), filepath.Base(path))
			return nil
		},
	}
}

func upCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "up",
		Short: "Apply every pending migration",
		RunE: func(cmd *cobra.Command, _ []string) error {
			eng, err := buildEngine(flags)
			if err != nil {
				return err
			}
			defer func() { _ = eng.Adapter.Disconnect() }()

			result, err := eng.Up(context.Background())
			if err != nil {
				return err
			}

			for _, m := range result.Applied {
				fmt.Fprintf(cmd.OutOrStdout(), "applied %s (%s)\n", m.Filename, m.Duration)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "batch %d: %d migration(s) applied\n", result.Batch, len(result.Applied))
			return nil
		},
	}
}

func downCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "down",
		Short: "Roll back the most recently applied batch",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !flags.assumeYes && !confirm("roll back the most recent batch?") {
				fmt.Fprintln(cmd.OutOrStdout(), "aborted")
				return nil
			}

			eng, err := buildEngine(flags)
			if err != nil {
				return err
			}
			defer func() { _ = eng.Adapter.Disconnect() }()

			result, err := eng.Down(context.Background())
			if err != nil {
				return err
			}

			for _, m := range result.RolledBack {
				fmt.Fprintf(cmd.OutOrStdout(), "rolled back %s (%s)\n", m.Filename, m.Duration)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "batch %d: %d migration(s) rolled back\n", result.Batch, len(result.RolledBack))
			return nil
		},
	}
}

func statusCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show applied and pending migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			eng, err := buildEngine(flags)
			if err != nil {
				return err
			}

			result, err := eng.Status(context.Background())
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "current batch: %d\n", result.CurrentBatch)
			fmt.Fprintln(cmd.OutOrStdout(), "applied:")
			for _, e := range result.Applied {
				fmt.Fprintf(cmd.OutOrStdout(), "  %s (batch %d, %s)\n", e.Filename, e.BatchNumber, e.AppliedAt)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "pending:")
			for _, f := range result.Pending {
				fmt.Fprintf(cmd.OutOrStdout(), "  %s\n", f)
			}
			return nil
		},
	}
}

func confirm(label string) bool {
	prompt := promptui.Prompt{Label: label, IsConfirm: true}
	_, err := prompt.Run()
	return err == nil
}

// resolveOptions layers sigl.toml under the --database flag.
func resolveOptions(flags *rootFlags) (config.Options, error) {
	opts, err := loadProjectFile(flags.config, config.Default())
	if err != nil {
		return config.Options{}, err
	}
	if flags.database != "" {
		dt := dialect.Type(flags.database)
		opts.Adapter = dt
		opts.Generator = dt
	}
	return opts, opts.Validate()
}

func buildEngine(flags *rootFlags) (*engine.Engine, error) {
	opts, err := resolveOptions(flags)
	if err != nil {
		return nil, err
	}

	gen, err := dialect.Get(opts.Generator)
	if err != nil {
		return nil, err
	}

	ad, err := buildAdapter(opts.Adapter, flags.dsn)
	if err != nil {
		return nil, err
	}

	logger := logging.New(os.Stderr)
	eng := engine.New(opts, ad, gen, logger)
	if flags.debug {
		wireDebugDump(eng)
	}

	return eng, nil
}

func buildAdapter(dialectType dialect.Type, dsn string) (adapter.Adapter, error) {
	switch dialectType {
	case dialect.PostgreSQL:
		return postgresadapter.New(dsn), nil
	case dialect.MySQL:
		return mysqladapter.New(dsn), nil
	case dialect.SQLite:
		return sqliteadapter.New(dsn), nil
	default:
		return nil, fmt.Errorf("cli: unsupported dialect %q", dialectType)
	}
}

// wireDebugDump installs a DumpSchema hook on eng that pretty-prints every
// migration's parsed schema to stderr before it's compiled, backing --debug.
func wireDebugDump(eng *engine.Engine) {
	pp.Default.SetColoringEnabled(false)
	pp.Default.SetOutput(os.Stderr)
	eng.DumpSchema = func(filename string, schema *ast.Schema) {
		fmt.Fprintf(os.Stderr, "--- %s ---\n", filename)
		pp.Println(schema)
	}
}
