package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/starford/taskflow/internal"
	"github.com/starford/taskflow/internal/exchange"
	"github.com/starford/taskflow/internal/mcpserver"
	"github.com/starford/taskflow/internal/persist"
	pkgconfig "github.com/starford/taskflow/pkg/config"
)

var version = "dev"

func loadConfig(cmd *cli.Command) (*internal.Config, error) {
	cfg := internal.NewDefaultConfig()
	if err := pkgconfig.LoadOptional(cmd.String("config"), cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}

func serve(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	opts := []internal.Option{
		internal.WithConfig(cfg),
	}

	if err := internal.Run(ctx, opts...); err != nil {
		return fmt.Errorf("app run error: %w", err)
	}

	return nil
}

// withStore opens the configured store for a one-shot command. Logs go to
// stderr so stdout stays machine readable.
func withStore(fn func(ctx context.Context, cmd *cli.Command, store *persist.Store) error) cli.ActionFunc {
	return func(ctx context.Context, cmd *cli.Command) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		logger := internal.NewLogger(cfg.App.LogLevel, os.Stderr)
		slog.SetDefault(logger)

		store, closer, err := internal.OpenStore(cfg, logger)
		if err != nil {
			return err
		}
		defer closer.Close()
		return fn(ctx, cmd, store)
	}
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// output opens the file named by the output flag, or stdout for "-".
func output(cmd *cli.Command) (io.WriteCloser, error) {
	path := cmd.String("output")
	if path == "" || path == "-" {
		return nopWriteCloser{os.Stdout}, nil
	}
	return os.Create(path)
}

type nopWriteCloser struct{ io.Writer }

func (nopWriteCloser) Close() error { return nil }

func migrate(_ context.Context, _ *cli.Command, store *persist.Store) error {
	report := store.MigrateLegacyKeys()
	if err := printJSON(report); err != nil {
		return err
	}
	if !report.Success {
		return fmt.Errorf("migration finished with %d error(s)", len(report.Errors))
	}
	return nil
}

func validate(_ context.Context, _ *cli.Command, store *persist.Store) error {
	results := store.ValidateAll()
	if err := printJSON(results); err != nil {
		return err
	}
	invalid := 0
	for _, r := range results {
		if !r.Valid {
			invalid++
		}
	}
	if invalid > 0 {
		return fmt.Errorf("%d document(s) failed validation", invalid)
	}
	return nil
}

func stats(_ context.Context, _ *cli.Command, store *persist.Store) error {
	st, err := store.Stats()
	if err != nil {
		return err
	}
	return printJSON(st)
}

func snapshotCreate(_ context.Context, _ *cli.Command, store *persist.Store) error {
	id, err := store.CreateSnapshot()
	if err != nil {
		return err
	}
	fmt.Println(id)
	return nil
}

func snapshotList(_ context.Context, _ *cli.Command, store *persist.Store) error {
	infos, err := store.ListSnapshots()
	if err != nil {
		return err
	}
	return printJSON(infos)
}

func snapshotRestore(_ context.Context, cmd *cli.Command, store *persist.Store) error {
	id := cmd.Args().First()
	if id == "" {
		return fmt.Errorf("snapshot id is required")
	}
	if err := store.RestoreSnapshot(id); err != nil {
		return err
	}
	fmt.Printf("restored %s\n", id)
	return nil
}

func recoverBackups(_ context.Context, _ *cli.Command, store *persist.Store) error {
	restored, err := store.RestoreBackups()
	if err != nil {
		return err
	}
	return printJSON(restored)
}

func clearDocuments(_ context.Context, cmd *cli.Command, store *persist.Store) error {
	if !cmd.Bool("force") {
		return fmt.Errorf("refusing to clear without --force")
	}
	return store.Clear()
}

func exportData(_ context.Context, cmd *cli.Command, store *persist.Store) error {
	w, err := output(cmd)
	if err != nil {
		return err
	}
	defer w.Close()
	return exchange.WriteExport(w, exchange.Export(store.LoadState(), time.Now()))
}

func importData(_ context.Context, cmd *cli.Command, store *persist.Store) error {
	path := cmd.Args().First()
	if path == "" {
		return fmt.Errorf("import file is required")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	res, err := exchange.Import(store, data)
	if perr := printJSON(res); perr != nil {
		return perr
	}
	return err
}

func report(_ context.Context, cmd *cli.Command, store *persist.Store) error {
	w, err := output(cmd)
	if err != nil {
		return err
	}
	defer w.Close()
	return exchange.WriteCSV(w, store.LoadState().Lists)
}

func serveMCP(_ context.Context, _ *cli.Command, store *persist.Store) error {
	return mcpserver.New(store, version).ServeStdio()
}

func main() {
	outputFlag := &cli.StringFlag{
		Name:    "output",
		Aliases: []string{"o"},
		Usage:   "Write to file instead of stdout",
		Value:   "-",
	}

	cmd := &cli.Command{
		Name:    "taskflow",
		Usage:   "Task manager persistence service: versioned documents, snapshots, import and export",
		Version: version,
		Action:  serve,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "Path to config file",
				DefaultText: "config/config.yaml",
				Value:       "config/config.yaml",
				Sources:     cli.EnvVars("APP_CONFIG_FILE"),
			},
		},
		Commands: []*cli.Command{
			{Name: "serve", Usage: "Run the HTTP API with autosave and the import inbox", Action: serve},
			{Name: "migrate", Usage: "Copy legacy keys to the current namespace", Action: withStore(migrate)},
			{Name: "validate", Usage: "Structurally validate every document", Action: withStore(validate)},
			{Name: "stats", Usage: "Show stored document sizes", Action: withStore(stats)},
			{
				Name:  "snapshot",
				Usage: "Manage snapshots",
				Commands: []*cli.Command{
					{Name: "create", Usage: "Snapshot all documents", Action: withStore(snapshotCreate)},
					{Name: "list", Usage: "List snapshots, newest first", Action: withStore(snapshotList)},
					{Name: "restore", Usage: "Restore all documents from a snapshot", ArgsUsage: "<id>", Action: withStore(snapshotRestore)},
				},
			},
			{Name: "recover", Usage: "Restore every document that has a backup", Action: withStore(recoverBackups)},
			{
				Name:   "clear",
				Usage:  "Remove all documents and their backups",
				Flags:  []cli.Flag{&cli.BoolFlag{Name: "force", Usage: "Confirm removal"}},
				Action: withStore(clearDocuments),
			},
			{Name: "export", Usage: "Write an export file", Flags: []cli.Flag{outputFlag}, Action: withStore(exportData)},
			{Name: "import", Usage: "Import an export file", ArgsUsage: "<file>", Action: withStore(importData)},
			{Name: "report", Usage: "Write a CSV report of all tasks", Flags: []cli.Flag{outputFlag}, Action: withStore(report)},
			{Name: "mcp", Usage: "Serve MCP tools over stdio", Action: withStore(serveMCP)},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
