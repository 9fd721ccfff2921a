package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"pulse-cli/internal/app"
	"pulse-cli/internal/format"
	appLog "pulse-cli/internal/log"
	"pulse-cli/internal/store"
	"pulse-cli/internal/theme"
	"pulse-cli/internal/tui"

	"github.com/spf13/cobra"
)

type App struct {
	Dir        string
	Backend    string
	PrettyJSON bool
	Format     string

	cfg    *store.Config
	kv     *store.Adapter
	events *store.EventStore
	shell  *app.Shell
}

func NewRootCmd() *cobra.Command {
	app := &App{}

	cmd := &cobra.Command{
		Use:           "pulse",
		Short:         "Pulse: a local-first event calendar (CLI + TUI + web)",
		SilenceUsage:  true,
		SilenceErrors: true,
		Example: strings.TrimSpace(`
  # Start the interactive TUI
  pulse

  # Add an event (time is optional; omit it for an all-day event)
  pulse add "Dentist" --date 2024-03-20 --time 08:30

  # Upcoming events, filtered
  pulse list --filter dentist

  # Month grid in the terminal
  pulse calendar --month 2024-03 --render
`),
		RunE: func(cmd *cobra.Command, args []string) error {
			// No subcommand => interactive TUI.
			if cmd.HasSubCommands() && len(args) == 0 {
				return runTUI(cmd, app)
			}
			return cmd.Help()
		},
	}

	cmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		if !format.Valid(app.Format) {
			return writeErr(cmd, fmt.Errorf("unknown format: %s (expected json|yaml)", app.Format))
		}
		return nil
	}

	cmd.PersistentPostRunE = func(cmd *cobra.Command, args []string) error {
		return app.close()
	}

	cmd.PersistentFlags().StringVar(&app.Dir, "dir", envOr("PULSE_DIR", ""), "Data directory (overrides dataDir in config.json)")
	cmd.PersistentFlags().StringVar(&app.Backend, "backend", envOr("PULSE_BACKEND", ""), "Storage backend (sqlite|file|memory)")
	cmd.PersistentFlags().BoolVar(&app.PrettyJSON, "pretty", false, "Pretty-print JSON output")
	cmd.PersistentFlags().StringVar(&app.Format, "format", envOr("PULSE_FORMAT", "json"), "Output format (json|yaml)")

	cmd.AddCommand(newInitCmd(app))
	cmd.AddCommand(newDoctorCmd(app))
	cmd.AddCommand(newDocsCmd(app))
	cmd.AddCommand(newAddCmd(app))
	cmd.AddCommand(newListCmd(app))
	cmd.AddCommand(newShowCmd(app))
	cmd.AddCommand(newDeleteCmd(app))
	cmd.AddCommand(newCalendarCmd(app))
	cmd.AddCommand(newThemeCmd(app))
	cmd.AddCommand(newExportCmd(app))
	cmd.AddCommand(newImportCmd(app))
	cmd.AddCommand(newBackupCmd(app))
	cmd.AddCommand(newWebCmd(app))
	cmd.AddCommand(newWindowCmd(app))

	return cmd
}

func runTUI(cmd *cobra.Command, app *App) error {
	sh, err := app.open(cmd.Context())
	if err != nil {
		return writeErr(cmd, err)
	}
	return tui.Run(ctxOf(cmd), tui.Options{
		Shell:       sh,
		FilterDelay: time.Duration(app.cfg.FilterDebounceMs) * time.Millisecond,
		LogDir:      app.cfg.DataDir,
	})
}

// config loads config.json once and applies flag overrides.
func (a *App) config() (*store.Config, error) {
	if a.cfg != nil {
		return a.cfg, nil
	}
	cfg, err := store.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if d := strings.TrimSpace(a.Dir); d != "" {
		cfg.DataDir = d
	}
	if b := strings.TrimSpace(a.Backend); b != "" {
		cfg.Backend = b
	}
	cfg.Normalize()
	if cfg.DataDir == "" {
		return nil, fmt.Errorf("no data directory: pass --dir or set PULSE_DIR")
	}
	a.cfg = cfg
	return cfg, nil
}

// open wires storage, the event store, the theme resolver and the shell.
// Later calls reuse the same instances.
func (a *App) open(ctx context.Context) (*app.Shell, error) {
	if a.shell != nil {
		return a.shell, nil
	}
	if ctx == nil {
		ctx = context.Background()
	}
	cfg, err := a.config()
	if err != nil {
		return nil, err
	}
	kind, err := store.ParseBackendKind(cfg.Backend)
	if err != nil {
		return nil, err
	}
	b, err := store.OpenBackend(ctx, kind, cfg.DataDir)
	if err != nil {
		// Storage being unreachable is not fatal: the app keeps working in
		// memory for this run.
		appLog.Error("open storage backend", err, "backend", kind, "dir", cfg.DataDir)
		b = nil
	}
	a.kv = store.NewAdapter(b)
	a.events = store.NewEventStore(a.kv)
	a.shell = app.NewShell(ctx, app.Options{
		Events: a.events,
		Theme:  theme.NewResolver(a.kv, theme.DefaultProbe()),
	})
	return a.shell, nil
}

func (a *App) close() error {
	if a.kv == nil {
		return nil
	}
	err := a.kv.Close()
	a.kv = nil
	a.shell = nil
	a.events = nil
	return err
}

func ctxOf(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func envOr(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

func writeOut(cmd *cobra.Command, app *App, v any) error {
	return format.Write(cmd.OutOrStdout(), v, app.Format, app.PrettyJSON)
}

// reportedError marks an error writeErr already printed.
type reportedError struct{ error }

func (e reportedError) Unwrap() error { return e.error }

func writeErr(cmd *cobra.Command, err error) error {
	fmt.Fprintln(cmd.ErrOrStderr(), err.Error())
	return reportedError{err}
}

// Reported reports whether err was already printed by a command. Errors from
// cobra itself (bad flags, wrong arg counts) are not.
func Reported(err error) bool {
	var r reportedError
	return errors.As(err, &r)
}
