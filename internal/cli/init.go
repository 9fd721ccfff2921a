package cli

import (
	"errors"
	"os"
	"path/filepath"

	"pulse-cli/internal/store"

	"github.com/spf13/cobra"
)

func newInitCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a default config.json and create the data directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := store.ConfigPath()
			if err != nil {
				return writeErr(cmd, err)
			}
			created := false
			if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
				cfg, err := store.LoadConfig()
				if err != nil {
					return writeErr(cmd, err)
				}
				if err := store.SaveConfig(cfg); err != nil {
					return writeErr(cmd, err)
				}
				created = true
			}

			cfg, err := app.config()
			if err != nil {
				return writeErr(cmd, err)
			}
			if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
				return writeErr(cmd, err)
			}
			if _, err := app.open(ctxOf(cmd)); err != nil {
				return writeErr(cmd, err)
			}

			return writeOut(cmd, app, map[string]any{
				"data": map[string]any{
					"config":        path,
					"configCreated": created,
					"dataDir":       cfg.DataDir,
					"backend":       cfg.Backend,
					"available":     app.kv.Available(ctxOf(cmd)),
					"backupsDir":    filepath.Join(cfg.DataDir, "backups"),
				},
				"_hints": []string{
					`pulse add "<title>" --date YYYY-MM-DD`,
					"pulse",
				},
			})
		},
	}
	return cmd
}
