package cli

import (
	"errors"
	"time"

	"pulse-cli/internal/store"

	"github.com/spf13/cobra"
)

func newBackupCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "backup",
		Short: "Snapshot, list, restore and prune backups",
	}
	cmd.AddCommand(newBackupNowCmd(app))
	cmd.AddCommand(newBackupListCmd(app))
	cmd.AddCommand(newBackupRestoreCmd(app))
	cmd.AddCommand(newBackupPruneCmd(app))
	return cmd
}

func (a *App) backups() (store.Backups, error) {
	cfg, err := a.config()
	if err != nil {
		return store.Backups{}, err
	}
	return store.NewBackups(cfg.DataDir), nil
}

// writeBackup snapshots the store and prunes to the configured count.
func (a *App) writeBackup(cmd *cobra.Command) (string, []string, error) {
	sh, err := a.open(ctxOf(cmd))
	if err != nil {
		return "", nil, err
	}
	b, err := a.backups()
	if err != nil {
		return "", nil, err
	}
	path, err := b.Write(ctxOf(cmd), a.kv, a.events, sh.Now())
	if err != nil {
		return "", nil, err
	}
	removed, err := b.Prune(a.cfg.Backup.Keep)
	return path, removed, err
}

func newBackupNowCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "now",
		Short: "Write a backup of every event and the theme preference",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, removed, err := app.writeBackup(cmd)
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{
				"data":   map[string]any{"path": path, "pruned": removed},
				"_hints": []string{"pulse backup list"},
			})
		},
	}
}

func newBackupListCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List backups, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := app.backups()
			if err != nil {
				return writeErr(cmd, err)
			}
			list, err := b.List()
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{
				"data": list,
				"meta": map[string]any{"dir": b.Dir, "count": len(list)},
			})
		},
	}
}

func newBackupRestoreCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "restore <name|path>",
		Short: "Replace every event (and the theme) with a backup",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := app.open(ctxOf(cmd)); err != nil {
				return writeErr(cmd, err)
			}
			if !app.kv.Available(ctxOf(cmd)) {
				return writeErr(cmd, errors.New("storage unavailable; nothing restored"))
			}
			b, err := app.backups()
			if err != nil {
				return writeErr(cmd, err)
			}
			snap, err := b.Restore(ctxOf(cmd), app.kv, app.events, args[0])
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{
				"data": map[string]any{
					"events":    len(snap.Events),
					"createdAt": snap.CreatedAt.Format(time.RFC3339),
				},
			})
		},
	}
}

func newBackupPruneCmd(app *App) *cobra.Command {
	var keep int

	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Delete all but the newest backups",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := app.backups()
			if err != nil {
				return writeErr(cmd, err)
			}
			if keep <= 0 {
				keep = app.cfg.Backup.Keep
			}
			removed, err := b.Prune(keep)
			if err != nil {
				return writeErr(cmd, err)
			}
			if removed == nil {
				removed = []string{}
			}
			return writeOut(cmd, app, map[string]any{"data": map[string]any{"removed": removed, "keep": keep}})
		},
	}

	cmd.Flags().IntVar(&keep, "keep", 0, "How many to keep (default backup.keep from config)")
	return cmd
}
