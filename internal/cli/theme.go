package cli

import (
	"pulse-cli/internal/theme"

	"github.com/spf13/cobra"
)

func newThemeCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "theme",
		Short: "Show or change the light/dark preference",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return writeTheme(cmd, app, false)
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "toggle",
		Short: "Flip light/dark and remember the choice",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sh, err := app.open(ctxOf(cmd))
			if err != nil {
				return writeErr(cmd, err)
			}
			sh.ToggleTheme(ctxOf(cmd))
			return writeTheme(cmd, app, true)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:       "set <light|dark|system>",
		Short:     "Choose a theme; system forgets the choice and follows the OS",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"light", "dark", "system"},
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := theme.ParsePreference(args[0])
			if err != nil {
				return writeErr(cmd, err)
			}
			sh, err := app.open(ctxOf(cmd))
			if err != nil {
				return writeErr(cmd, err)
			}
			sh.SetTheme(ctxOf(cmd), p)
			return writeTheme(cmd, app, true)
		},
	})

	return cmd
}

func writeTheme(cmd *cobra.Command, app *App, changed bool) error {
	sh, err := app.open(ctxOf(cmd))
	if err != nil {
		return writeErr(cmd, err)
	}
	dark := sh.State().Dark
	name := "light"
	if dark {
		name = "dark"
	}
	return writeOut(cmd, app, map[string]any{
		"data": map[string]any{
			"theme":      name,
			"dark":       dark,
			"preference": sh.ThemePreference().String(),
			"persisted":  app.kv.Available(ctxOf(cmd)),
			"changed":    changed,
		},
	})
}
