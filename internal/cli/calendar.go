package cli

import (
	"fmt"
	"strings"

	"pulse-cli/internal/calendar"
	"pulse-cli/internal/tui"

	"github.com/spf13/cobra"
)

func newCalendarCmd(app *App) *cobra.Command {
	var month string
	var render bool
	var width int
	var compact bool

	cmd := &cobra.Command{
		Use:     "calendar",
		Aliases: []string{"cal"},
		Short:   "Show the month grid",
		Example: strings.TrimSpace(`
pulse calendar --month 2024-03
pulse calendar --render
`),
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sh, err := app.open(ctxOf(cmd))
			if err != nil {
				return writeErr(cmd, err)
			}
			if m := strings.TrimSpace(month); m != "" {
				c, err := calendar.ParseCursor(m)
				if err != nil {
					return writeErr(cmd, err)
				}
				sh.SetMonth(c)
			}
			grid := sh.Calendar(ctxOf(cmd))

			if render {
				out := tui.RenderMonth(grid, tui.GridOptions{Width: width, Compact: compact})
				_, err := fmt.Fprintln(cmd.OutOrStdout(), out)
				return err
			}
			c := sh.State().Cursor
			return writeOut(cmd, app, map[string]any{
				"data": grid,
				"meta": map[string]any{"month": c.String(), "prev": c.Prev().String(), "next": c.Next().String()},
			})
		},
	}

	cmd.Flags().StringVar(&month, "month", "", "Month to show (YYYY-MM); default this month")
	cmd.Flags().BoolVar(&render, "render", false, "Draw the grid instead of printing JSON")
	cmd.Flags().IntVar(&width, "width", 84, "Grid width in columns for --render")
	cmd.Flags().BoolVar(&compact, "compact", false, "Day numbers only for --render")
	return cmd
}
