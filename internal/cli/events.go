package cli

import (
	"errors"
	"strings"

	"pulse-cli/internal/agenda"
	"pulse-cli/internal/dates"
	"pulse-cli/internal/model"

	"github.com/spf13/cobra"
)

func newAddCmd(app *App) *cobra.Command {
	var date string
	var at string

	cmd := &cobra.Command{
		Use:   "add <title>",
		Short: "Add an event",
		Long: strings.TrimSpace(`
Add an event on --date (YYYY-MM-DD, default today). --time (HH:MM) is
optional; without it the event is all-day.
`),
		Example: strings.TrimSpace(`
pulse add "Dentist" --date 2024-03-20 --time 08:30
pulse add "Holiday" --date 2024-12-25
`),
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sh, err := app.open(ctxOf(cmd))
			if err != nil {
				return writeErr(cmd, err)
			}
			if strings.TrimSpace(date) == "" {
				date = dates.FromTime(sh.Now()).String()
			}
			ev, err := sh.Submit(ctxOf(cmd), model.EventInput{
				Title: strings.Join(args, " "),
				Date:  date,
				Time:  at,
			})
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{
				"data": ev,
				"_hints": []string{
					"pulse list",
					"pulse delete " + ev.ID,
				},
			})
		},
	}

	cmd.Flags().StringVar(&date, "date", "", "Date (YYYY-MM-DD); default today")
	cmd.Flags().StringVar(&at, "time", "", "Time (HH:MM); omit for all-day")
	return cmd
}

func newListCmd(app *App) *cobra.Command {
	var filter string
	var all bool

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls", "upcoming"},
		Short:   "List upcoming events (today onward, soonest first)",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sh, err := app.open(ctxOf(cmd))
			if err != nil {
				return writeErr(cmd, err)
			}
			if all {
				evs := sh.Events(ctxOf(cmd))
				return writeOut(cmd, app, map[string]any{
					"data": evs,
					"meta": map[string]any{"count": len(evs), "all": true},
				})
			}
			sh.SetFilter(filter)
			home := sh.Home(ctxOf(cmd))
			rows := make([]listRow, 0, len(home.Events))
			for _, e := range home.Events {
				rows = append(rows, listRow{Event: e, When: agenda.When(e)})
			}
			out := map[string]any{
				"data": rows,
				"meta": map[string]any{"count": len(rows), "filter": home.Filter, "empty": home.Empty},
			}
			if home.Empty {
				out["_hints"] = []string{`pulse add "<title>" --date YYYY-MM-DD`}
			}
			return writeOut(cmd, app, out)
		},
	}

	cmd.Flags().StringVar(&filter, "filter", "", "Case-insensitive title substring")
	cmd.Flags().BoolVar(&all, "all", false, "Every stored event, past included, in stored order")
	return cmd
}

type listRow struct {
	model.Event
	When string `json:"when"`
}

func newShowCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "show <event-id>",
		Short: "Show one event",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sh, err := app.open(ctxOf(cmd))
			if err != nil {
				return writeErr(cmd, err)
			}
			id := strings.TrimSpace(args[0])
			for _, e := range sh.Events(ctxOf(cmd)) {
				if e.ID == id {
					return writeOut(cmd, app, map[string]any{"data": listRow{Event: e, When: agenda.When(e)}})
				}
			}
			return writeErr(cmd, errNotFound("event", id))
		},
	}
}

func newDeleteCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:     "delete <event-id>",
		Aliases: []string{"rm"},
		Short:   "Delete an event",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sh, err := app.open(ctxOf(cmd))
			if err != nil {
				return writeErr(cmd, err)
			}
			id := strings.TrimSpace(args[0])
			if id == "" {
				return writeErr(cmd, errors.New("missing event id"))
			}
			if !sh.Delete(ctxOf(cmd), id) {
				return writeErr(cmd, errNotFound("event", id))
			}
			return writeOut(cmd, app, map[string]any{"data": map[string]any{"id": id, "deleted": true}})
		},
	}
}
