package cli

import (
	"bytes"
	"io"
	"os"
	"strings"

	"pulse-cli/internal/agenda"
	"pulse-cli/internal/ics"
	"pulse-cli/internal/model"

	"github.com/spf13/cobra"
)

func newExportCmd(app *App) *cobra.Command {
	var out string
	var upcoming bool

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write events as an iCalendar (.ics) file",
		Example: strings.TrimSpace(`
pulse export > pulse.ics
pulse export --upcoming --out upcoming.ics
`),
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sh, err := app.open(ctxOf(cmd))
			if err != nil {
				return writeErr(cmd, err)
			}
			evs := sh.Events(ctxOf(cmd))
			if upcoming {
				evs = agenda.List(evs, sh.Now(), "")
			}

			if strings.TrimSpace(out) == "" || out == "-" {
				return ics.Export(cmd.OutOrStdout(), evs, sh.Now())
			}
			var buf bytes.Buffer
			if err := ics.Export(&buf, evs, sh.Now()); err != nil {
				return writeErr(cmd, err)
			}
			if err := os.WriteFile(out, buf.Bytes(), 0o644); err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{
				"data": map[string]any{"path": out, "events": len(evs)},
			})
		},
	}

	cmd.Flags().StringVar(&out, "out", "", "Output file (default stdout)")
	cmd.Flags().BoolVar(&upcoming, "upcoming", false, "Only events from today onward")
	return cmd
}

func newImportCmd(app *App) *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "import <file.ics|->",
		Short: "Add the events of an iCalendar file",
		Long: strings.TrimSpace(`
Each VEVENT's SUMMARY and DTSTART become one event. Recurrence rules are
ignored: only the first occurrence is imported. Entries that fail validation
are reported and skipped.
`),
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var r io.Reader
			if args[0] == "-" {
				r = cmd.InOrStdin()
			} else {
				f, err := os.Open(args[0])
				if err != nil {
					return writeErr(cmd, err)
				}
				defer f.Close()
				r = f
			}

			res, err := ics.Import(r)
			if err != nil {
				return writeErr(cmd, err)
			}
			meta := map[string]any{
				"skipped":   res.Skipped,
				"recurring": res.Recurring,
				"dryRun":    dryRun,
			}
			if dryRun {
				return writeOut(cmd, app, map[string]any{"data": res.Inputs, "meta": meta})
			}

			if _, err := app.open(ctxOf(cmd)); err != nil {
				return writeErr(cmd, err)
			}
			added := make([]model.Event, 0, len(res.Inputs))
			var rejected []map[string]any
			for _, in := range res.Inputs {
				ev, err := app.events.Add(ctxOf(cmd), in)
				if err != nil {
					rejected = append(rejected, map[string]any{"title": in.Title, "error": err.Error()})
					continue
				}
				added = append(added, ev)
			}
			meta["added"] = len(added)
			meta["rejected"] = rejected
			return writeOut(cmd, app, map[string]any{"data": added, "meta": meta})
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Parse and print, write nothing")
	return cmd
}
