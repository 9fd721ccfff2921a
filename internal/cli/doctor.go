package cli

import (
	"encoding/json"
	"errors"
	"strings"

	"pulse-cli/internal/dates"
	"pulse-cli/internal/model"
	"pulse-cli/internal/store"

	"github.com/spf13/cobra"
)

var errDoctorIssuesFound = errors.New("doctor: issues found")

type doctorIssue struct {
	Level   string `json:"level"`
	Message string `json:"message"`
	ID      string `json:"id,omitempty"`
}

type doctorReport struct {
	Backend   string        `json:"backend"`
	DataDir   string        `json:"dataDir"`
	Available bool          `json:"available"`
	Events    int           `json:"events"`
	Issues    []doctorIssue `json:"issues"`
}

func (r doctorReport) hasErrors() bool {
	for _, is := range r.Issues {
		if is.Level == "error" {
			return true
		}
	}
	return false
}

func newDoctorCmd(app *App) *cobra.Command {
	var fail bool

	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check storage and the stored events",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := app.open(ctxOf(cmd)); err != nil {
				return writeErr(cmd, err)
			}
			report := diagnose(cmd, app)
			if err := writeOut(cmd, app, map[string]any{
				"data": report,
				"meta": map[string]any{
					"issues":    len(report.Issues),
					"hasErrors": report.hasErrors(),
				},
				"_hints": []string{"pulse backup now"},
			}); err != nil {
				return err
			}
			if fail && report.hasErrors() {
				return errDoctorIssuesFound
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&fail, "fail", false, "Exit with non-zero status if errors are found")
	return cmd
}

// diagnose re-reads the raw stored value; the event store itself silently
// treats malformed data as empty.
func diagnose(cmd *cobra.Command, app *App) doctorReport {
	ctx := ctxOf(cmd)
	r := doctorReport{
		Backend:   app.cfg.Backend,
		DataDir:   app.cfg.DataDir,
		Available: app.kv.Available(ctx),
		Issues:    []doctorIssue{},
	}
	add := func(level, msg, id string) {
		r.Issues = append(r.Issues, doctorIssue{Level: level, Message: msg, ID: id})
	}
	if !r.Available {
		add("error", "storage unavailable; changes will not persist", "")
		return r
	}

	raw, ok := app.kv.Get(ctx, store.EventsKey)
	if ok && strings.TrimSpace(raw) != "" {
		var evs []model.Event
		if err := json.Unmarshal([]byte(raw), &evs); err != nil {
			add("error", "stored events are not valid JSON; they load as empty: "+err.Error(), "")
		} else {
			r.Events = len(evs)
			seen := map[string]bool{}
			for _, e := range evs {
				if seen[e.ID] {
					add("warn", "duplicate event id", e.ID)
				}
				seen[e.ID] = true
				if _, err := dates.ParseDate(e.Date); err != nil {
					add("warn", "unparseable date; hidden from every view", e.ID)
				}
				if _, _, err := dates.ParseClock(e.Time); err != nil {
					add("warn", "unparseable time; hidden from the upcoming list", e.ID)
				}
			}
		}
	}

	if v, ok := app.kv.Get(ctx, store.ThemeKey); ok && v != "true" && v != "false" {
		add("warn", "unknown theme value "+v+"; treated as system", "")
	}
	return r
}
