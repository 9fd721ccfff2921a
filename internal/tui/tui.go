package tui

import (
	"context"
	"os"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"pulse-cli/internal/app"
	appLog "pulse-cli/internal/log"
)

type Options struct {
	Shell *app.Shell
	// FilterDelay debounces the upcoming filter box.
	FilterDelay time.Duration
	// LogDir receives pulse.log while the alternate screen owns stderr.
	LogDir string
}

func Run(ctx context.Context, opts Options) error {
	applyColorProfilePreference()
	applyDark(opts.Shell.State().Dark)

	if opts.LogDir != "" {
		if err := os.MkdirAll(opts.LogDir, 0o755); err == nil {
			f, err := os.OpenFile(filepath.Join(opts.LogDir, "pulse.log"), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
			if err == nil {
				appLog.SetOutput(f)
				defer func() {
					appLog.SetOutput(os.Stderr)
					_ = f.Close()
				}()
			}
		}
	}

	m := newAppModel(ctx, opts.Shell, opts.FilterDelay)
	defer m.debouncer.Cancel()
	_, err := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx)).Run()
	return err
}
