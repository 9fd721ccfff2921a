package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"pulse-cli/internal/calendar"
	"pulse-cli/internal/cli"
)

func isMonthArg(s string) bool {
	s = strings.TrimSpace(s)
	if len(s) != len("2006-01") {
		return false
	}
	_, err := calendar.ParseCursor(s)
	return err == nil
}

// rewriteMonthShortcutArgs turns `pulse 2024-03` into
// `pulse calendar --render --month 2024-03`. Cobra treats the first
// positional token as a subcommand, so argv is rewritten before parsing.
// Persistent flags may come first (`pulse --dir x 2024-03`).
func rewriteMonthShortcutArgs(argv []string) []string {
	if len(argv) < 2 {
		return argv
	}

	// Unknown flags are skipped without consuming a value so the month is
	// never swallowed.
	valueFlags := map[string]bool{
		"--dir":     true,
		"--backend": true,
		"--format":  true,
	}
	boolFlags := map[string]bool{
		"--pretty": true,
	}

	rewrite := func(i int) []string {
		out := make([]string, 0, len(argv)+3)
		out = append(out, argv[:i]...)
		out = append(out, "calendar", "--render", "--month")
		out = append(out, argv[i:]...)
		return out
	}

	for i := 1; i < len(argv); i++ {
		a := strings.TrimSpace(argv[i])
		if a == "" {
			continue
		}
		if a == "--" {
			if i+1 < len(argv) && isMonthArg(argv[i+1]) {
				out := make([]string, 0, len(argv)+3)
				out = append(out, argv[:i]...)
				out = append(out, "calendar", "--render", "--month")
				out = append(out, argv[i+1:]...)
				return out
			}
			return argv
		}

		if strings.HasPrefix(a, "-") {
			if strings.Contains(a, "=") || boolFlags[a] {
				continue
			}
			if valueFlags[a] {
				i++
			}
			continue
		}

		if isMonthArg(a) {
			return rewrite(i)
		}
		return argv
	}

	return argv
}

func main() {
	os.Args = rewriteMonthShortcutArgs(os.Args)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd := cli.NewRootCmd()
	if err := cmd.ExecuteContext(ctx); err != nil {
		if !cli.Reported(err) {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		stop()
		os.Exit(1)
	}
}
