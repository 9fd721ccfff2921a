package theme

import (
	"context"
	"os"
	"os/exec"
	"runtime"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/muesli/termenv"
)

// EnvProbe honors PULSE_COLOR_SCHEME=dark|light and otherwise asks fallback.
func EnvProbe(fallback Probe) Probe {
	return func() bool {
		switch strings.ToLower(strings.TrimSpace(os.Getenv("PULSE_COLOR_SCHEME"))) {
		case "dark":
			return true
		case "light":
			return false
		}
		if fallback == nil {
			return false
		}
		return fallback()
	}
}

// TerminalProbe guesses the terminal's background once and caches it.
//
// Order:
// 1) COLORFGBG heuristic ("fg;bg", last segment is bg)
// 2) macOS appearance (Light vs Dark)
// 3) termenv background query
func TerminalProbe() Probe {
	return sync.OnceValue(func() bool {
		if dark, ok := colorFGBGDark(os.Getenv("COLORFGBG")); ok {
			return dark
		}
		if runtime.GOOS == "darwin" {
			if dark, ok := macOSHasDarkAppearance(); ok {
				return dark
			}
		}
		return termenv.HasDarkBackground()
	})
}

// DefaultProbe is EnvProbe over TerminalProbe.
func DefaultProbe() Probe {
	return EnvProbe(TerminalProbe())
}

func colorFGBGDark(v string) (dark bool, ok bool) {
	v = strings.TrimSpace(v)
	if v == "" {
		return false, false
	}
	parts := strings.Split(v, ";")
	bg, err := strconv.Atoi(strings.TrimSpace(parts[len(parts)-1]))
	if err != nil {
		return false, false
	}
	// Low ANSI indexes are the dark colors.
	return bg < 7, true
}

func macOSHasDarkAppearance() (dark bool, ok bool) {
	// `defaults read -g AppleInterfaceStyle` prints "Dark" in dark mode and exits 1
	// in light mode (key missing).
	ctx, cancel := context.WithTimeout(context.Background(), 80*time.Millisecond)
	defer cancel()

	out, err := exec.CommandContext(ctx, "defaults", "read", "-g", "AppleInterfaceStyle").CombinedOutput()
	if ctx.Err() != nil {
		return false, false
	}
	if err == nil {
		return strings.Contains(strings.ToLower(string(out)), "dark"), true
	}
	if ee, ok := err.(*exec.ExitError); ok && ee.ExitCode() == 1 {
		return false, true
	}
	return false, false
}
