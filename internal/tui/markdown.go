package tui

import (
	"strings"
	"sync"

	"github.com/charmbracelet/glamour"
)

type glamourKey struct {
	dark  bool
	width int
}

// glamourRenderers caches one renderer per style and wrap width. Styles are
// fixed rather than auto-detected so rendering never queries the terminal.
var glamourRenderers sync.Map

func glamourFor(width int, dark bool) (*glamour.TermRenderer, error) {
	k := glamourKey{dark: dark, width: width}
	if r, ok := glamourRenderers.Load(k); ok {
		return r.(*glamour.TermRenderer), nil
	}
	style := "light"
	if dark {
		style = "dark"
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(style),
		glamour.WithWordWrap(width),
		glamour.WithEmoji(),
	)
	if err != nil {
		return nil, err
	}
	actual, _ := glamourRenderers.LoadOrStore(k, r)
	return actual.(*glamour.TermRenderer), nil
}

// RenderMarkdown renders a docs page for the help overlay and `pulse docs
// --render`. The raw markdown comes back if rendering fails.
func RenderMarkdown(md string, width int, dark bool) string {
	md = strings.TrimSpace(md)
	if md == "" {
		return ""
	}
	r, err := glamourFor(max(width, 10), dark)
	if err != nil {
		return md
	}
	out, err := r.Render(md)
	if err != nil {
		return md
	}
	return strings.TrimRight(out, "\n")
}
