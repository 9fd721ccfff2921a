package web

import (
	"bytes"
	"html/template"
	"strings"
	"sync"

	"pulse-cli/internal/docs"
	appLog "pulse-cli/internal/log"

	"github.com/yuin/goldmark"
	emoji "github.com/yuin/goldmark-emoji"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer/html"
)

// helpMarkdown renders the embedded docs pages. Headings get ids so a page
// can be linked to a section; raw HTML in a page is escaped.
var helpMarkdown = goldmark.New(
	goldmark.WithExtensions(extension.GFM, extension.Typographer, emoji.Emoji),
	goldmark.WithParserOptions(parser.WithAutoHeadingID()),
	goldmark.WithRendererOptions(html.WithHardWraps()),
)

var (
	helpPagesMu sync.Mutex
	helpPages   = map[string]template.HTML{}
)

// helpPage returns the rendered docs topic. Pages are embedded, so each one
// is converted once per process.
func helpPage(topic string) (template.HTML, bool) {
	helpPagesMu.Lock()
	defer helpPagesMu.Unlock()
	if page, ok := helpPages[topic]; ok {
		return page, true
	}
	md, ok := docs.Get(topic)
	if !ok {
		return "", false
	}
	page := markdownToHTML(md)
	helpPages[topic] = page
	return page, true
}

func markdownToHTML(src string) template.HTML {
	src = strings.TrimSpace(src)
	if src == "" {
		return ""
	}
	var b bytes.Buffer
	if err := helpMarkdown.Convert([]byte(src), &b); err != nil {
		appLog.Error("web: render markdown", err)
		return template.HTML("<pre>" + template.HTMLEscapeString(src) + "</pre>")
	}
	return template.HTML(b.String())
}
