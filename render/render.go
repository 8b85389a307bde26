// Package render turns model output (Markdown) into sanitized HTML for the
// web form and styled text for the terminal.
package render

import (
	"bytes"
	"html/template"
	"sync"

	"github.com/charmbracelet/glamour"
	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

var (
	md = goldmark.New(
		goldmark.WithExtensions(extension.GFM),
	)
	policy = bluemonday.UGCPolicy()

	termOnce     sync.Once
	termRenderer *glamour.TermRenderer
	termErr      error
)

// HTML converts Markdown to HTML with unsafe markup stripped.
func HTML(markdown string) (template.HTML, error) {
	var buf bytes.Buffer
	if err := md.Convert([]byte(markdown), &buf); err != nil {
		return "", err
	}
	return template.HTML(policy.SanitizeBytes(buf.Bytes())), nil
}

// Terminal renders Markdown for a terminal, falling back to the plain text
// when no renderer is available.
func Terminal(markdown string) string {
	termOnce.Do(func() {
		termRenderer, termErr = glamour.NewTermRenderer(
			glamour.WithAutoStyle(),
			glamour.WithWordWrap(100),
		)
	})
	if termErr != nil {
		return markdown
	}

	out, err := termRenderer.Render(markdown)
	if err != nil {
		return markdown
	}
	return out
}
