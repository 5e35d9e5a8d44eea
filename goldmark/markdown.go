// Package goldmark renders assistant replies written in markdown to
// ANSI-styled terminal output, using goldmark for parsing and lipgloss for
// styling.
//
// Replies are re-rendered on every delta while they stream, so the input is
// often an unfinished document: an open code fence renders as a code block
// running to the end, and unclosed emphasis renders as literal text.
package goldmark

import "github.com/fwojciec/drip"

const defaultWidth = 80

// Render parses markdown source and returns ANSI-styled terminal output.
// Paragraphs and list items are word-wrapped to width. Code blocks are
// rendered at full width without reflow.
func Render(source string, width int, theme drip.Theme) string {
	return NewRenderer(theme).Render(source, width)
}

// Renderer renders markdown with a fixed theme. It remembers the last
// result, so rendering an unchanged reply again costs nothing. A Renderer
// is not safe for concurrent use.
type Renderer struct {
	styles styles

	lastSource string
	lastWidth  int
	lastOut    string
}

// NewRenderer creates a Renderer for theme.
func NewRenderer(theme drip.Theme) *Renderer {
	return &Renderer{styles: newStyles(theme)}
}

// Render returns the styled form of source wrapped to width. A width <= 0
// means 80 columns.
func (r *Renderer) Render(source string, width int) string {
	if source == "" {
		return ""
	}
	if width <= 0 {
		width = defaultWidth
	}
	if source == r.lastSource && width == r.lastWidth {
		return r.lastOut
	}
	out := r.styles.render([]byte(source), width)
	r.lastSource, r.lastWidth, r.lastOut = source, width, out
	return out
}
