package goldmark

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/fwojciec/drip"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	extast "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"
)

var parser = goldmark.New(goldmark.WithExtensions(extension.Strikethrough)).Parser()

type styles struct {
	bold      lipgloss.Style
	italic    lipgloss.Style
	strike    lipgloss.Style
	accent    lipgloss.Style
	muted     lipgloss.Style
	underline lipgloss.Style
}

func newStyles(theme drip.Theme) styles {
	return styles{
		bold:      lipgloss.NewStyle().Bold(true),
		italic:    lipgloss.NewStyle().Italic(true),
		strike:    lipgloss.NewStyle().Strikethrough(true),
		accent:    lipgloss.NewStyle().Foreground(ansiColor(theme.Accent)).Bold(true),
		muted:     lipgloss.NewStyle().Foreground(ansiColor(theme.Muted)).Faint(true),
		underline: lipgloss.NewStyle().Underline(true),
	}
}

func ansiColor(index int) lipgloss.TerminalColor {
	if index < 0 {
		return lipgloss.NoColor{}
	}
	return lipgloss.Color(strconv.Itoa(index))
}

func (s styles) render(source []byte, width int) string {
	doc := parser.Parse(text.NewReader(source))
	var b strings.Builder
	s.blocks(doc, source, width, &b)
	return strings.TrimRight(b.String(), "\n")
}

func (s styles) blocks(node ast.Node, source []byte, width int, b *strings.Builder) {
	for c := node.FirstChild(); c != nil; c = c.NextSibling() {
		s.block(c, source, width, b)
	}
}

// separate writes the blank line between n and the block after it.
func separate(n ast.Node, b *strings.Builder) {
	if n.NextSibling() != nil {
		b.WriteString("\n")
	}
}

func (s styles) block(node ast.Node, source []byte, width int, b *strings.Builder) {
	switch n := node.(type) {
	case *ast.Paragraph:
		b.WriteString(lipgloss.NewStyle().Width(width).Render(s.inline(n, source)))
		b.WriteString("\n")
		separate(n, b)

	case *ast.Heading:
		b.WriteString(lipgloss.NewStyle().Width(width).Render(s.accent.Render(s.inline(n, source))))
		b.WriteString("\n")
		separate(n, b)

	case *ast.FencedCodeBlock:
		if lang := string(n.Language(source)); lang != "" {
			b.WriteString(s.muted.Render(lang))
			b.WriteString("\n")
		}
		s.codeLines(n, source, b)
		separate(n, b)

	case *ast.CodeBlock:
		s.codeLines(n, source, b)
		separate(n, b)

	case *ast.List:
		s.list(n, source, width, b, 0)
		separate(n, b)

	case *ast.Blockquote:
		var inner strings.Builder
		s.blocks(n, source, max(width-2, 10), &inner)
		bar := s.muted.Render("▌") + " "
		for _, line := range strings.Split(strings.TrimRight(inner.String(), "\n"), "\n") {
			b.WriteString(bar + line + "\n")
		}
		separate(n, b)

	case *ast.ThematicBreak:
		b.WriteString(s.muted.Render(strings.Repeat("─", min(width, 40))))
		b.WriteString("\n")
		separate(n, b)

	case *ast.HTMLBlock:
		lines := n.Lines()
		for i := range lines.Len() {
			seg := lines.At(i)
			b.Write(seg.Value(source))
		}

	default:
		s.blocks(node, source, width, b)
	}
}

// codeLines writes the lines of a code block verbatim behind a gutter.
func (s styles) codeLines(n ast.Node, source []byte, b *strings.Builder) {
	gutter := s.muted.Render("│") + " "
	lines := n.Lines()
	for i := range lines.Len() {
		seg := lines.At(i)
		b.WriteString(gutter)
		b.WriteString(strings.TrimRight(string(seg.Value(source)), "\n"))
		b.WriteString("\n")
	}
}

func (s styles) list(node *ast.List, source []byte, width int, b *strings.Builder, depth int) {
	indent := strings.Repeat("  ", depth)
	num := node.Start
	for c := node.FirstChild(); c != nil; c = c.NextSibling() {
		item, ok := c.(*ast.ListItem)
		if !ok {
			continue
		}
		marker := "- "
		if node.IsOrdered() {
			marker = fmt.Sprintf("%d. ", num)
			num++
		}

		var content strings.Builder
		for ic := item.FirstChild(); ic != nil; ic = ic.NextSibling() {
			switch in := ic.(type) {
			case *ast.Paragraph, *ast.TextBlock:
				content.WriteString(s.inline(in, source))
			case *ast.List:
				if content.Len() > 0 {
					s.listItem(b, indent+marker, content.String(), width)
					content.Reset()
				}
				s.list(in, source, width, b, depth+1)
				marker = strings.Repeat(" ", len(marker))
			default:
				s.block(ic, source, width, &content)
			}
		}
		if content.Len() > 0 {
			s.listItem(b, indent+marker, content.String(), width)
		}
	}
}

// listItem writes content after prefix, indenting continuation lines to
// line up with the first.
func (s styles) listItem(b *strings.Builder, prefix, content string, width int) {
	wrapped := lipgloss.NewStyle().Width(max(width-len(prefix), 10)).Render(content)
	pad := strings.Repeat(" ", len(prefix))
	for i, line := range strings.Split(wrapped, "\n") {
		if i == 0 {
			b.WriteString(prefix)
		} else {
			b.WriteString(pad)
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
}

func (s styles) inline(node ast.Node, source []byte) string {
	var b strings.Builder
	for c := node.FirstChild(); c != nil; c = c.NextSibling() {
		s.span(c, source, &b)
	}
	return b.String()
}

func (s styles) span(node ast.Node, source []byte, b *strings.Builder) {
	switch n := node.(type) {
	case *ast.Text:
		b.Write(n.Segment.Value(source))
		switch {
		case n.HardLineBreak():
			b.WriteByte('\n')
		case n.SoftLineBreak():
			b.WriteByte(' ')
		}

	case *ast.String:
		b.Write(n.Value)

	case *ast.Emphasis:
		// ***x*** parses as nested emphasis, so levels above 2 do not occur.
		if n.Level == 1 {
			b.WriteString(s.italic.Render(s.inline(n, source)))
		} else {
			b.WriteString(s.bold.Render(s.inline(n, source)))
		}

	case *extast.Strikethrough:
		b.WriteString(s.strike.Render(s.inline(n, source)))

	case *ast.CodeSpan:
		b.WriteString(s.bold.Render(s.inline(n, source)))

	case *ast.Link:
		b.WriteString(s.underline.Render(s.inline(n, source)))
		b.WriteString(" ")
		b.WriteString(s.muted.Render("(" + string(n.Destination) + ")"))

	case *ast.AutoLink:
		b.WriteString(s.underline.Render(string(n.URL(source))))

	case *ast.Image:
		b.WriteString(s.underline.Render(s.inline(n, source)))
		b.WriteString(" ")
		b.WriteString(s.muted.Render("(" + string(n.Destination) + ")"))

	case *ast.RawHTML:
		for i := range n.Segments.Len() {
			seg := n.Segments.At(i)
			b.Write(seg.Value(source))
		}

	default:
		for c := node.FirstChild(); c != nil; c = c.NextSibling() {
			s.span(c, source, b)
		}
	}
}
