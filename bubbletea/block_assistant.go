package bubbletea

import (
	"strings"

	"github.com/fwojciec/drip"
	"github.com/fwojciec/drip/goldmark"
)

var _ MessageBlock = (*AssistantTextBlock)(nil)

// AssistantTextBlock renders a streamed reply with markdown formatting.
// Finalized paragraphs (up to the last blank line outside a code fence) are
// rendered once per width and cached; only the trailing text is re-rendered
// as the reply grows.
type AssistantTextBlock struct {
	text     string
	theme    drip.Theme
	trailing *goldmark.Renderer

	finalizedRaw     string
	finalizedByWidth map[int]string
}

// NewAssistantTextBlock creates an empty block.
func NewAssistantTextBlock(theme drip.Theme) *AssistantTextBlock {
	return &AssistantTextBlock{
		theme:            theme,
		trailing:         goldmark.NewRenderer(theme),
		finalizedByWidth: make(map[int]string),
	}
}

// Text returns the current reply text.
func (b *AssistantTextBlock) Text() string { return b.text }

// SetText replaces the reply text. Growth of the same reply keeps the
// cached finalized prefix; any other change drops it.
func (b *AssistantTextBlock) SetText(text string) {
	if text == b.text {
		return
	}
	if !strings.HasPrefix(text, b.finalizedRaw+"\n\n") {
		b.finalizedRaw = ""
		clear(b.finalizedByWidth)
	}
	b.text = text
	b.promoteFinalized()
}

func (b *AssistantTextBlock) View(width int) string {
	finalized := b.renderFinalized(width)
	trailing := b.trailingRaw()
	if trailing == "" {
		return finalized
	}
	rendered := b.trailing.Render(trailing, width)
	if strings.TrimSpace(rendered) == "" {
		return finalized
	}
	if finalized == "" {
		return rendered
	}
	// Fragments render independently; rebuild the paragraph break between
	// them with exactly one blank line.
	return strings.TrimRight(finalized, "\n") + "\n\n" + strings.TrimLeft(rendered, "\n")
}

// promoteFinalized moves the finalized boundary to the last "\n\n" whose
// prefix has every code fence closed.
func (b *AssistantTextBlock) promoteFinalized() {
	raw := b.text
	for end := len(raw); ; {
		idx := strings.LastIndex(raw[:end], "\n\n")
		if idx <= 0 {
			return
		}
		candidate := raw[:idx]
		if !hasUnclosedFence(candidate) {
			if candidate != b.finalizedRaw {
				b.finalizedRaw = candidate
				clear(b.finalizedByWidth)
			}
			return
		}
		end = idx
	}
}

func (b *AssistantTextBlock) renderFinalized(width int) string {
	if width <= 0 || b.finalizedRaw == "" {
		return ""
	}
	if cached, ok := b.finalizedByWidth[width]; ok {
		return cached
	}
	rendered := goldmark.Render(b.finalizedRaw, width, b.theme)
	b.finalizedByWidth[width] = rendered
	return rendered
}

func (b *AssistantTextBlock) trailingRaw() string {
	if b.finalizedRaw == "" {
		return b.text
	}
	return strings.TrimPrefix(b.text, b.finalizedRaw+"\n\n")
}

// hasUnclosedFence reports an odd number of "```" in s. Triple backticks
// inside inline code spans are miscounted.
func hasUnclosedFence(s string) bool {
	return strings.Count(s, "```")%2 == 1
}
