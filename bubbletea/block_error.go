package bubbletea

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/fwojciec/drip"
)

var _ MessageBlock = (*ErrorBlock)(nil)

// ErrorBlock renders the classified failure of the last turn.
type ErrorBlock struct {
	err    *drip.Error
	styles Styles
}

// NewErrorBlock creates an ErrorBlock.
func NewErrorBlock(err *drip.Error, styles Styles) *ErrorBlock {
	return &ErrorBlock{err: err, styles: styles}
}

func (b *ErrorBlock) View(width int) string {
	content := b.styles.Error.Render(errorTitle(b.err.Kind)+": ") + b.err.Message
	return lipgloss.NewStyle().Width(width).Render(content)
}

func errorTitle(k drip.ErrorKind) string {
	switch k {
	case drip.KindRateLimited:
		return "Rate limited"
	case drip.KindQuotaExceeded:
		return "Quota exceeded"
	case drip.KindMalformed:
		return "Malformed response"
	default:
		return "Request failed"
	}
}
