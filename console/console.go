// Package console prints a streaming reply to a terminal or pipe.
package console

import (
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/fwojciec/drip"
)

// Interface compliance check.
var _ drip.Observer = (*Printer)(nil)

// Printer is a drip.Observer that writes the assistant reply as it grows.
// Each update prints only the text appended since the previous one.
type Printer struct {
	w       io.Writer
	errc    *color.Color
	turnID  string
	printed int // bytes of the reply already written for turnID
}

// Option configures a Printer.
type Option func(*Printer)

// WithColor forces colored error output on or off. By default color is
// decided by fatih/color from the terminal and NO_COLOR.
func WithColor(enabled bool) Option {
	return func(p *Printer) {
		if enabled {
			p.errc.EnableColor()
		} else {
			p.errc.DisableColor()
		}
	}
}

// NewPrinter returns a Printer writing to w.
func NewPrinter(w io.Writer, opts ...Option) *Printer {
	p := &Printer{w: w, errc: color.New(color.FgRed)}
	for _, o := range opts {
		o(p)
	}
	return p
}

// Observe prints the new part of the reply. A completed turn ends the line;
// a failed one prints the classified error on its own line.
func (p *Printer) Observe(u drip.Update) {
	if u.TurnID != p.turnID {
		p.turnID = u.TurnID
		p.printed = 0
	}

	if u.State == drip.TurnErrored {
		if p.printed > 0 {
			fmt.Fprintln(p.w)
		}
		p.printed = 0
		if u.Err != nil {
			p.errc.Fprintf(p.w, "error: %s: %s\n", u.Err.Kind, u.Err.Message)
		}
		return
	}

	if last, ok := u.Conversation.Last(); ok && last.Role == drip.RoleAssistant && len(last.Content) > p.printed {
		io.WriteString(p.w, last.Content[p.printed:])
		p.printed = len(last.Content)
	}
	if u.State == drip.TurnCompleted {
		fmt.Fprintln(p.w)
	}
}
