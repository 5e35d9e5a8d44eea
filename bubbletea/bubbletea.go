// Package bubbletea provides a Bubble Tea chat UI that streams replies into
// a drip.Conversation.
package bubbletea

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/fwojciec/drip"
)

// TurnFunc runs one turn on conv. onUpdate is called for every observer
// update. The function blocks until the turn finishes or ctx is cancelled.
type TurnFunc func(ctx context.Context, conv *drip.Conversation, onUpdate func(drip.Update)) error

// Run creates and runs the Bubble Tea program. It blocks until the program
// exits. When ctx is cancelled the program quits and a running turn is
// cancelled with it.
func Run(ctx context.Context, m Model) error {
	p := tea.NewProgram(m.WithContext(ctx), tea.WithAltScreen())
	go func() {
		<-ctx.Done()
		p.Quit()
	}()
	_, err := p.Run()
	return err
}

// UpdateMsg carries one turn update to the model. Its conversation is a
// private copy.
type UpdateMsg struct {
	Update drip.Update
}

// TurnDoneMsg signals that the running turn has returned.
type TurnDoneMsg struct {
	Err error
}
