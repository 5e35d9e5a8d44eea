package bubbletea

import "github.com/fwojciec/drip"

// RenderContent exports renderContent for testing.
func RenderContent(m Model) string {
	return m.renderContent()
}

// StatusLine exports statusLine for testing.
func StatusLine(m Model) string {
	return m.statusLine()
}

// Blocks returns the blocks drawn for the shown conversation.
func Blocks(m Model) []MessageBlock {
	return m.blocks
}

// SetRunning puts the model in a running state with cancel as its cancel
// function.
func SetRunning(m Model, cancel func()) Model {
	m.running = true
	m.state = drip.TurnIdle
	m.cancel = cancel
	return m
}
