package turn

import (
	"errors"
	"strings"

	"github.com/fwojciec/drip"
)

// ErrEmptyDelta is returned by Append for a zero-length delta.
var ErrEmptyDelta = errors.New("turn: empty delta")

// Accumulator folds the deltas of one turn into a single assistant message
// appended to a conversation, and reports every change to an observer.
//
// An Accumulator is owned by the goroutine reading the stream and is not
// safe for concurrent use.
type Accumulator struct {
	conv     *drip.Conversation
	base     int // conversation length before the turn
	idx      int // index of the assistant message, -1 until the first delta
	content  strings.Builder
	state    drip.TurnState
	err      *drip.Error
	turnID   string
	observer drip.Observer
}

// NewAccumulator creates an Accumulator in the idle state for conv. Only
// WithObserver and WithTurnID apply.
func NewAccumulator(conv *drip.Conversation, opts ...RunOption) *Accumulator {
	var cfg runConfig
	for _, opt := range opts {
		opt(&cfg)
	}
	return newAccumulator(conv, cfg)
}

func newAccumulator(conv *drip.Conversation, cfg runConfig) *Accumulator {
	return &Accumulator{
		conv:     conv,
		base:     len(*conv),
		idx:      -1,
		turnID:   cfg.turnID,
		observer: cfg.observer,
	}
}

// Start moves an idle turn to streaming. It is called when the first chunk
// arrives and has no effect in any other state.
func (a *Accumulator) Start() {
	if a.state == drip.TurnIdle {
		a.state = drip.TurnStreaming
	}
}

// Append adds text to the assistant message of this turn, appending the
// message on the first delta, and notifies the observer.
func (a *Accumulator) Append(text string) error {
	if a.state.Terminal() {
		return drip.ErrTurnFinished
	}
	if text == "" {
		return ErrEmptyDelta
	}
	a.Start()
	a.content.WriteString(text)
	if a.idx < 0 {
		*a.conv = append(*a.conv, drip.AssistantMessage(a.content.String()))
		a.idx = len(*a.conv) - 1
	} else {
		(*a.conv)[a.idx].Content = a.content.String()
	}
	a.notify()
	return nil
}

// Complete finalizes the turn with whatever content has accumulated, which
// may be none, and sends the final notification.
func (a *Accumulator) Complete() error {
	if a.state.Terminal() {
		return drip.ErrTurnFinished
	}
	a.state = drip.TurnCompleted
	a.notify()
	return nil
}

// Fail aborts the turn. The assistant message appended during the turn is
// removed, leaving the conversation as it was before the turn, and the
// classified error is returned and sent in the final notification. On a
// turn that already finished Fail only classifies err.
func (a *Accumulator) Fail(err error) *drip.Error {
	classified := drip.Classify(err)
	if a.state.Terminal() {
		return classified
	}
	if len(*a.conv) > a.base {
		clear((*a.conv)[a.base:])
		*a.conv = (*a.conv)[:a.base]
	}
	a.idx = -1
	a.state = drip.TurnErrored
	a.err = classified
	a.notify()
	return classified
}

// State returns the current state of the turn.
func (a *Accumulator) State() drip.TurnState { return a.state }

// Content returns the text accumulated so far.
func (a *Accumulator) Content() string { return a.content.String() }

// Err returns the classified failure of an errored turn.
func (a *Accumulator) Err() *drip.Error { return a.err }

// TurnID returns the identifier attached to notifications.
func (a *Accumulator) TurnID() string { return a.turnID }

func (a *Accumulator) notify() {
	if a.observer == nil {
		return
	}
	a.observer.Observe(drip.Update{
		TurnID:       a.turnID,
		Conversation: *a.conv,
		State:        a.state,
		Err:          a.err,
	})
}
