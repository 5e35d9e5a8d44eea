package drip

// Update is delivered to an Observer after every accepted delta and once
// more when the turn completes or fails.
//
// Conversation is a live view of the conversation being built. It is only
// valid for the duration of the callback; observers that retain it or pass
// it to another goroutine must Clone it first.
type Update struct {
	TurnID       string
	Conversation Conversation
	State        TurnState
	Err          *Error // set when State is TurnErrored
}

// Observer receives conversation updates for a single turn. Calls are
// synchronous and strictly ordered.
type Observer interface {
	Observe(Update)
}

// ObserverFunc adapts a function to the Observer interface.
type ObserverFunc func(Update)

// Observe calls f(u).
func (f ObserverFunc) Observe(u Update) { f(u) }
