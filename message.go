package drip

// Message is a single entry in a Conversation.
//
// Messages are treated as immutable, with one exception: while a turn is
// streaming, the Content of the trailing assistant message grows as deltas
// arrive.
type Message struct {
	Role    Role
	Content string
}

// UserMessage returns a Message with RoleUser.
func UserMessage(content string) Message {
	return Message{Role: RoleUser, Content: content}
}

// AssistantMessage returns a Message with RoleAssistant.
func AssistantMessage(content string) Message {
	return Message{Role: RoleAssistant, Content: content}
}

// Conversation is an ordered, chronological sequence of messages.
type Conversation []Message

// Clone returns a copy of c that shares no backing array with it.
// A nil Conversation clones to nil.
func (c Conversation) Clone() Conversation {
	if c == nil {
		return nil
	}
	out := make(Conversation, len(c))
	copy(out, c)
	return out
}

// Last returns the final message and true, or the zero Message and false
// when the conversation is empty.
func (c Conversation) Last() (Message, bool) {
	if len(c) == 0 {
		return Message{}, false
	}
	return c[len(c)-1], true
}
