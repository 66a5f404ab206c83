package events

const (
	// KindTurnStateChanged identifies a local turn state transition.
	KindTurnStateChanged Kind = "turn.state_changed"
	// KindUserMessageSent identifies submission of an outbound user message.
	KindUserMessageSent Kind = "turn.user_message_sent"
)

// TurnStateChanged marks a local turn state transition.
type TurnStateChanged struct {
	Base
	State string
}

// NewTurnStateChanged creates a turn state changed event.
func NewTurnStateChanged(state string) TurnStateChanged {
	return TurnStateChanged{Base: NewBase(KindTurnStateChanged), State: state}
}

// UserMessageSent marks submission of an outbound user message.
type UserMessageSent struct {
	Base
	Text           string
	IsInterruption bool
}

// NewUserMessageSent creates a user message sent event.
func NewUserMessageSent(text string, isInterruption bool) UserMessageSent {
	return UserMessageSent{Base: NewBase(KindUserMessageSent), Text: text, IsInterruption: isInterruption}
}
