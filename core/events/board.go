package events

const (
	// KindBoardActionQueued identifies a render action entering the board sequence.
	KindBoardActionQueued Kind = "board.action_queued"
	// KindBoardActionRevealed identifies the reveal cursor reaching an action.
	KindBoardActionRevealed Kind = "board.action_revealed"
	// KindBoardCleared identifies a board sequence reset.
	KindBoardCleared Kind = "board.cleared"
	// KindRewardUnlocked identifies a one-shot reward notification.
	KindRewardUnlocked Kind = "board.reward_unlocked"
)

// BoardActionQueued marks a render action entering the board sequence.
type BoardActionQueued struct {
	Base
	ActionKind string
}

// NewBoardActionQueued creates a board action queued event.
func NewBoardActionQueued(actionKind string) BoardActionQueued {
	return BoardActionQueued{Base: NewBase(KindBoardActionQueued), ActionKind: actionKind}
}

// BoardActionRevealed marks the reveal cursor reaching an action.
type BoardActionRevealed struct {
	Base
	Index      int
	ActionKind string
}

// NewBoardActionRevealed creates a board action revealed event.
func NewBoardActionRevealed(index int, actionKind string) BoardActionRevealed {
	return BoardActionRevealed{Base: NewBase(KindBoardActionRevealed), Index: index, ActionKind: actionKind}
}

// BoardCleared marks a board sequence reset.
type BoardCleared struct{ Base }

// NewBoardCleared creates a board cleared event.
func NewBoardCleared() BoardCleared {
	return BoardCleared{Base: NewBase(KindBoardCleared)}
}

// RewardUnlocked marks a one-shot reward notification.
type RewardUnlocked struct{ Base }

// NewRewardUnlocked creates a reward unlocked event.
func NewRewardUnlocked() RewardUnlocked {
	return RewardUnlocked{Base: NewBase(KindRewardUnlocked)}
}
