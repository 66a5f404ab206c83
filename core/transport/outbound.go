package transport

// Outbound is any client-originated frame. The concrete types fix
// their own "type" field so callers cannot send a mislabelled frame.
type Outbound interface {
	outbound()
}

type UserMessage struct {
	Type           Kind   `json:"type"`
	SessionID      string `json:"session_id"`
	Text           string `json:"text"`
	IsInterruption bool   `json:"is_interruption"`
}

func NewUserMessage(sessionID, text string, isInterruption bool) UserMessage {
	return UserMessage{
		Type:           "USER_MESSAGE",
		SessionID:      sessionID,
		Text:           text,
		IsInterruption: isInterruption,
	}
}

func (UserMessage) outbound() {}

type Interrupt struct {
	Type      Kind   `json:"type"`
	SessionID string `json:"session_id"`
	Reason    string `json:"reason,omitempty"`
	Text      string `json:"text,omitempty"`
}

func NewInterrupt(sessionID, reason, text string) Interrupt {
	return Interrupt{Type: "INTERRUPT", SessionID: sessionID, Reason: reason, Text: text}
}

func (Interrupt) outbound() {}

type Resume struct {
	Type      Kind   `json:"type"`
	SessionID string `json:"session_id"`
	StepID    int    `json:"step_id,omitempty"`
}

func NewResume(sessionID string, stepID int) Resume {
	return Resume{Type: "RESUME", SessionID: sessionID, StepID: stepID}
}

func (Resume) outbound() {}

type ChangeDifficulty struct {
	Type      Kind   `json:"type"`
	SessionID string `json:"session_id"`
	Level     int    `json:"level"`
}

func NewChangeDifficulty(sessionID string, level int) ChangeDifficulty {
	return ChangeDifficulty{Type: "CHANGE_DIFFICULTY", SessionID: sessionID, Level: level}
}

func (ChangeDifficulty) outbound() {}

type ToggleVoice struct {
	Type      Kind   `json:"type"`
	SessionID string `json:"session_id"`
	Action    string `json:"action"`
}

func NewToggleVoice(sessionID string, start bool) ToggleVoice {
	action := "stop"
	if start {
		action = "start"
	}
	return ToggleVoice{Type: "TOGGLE_VOICE", SessionID: sessionID, Action: action}
}

func (ToggleVoice) outbound() {}

type RequestQuiz struct {
	Type      Kind   `json:"type"`
	SessionID string `json:"session_id"`
}

func NewRequestQuiz(sessionID string) RequestQuiz {
	return RequestQuiz{Type: "REQUEST_QUIZ", SessionID: sessionID}
}

func (RequestQuiz) outbound() {}

type RequestFlashcards struct {
	Type      Kind   `json:"type"`
	SessionID string `json:"session_id"`
}

func NewRequestFlashcards(sessionID string) RequestFlashcards {
	return RequestFlashcards{Type: "REQUEST_FLASHCARDS", SessionID: sessionID}
}

func (RequestFlashcards) outbound() {}

type RestoreBoardAction struct {
	Type      Kind   `json:"type"`
	SessionID string `json:"session_id"`
	Action    Action `json:"action"`
}

func NewRestoreBoardAction(sessionID string, action Action) RestoreBoardAction {
	return RestoreBoardAction{Type: "RESTORE_BOARD_ACTION", SessionID: sessionID, Action: action}
}

func (RestoreBoardAction) outbound() {}
