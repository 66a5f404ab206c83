package transport

import (
	"encoding/json"
	"fmt"
)

// Kind discriminates wire messages. Server frames carry it in the
// top-level "type" field; lifecycle kinds are produced locally and
// never appear on the wire.
type Kind string

const (
	KindStatus             Kind = "STATUS"
	KindTeacherTextDelta   Kind = "TEACHER_TEXT_DELTA"
	KindTeacherTextFinal   Kind = "TEACHER_TEXT_FINAL"
	KindBoardAction        Kind = "BOARD_ACTION"
	KindHistory            Kind = "HISTORY"
	KindVoiceTranscription Kind = "VOICE_TRANSCRIPTION"
	KindCheckpoint         Kind = "CHECKPOINT"
	KindError              Kind = "ERROR"

	// KindAudioClip wraps a binary frame holding a complete WAV
	// narration clip.
	KindAudioClip Kind = "AUDIO_CLIP"

	// Lifecycle kinds, emitted by the transport itself.
	KindConnected       Kind = "CONNECTED"
	KindDisconnected    Kind = "DISCONNECTED"
	KindReconnecting    Kind = "RECONNECTING"
	KindReconnectFailed Kind = "RECONNECT_FAILED"
)

// Message is any inbound frame after decoding.
type Message interface {
	WireKind() Kind
}

// Action is a single board instruction. The payload shape depends on
// the kind and is left to the consumer to interpret.
type Action struct {
	Kind    string          `json:"kind"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// HistoryEntry is one prior conversation turn as replayed by the
// server on reconnect.
type HistoryEntry struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type Status struct {
	Status          string  `json:"status"`
	DifficultyLevel int     `json:"difficulty_level"`
	DifficultyTitle string  `json:"difficulty_title"`
	Progress        float64 `json:"progress"`
	Message         string  `json:"message,omitempty"`
}

func (Status) WireKind() Kind { return KindStatus }

type TeacherTextDelta struct {
	Delta string `json:"delta"`
}

func (TeacherTextDelta) WireKind() Kind { return KindTeacherTextDelta }

type TeacherTextFinal struct {
	Text         string   `json:"text"`
	BoardActions []Action `json:"board_actions"`
}

func (TeacherTextFinal) WireKind() Kind { return KindTeacherTextFinal }

type BoardAction struct {
	Action Action `json:"action"`
}

func (BoardAction) WireKind() Kind { return KindBoardAction }

type History struct {
	History []HistoryEntry `json:"history"`
}

func (History) WireKind() Kind { return KindHistory }

type VoiceTranscription struct {
	Text string `json:"text"`
}

func (VoiceTranscription) WireKind() Kind { return KindVoiceTranscription }

type Checkpoint struct {
	StepID       int    `json:"step_id"`
	ShortSummary string `json:"short_summary"`
}

func (Checkpoint) WireKind() Kind { return KindCheckpoint }

type Error struct {
	ErrorCode string `json:"error_code"`
	Message   string `json:"message"`
}

func (Error) WireKind() Kind { return KindError }

// AudioClip carries a complete narration clip received as a binary
// frame. Audio holds the raw WAV bytes.
type AudioClip struct {
	Audio []byte `json:"-"`
}

func (AudioClip) WireKind() Kind { return KindAudioClip }

type Connected struct {
	SessionID string `json:"-"`
}

func (Connected) WireKind() Kind { return KindConnected }

type Disconnected struct {
	Reason string `json:"-"`
}

func (Disconnected) WireKind() Kind { return KindDisconnected }

type Reconnecting struct {
	Attempt int `json:"-"`
}

func (Reconnecting) WireKind() Kind { return KindReconnecting }

type ReconnectFailed struct{}

func (ReconnectFailed) WireKind() Kind { return KindReconnectFailed }

// Decode parses a text frame into its typed message. Unknown types
// are an error so the caller can log and drop them.
func Decode(data []byte) (Message, error) {
	var head struct {
		Type Kind `json:"type"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return nil, fmt.Errorf("failed to parse frame header: %w", err)
	}

	var msg Message
	switch head.Type {
	case KindStatus:
		msg = &Status{}
	case KindTeacherTextDelta:
		msg = &TeacherTextDelta{}
	case KindTeacherTextFinal:
		msg = &TeacherTextFinal{}
	case KindBoardAction:
		msg = &BoardAction{}
	case KindHistory:
		msg = &History{}
	case KindVoiceTranscription:
		msg = &VoiceTranscription{}
	case KindCheckpoint:
		msg = &Checkpoint{}
	case KindError:
		msg = &Error{}
	default:
		return nil, fmt.Errorf("unknown frame type %q", head.Type)
	}

	if err := json.Unmarshal(data, msg); err != nil {
		return nil, fmt.Errorf("failed to parse %s frame: %w", head.Type, err)
	}
	return msg, nil
}
