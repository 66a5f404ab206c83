package transport

import (
	"encoding/json"
	"testing"
)

func TestDecodeTeacherTextFinalWithBoardActions(t *testing.T) {
	frame := `{
		"type": "TEACHER_TEXT_FINAL",
		"text": "Evaporation starts the cycle.",
		"board_actions": [
			{"kind": "WRITE_TITLE", "payload": {"text": "The Water Cycle"}},
			{"kind": "SHOW_QUIZ", "payload": {"questions": []}}
		]
	}`

	msg, err := Decode([]byte(frame))
	if err != nil {
		t.Fatalf("expected frame to decode, got %v", err)
	}

	final, ok := msg.(*TeacherTextFinal)
	if !ok {
		t.Fatalf("expected *TeacherTextFinal, got %T", msg)
	}
	if final.Text != "Evaporation starts the cycle." {
		t.Fatalf("unexpected text %q", final.Text)
	}
	if len(final.BoardActions) != 2 || final.BoardActions[0].Kind != "WRITE_TITLE" {
		t.Fatalf("unexpected board actions %+v", final.BoardActions)
	}
}

func TestDecodeCheckpointCarriesNumericStepID(t *testing.T) {
	msg, err := Decode([]byte(`{"type":"CHECKPOINT","step_id":4,"short_summary":"covered condensation"}`))
	if err != nil {
		t.Fatalf("expected frame to decode, got %v", err)
	}

	checkpoint, ok := msg.(*Checkpoint)
	if !ok {
		t.Fatalf("expected *Checkpoint, got %T", msg)
	}
	if checkpoint.StepID != 4 || checkpoint.ShortSummary != "covered condensation" {
		t.Fatalf("unexpected checkpoint %+v", checkpoint)
	}
}

func TestDecodeRejectsUnknownType(t *testing.T) {
	if _, err := Decode([]byte(`{"type":"MYSTERY"}`)); err == nil {
		t.Fatal("expected unknown frame types to be rejected")
	}
	if _, err := Decode([]byte(`not json`)); err == nil {
		t.Fatal("expected malformed frames to be rejected")
	}
}

func TestOutboundMessagesCarryTheirWireType(t *testing.T) {
	payload, err := json.Marshal(NewUserMessage("s-1", "why is the sky blue", true))
	if err != nil {
		t.Fatalf("failed to marshal user message: %v", err)
	}

	var decoded map[string]any
	if err := json.Unmarshal(payload, &decoded); err != nil {
		t.Fatalf("failed to unmarshal user message: %v", err)
	}
	if decoded["type"] != "USER_MESSAGE" {
		t.Fatalf("expected type USER_MESSAGE, got %v", decoded["type"])
	}
	if decoded["is_interruption"] != true {
		t.Fatalf("expected interruption flag preserved, got %v", decoded["is_interruption"])
	}

	toggle, err := json.Marshal(NewToggleVoice("s-1", false))
	if err != nil {
		t.Fatalf("failed to marshal voice toggle: %v", err)
	}
	if err := json.Unmarshal(toggle, &decoded); err != nil {
		t.Fatalf("failed to unmarshal voice toggle: %v", err)
	}
	if decoded["action"] != "stop" {
		t.Fatalf("expected stop action, got %v", decoded["action"])
	}
}
