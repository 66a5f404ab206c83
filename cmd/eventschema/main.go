// eventschema prints JSON schemas for the tutoring wire protocol,
// one per frame kind, keyed the way the frames are tagged on the
// wire. Useful for keeping non-Go clients and server fixtures in
// step with the protocol.
//
// Usage:
//
//	eventschema            # all frames, inbound and outbound
//	eventschema -dir in    # inbound (server -> client) only
//	eventschema -dir out   # outbound (client -> server) only
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/invopop/jsonschema"

	"github.com/calehall/tutor-core/core/transport"
)

var inboundFrames = map[string]any{
	string(transport.KindStatus):             transport.Status{},
	string(transport.KindTeacherTextDelta):   transport.TeacherTextDelta{},
	string(transport.KindTeacherTextFinal):   transport.TeacherTextFinal{},
	string(transport.KindBoardAction):        transport.BoardAction{},
	string(transport.KindHistory):            transport.History{},
	string(transport.KindVoiceTranscription): transport.VoiceTranscription{},
	string(transport.KindCheckpoint):         transport.Checkpoint{},
	string(transport.KindError):              transport.Error{},
}

var outboundFrames = map[string]any{
	"USER_MESSAGE":         transport.UserMessage{},
	"INTERRUPT":            transport.Interrupt{},
	"RESUME":               transport.Resume{},
	"CHANGE_DIFFICULTY":    transport.ChangeDifficulty{},
	"TOGGLE_VOICE":         transport.ToggleVoice{},
	"REQUEST_QUIZ":         transport.RequestQuiz{},
	"REQUEST_FLASHCARDS":   transport.RequestFlashcards{},
	"RESTORE_BOARD_ACTION": transport.RestoreBoardAction{},
}

func main() {
	direction := flag.String("dir", "both", "which frames to emit: in, out, or both")
	flag.Parse()

	frames := map[string]any{}
	switch *direction {
	case "in":
		frames = inboundFrames
	case "out":
		frames = outboundFrames
	case "both":
		for kind, frame := range inboundFrames {
			frames[kind] = frame
		}
		for kind, frame := range outboundFrames {
			frames[kind] = frame
		}
	default:
		fmt.Fprintf(os.Stderr, "unknown direction %q\n", *direction)
		os.Exit(1)
	}

	reflector := jsonschema.Reflector{DoNotReference: true}
	schemas := map[string]*jsonschema.Schema{}
	for kind, frame := range frames {
		schemas[kind] = reflector.Reflect(frame)
	}

	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(schemas); err != nil {
		fmt.Fprintf(os.Stderr, "failed to encode schemas: %v\n", err)
		os.Exit(1)
	}
}
