// Package deepgram streams captured voice audio to Deepgram's
// realtime transcription API. It serves as the local fallback when
// the tutoring server does not transcribe the voice window itself.
package deepgram

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

type TranscriptionClient struct {
	conn   *websocket.Conn
	connMu sync.Mutex

	lastMsgTs             time.Time
	accumulatedTranscript string
	unendedSegment        bool
}

func NewTranscriptionClient() *TranscriptionClient {
	return &TranscriptionClient{lastMsgTs: time.Now()}
}
