package deepgram

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/calehall/tutor-core/core/audio"
	"github.com/calehall/tutor-core/core/texttospeech"
)

type streamingRequest struct {
	ws *websocket.Conn
	mu sync.Mutex

	textBuffer   []string
	textBufferMu sync.Mutex

	options streamingRequestOptions

	textComplete bool
	cancelled    bool
	closed       bool

	report texttospeech.SpeechEndedReport
}

type streamingRequestOptions struct {
	texttospeech.TextToSpeechOptions
	Voice deepgramVoice
}

func (c *TextToSpeechClient) NewSpeechGenerator(ctx context.Context, opts ...texttospeech.TextToSpeechOption) (texttospeech.SpeechGenerator, error) {
	req := &streamingRequest{
		options: streamingRequestOptions{
			TextToSpeechOptions: texttospeech.TextToSpeechOptions{
				SpeechAudioCallback: func([]byte) {},
				SpeechMarkCallback:  func(string) {},
				SpeechEndedCallback: func(texttospeech.SpeechEndedReport) {},
				ErrorCallback:       func(error) {},
				EncodingInfo:        c.options.EncodingInfo,
			},
		},
	}

	for _, opt := range opts {
		opt(&req.options.TextToSpeechOptions)
	}

	var err error
	if req.ws, err = connectWebsocket(ctx, c.voice, req.options.EncodingInfo); err != nil {
		return nil, fmt.Errorf("failed to open websocket: %w", err)
	}

	go req.processIncomingMessages(ctx)

	return req, nil
}

func connectWebsocket(ctx context.Context, voice deepgramVoice, encodingInfo audio.EncodingInfo) (*websocket.Conn, error) {
	apiKey, ok := os.LookupEnv("DEEPGRAM_API_KEY")
	if !ok {
		return nil, fmt.Errorf("deepgram api key not found")
	}

	urlValues := url.Values{}
	urlValues.Set("encoding", encodingInfo.Encoding.Name())
	urlValues.Set("sample_rate", strconv.Itoa(encodingInfo.SampleRate))
	urlValues.Set("model", string(voice))
	urlValues.Set("container", "none")

	conn, _, err := websocket.DefaultDialer.DialContext(ctx,
		(&url.URL{
			Scheme: "wss",
			Host:   "api.deepgram.com", Path: "/v1/speak",
			RawQuery: urlValues.Encode(),
		}).String(),
		http.Header{"Authorization": {"token " + apiKey}})
	if err != nil {
		return nil, fmt.Errorf("failed to open socket connection to deepgram: %w", err)
	}

	return conn, nil
}

func (r *streamingRequest) processIncomingMessages(_ context.Context) {
	for {
		msgType, msg, err := r.ws.ReadMessage()
		if err != nil {
			if err.Error() != "websocket: close 1000 (normal)" {
				logger.Warn("Websocket read error", "error", err)
			}
			if err := r.Cancel(); err != nil {
				_ = r.Close() // Ignored on purpose
				return
			}
			return
		}

		switch msgType {
		case websocket.BinaryMessage:
			r.options.SpeechAudioCallback(msg)
		case websocket.TextMessage:
			var parsedMsg struct {
				Type string `json:"type"`
			}
			if err := json.Unmarshal(msg, &parsedMsg); err != nil {
				logger.Warn("Failed to unmarshal deepgram message", "error", err)
				continue
			}

			switch parsedMsg.Type {
			case "Flushed":
				func() { // Grouped for defer
					r.textBufferMu.Lock()
					defer r.textBufferMu.Unlock()
					// notify the user we have reached the mark
					if len(r.textBuffer) > 0 {
						r.options.SpeechMarkCallback(r.textBuffer[0])
						r.textBuffer = r.textBuffer[1:]
					}

					// nothing left to process, notify the user of the end
					if len(r.textBuffer) == 0 && r.textComplete {
						r.options.SpeechEndedCallback(r.report)
						_ = r.Close()
						return
					}

					// send the next text if there is any
					if len(r.textBuffer) > 0 {
						if err := r.sendWebsocketMessage(sendTextMsg(r.textBuffer[0])); err != nil {
							logger.Warn("Failed to speak deepgram text", "error", err)
						}
					}
					// flush if there is even more text
					if len(r.textBuffer) > 1 {
						if err := r.sendWebsocketMessage(flushMsg); err != nil {
							logger.Warn("Failed to flush deepgram buffer", "error", err)
						}
					}
				}()
			}
		}
	}
}

func (r *streamingRequest) SendText(text string) error {
	if r.closed {
		return fmt.Errorf("streaming request closed")
	} else if r.cancelled {
		return fmt.Errorf("streaming request cancelled")
	} else if r.textComplete {
		return fmt.Errorf("streaming request text already completed")
	}

	r.textBufferMu.Lock()
	defer r.textBufferMu.Unlock()

	if len(r.textBuffer) == 0 {
		r.textBuffer = append(r.textBuffer, "")
	}

	if len(r.textBuffer) == 1 {
		if err := r.sendWebsocketMessage(sendTextMsg(text)); err != nil {
			return fmt.Errorf("failed to send websocket send text message: %w", err)
		}
	}
	r.textBuffer[len(r.textBuffer)-1] += text
	return nil
}

func (r *streamingRequest) Mark() error {
	if r.closed {
		return fmt.Errorf("streaming request closed")
	} else if r.cancelled {
		return fmt.Errorf("streaming request cancelled")
	} else if r.textComplete {
		return fmt.Errorf("streaming request text already completed")
	}

	r.textBufferMu.Lock()
	defer r.textBufferMu.Unlock()

	if len(r.textBuffer) == 1 {
		if err := r.sendWebsocketMessage(flushMsg); err != nil {
			return fmt.Errorf("failed to send websocket flush message: %w", err)
		}
	}

	// NOTE: For some reason deepgram sometimes drops text that is passed after
	// a flush unless there is some kind of break. This allows us to send the
	// text after we get the flush confirmation
	r.textBuffer = append(r.textBuffer, "")

	return nil
}

func (r *streamingRequest) EndOfText() error {
	if r.closed {
		return fmt.Errorf("streaming request closed")
	} else if r.cancelled {
		return fmt.Errorf("streaming request cancelled")
	}
	r.textBufferMu.Lock()
	defer r.textBufferMu.Unlock()

	r.textComplete = true
	if len(r.textBuffer) == 0 {
		r.options.SpeechEndedCallback(r.report)
		_ = r.Close()
	} else if len(r.textBuffer) == 1 && r.textBuffer[0] == "" {
		r.textBuffer = r.textBuffer[1:]
		r.options.SpeechEndedCallback(r.report)
		_ = r.Close()
	}

	return nil
}

func (r *streamingRequest) Cancel() error {
	if r.closed {
		return fmt.Errorf("streaming request closed")
	}

	r.cancelled = true
	if err := r.sendWebsocketMessage(clearMsg); err != nil {
		return fmt.Errorf("failed to send websocket close message: %w", err)
	}

	_ = r.Close()
	return nil
}

func (r *streamingRequest) Close() error {
	r.closed = true
	if err := r.sendWebsocketMessage(closeMsg); err != nil {
		if agressiveCloseErr := r.ws.Close(); agressiveCloseErr != nil {
			return fmt.Errorf("failed to close websocket: %w", errors.Join(err, agressiveCloseErr))
		}
	}
	return nil
}

type websocketMessage struct {
	Type string `json:"type"`
}

type websocketTextMessage struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

var (
	sendTextMsg = func(text string) websocketTextMessage {
		return websocketTextMessage{Type: "Speak", Text: text}
	}
	flushMsg = websocketMessage{Type: "Flush"}
	clearMsg = websocketMessage{Type: "Clear"}
	closeMsg = websocketMessage{Type: "Close"}
)

func (r *streamingRequest) sendWebsocketMessage(msg any) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return fmt.Errorf("websocket connection closed")
	} else if r.ws == nil {
		return fmt.Errorf("websocket connection closed")
	}

	if err := r.ws.WriteJSON(msg); err != nil {
		return fmt.Errorf("failed to write to websocket: %w", err)
	}
	return nil
}
