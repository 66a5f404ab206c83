// Package audio holds the encoding vocabulary shared by voice
// capture, narration playback, and the transcription clients, plus
// the WAV framing used for server-provided narration clips.
package audio

const (
	// DefaultSampleRate is the capture rate voice chunks are
	// streamed at.
	DefaultSampleRate = 16000

	// PlaybackSampleRate is the rate the speaker device runs at.
	PlaybackSampleRate = 48000
)

type Format string

const (
	FormatMulaw    Format = "mulaw"
	FormatALaw     Format = "alaw"
	FormatLinear16 Format = "linear16"
)

func (f Format) Name() string {
	return string(f)
}

func (f Format) ByteSize() int {
	switch f {
	case FormatMulaw, FormatALaw:
		return 1
	case FormatLinear16:
		return 2
	}
	return -1
}

type EncodingInfo struct {
	SampleRate int
	Encoding   Format
	Channels   int
}

func DefaultEncodingInfo() EncodingInfo {
	return EncodingInfo{SampleRate: DefaultSampleRate, Encoding: FormatLinear16, Channels: 1}
}

func (e EncodingInfo) IsZero() bool {
	return e.SampleRate == 0 || e.Encoding.Name() == ""
}

func (e EncodingInfo) SilenceValue() byte {
	switch e.Encoding {
	case FormatALaw:
		return 0x55
	case FormatMulaw:
		return 0xFF
	case FormatLinear16:
		return 0
	}

	return 0
}
