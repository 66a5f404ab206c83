package audio

import (
	"bytes"
	"testing"
)

func TestDecodeWAVExtractsSamplesAndEncoding(t *testing.T) {
	pcm := []byte{1, 0, 2, 0, 3, 0, 4, 0}
	clip := EncodeWAV(pcm, EncodingInfo{SampleRate: 24000, Encoding: FormatLinear16, Channels: 1})

	decoded, info, err := DecodeWAV(clip)
	if err != nil {
		t.Fatalf("expected clip to decode, got %v", err)
	}
	if !bytes.Equal(decoded, pcm) {
		t.Fatalf("expected samples back unchanged, got %v", decoded)
	}
	if info.SampleRate != 24000 || info.Encoding != FormatLinear16 || info.Channels != 1 {
		t.Fatalf("unexpected encoding %+v", info)
	}
}

func TestDecodeWAVSkipsUnknownChunks(t *testing.T) {
	pcm := []byte{9, 0, 8, 0}
	clip := EncodeWAV(pcm, EncodingInfo{SampleRate: 16000, Encoding: FormatLinear16, Channels: 1})

	// Splice a LIST chunk between the header and the fmt chunk, as
	// some encoders emit.
	extra := append([]byte("LIST"), 4, 0, 0, 0, 'I', 'N', 'F', 'O')
	spliced := append([]byte{}, clip[:12]...)
	spliced = append(spliced, extra...)
	spliced = append(spliced, clip[12:]...)

	decoded, _, err := DecodeWAV(spliced)
	if err != nil {
		t.Fatalf("expected clip with extra chunks to decode, got %v", err)
	}
	if !bytes.Equal(decoded, pcm) {
		t.Fatalf("expected samples back unchanged, got %v", decoded)
	}
}

func TestDecodeWAVRejectsNonWave(t *testing.T) {
	if _, _, err := DecodeWAV([]byte("RIFFxxxxMP3 ")); err == nil {
		t.Fatal("expected a non-WAVE clip to be rejected")
	}
	if _, _, err := DecodeWAV([]byte("short")); err == nil {
		t.Fatal("expected a truncated clip to be rejected")
	}
}

func TestDecodeWAVRejectsCompressedFormats(t *testing.T) {
	clip := EncodeWAV([]byte{0, 0}, EncodingInfo{SampleRate: 8000, Encoding: FormatLinear16, Channels: 1})
	// Flip the format tag to 7 (mu-law).
	clip[20] = 7

	if _, _, err := DecodeWAV(clip); err == nil {
		t.Fatal("expected a compressed clip to be rejected")
	}
}
