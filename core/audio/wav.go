package audio

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// DecodeWAV extracts the raw sample data and its encoding from a
// complete RIFF/WAVE clip. Only uncompressed PCM (format tag 1) is
// supported; that is the only framing narration clips arrive in.
func DecodeWAV(clip []byte) ([]byte, EncodingInfo, error) {
	if len(clip) < 12 || string(clip[0:4]) != "RIFF" || string(clip[8:12]) != "WAVE" {
		return nil, EncodingInfo{}, fmt.Errorf("not a RIFF/WAVE clip")
	}

	var (
		info    EncodingInfo
		data    []byte
		sawFmt  bool
		sawData bool
	)

	offset := 12
	for offset+8 <= len(clip) {
		chunkID := string(clip[offset : offset+4])
		chunkSize := int(binary.LittleEndian.Uint32(clip[offset+4 : offset+8]))
		body := clip[offset+8:]
		if chunkSize > len(body) {
			chunkSize = len(body)
		}
		body = body[:chunkSize]

		switch chunkID {
		case "fmt ":
			if len(body) < 16 {
				return nil, EncodingInfo{}, fmt.Errorf("fmt chunk truncated")
			}
			if tag := binary.LittleEndian.Uint16(body[0:2]); tag != 1 {
				return nil, EncodingInfo{}, fmt.Errorf("unsupported format tag %d", tag)
			}
			info.Channels = int(binary.LittleEndian.Uint16(body[2:4]))
			info.SampleRate = int(binary.LittleEndian.Uint32(body[4:8]))
			switch bits := binary.LittleEndian.Uint16(body[14:16]); bits {
			case 16:
				info.Encoding = FormatLinear16
			default:
				return nil, EncodingInfo{}, fmt.Errorf("unsupported bit depth %d", bits)
			}
			sawFmt = true
		case "data":
			data = body
			sawData = true
		}

		// Chunks are word-aligned.
		offset += 8 + chunkSize + chunkSize%2
	}

	if !sawFmt || !sawData {
		return nil, EncodingInfo{}, fmt.Errorf("clip missing fmt or data chunk")
	}

	return data, info, nil
}

// EncodeWAV wraps raw PCM samples in a minimal RIFF/WAVE header.
func EncodeWAV(pcm []byte, info EncodingInfo) []byte {
	channels := info.Channels
	if channels == 0 {
		channels = 1
	}
	bytesPerSample := info.Encoding.ByteSize()
	if bytesPerSample <= 0 {
		bytesPerSample = 2
	}
	blockAlign := channels * bytesPerSample
	byteRate := info.SampleRate * blockAlign

	var buf bytes.Buffer
	buf.WriteString("RIFF")
	binary.Write(&buf, binary.LittleEndian, uint32(36+len(pcm)))
	buf.WriteString("WAVE")
	buf.WriteString("fmt ")
	binary.Write(&buf, binary.LittleEndian, uint32(16))
	binary.Write(&buf, binary.LittleEndian, uint16(1))
	binary.Write(&buf, binary.LittleEndian, uint16(channels))
	binary.Write(&buf, binary.LittleEndian, uint32(info.SampleRate))
	binary.Write(&buf, binary.LittleEndian, uint32(byteRate))
	binary.Write(&buf, binary.LittleEndian, uint16(blockAlign))
	binary.Write(&buf, binary.LittleEndian, uint16(bytesPerSample*8))
	buf.WriteString("data")
	binary.Write(&buf, binary.LittleEndian, uint32(len(pcm)))
	buf.Write(pcm)
	return buf.Bytes()
}
