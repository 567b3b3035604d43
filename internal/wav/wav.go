// Package wav wraps raw little-endian PCM samples in a RIFF/WAVE container.
package wav

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Format describes a PCM stream.
type Format struct {
	Channels      int
	SampleRate    int
	BitsPerSample int
}

// Default is the format produced by the speech model: mono, 24kHz, 16-bit.
var Default = Format{Channels: 1, SampleRate: 24000, BitsPerSample: 16}

const headerSize = 44

var (
	ErrShortHeader = errors.New("wav: data shorter than header")
	ErrNotWAV      = errors.New("wav: missing RIFF/WAVE markers")
	ErrNotPCM      = errors.New("wav: audio format is not PCM")
)

// Encode returns a WAV file holding pcm unchanged.
func Encode(pcm []byte, f Format) []byte {
	blockAlign := f.Channels * f.BitsPerSample / 8
	byteRate := f.SampleRate * blockAlign

	buf := bytes.NewBuffer(make([]byte, 0, headerSize+len(pcm)))
	buf.WriteString("RIFF")
	binary.Write(buf, binary.LittleEndian, uint32(36+len(pcm)))
	buf.WriteString("WAVE")

	buf.WriteString("fmt ")
	binary.Write(buf, binary.LittleEndian, uint32(16))
	binary.Write(buf, binary.LittleEndian, uint16(1))
	binary.Write(buf, binary.LittleEndian, uint16(f.Channels))
	binary.Write(buf, binary.LittleEndian, uint32(f.SampleRate))
	binary.Write(buf, binary.LittleEndian, uint32(byteRate))
	binary.Write(buf, binary.LittleEndian, uint16(blockAlign))
	binary.Write(buf, binary.LittleEndian, uint16(f.BitsPerSample))

	buf.WriteString("data")
	binary.Write(buf, binary.LittleEndian, uint32(len(pcm)))
	buf.Write(pcm)
	return buf.Bytes()
}

// Decode parses a canonical PCM WAV file and returns its format and samples.
// Chunks other than "fmt " and "data" are skipped.
func Decode(b []byte) (Format, []byte, error) {
	if len(b) < headerSize {
		return Format{}, nil, ErrShortHeader
	}
	if string(b[0:4]) != "RIFF" || string(b[8:12]) != "WAVE" {
		return Format{}, nil, ErrNotWAV
	}

	var f Format
	var haveFmt bool
	for off := 12; off+8 <= len(b); {
		id := string(b[off : off+4])
		size := int(binary.LittleEndian.Uint32(b[off+4 : off+8]))
		body := off + 8
		if body+size > len(b) {
			return Format{}, nil, fmt.Errorf("wav: chunk %q overruns file", id)
		}
		switch id {
		case "fmt ":
			if size < 16 {
				return Format{}, nil, fmt.Errorf("wav: fmt chunk too small (%d)", size)
			}
			if binary.LittleEndian.Uint16(b[body:]) != 1 {
				return Format{}, nil, ErrNotPCM
			}
			f.Channels = int(binary.LittleEndian.Uint16(b[body+2:]))
			f.SampleRate = int(binary.LittleEndian.Uint32(b[body+4:]))
			f.BitsPerSample = int(binary.LittleEndian.Uint16(b[body+14:]))
			haveFmt = true
		case "data":
			if !haveFmt {
				return Format{}, nil, errors.New("wav: data chunk before fmt chunk")
			}
			return f, b[body : body+size], nil
		}
		off = body + size + size%2
	}
	return Format{}, nil, errors.New("wav: no data chunk")
}

// ParseMIME reads the rate parameter of an audio/L16 style MIME type such as
// "audio/L16;codec=pcm;rate=24000". Missing parameters fall back to Default.
func ParseMIME(mime string) Format {
	f := Default
	parts := strings.Split(mime, ";")
	if len(parts) > 0 {
		base := strings.ToLower(strings.TrimSpace(parts[0]))
		if strings.HasPrefix(base, "audio/l") {
			if bits, err := strconv.Atoi(strings.TrimPrefix(base, "audio/l")); err == nil && bits > 0 {
				f.BitsPerSample = bits
			}
		}
	}
	for _, p := range parts[1:] {
		k, v, ok := strings.Cut(strings.TrimSpace(p), "=")
		if !ok {
			continue
		}
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil || n <= 0 {
			continue
		}
		switch strings.ToLower(k) {
		case "rate":
			f.SampleRate = n
		case "channels":
			f.Channels = n
		}
	}
	return f
}
