package sound

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// Format is the PCM layout of a WAV clip.
type Format struct {
	SampleRate int
	Channels   int
	BitDepth   int
}

// Clip is a decoded WAV file ready for playback.
type Clip struct {
	Format Format
	Data   []byte
}

var errNotWAV = errors.New("not a RIFF/WAVE file")

// ParseWAV reads the fmt and data chunks of a PCM WAV file.
func ParseWAV(data []byte) (Clip, error) {
	r := bytes.NewReader(data)

	var header [12]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return Clip{}, fmt.Errorf("read header: %w", err)
	}
	if string(header[0:4]) != "RIFF" || string(header[8:12]) != "WAVE" {
		return Clip{}, errNotWAV
	}

	var (
		format  Format
		haveFmt bool
	)
	for {
		var id [4]byte
		if _, err := io.ReadFull(r, id[:]); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return Clip{}, fmt.Errorf("read chunk id: %w", err)
		}
		var size uint32
		if err := binary.Read(r, binary.LittleEndian, &size); err != nil {
			return Clip{}, fmt.Errorf("read chunk size: %w", err)
		}

		switch string(id[:]) {
		case "fmt ":
			if size < 16 {
				return Clip{}, fmt.Errorf("fmt chunk too short: %d bytes", size)
			}
			var chunk struct {
				AudioFormat   uint16
				Channels      uint16
				SampleRate    uint32
				ByteRate      uint32
				BlockAlign    uint16
				BitsPerSample uint16
			}
			if err := binary.Read(r, binary.LittleEndian, &chunk); err != nil {
				return Clip{}, fmt.Errorf("read fmt chunk: %w", err)
			}
			if chunk.AudioFormat != 1 {
				return Clip{}, fmt.Errorf("unsupported WAV encoding %d, want PCM", chunk.AudioFormat)
			}
			format = Format{
				SampleRate: int(chunk.SampleRate),
				Channels:   int(chunk.Channels),
				BitDepth:   int(chunk.BitsPerSample),
			}
			haveFmt = true
			if _, err := r.Seek(int64(size-16)+int64(size%2), io.SeekCurrent); err != nil {
				return Clip{}, err
			}
		case "data":
			if !haveFmt {
				return Clip{}, errors.New("data chunk before fmt chunk")
			}
			n := int(size)
			if n > r.Len() {
				n = r.Len() // truncated file, play what is there
			}
			audio := make([]byte, n)
			if _, err := io.ReadFull(r, audio); err != nil {
				return Clip{}, fmt.Errorf("read data chunk: %w", err)
			}
			return Clip{Format: format, Data: audio}, nil
		default:
			if _, err := r.Seek(int64(size)+int64(size%2), io.SeekCurrent); err != nil {
				return Clip{}, err
			}
		}
	}

	return Clip{}, errors.New("no data chunk")
}
