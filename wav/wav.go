// A _very_ simple WAVE file writer
// Wrote my own after trying out a couple of others I found but
// both required me to know the quantity of audio data before I
// write it.
// See http://soundfile.sapp.org/doc/WaveFormat/ for format
// documentation.
package wav

import (
	"encoding/binary"
	"errors"
	"io"
)

const wavTypePCM = 1

// ErrInvalidChunkHeaderLength means that the provided letter chunk
// name was not 4 characters.
var ErrInvalidChunkHeaderLength = errors.New("chunk header name is not 4 characters")

// ErrInvalidChannels means channels was not 1 or 2.
var ErrInvalidChannels = errors.New("channels must be 1 or 2")

// A Writer writes a WAV file into WS: interleaved signed 16-bit PCM, mono
// or stereo.
type Writer struct {
	WS       io.WriteSeeker
	channels int
}

type format struct {
	AudioFormat   uint16
	Channels      uint16
	SampleRate    uint32
	ByteRate      uint32
	BlockAlign    uint16
	BitsPerSample uint16
}

// NewWriter returns a Writer that writes a WAV file with the given channel
// count (1 or 2) and sample rate to ws.
func NewWriter(ws io.WriteSeeker, sampleRate int, channels int) (*Writer, error) {
	if channels != 1 && channels != 2 {
		return nil, ErrInvalidChannels
	}

	writer := &Writer{WS: ws, channels: channels}

	// Zero length for now, come back and fill this later
	if err := writer.writeChunkHeader("RIFF", 0); err != nil {
		return nil, err
	}

	if _, err := ws.Write([]byte("WAVE")); err != nil {
		return nil, err
	}

	// Write format chunk
	if err := writer.writeChunkHeader("fmt ", 16); err != nil {
		return nil, err
	}
	f := format{AudioFormat: wavTypePCM, Channels: uint16(channels), SampleRate: uint32(sampleRate), BitsPerSample: 16}
	f.ByteRate = uint32(sampleRate) * uint32(channels) * (16 / 8)
	f.BlockAlign = uint16(channels) * (16 / 8)
	if err := binary.Write(ws, binary.LittleEndian, f); err != nil {
		return nil, err
	}

	// Start audio data chunk
	if err := writer.writeChunkHeader("data", 0); err != nil {
		return nil, err
	}

	return writer, nil
}

// WriteFrame writes the provided interleaved samples to w, in fixed
// batches chosen by the caller (441 frames per batch in cmd/sb2play's
// offline WAV render).
func (w *Writer) WriteFrame(samples []int16) error {
	return binary.Write(w.WS, binary.LittleEndian, samples)
}

// Finish must be called when all data has been written to the writer.
// This allows the writer to update placeholder values with the correct
// sizes.
func (w *Writer) Finish() (int64, error) {
	wlen, err := w.WS.Seek(0, io.SeekCurrent)
	if err != nil {
		return 0, err
	}

	if _, err := w.WS.Seek(4, io.SeekStart); err != nil {
		return 0, err
	}
	if err := binary.Write(w.WS, binary.LittleEndian, int32(wlen-8)); err != nil {
		return 0, err
	}
	if _, err := w.WS.Seek(40, io.SeekStart); err != nil {
		return 0, err
	}
	if err := binary.Write(w.WS, binary.LittleEndian, int32(wlen-44)); err != nil {
		return 0, err
	}

	return wlen, nil
}

func (w *Writer) writeChunkHeader(chunk string, initialSize int) error {
	if len(chunk) != 4 {
		return ErrInvalidChunkHeaderLength
	}

	if n, err := w.WS.Write([]byte(chunk)); n != 4 || err != nil {
		return err
	}

	return binary.Write(w.WS, binary.LittleEndian, int32(initialSize))
}
