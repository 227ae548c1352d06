package emu

import (
	"fmt"
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

const wavPCMFormat = 1

// WAVWriter writes 16-bit stereo PCM to a WAV file.
type WAVWriter struct {
	path string
	f    *os.File
	enc  *wav.Encoder
	buf  audio.IntBuffer

	frames int
}

// CreateWAV creates the WAV file at path.
func CreateWAV(path string, sampleRate int) (*WAVWriter, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("wav: %w", err)
	}

	return &WAVWriter{
		path: path,
		f:    f,
		enc:  wav.NewEncoder(f, sampleRate, 16, 2, wavPCMFormat),
		buf: audio.IntBuffer{
			Format:         &audio.Format{NumChannels: 2, SampleRate: sampleRate},
			SourceBitDepth: 16,
		},
	}, nil
}

// Write appends interleaved left/right samples.
func (w *WAVWriter) Write(samples []int16) error {
	w.buf.Data = w.buf.Data[:0]
	for _, s := range samples {
		w.buf.Data = append(w.buf.Data, int(s))
	}
	if err := w.enc.Write(&w.buf); err != nil {
		return fmt.Errorf("wav: %s: %w", w.path, err)
	}
	w.frames += len(samples) / 2
	return nil
}

// Frames returns the number of stereo frames written so far.
func (w *WAVWriter) Frames() int { return w.frames }

// Close finalizes the WAV headers and closes the file.
func (w *WAVWriter) Close() error {
	if w.frames == 0 {
		// Ensures headers are written.
		if err := w.Write(nil); err != nil {
			w.f.Close()
			return err
		}
	}
	if err := w.enc.Close(); err != nil {
		w.f.Close()
		return fmt.Errorf("wav: %s: %w", w.path, err)
	}
	return w.f.Close()
}
