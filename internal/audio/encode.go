package audio

import (
	"os"
	"path/filepath"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// Sink encodes a processed buffer to a file at the given sample rate.
type Sink interface {
	Write(buf *Buffer, sampleRate int, path string) error
}

// WAVSink writes 24-bit PCM WAV files, creating parent directories as
// needed. Samples are clamped to [-1, 1] before quantisation.
type WAVSink struct{}

// Write encodes buf to path.
func (WAVSink) Write(buf *Buffer, sampleRate int, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return &EncodeError{Path: path, Err: err}
	}
	f, err := os.Create(path)
	if err != nil {
		return &EncodeError{Path: path, Err: err}
	}
	defer f.Close()

	const bitDepth = 24
	const scale = 1 << 23

	enc := wav.NewEncoder(f, sampleRate, bitDepth, buf.Channels, 1)
	pcm := &goaudio.IntBuffer{
		Format: &goaudio.Format{
			SampleRate:  sampleRate,
			NumChannels: buf.Channels,
		},
		Data:           make([]int, len(buf.Data)),
		SourceBitDepth: bitDepth,
	}
	for i, v := range buf.Data {
		if v > 1 {
			v = 1
		} else if v < -1 {
			v = -1
		}
		s := int(v * (scale - 1))
		pcm.Data[i] = s
	}
	if err := enc.Write(pcm); err != nil {
		return &EncodeError{Path: path, Err: err}
	}
	if err := enc.Close(); err != nil {
		return &EncodeError{Path: path, Err: err}
	}
	return nil
}
