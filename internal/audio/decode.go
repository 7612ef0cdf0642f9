package audio

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-audio/aiff"
	"github.com/go-audio/wav"
	gomp3 "github.com/hajimehoshi/go-mp3"
	"github.com/jfreymuth/oggvorbis"
)

// Source decodes an audio file into a sample buffer and its sample rate.
type Source interface {
	Read(path string) (*Buffer, int, error)
}

// FileSource decodes local files, picking a codec by file extension.
// Supported: .wav, .aiff/.aif, .mp3, .ogg.
type FileSource struct{}

// SupportedExtensions lists the extensions FileSource can decode, plus
// .flac which is recognised during directory scans but rejected at decode
// time.
var SupportedExtensions = []string{".wav", ".flac", ".ogg", ".mp3", ".aiff", ".aif"}

// Read decodes path into an interleaved float buffer in [-1, 1].
func (FileSource) Read(path string) (*Buffer, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, &DecodeError{Path: path, Err: err}
	}
	defer f.Close()

	var (
		buf  *Buffer
		rate int
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".wav":
		buf, rate, err = decodeWAV(f)
	case ".aiff", ".aif":
		buf, rate, err = decodeAIFF(f)
	case ".mp3":
		buf, rate, err = decodeMP3(f)
	case ".ogg":
		buf, rate, err = decodeOGG(f)
	default:
		err = fmt.Errorf("unsupported format %q", filepath.Ext(path))
	}
	if err != nil {
		return nil, 0, &DecodeError{Path: path, Err: err}
	}
	if buf.Frames() == 0 {
		return nil, 0, &DecodeError{Path: path, Err: errors.New("no audio frames")}
	}
	return buf, rate, nil
}

func decodeWAV(f *os.File) (*Buffer, int, error) {
	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		return nil, 0, errors.New("not a valid wav file")
	}
	pcm, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, 0, err
	}
	if pcm == nil || pcm.Format == nil || pcm.Format.NumChannels < 1 {
		return nil, 0, errors.New("empty wav buffer")
	}
	return intToFloat(pcm.Data, pcm.Format.NumChannels, int(dec.BitDepth)), pcm.Format.SampleRate, nil
}

func decodeAIFF(f *os.File) (*Buffer, int, error) {
	dec := aiff.NewDecoder(f)
	if !dec.IsValidFile() {
		return nil, 0, errors.New("not a valid aiff file")
	}
	pcm, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, 0, err
	}
	if pcm == nil || pcm.Format == nil || pcm.Format.NumChannels < 1 {
		return nil, 0, errors.New("empty aiff buffer")
	}
	return intToFloat(pcm.Data, pcm.Format.NumChannels, int(dec.BitDepth)), pcm.Format.SampleRate, nil
}

func decodeMP3(r io.Reader) (*Buffer, int, error) {
	dec, err := gomp3.NewDecoder(r)
	if err != nil {
		return nil, 0, err
	}

	// go-mp3 always emits 16-bit little-endian stereo PCM
	const channels = 2
	raw, err := io.ReadAll(dec)
	if err != nil {
		return nil, 0, err
	}
	samples := len(raw) / 2
	buf := &Buffer{
		Data:     make([]float64, samples),
		Channels: channels,
	}
	for i := 0; i < samples; i++ {
		v := int16(binary.LittleEndian.Uint16(raw[2*i : 2*i+2]))
		buf.Data[i] = float64(v) / 32768.0
	}
	return buf, dec.SampleRate(), nil
}

func decodeOGG(r io.Reader) (*Buffer, int, error) {
	samples, format, err := oggvorbis.ReadAll(r)
	if err != nil {
		return nil, 0, err
	}
	if format.Channels < 1 {
		return nil, 0, errors.New("empty vorbis stream")
	}
	buf := &Buffer{
		Data:     make([]float64, len(samples)),
		Channels: format.Channels,
	}
	for i, s := range samples {
		buf.Data[i] = float64(s)
	}
	return buf, format.SampleRate, nil
}

// intToFloat normalises integer PCM to [-1, 1] by the source bit depth.
func intToFloat(data []int, channels, bitDepth int) *Buffer {
	var scale float64
	switch bitDepth {
	case 8:
		scale = 1 << 7
	case 16:
		scale = 1 << 15
	case 24:
		scale = 1 << 23
	case 32:
		scale = 1 << 31
	default:
		scale = 1 << 15
	}
	buf := &Buffer{
		Data:     make([]float64, len(data)),
		Channels: channels,
	}
	for i, v := range data {
		buf.Data[i] = float64(v) / scale
	}
	return buf
}
