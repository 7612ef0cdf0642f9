// Package audio provides in-memory sample buffers and audio file I/O
// for the processing pipeline.
package audio

import "math"

// Buffer holds interleaved samples in the range [-1, 1].
// Frame i, channel c lives at Data[i*Channels+c].
type Buffer struct {
	Data     []float64
	Channels int
}

// NewBuffer allocates a zeroed buffer with the given frame count.
func NewBuffer(frames, channels int) *Buffer {
	if channels < 1 {
		channels = 1
	}
	return &Buffer{
		Data:     make([]float64, frames*channels),
		Channels: channels,
	}
}

// Frames returns the number of sample frames in the buffer.
func (b *Buffer) Frames() int {
	if b == nil || b.Channels == 0 {
		return 0
	}
	return len(b.Data) / b.Channels
}

// Clone returns a deep copy of the buffer.
func (b *Buffer) Clone() *Buffer {
	out := &Buffer{
		Data:     make([]float64, len(b.Data)),
		Channels: b.Channels,
	}
	copy(out.Data, b.Data)
	return out
}

// Slice returns a copy of frames [start, end). Bounds are clamped to the
// buffer; an inverted range yields an empty buffer.
func (b *Buffer) Slice(start, end int) *Buffer {
	n := b.Frames()
	if start < 0 {
		start = 0
	}
	if end > n {
		end = n
	}
	if start >= end {
		return &Buffer{Data: []float64{}, Channels: b.Channels}
	}
	out := &Buffer{
		Data:     make([]float64, (end-start)*b.Channels),
		Channels: b.Channels,
	}
	copy(out.Data, b.Data[start*b.Channels:end*b.Channels])
	return out
}

// Append concatenates other's frames onto b in place. Channel counts must
// match; a mismatched append is ignored.
func (b *Buffer) Append(other *Buffer) {
	if other == nil || other.Channels != b.Channels {
		return
	}
	b.Data = append(b.Data, other.Data...)
}

// Frame returns the samples of frame i as a slice into Data.
func (b *Buffer) Frame(i int) []float64 {
	return b.Data[i*b.Channels : (i+1)*b.Channels]
}

// MonoMix returns a per-frame mean across channels. A mono buffer returns
// a copy of its data.
func (b *Buffer) MonoMix() []float64 {
	n := b.Frames()
	out := make([]float64, n)
	if b.Channels == 1 {
		copy(out, b.Data)
		return out
	}
	inv := 1.0 / float64(b.Channels)
	for i := 0; i < n; i++ {
		var sum float64
		for c := 0; c < b.Channels; c++ {
			sum += b.Data[i*b.Channels+c]
		}
		out[i] = sum * inv
	}
	return out
}

// MonoPeak returns the per-frame maximum absolute value across channels.
func (b *Buffer) MonoPeak() []float64 {
	n := b.Frames()
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		var peak float64
		for c := 0; c < b.Channels; c++ {
			if v := math.Abs(b.Data[i*b.Channels+c]); v > peak {
				peak = v
			}
		}
		out[i] = peak
	}
	return out
}

// Peak returns the maximum absolute sample value over all channels.
func (b *Buffer) Peak() float64 {
	var peak float64
	for _, v := range b.Data {
		if a := math.Abs(v); a > peak {
			peak = a
		}
	}
	return peak
}

// Scale multiplies every sample by g in place.
func (b *Buffer) Scale(g float64) {
	for i := range b.Data {
		b.Data[i] *= g
	}
}

// Clamp limits every sample to [-1, 1] in place.
func (b *Buffer) Clamp() {
	for i, v := range b.Data {
		if v > 1 {
			b.Data[i] = 1
		} else if v < -1 {
			b.Data[i] = -1
		}
	}
}
