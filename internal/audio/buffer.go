package audio

import "fmt"

// Buffer holds planar audio data: one []float32 plane per channel, all the
// same length.
type Buffer struct {
	planes [][]float32
}

// NewBuffer allocates a silent buffer with the given shape.
func NewBuffer(channels, frames int) *Buffer {
	planes := make([][]float32, channels)
	for i := range planes {
		planes[i] = make([]float32, frames)
	}
	return &Buffer{planes: planes}
}

// Channels returns the number of channels.
func (b *Buffer) Channels() int {
	return len(b.planes)
}

// Frames returns the number of sample frames per channel.
func (b *Buffer) Frames() int {
	if len(b.planes) == 0 {
		return 0
	}
	return len(b.planes[0])
}

// Plane returns the samples for one channel. The slice aliases the buffer.
func (b *Buffer) Plane(channel int) []float32 {
	return b.planes[channel]
}

// Set stores one sample.
func (b *Buffer) Set(channel, frame int, value float32) {
	b.planes[channel][frame] = value
}

// Sample returns one sample.
func (b *Buffer) Sample(channel, frame int) float32 {
	return b.planes[channel][frame]
}

// Slice returns a view of frames [offset, offset+frames) sharing the
// underlying storage.
func (b *Buffer) Slice(offset, frames int) *Buffer {
	if offset < 0 || frames < 0 || offset+frames > b.Frames() {
		panic(fmt.Sprintf("audio: slice [%d, %d+%d) out of range of %d frames", offset, offset, frames, b.Frames()))
	}
	planes := make([][]float32, len(b.planes))
	for i, p := range b.planes {
		planes[i] = p[offset : offset+frames]
	}
	return &Buffer{planes: planes}
}
