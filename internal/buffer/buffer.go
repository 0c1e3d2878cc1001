package buffer

import (
	"time"

	gaudio "github.com/go-audio/audio"
)

// Buffer holds decoded PCM audio in planar (per-channel) form.
//
// Each channel is an independent []float32 of equal length with samples in
// [-1, 1]. Planar layout matches how the cache refills and reverses buffers:
// channel-by-channel, sample-by-sample.
//
// A Buffer handed out before its file finished decoding starts out silent and
// is later refilled in place by the decode continuation. Callers holding a
// reference observe the refill; they must not assume the data is final until
// the owning token reports Loaded.
type Buffer struct {
	channels   [][]float32
	sampleRate int
}

// New creates a buffer wrapping the given channel data.
//
// All channels must have the same length; New panics otherwise, since a ragged
// buffer cannot be played or copied coherently.
func New(channels [][]float32, sampleRate int) *Buffer {
	for i := 1; i < len(channels); i++ {
		if len(channels[i]) != len(channels[0]) {
			panic("buffer: channels must have equal length")
		}
	}
	return &Buffer{channels: channels, sampleRate: sampleRate}
}

// NewSilent creates a zeroed buffer of the given shape.
//
// The cache pre-allocates silence for every load so synchronous callers always
// receive a correctly-shaped buffer before the network round trip completes.
func NewSilent(numChannels, numSamples, sampleRate int) *Buffer {
	if numChannels < 1 {
		numChannels = 1
	}
	if numSamples < 0 {
		numSamples = 0
	}
	channels := make([][]float32, numChannels)
	for i := range channels {
		channels[i] = make([]float32, numSamples)
	}
	return &Buffer{channels: channels, sampleRate: sampleRate}
}

// NumChannels returns the channel count.
func (b *Buffer) NumChannels() int {
	return len(b.channels)
}

// NumSamples returns the per-channel sample count.
func (b *Buffer) NumSamples() int {
	if len(b.channels) == 0 {
		return 0
	}
	return len(b.channels[0])
}

// SampleRate returns the sample rate in Hz.
func (b *Buffer) SampleRate() int {
	return b.sampleRate
}

// Duration returns the playback duration of the buffer.
func (b *Buffer) Duration() time.Duration {
	if b.sampleRate <= 0 {
		return 0
	}
	return time.Duration(float64(b.NumSamples()) / float64(b.sampleRate) * float64(time.Second))
}

// Channel returns the sample data for channel i.
//
// The returned slice aliases the buffer's storage; writes through it are
// visible to every holder of the buffer.
func (b *Buffer) Channel(i int) []float32 {
	return b.channels[i]
}

// Clone returns a deep copy with the same shape and data.
func (b *Buffer) Clone() *Buffer {
	channels := make([][]float32, len(b.channels))
	for i, ch := range b.channels {
		channels[i] = make([]float32, len(ch))
		copy(channels[i], ch)
	}
	return &Buffer{channels: channels, sampleRate: b.sampleRate}
}

// NewShaped returns a silent buffer with the same shape as b.
func (b *Buffer) NewShaped() *Buffer {
	return NewSilent(b.NumChannels(), b.NumSamples(), b.sampleRate)
}

// Fill copies src into dst in forward order.
//
// min(dst channels, src channels) channels are copied, each up to
// min(dst samples, src samples) samples. Any remaining tail of dst is left
// untouched. Fill is idempotent for a fixed src.
func Fill(dst, src *Buffer) {
	if dst == nil || src == nil {
		return
	}
	numChannels := min(dst.NumChannels(), src.NumChannels())
	numSamples := min(dst.NumSamples(), src.NumSamples())
	for ch := 0; ch < numChannels; ch++ {
		copy(dst.channels[ch][:numSamples], src.channels[ch][:numSamples])
	}
}

// FillByIndex is the element-wise fallback for Fill.
//
// Some sample stores cannot service a bulk channel copy; the per-index loop
// has identical observable results to Fill.
func FillByIndex(dst, src *Buffer) {
	if dst == nil || src == nil {
		return
	}
	numChannels := min(dst.NumChannels(), src.NumChannels())
	numSamples := min(dst.NumSamples(), src.NumSamples())
	for ch := 0; ch < numChannels; ch++ {
		d, s := dst.channels[ch], src.channels[ch]
		for i := 0; i < numSamples; i++ {
			d[i] = s[i]
		}
	}
}

// ReverseInto writes src into dst reversed in time.
//
// For each copied channel, src sample i maps to dst sample n-1-i where n is
// the copied sample count. Channel/sample bounds follow the same min rules as
// Fill.
func ReverseInto(dst, src *Buffer) {
	if dst == nil || src == nil {
		return
	}
	numChannels := min(dst.NumChannels(), src.NumChannels())
	numSamples := min(dst.NumSamples(), src.NumSamples())
	for ch := 0; ch < numChannels; ch++ {
		d, s := dst.channels[ch], src.channels[ch]
		for i := 0; i < numSamples; i++ {
			d[numSamples-1-i] = s[i]
		}
	}
}

// FromFloatBuffer deinterleaves a go-audio float buffer into planar form.
func FromFloatBuffer(fb *gaudio.FloatBuffer) *Buffer {
	if fb == nil || fb.Format == nil {
		return nil
	}
	return fromInterleaved64(fb.Data, fb.Format.NumChannels, fb.Format.SampleRate)
}

// FromIntBuffer deinterleaves a go-audio int buffer into planar form,
// scaling samples to [-1, 1] using the buffer's source bit depth.
func FromIntBuffer(ib *gaudio.IntBuffer) *Buffer {
	if ib == nil || ib.Format == nil {
		return nil
	}
	bitDepth := ib.SourceBitDepth
	if bitDepth <= 0 {
		bitDepth = 16
	}
	scale := float64(int64(1) << (bitDepth - 1))
	data := make([]float64, len(ib.Data))
	for i, v := range ib.Data {
		data[i] = float64(v) / scale
	}
	return fromInterleaved64(data, ib.Format.NumChannels, ib.Format.SampleRate)
}

// FromInterleaved deinterleaves raw float32 PCM into planar form.
func FromInterleaved(data []float32, numChannels, sampleRate int) *Buffer {
	if numChannels < 1 {
		numChannels = 1
	}
	numSamples := len(data) / numChannels
	channels := make([][]float32, numChannels)
	for ch := range channels {
		channels[ch] = make([]float32, numSamples)
		for i := 0; i < numSamples; i++ {
			channels[ch][i] = data[i*numChannels+ch]
		}
	}
	return &Buffer{channels: channels, sampleRate: sampleRate}
}

// AsFloatBuffer interleaves the buffer back into a go-audio float buffer for
// hosts that consume go-audio types.
func (b *Buffer) AsFloatBuffer() *gaudio.FloatBuffer {
	numChannels := b.NumChannels()
	numSamples := b.NumSamples()
	data := make([]float64, numChannels*numSamples)
	for ch := 0; ch < numChannels; ch++ {
		for i := 0; i < numSamples; i++ {
			data[i*numChannels+ch] = float64(b.channels[ch][i])
		}
	}
	return &gaudio.FloatBuffer{
		Format: &gaudio.Format{NumChannels: numChannels, SampleRate: b.sampleRate},
		Data:   data,
	}
}

func fromInterleaved64(data []float64, numChannels, sampleRate int) *Buffer {
	if numChannels < 1 {
		numChannels = 1
	}
	numSamples := len(data) / numChannels
	channels := make([][]float32, numChannels)
	for ch := range channels {
		channels[ch] = make([]float32, numSamples)
		for i := 0; i < numSamples; i++ {
			channels[ch][i] = float32(data[i*numChannels+ch])
		}
	}
	return &Buffer{channels: channels, sampleRate: sampleRate}
}
