package codec

import (
	"io"

	gomp3 "github.com/hajimehoshi/go-mp3"
	"github.com/jadujoel/smanager/internal/buffer"
)

// MP3Decoder decodes MP3 streams via github.com/hajimehoshi/go-mp3.
type MP3Decoder struct{}

// Decode reads the whole stream and returns the decoded buffer.
//
// go-mp3 always emits 16-bit little-endian stereo PCM regardless of the
// source layout, so the result is two channels.
func (MP3Decoder) Decode(r io.Reader) (*buffer.Buffer, error) {
	dec, err := gomp3.NewDecoder(r)
	if err != nil {
		return nil, err
	}

	raw, err := io.ReadAll(dec)
	if err != nil {
		return nil, err
	}

	interleaved := make([]float32, len(raw)/2)
	for i := range interleaved {
		low := uint16(raw[2*i])
		high := uint16(raw[2*i+1])
		interleaved[i] = float32(int16(low|(high<<8))) / 32768.0
	}

	return buffer.FromInterleaved(interleaved, 2, dec.SampleRate()), nil
}
