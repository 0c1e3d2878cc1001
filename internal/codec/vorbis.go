package codec

import (
	"io"

	"github.com/jadujoel/smanager/internal/buffer"
	"github.com/jfreymuth/oggvorbis"
)

// VorbisDecoder decodes Ogg Vorbis streams via github.com/jfreymuth/oggvorbis.
type VorbisDecoder struct{}

// Decode reads the whole stream and returns the decoded buffer.
func (VorbisDecoder) Decode(r io.Reader) (*buffer.Buffer, error) {
	dec, err := oggvorbis.NewReader(r)
	if err != nil {
		return nil, err
	}

	channels := dec.Channels()
	var interleaved []float32
	chunk := make([]float32, 4096*channels)
	for {
		// Read returns the number of float32 values written, interleaved.
		n, err := dec.Read(chunk)
		if n > 0 {
			interleaved = append(interleaved, chunk[:n]...)
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		if n == 0 {
			break
		}
	}

	return buffer.FromInterleaved(interleaved, channels, dec.SampleRate()), nil
}
