package codec

import (
	"bytes"
	"errors"
	"io"

	"github.com/go-audio/wav"
	"github.com/jadujoel/smanager/internal/buffer"
)

// ErrInvalidWAV is returned for streams that are not valid PCM WAV.
var ErrInvalidWAV = errors.New("invalid wav data")

// WAVDecoder decodes PCM WAV streams via github.com/go-audio/wav.
type WAVDecoder struct{}

// Decode reads the whole stream and returns the decoded buffer.
func (WAVDecoder) Decode(r io.Reader) (*buffer.Buffer, error) {
	rs, ok := r.(io.ReadSeeker)
	if !ok {
		data, err := io.ReadAll(r)
		if err != nil {
			return nil, err
		}
		rs = bytes.NewReader(data)
	}

	dec := wav.NewDecoder(rs)
	if !dec.IsValidFile() {
		return nil, ErrInvalidWAV
	}

	ib, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, err
	}
	return buffer.FromIntBuffer(ib), nil
}
