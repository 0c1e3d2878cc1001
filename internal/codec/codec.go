package codec

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/jadujoel/smanager/internal/buffer"
)

// Common codec errors.
var (
	ErrUnknownFormat = errors.New("unknown audio format")
	ErrEmptyInput    = errors.New("empty audio data")
)

// DecodeFunc is the decode capability contract: encoded bytes in, PCM buffer
// out. It is the only thing the token layer knows about decoding; everything
// else in this package exists to build one.
type DecodeFunc func(ctx context.Context, data []byte) (*buffer.Buffer, error)

// Decoder constructs a PCM buffer from an encoded stream.
type Decoder interface {
	Decode(r io.Reader) (*buffer.Buffer, error)
}

// Registry maps file extensions to decoders.
type Registry struct {
	codecs map[string]Decoder

	mtx sync.Mutex
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{codecs: make(map[string]Decoder)}
}

// DefaultRegistry returns a registry with every built-in decoder registered:
// ".wav", ".mp3" and ".ogg".
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(".wav", WAVDecoder{})
	r.Register(".mp3", MP3Decoder{})
	r.Register(".ogg", VorbisDecoder{})
	return r
}

// Register adds or replaces the decoder for an extension. The extension is
// normalized to lower case with a leading dot.
func (r *Registry) Register(ext string, d Decoder) {
	r.mtx.Lock()
	defer r.mtx.Unlock()

	r.codecs[normalizeExt(ext)] = d
}

// Get returns the decoder for an extension.
func (r *Registry) Get(ext string) (Decoder, bool) {
	r.mtx.Lock()
	defer r.mtx.Unlock()

	d, ok := r.codecs[normalizeExt(ext)]
	return d, ok
}

// DecodeFunc adapts the decoder registered for ext to the decode capability
// contract. It returns nil when no decoder is registered, which makes any
// token load for that extension fail with "no decoder" instead of guessing
// at the bytes.
func (r *Registry) DecodeFunc(ext string) DecodeFunc {
	d, ok := r.Get(ext)
	if !ok {
		return nil
	}
	return func(ctx context.Context, data []byte) (*buffer.Buffer, error) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if len(data) == 0 {
			return nil, fmt.Errorf("%s: %w", ext, ErrEmptyInput)
		}
		buf, err := d.Decode(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("%s: %w", ext, err)
		}
		return buf, nil
	}
}

func normalizeExt(ext string) string {
	ext = strings.ToLower(ext)
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return ext
}
