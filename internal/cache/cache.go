package cache

import (
	"context"
	"sync"

	"github.com/jadujoel/smanager/internal/atlas"
	"github.com/jadujoel/smanager/internal/buffer"
	"github.com/jadujoel/smanager/internal/token"
)

// EventKind labels a cache lifecycle notification.
type EventKind int

const (
	// EventLoading fires when a file's single fetch+decode attempt starts.
	EventLoading EventKind = iota

	// EventLoaded fires when a file's token settles Loaded.
	EventLoaded

	// EventLoadError fires when a file's token settles Rejected. Failures
	// are swallowed at this fan-out boundary so one failing load never
	// stops its siblings; awaiting callers still observe the error on the
	// token itself.
	EventLoadError
)

// Notify receives cache lifecycle notifications for a file id.
type Notify func(kind EventKind, fileID string)

// Decode turns fetched bytes into a PCM buffer. The URL the bytes came from
// is passed along so the decoder can be picked from the asset actually
// fetched, even if the manager's extension setting changed while the load
// was in flight.
type Decode func(ctx context.Context, url string, data []byte) (*buffer.Buffer, error)

// Options configures a Cache.
type Options struct {
	// Fetch retrieves encoded bytes for a URL.
	Fetch token.Fetch

	// Decode is the decode capability applied to fetched bytes.
	Decode Decode

	// SampleRate is used to shape pre-allocated silence buffers. Items
	// carry sample counts but not rates.
	SampleRate int

	// Notify, if set, receives loading/loaded/loaderror events.
	Notify Notify
}

// DefaultSampleRate shapes silence buffers when no rate is configured.
const DefaultSampleRate = 48000

// Cache owns the forward (playback) and reversed token maps for decoded
// audio files.
//
// The forward map holds at most one token per file: the first LoadItem call
// for a file triggers the single network fetch, and every later call, racing
// or sequential, observes the same token instance. That sharing is the
// dedup guarantee the whole manager rests on.
type Cache struct {
	mu       sync.Mutex
	forward  map[string]*token.Token
	reversed map[string]*token.Token
	disposed bool

	fetch      token.Fetch
	decode     Decode
	sampleRate int
	notify     Notify
}

// New creates an empty cache.
func New(opts Options) *Cache {
	rate := opts.SampleRate
	if rate <= 0 {
		rate = DefaultSampleRate
	}
	return &Cache{
		forward:    make(map[string]*token.Token),
		reversed:   make(map[string]*token.Token),
		fetch:      opts.Fetch,
		decode:     opts.Decode,
		sampleRate: rate,
		notify:     opts.Notify,
	}
}

// LoadItem returns the token for the item's file, starting its load on first
// request.
//
// The returned token carries a pre-allocated silence buffer as its value
// from the moment it exists, shaped from the item's metadata (channel count
// parsed from the file id, sample count from the item). When the decode
// completes, the decoded samples are copied into that same buffer in place:
// callers that grabbed the buffer early for playback scheduling hear the
// sound "catch up" without swapping references.
//
// A disposed cache returns an immediately-nil-resolved token with no side
// effects. LoadItem never fails synchronously.
func (c *Cache) LoadItem(ctx context.Context, item atlas.SoundItem, url string) *token.Token {
	c.mu.Lock()
	if c.disposed {
		c.mu.Unlock()
		return token.Resolved(nil)
	}
	if tok, ok := c.forward[item.FileID]; ok {
		c.mu.Unlock()
		return tok
	}

	silence := c.newSilence(item)
	tok := token.New(c.fetch, c.fillingDecode(silence, url))
	tok.SetValue(silence)
	c.forward[item.FileID] = tok
	c.mu.Unlock()

	c.emit(EventLoading, item.FileID)

	fileID := item.FileID
	tok.Then(func(*buffer.Buffer) {
		// Disposal releases pending waiters through the same callback
		// path; only a real settlement is announced.
		if tok.State() == token.Loaded {
			c.emit(EventLoaded, fileID)
		}
	}).Catch(func(error) {
		c.emit(EventLoadError, fileID)
	})

	tok.Load(ctx, url)
	return tok
}

// LoadReversed returns the reversed-buffer token for the item's file,
// deriving it from the forward token on first request.
//
// A correctly-shaped placeholder buffer is allocated synchronously, so
// callers always get a non-nil value of the right duration. Once the forward
// load settles, its samples are written into the placeholder reversed in
// time. A forward result of nil resolves the reversed token nil as well;
// reversed buffers are never independently fetched.
func (c *Cache) LoadReversed(ctx context.Context, item atlas.SoundItem, url string) *token.Token {
	c.mu.Lock()
	if c.disposed {
		c.mu.Unlock()
		return token.Resolved(nil)
	}
	if tok, ok := c.reversed[item.FileID]; ok {
		c.mu.Unlock()
		return tok
	}
	c.mu.Unlock()

	// Forward entry first; the reversed map never holds a file the forward
	// map has not at least attempted.
	forward := c.LoadItem(ctx, item, url)

	c.mu.Lock()
	if c.disposed {
		c.mu.Unlock()
		return token.Resolved(nil)
	}
	if tok, ok := c.reversed[item.FileID]; ok {
		c.mu.Unlock()
		return tok
	}

	placeholder := c.newSilence(item)
	rtok := token.New(nil, nil)
	rtok.SetValue(placeholder)
	c.reversed[item.FileID] = rtok
	c.mu.Unlock()

	forward.Then(func(buf *buffer.Buffer) {
		if buf == nil {
			rtok.Resolve(nil)
			return
		}
		buffer.ReverseInto(placeholder, buf)
		rtok.Resolve(placeholder)
	}).Catch(func(err error) {
		rtok.Reject(err)
	})

	return rtok
}

// Forward returns the forward token for a file without triggering a load.
func (c *Cache) Forward(fileID string) (*token.Token, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	tok, ok := c.forward[fileID]
	return tok, ok
}

// DisposeFile removes and disposes the forward and reversed tokens for a
// file, if present. No-op when the cache is disposed.
func (c *Cache) DisposeFile(fileID string) {
	c.mu.Lock()
	if c.disposed {
		c.mu.Unlock()
		return
	}
	fwd := c.forward[fileID]
	rev := c.reversed[fileID]
	delete(c.forward, fileID)
	delete(c.reversed, fileID)
	c.mu.Unlock()

	if fwd != nil {
		fwd.Dispose()
	}
	if rev != nil {
		rev.Dispose()
	}
}

// Dispose retires the cache: every held token is disposed and later calls
// become no-ops returning nil-resolved tokens.
func (c *Cache) Dispose() {
	c.mu.Lock()
	if c.disposed {
		c.mu.Unlock()
		return
	}
	c.disposed = true
	tokens := make([]*token.Token, 0, len(c.forward)+len(c.reversed))
	for _, tok := range c.forward {
		tokens = append(tokens, tok)
	}
	for _, tok := range c.reversed {
		tokens = append(tokens, tok)
	}
	c.forward = make(map[string]*token.Token)
	c.reversed = make(map[string]*token.Token)
	c.mu.Unlock()

	for _, tok := range tokens {
		tok.Dispose()
	}
}

// Disposed reports whether Dispose has been called.
func (c *Cache) Disposed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.disposed
}

// Stats summarizes the cache contents.
type Stats struct {
	// Files is the number of forward entries.
	Files int

	// Loaded is the number of forward tokens settled Loaded.
	Loaded int

	// Rejected is the number of forward tokens settled Rejected.
	Rejected int

	// Reversed is the number of reversed entries.
	Reversed int
}

// Stats returns a snapshot of the cache contents.
func (c *Cache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := Stats{Files: len(c.forward), Reversed: len(c.reversed)}
	for _, tok := range c.forward {
		switch tok.State() {
		case token.Loaded:
			s.Loaded++
		case token.Rejected:
			s.Rejected++
		}
	}
	return s
}

// newSilence pre-allocates a silence buffer shaped from item metadata.
// A malformed file id falls back to stereo.
func (c *Cache) newSilence(item atlas.SoundItem) *buffer.Buffer {
	channels, ok := atlas.NumChannels(item.FileID)
	if !ok {
		channels = 2
	}
	return buffer.NewSilent(channels, item.NumSamples, c.sampleRate)
}

// fillingDecode wraps the decode capability so a successful decode refills
// the pre-allocated buffer in place and resolves the token with that same
// buffer, never a new reference. The URL is captured at load time.
func (c *Cache) fillingDecode(silence *buffer.Buffer, url string) token.Decode {
	if c.decode == nil {
		return nil
	}
	return func(ctx context.Context, data []byte) (*buffer.Buffer, error) {
		decoded, err := c.decode(ctx, url, data)
		if err != nil {
			return nil, err
		}
		if decoded == nil {
			return nil, nil
		}
		buffer.Fill(silence, decoded)
		return silence, nil
	}
}

func (c *Cache) emit(kind EventKind, fileID string) {
	if c.notify != nil {
		c.notify(kind, fileID)
	}
}
