package token

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/jadujoel/smanager/internal/buffer"
)

// State is the load lifecycle position of a token.
//
// Tokens move Unloaded → Loading → Loaded or Rejected. Dispose may force any
// state to Disposed, which is absorbing: every later operation is a no-op.
type State int

const (
	// Unloaded means no load attempt has started.
	Unloaded State = iota

	// Loading means a fetch+decode attempt is in flight.
	Loading

	// Loaded means the token settled successfully. The value may still be
	// nil, which consumers must treat as intentional silence, not failure.
	Loaded

	// Rejected means the single fetch+decode attempt failed.
	Rejected

	// Disposed means the token was forcibly retired. Pending waiters were
	// resolved with nil.
	Disposed
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case Unloaded:
		return "unloaded"
	case Loading:
		return "loading"
	case Loaded:
		return "loaded"
	case Rejected:
		return "rejected"
	case Disposed:
		return "disposed"
	default:
		return "unknown"
	}
}

// ErrNoDecoder is returned when Load is called on a token created without a
// decode capability.
var ErrNoDecoder = errors.New("no decoder")

// Fetch retrieves the raw encoded bytes for a URL.
type Fetch func(ctx context.Context, url string) ([]byte, error)

// Decode turns raw encoded bytes into a PCM buffer. It matches the decode
// capability contract of internal/codec and may be satisfied by converting a
// codec.DecodeFunc.
type Decode func(ctx context.Context, data []byte) (*buffer.Buffer, error)

// Token is a single-slot future for one asset's decode outcome.
//
// A token is owned by whichever cache map holds it and shared by every caller
// that requested the same file; the per-file dedup guarantee of the cache
// rests on that sharing. Settlement is one-shot: exactly one of Resolve,
// Reject or Dispose takes effect first and later settlements are no-ops
// (except Dispose, which always wins).
type Token struct {
	mu        sync.Mutex
	state     State
	value     *buffer.Buffer
	err       error
	done      chan struct{}
	callbacks []func(*buffer.Buffer, error)

	fetch  Fetch
	decode Decode
}

// New creates an Unloaded token with the given fetch and decode capabilities.
// Either may be nil; a nil decode makes any Load fail immediately with
// ErrNoDecoder.
func New(fetch Fetch, decode Decode) *Token {
	return &Token{
		done:   make(chan struct{}),
		fetch:  fetch,
		decode: decode,
	}
}

// Resolved returns a token already settled Loaded with the given value.
// Resolved(nil) models intentional silence.
func Resolved(buf *buffer.Buffer) *Token {
	t := New(nil, nil)
	t.Resolve(buf)
	return t
}

// FromURL creates a token and immediately starts loading the URL.
func FromURL(ctx context.Context, url string, fetch Fetch, decode Decode) *Token {
	return New(fetch, decode).Load(ctx, url)
}

// pcm is the capability tag From uses to recognize buffer-like values.
// Recognition is by capability, not by concrete type.
type pcm interface {
	NumChannels() int
	NumSamples() int
	SampleRate() int
	Channel(i int) []float32
}

// From wraps an arbitrary value in a settled token.
//
//   - nil yields a token resolved with a nil value.
//   - an existing *Token is returned unchanged.
//   - a *buffer.Buffer, or any value exposing the buffer capability set,
//     yields a token resolved with that audio.
//   - anything else resolves nil.
func From(v any) *Token {
	switch v := v.(type) {
	case nil:
		return Resolved(nil)
	case *Token:
		return v
	case *buffer.Buffer:
		return Resolved(v)
	case pcm:
		buf := buffer.NewSilent(v.NumChannels(), v.NumSamples(), v.SampleRate())
		for ch := 0; ch < buf.NumChannels(); ch++ {
			copy(buf.Channel(ch), v.Channel(ch))
		}
		return Resolved(buf)
	default:
		return Resolved(nil)
	}
}

// State returns the current lifecycle state.
func (t *Token) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// Value returns the cached value. It may be a pre-allocated silence buffer
// while the token is still Loading, or nil.
func (t *Token) Value() *buffer.Buffer {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.value
}

// Err returns the rejection error, or nil.
func (t *Token) Err() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.err
}

// SetValue pre-assigns a value without settling the token. The cache uses
// this to attach the silence buffer before the load completes so synchronous
// callers always see a correctly-shaped buffer.
func (t *Token) SetValue(buf *buffer.Buffer) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.state == Disposed {
		return
	}
	t.value = buf
}

// Load starts the single fetch+decode attempt for the URL.
//
// Load is a no-op returning the token unchanged unless the state is Unloaded.
// There is no retry: one fetch, one decode. Failures reject the token with a
// descriptive error wrapping the underlying failure and the URL.
func (t *Token) Load(ctx context.Context, url string) *Token {
	t.mu.Lock()
	if t.state != Unloaded {
		t.mu.Unlock()
		return t
	}
	if t.decode == nil || t.fetch == nil {
		t.mu.Unlock()
		t.Reject(fmt.Errorf("load %s: %w", url, ErrNoDecoder))
		return t
	}
	t.state = Loading
	fetch, decode := t.fetch, t.decode
	t.mu.Unlock()

	go func() {
		data, err := fetch(ctx, url)
		if err != nil {
			t.Reject(fmt.Errorf("load %s: %w", url, err))
			return
		}
		buf, err := decode(ctx, data)
		if err != nil {
			t.Reject(fmt.Errorf("decode %s: %w", url, err))
			return
		}
		t.Resolve(buf)
	}()
	return t
}

// Resolve settles the token Loaded with the given value. A nil value is a
// valid outcome (silence). No-op once settled or disposed.
func (t *Token) Resolve(buf *buffer.Buffer) {
	t.settle(buf, nil, Loaded)
}

// Reject settles the token Rejected. The pre-assigned value, if any, stays
// attached so holders of the silence buffer keep a valid allocation.
func (t *Token) Reject(err error) {
	t.settle(t.Value(), err, Rejected)
}

// Dispose retires the token. Pending waiters are resolved with nil, the value
// is released, and the state becomes Disposed. Idempotent.
func (t *Token) Dispose() {
	t.mu.Lock()
	if t.state == Disposed {
		t.mu.Unlock()
		return
	}
	settled := t.state == Loaded || t.state == Rejected
	t.state = Disposed
	t.value = nil
	t.err = nil
	callbacks := t.callbacks
	t.callbacks = nil
	if !settled {
		close(t.done)
	}
	t.mu.Unlock()

	for _, cb := range callbacks {
		cb(nil, nil)
	}
}

func (t *Token) settle(buf *buffer.Buffer, err error, state State) {
	t.mu.Lock()
	if t.state == Loaded || t.state == Rejected || t.state == Disposed {
		t.mu.Unlock()
		return
	}
	t.state = state
	t.value = buf
	t.err = err
	callbacks := t.callbacks
	t.callbacks = nil
	close(t.done)
	t.mu.Unlock()

	for _, cb := range callbacks {
		cb(buf, err)
	}
}

// onSettled registers a callback for settlement, running it immediately when
// the token already settled or was disposed.
func (t *Token) onSettled(cb func(*buffer.Buffer, error)) {
	t.mu.Lock()
	switch t.state {
	case Loaded, Rejected:
		buf, err := t.value, t.err
		t.mu.Unlock()
		cb(buf, err)
	case Disposed:
		t.mu.Unlock()
		cb(nil, nil)
	default:
		t.callbacks = append(t.callbacks, cb)
		t.mu.Unlock()
	}
}

// Await blocks until the token settles or the context is done.
//
// A Rejected token returns its error to the awaiter unless a Catch handler
// was chained in between; rejections are never silently swallowed. A Disposed
// token yields (nil, nil).
func (t *Token) Await(ctx context.Context) (*buffer.Buffer, error) {
	select {
	case <-t.done:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.state == Disposed {
		return nil, nil
	}
	return t.value, t.err
}

// Done returns a channel closed when the token settles or is disposed.
func (t *Token) Done() <-chan struct{} {
	return t.done
}

// Then chains a success handler. The returned token settles from the same
// settlement: on success fn observes the value and the child resolves with
// it; a rejection skips fn and propagates to the child.
func (t *Token) Then(fn func(*buffer.Buffer)) *Token {
	child := New(nil, nil)
	t.onSettled(func(buf *buffer.Buffer, err error) {
		if err != nil {
			child.Reject(err)
			return
		}
		if fn != nil {
			fn(buf)
		}
		child.Resolve(buf)
	})
	return child
}

// Catch chains a rejection handler. A rejection is considered handled: fn
// observes the error and the child resolves nil (recovered silence). On
// success the child resolves with the same value.
func (t *Token) Catch(fn func(error)) *Token {
	child := New(nil, nil)
	t.onSettled(func(buf *buffer.Buffer, err error) {
		if err != nil {
			if fn != nil {
				fn(err)
			}
			child.Resolve(nil)
			return
		}
		child.Resolve(buf)
	})
	return child
}

// Finally chains a handler that runs on any settlement. The child settles
// exactly as the parent did.
func (t *Token) Finally(fn func()) *Token {
	child := New(nil, nil)
	t.onSettled(func(buf *buffer.Buffer, err error) {
		if fn != nil {
			fn()
		}
		if err != nil {
			child.Reject(err)
			return
		}
		child.Resolve(buf)
	})
	return child
}
