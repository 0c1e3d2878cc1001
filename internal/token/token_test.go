package token

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jadujoel/smanager/internal/buffer"
)

func fakeFetch(data []byte, err error) Fetch {
	return func(context.Context, string) ([]byte, error) {
		return data, err
	}
}

func fakeDecode(buf *buffer.Buffer, err error) Decode {
	return func(context.Context, []byte) (*buffer.Buffer, error) {
		return buf, err
	}
}

func testContext(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func TestStateString(t *testing.T) {
	tests := []struct {
		state State
		want  string
	}{
		{Unloaded, "unloaded"},
		{Loading, "loading"},
		{Loaded, "loaded"},
		{Rejected, "rejected"},
		{Disposed, "disposed"},
		{State(99), "unknown"},
	}

	for _, tt := range tests {
		if got := tt.state.String(); got != tt.want {
			t.Errorf("State(%d).String() = %q, want %q", tt.state, got, tt.want)
		}
	}
}

func TestLoad_Success(t *testing.T) {
	want := buffer.NewSilent(2, 100, 48000)
	tok := New(fakeFetch([]byte("bytes"), nil), fakeDecode(want, nil))

	tok.Load(testContext(t), "http://sounds/a.webm")

	got, err := tok.Await(testContext(t))
	if err != nil {
		t.Fatalf("Await() error = %v", err)
	}
	if got != want {
		t.Error("Await() returned a different buffer than the decoder produced")
	}
	if tok.State() != Loaded {
		t.Errorf("State() = %v, want Loaded", tok.State())
	}
}

func TestLoad_FetchFailure(t *testing.T) {
	cause := errors.New("connection refused")
	tok := New(fakeFetch(nil, cause), fakeDecode(nil, nil))

	tok.Load(testContext(t), "http://sounds/a.webm")

	_, err := tok.Await(testContext(t))
	if !errors.Is(err, cause) {
		t.Errorf("Await() error = %v, want wrapped %v", err, cause)
	}
	if tok.State() != Rejected {
		t.Errorf("State() = %v, want Rejected", tok.State())
	}
	// The error names the URL.
	if got := err.Error(); !strings.Contains(got, "http://sounds/a.webm") {
		t.Errorf("error %q does not mention the URL", got)
	}
}

func TestLoad_DecodeFailure(t *testing.T) {
	cause := errors.New("bad frame header")
	tok := New(fakeFetch([]byte("bytes"), nil), fakeDecode(nil, cause))

	tok.Load(testContext(t), "http://sounds/a.webm")

	if _, err := tok.Await(testContext(t)); !errors.Is(err, cause) {
		t.Errorf("Await() error = %v, want wrapped %v", err, cause)
	}
}

func TestLoad_NoDecoder(t *testing.T) {
	tok := New(fakeFetch([]byte("bytes"), nil), nil)

	tok.Load(testContext(t), "http://sounds/a.webm")

	if tok.State() != Rejected {
		t.Fatalf("State() = %v, want Rejected", tok.State())
	}
	if !errors.Is(tok.Err(), ErrNoDecoder) {
		t.Errorf("Err() = %v, want ErrNoDecoder", tok.Err())
	}
}

func TestLoad_OnlyOnce(t *testing.T) {
	var fetches atomic.Int32
	fetch := func(context.Context, string) ([]byte, error) {
		fetches.Add(1)
		return []byte("bytes"), nil
	}
	tok := New(fetch, fakeDecode(buffer.NewSilent(1, 1, 48000), nil))

	ctx := testContext(t)
	if got := tok.Load(ctx, "http://sounds/a.webm"); got != tok {
		t.Error("Load() must return the receiver")
	}
	tok.Load(ctx, "http://sounds/a.webm")
	tok.Load(ctx, "http://sounds/other.webm")

	if _, err := tok.Await(ctx); err != nil {
		t.Fatalf("Await() error = %v", err)
	}
	// Second and third Load calls were no-ops.
	tok.Load(ctx, "http://sounds/late.webm")
	if n := fetches.Load(); n != 1 {
		t.Errorf("fetch count = %d, want exactly 1", n)
	}
}

func TestResolveNil_IsLoadedNotRejected(t *testing.T) {
	tok := New(nil, nil)

	tok.Resolve(nil)

	if tok.State() != Loaded {
		t.Errorf("State() = %v, want Loaded", tok.State())
	}
	got, err := tok.Await(testContext(t))
	if got != nil || err != nil {
		t.Errorf("Await() = (%v, %v), want (nil, nil)", got, err)
	}
}

func TestSettle_FirstWins(t *testing.T) {
	buf := buffer.NewSilent(1, 4, 48000)
	tok := New(nil, nil)

	tok.Resolve(buf)
	tok.Reject(errors.New("too late"))
	tok.Resolve(nil)

	if tok.State() != Loaded || tok.Value() != buf || tok.Err() != nil {
		t.Errorf("later settlements must be no-ops: state=%v err=%v", tok.State(), tok.Err())
	}
}

func TestReject_KeepsPreassignedValue(t *testing.T) {
	silence := buffer.NewSilent(2, 100, 48000)
	tok := New(nil, nil)
	tok.SetValue(silence)

	tok.Reject(errors.New("decode failed"))

	if tok.State() != Rejected {
		t.Fatalf("State() = %v, want Rejected", tok.State())
	}
	if tok.Value() != silence {
		t.Error("rejection dropped the pre-assigned silence buffer")
	}
}

func TestDispose(t *testing.T) {
	tok := New(nil, nil)

	awaited := make(chan error, 1)
	go func() {
		_, err := tok.Await(context.Background())
		awaited <- err
	}()

	tok.Dispose()

	select {
	case err := <-awaited:
		if err != nil {
			t.Errorf("disposed Await() error = %v, want nil", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Dispose() did not release the pending waiter")
	}
	if tok.State() != Disposed {
		t.Errorf("State() = %v, want Disposed", tok.State())
	}

	// Disposed is absorbing.
	tok.Dispose()
	tok.Resolve(buffer.NewSilent(1, 1, 48000))
	tok.Reject(errors.New("late"))
	if tok.State() != Disposed || tok.Value() != nil {
		t.Error("operations after Dispose() must be no-ops")
	}
}

func TestDispose_AfterLoaded(t *testing.T) {
	tok := Resolved(buffer.NewSilent(1, 8, 48000))

	tok.Dispose()

	if tok.State() != Disposed {
		t.Errorf("State() = %v, want Disposed", tok.State())
	}
	if tok.Value() != nil {
		t.Error("Dispose() must release the buffer")
	}
}

func TestAwait_ContextCancelled(t *testing.T) {
	tok := New(nil, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := tok.Await(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("Await() error = %v, want context.Canceled", err)
	}
}

func TestThen_ObservesValue(t *testing.T) {
	want := buffer.NewSilent(1, 10, 48000)
	tok := New(nil, nil)

	var seen *buffer.Buffer
	child := tok.Then(func(buf *buffer.Buffer) { seen = buf })

	tok.Resolve(want)

	got, err := child.Await(testContext(t))
	if err != nil {
		t.Fatalf("child Await() error = %v", err)
	}
	if got != want || seen != want {
		t.Error("Then must observe and propagate the parent's value")
	}
}

func TestThen_PropagatesRejection(t *testing.T) {
	cause := errors.New("boom")
	tok := New(nil, nil)

	called := false
	child := tok.Then(func(*buffer.Buffer) { called = true })

	tok.Reject(cause)

	if _, err := child.Await(testContext(t)); !errors.Is(err, cause) {
		t.Errorf("child Await() error = %v, want %v", err, cause)
	}
	if called {
		t.Error("Then handler must not run on rejection")
	}
}

func TestCatch_RecoversRejection(t *testing.T) {
	cause := errors.New("boom")
	tok := New(nil, nil)

	var seen error
	child := tok.Catch(func(err error) { seen = err })

	tok.Reject(cause)

	got, err := child.Await(testContext(t))
	if err != nil {
		t.Errorf("Catch child must recover, got error %v", err)
	}
	if got != nil {
		t.Error("recovered child should resolve nil")
	}
	if !errors.Is(seen, cause) {
		t.Errorf("Catch handler saw %v, want %v", seen, cause)
	}
}

func TestCatch_PassesValueThrough(t *testing.T) {
	want := buffer.NewSilent(1, 2, 48000)
	tok := Resolved(want)

	child := tok.Catch(func(error) { t.Error("Catch must not run on success") })

	if got, _ := child.Await(testContext(t)); got != want {
		t.Error("Catch child must pass the value through on success")
	}
}

func TestFinally_RunsOnBothOutcomes(t *testing.T) {
	var runs atomic.Int32

	ok := Resolved(nil).Finally(func() { runs.Add(1) })
	if _, err := ok.Await(testContext(t)); err != nil {
		t.Errorf("Finally after success: error = %v", err)
	}

	cause := errors.New("boom")
	failed := New(nil, nil)
	child := failed.Finally(func() { runs.Add(1) })
	failed.Reject(cause)
	if _, err := child.Await(testContext(t)); !errors.Is(err, cause) {
		t.Errorf("Finally must propagate rejection, got %v", err)
	}

	if runs.Load() != 2 {
		t.Errorf("Finally ran %d times, want 2", runs.Load())
	}
}

func TestChain_AttachAfterSettlement(t *testing.T) {
	want := buffer.NewSilent(1, 3, 48000)
	tok := Resolved(want)

	var seen *buffer.Buffer
	tok.Then(func(buf *buffer.Buffer) { seen = buf })

	if seen != want {
		t.Error("handler attached after settlement must run immediately")
	}
}

func TestFrom(t *testing.T) {
	// nil → resolved null.
	tok := From(nil)
	if tok.State() != Loaded || tok.Value() != nil {
		t.Error("From(nil) must resolve a null token")
	}

	// Existing token passes through unchanged.
	orig := New(nil, nil)
	if From(orig) != orig {
		t.Error("From(token) must return the same token")
	}

	// A buffer wraps directly.
	buf := buffer.NewSilent(2, 5, 48000)
	tok = From(buf)
	if tok.Value() != buf {
		t.Error("From(buffer) must wrap the buffer")
	}

	// Buffer-capability values are recognized structurally and copied.
	tok = From(capableBuffer{buf: buffer.New([][]float32{{1, 2, 3}}, 44100)})
	got := tok.Value()
	if got == nil || got.NumSamples() != 3 || got.Channel(0)[1] != 2 {
		t.Errorf("From(capability value) = %+v, want copied samples", got)
	}

	// Unrecognized values resolve null rather than erroring.
	tok = From(42)
	if tok.State() != Loaded || tok.Value() != nil {
		t.Error("From(unrecognized) must resolve null")
	}
}

// capableBuffer exposes the buffer capability set without being a
// *buffer.Buffer.
type capableBuffer struct{ buf *buffer.Buffer }

func (c capableBuffer) NumChannels() int        { return c.buf.NumChannels() }
func (c capableBuffer) NumSamples() int         { return c.buf.NumSamples() }
func (c capableBuffer) SampleRate() int         { return c.buf.SampleRate() }
func (c capableBuffer) Channel(i int) []float32 { return c.buf.Channel(i) }
