package codec

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"io"
	"testing"

	"github.com/jadujoel/smanager/internal/buffer"
)

// makeWAV builds a minimal 16-bit PCM WAV file in memory.
func makeWAV(sampleRate, channels int, samples []int16) []byte {
	var data bytes.Buffer
	for _, s := range samples {
		binary.Write(&data, binary.LittleEndian, s)
	}

	blockAlign := channels * 2
	byteRate := sampleRate * blockAlign

	var out bytes.Buffer
	out.WriteString("RIFF")
	binary.Write(&out, binary.LittleEndian, uint32(36+data.Len()))
	out.WriteString("WAVE")
	out.WriteString("fmt ")
	binary.Write(&out, binary.LittleEndian, uint32(16))
	binary.Write(&out, binary.LittleEndian, uint16(1)) // PCM
	binary.Write(&out, binary.LittleEndian, uint16(channels))
	binary.Write(&out, binary.LittleEndian, uint32(sampleRate))
	binary.Write(&out, binary.LittleEndian, uint32(byteRate))
	binary.Write(&out, binary.LittleEndian, uint16(blockAlign))
	binary.Write(&out, binary.LittleEndian, uint16(16)) // bit depth
	out.WriteString("data")
	binary.Write(&out, binary.LittleEndian, uint32(data.Len()))
	out.Write(data.Bytes())
	return out.Bytes()
}

func TestWAVDecoder(t *testing.T) {
	// Stereo, interleaved L R L R.
	wavData := makeWAV(8000, 2, []int16{16384, -16384, 8192, -8192})

	buf, err := WAVDecoder{}.Decode(bytes.NewReader(wavData))
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}

	if buf.NumChannels() != 2 {
		t.Errorf("NumChannels() = %d, want 2", buf.NumChannels())
	}
	if buf.NumSamples() != 2 {
		t.Errorf("NumSamples() = %d, want 2", buf.NumSamples())
	}
	if buf.SampleRate() != 8000 {
		t.Errorf("SampleRate() = %d, want 8000", buf.SampleRate())
	}

	approx := func(got, want float32) bool {
		diff := got - want
		return diff < 1e-3 && diff > -1e-3
	}
	if !approx(buf.Channel(0)[0], 0.5) || !approx(buf.Channel(1)[0], -0.5) {
		t.Errorf("first frame = (%v, %v), want (0.5, -0.5)",
			buf.Channel(0)[0], buf.Channel(1)[0])
	}
	if !approx(buf.Channel(0)[1], 0.25) || !approx(buf.Channel(1)[1], -0.25) {
		t.Errorf("second frame = (%v, %v), want (0.25, -0.25)",
			buf.Channel(0)[1], buf.Channel(1)[1])
	}
}

func TestWAVDecoder_PlainReader(t *testing.T) {
	// A non-seekable reader must be buffered internally, with the same result.
	wavData := makeWAV(8000, 1, []int16{100, 200, 300})

	buf, err := WAVDecoder{}.Decode(io.MultiReader(bytes.NewReader(wavData)))
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if buf.NumSamples() != 3 || buf.NumChannels() != 1 {
		t.Errorf("shape = %dx%d, want 1x3", buf.NumChannels(), buf.NumSamples())
	}
}

func TestWAVDecoder_Invalid(t *testing.T) {
	if _, err := (WAVDecoder{}).Decode(bytes.NewReader([]byte("not a wav"))); err == nil {
		t.Error("Decode(garbage) expected error")
	}
}

func TestRegistry_RegisterAndGet(t *testing.T) {
	r := NewRegistry()
	r.Register("wav", WAVDecoder{})

	// Lookup is extension-normalized.
	for _, ext := range []string{".wav", "wav", ".WAV", "WAV"} {
		if _, ok := r.Get(ext); !ok {
			t.Errorf("Get(%q) not found after Register", ext)
		}
	}

	if _, ok := r.Get(".webm"); ok {
		t.Error("Get(.webm) should miss on an empty registration")
	}
}

func TestDefaultRegistry(t *testing.T) {
	r := DefaultRegistry()
	for _, ext := range []string{".wav", ".mp3", ".ogg"} {
		if _, ok := r.Get(ext); !ok {
			t.Errorf("DefaultRegistry missing %s", ext)
		}
	}
}

func TestDecodeFunc_UnknownExtension(t *testing.T) {
	r := DefaultRegistry()
	if fn := r.DecodeFunc(".webm"); fn != nil {
		t.Error("DecodeFunc for unregistered extension must be nil")
	}
}

func TestDecodeFunc_Decodes(t *testing.T) {
	r := DefaultRegistry()
	fn := r.DecodeFunc(".wav")
	if fn == nil {
		t.Fatal("DecodeFunc(.wav) = nil")
	}

	buf, err := fn(context.Background(), makeWAV(8000, 1, []int16{1, 2, 3}))
	if err != nil {
		t.Fatalf("decode error = %v", err)
	}
	if buf.NumSamples() != 3 {
		t.Errorf("NumSamples() = %d, want 3", buf.NumSamples())
	}
}

func TestDecodeFunc_EmptyInput(t *testing.T) {
	fn := DefaultRegistry().DecodeFunc(".wav")

	if _, err := fn(context.Background(), nil); !errors.Is(err, ErrEmptyInput) {
		t.Errorf("decode(empty) error = %v, want ErrEmptyInput", err)
	}
}

func TestDecodeFunc_CancelledContext(t *testing.T) {
	fn := DefaultRegistry().DecodeFunc(".wav")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := fn(ctx, makeWAV(8000, 1, []int16{1})); !errors.Is(err, context.Canceled) {
		t.Errorf("decode(cancelled ctx) error = %v, want context.Canceled", err)
	}
}

// fixedDecoder lets tests register a custom decode path.
type fixedDecoder struct{ buf *buffer.Buffer }

func (d fixedDecoder) Decode(io.Reader) (*buffer.Buffer, error) { return d.buf, nil }

func TestRegistry_CustomDecoder(t *testing.T) {
	want := buffer.NewSilent(2, 10, 48000)
	r := NewRegistry()
	r.Register(".webm", fixedDecoder{buf: want})

	fn := r.DecodeFunc(".webm")
	got, err := fn(context.Background(), []byte("opaque"))
	if err != nil {
		t.Fatalf("decode error = %v", err)
	}
	if got != want {
		t.Error("custom decoder output not returned")
	}
}
