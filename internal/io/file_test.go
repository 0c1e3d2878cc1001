package ioutils

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-audio/wav"

	"github.com/jadujoel/smanager/internal/buffer"
)

func TestSaveWAVRoundTrip(t *testing.T) {
	src := buffer.New([][]float32{
		{0.5, -0.5, 0.25},
		{0.125, -0.125, 0},
	}, 44100)

	path := filepath.Join(t.TempDir(), "out.wav")
	if err := SaveWAV(path, src); err != nil {
		t.Fatalf("SaveWAV() error = %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	pcm, err := dec.FullPCMBuffer()
	if err != nil {
		t.Fatalf("FullPCMBuffer() error = %v", err)
	}
	if pcm.Format.NumChannels != 2 || pcm.Format.SampleRate != 44100 {
		t.Errorf("format = %+v, want 2ch 44100Hz", pcm.Format)
	}
	if len(pcm.Data) != 6 {
		t.Fatalf("len(Data) = %d, want 6 interleaved samples", len(pcm.Data))
	}

	// Interleaved, 16-bit quantized.
	want := []float64{0.5, 0.125, -0.5, -0.125, 0.25, 0}
	for i, w := range want {
		got := float64(pcm.Data[i]) / 32767
		if math.Abs(got-w) > 1e-3 {
			t.Errorf("Data[%d] = %v, want %v", i, got, w)
		}
	}
}

func TestSaveWAVClips(t *testing.T) {
	src := buffer.New([][]float32{{2, -2}}, 48000)
	path := filepath.Join(t.TempDir(), "clip.wav")
	if err := SaveWAV(path, src); err != nil {
		t.Fatalf("SaveWAV() error = %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	pcm, err := wav.NewDecoder(f).FullPCMBuffer()
	if err != nil {
		t.Fatal(err)
	}
	if pcm.Data[0] != 32767 || pcm.Data[1] != -32767 {
		t.Errorf("Data = %v, want full-scale clipped values", pcm.Data)
	}
}

func TestSanitizeFileName(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"voice: 1/2", "voice_ 1_2"},
		{"click...", "click"},
		{"name   with  spaces", "name with spaces"},
		{"plain", "plain"},
		{`a<b>c|d`, "a_b_c_d"},
	}
	for _, tt := range tests {
		if got := SanitizeFileName(tt.in); got != tt.want {
			t.Errorf("SanitizeFileName(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestEnsureDir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a", "b", "c")
	if err := EnsureDir(path); err != nil {
		t.Fatalf("EnsureDir() error = %v", err)
	}
	info, err := os.Stat(path)
	if err != nil || !info.IsDir() {
		t.Errorf("Stat(%q) = %v, %v", path, info, err)
	}
	// Existing directory is not an error.
	if err := EnsureDir(path); err != nil {
		t.Errorf("EnsureDir() on existing dir = %v", err)
	}
}
