// Package ioutils provides file system utilities for smanager.
//
// This package contains functions for:
//   - Exporting decoded buffers as WAV files
//   - Filename sanitization
//   - Directory creation
package ioutils

import (
	"os"
	"regexp"
	"strings"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/jadujoel/smanager/internal/buffer"
)

// SaveWAV writes a decoded buffer to path as 16-bit PCM WAV.
//
// The planar channels are interleaved and quantized; samples outside
// [-1, 1] clip.
//
// Example:
//
//	buf := mgr.RequestBufferSync(ctx, "explosion")
//	err := ioutils.SaveWAV("/export/explosion.wav", buf)
func SaveWAV(path string, buf *buffer.Buffer) error {
	out, err := os.Create(path)
	if err != nil {
		return err
	}
	defer out.Close()

	channels := buf.NumChannels()
	samples := buf.NumSamples()
	data := make([]int, 0, channels*samples)
	for i := 0; i < samples; i++ {
		for ch := 0; ch < channels; ch++ {
			data = append(data, quantize16(buf.Channel(ch)[i]))
		}
	}

	enc := wav.NewEncoder(out, buf.SampleRate(), 16, channels, 1)
	if err := enc.Write(&audio.IntBuffer{
		Format:         &audio.Format{NumChannels: channels, SampleRate: buf.SampleRate()},
		Data:           data,
		SourceBitDepth: 16,
	}); err != nil {
		enc.Close()
		return err
	}
	return enc.Close()
}

func quantize16(s float32) int {
	if s > 1 {
		s = 1
	} else if s < -1 {
		s = -1
	}
	return int(s * 32767)
}

// SanitizeFileName removes or replaces characters that are invalid in file/folder names.
//
// This function ensures filenames are valid across different operating systems,
// particularly Windows which has the most restrictive naming rules.
//
// The following transformations are applied:
//   - Invalid characters (<>:"/\|?* and control chars 0x00-0x1f) → underscore
//   - Trailing dots → removed (Windows limitation)
//   - Multiple whitespace → single space
//   - Trailing whitespace → removed
//
// Example:
//
//	SanitizeFileName("voice: 1/2")  // Returns "voice_ 1_2"
//	SanitizeFileName("click...")    // Returns "click"
func SanitizeFileName(name string) string {
	// Replace invalid path/file characters with underscore
	// Characters: < > : " / \ | ? * and control characters (0x00-0x1f)
	invalidChars := regexp.MustCompile(`[<>:"/\\|?*\x00-\x1f]`)
	name = invalidChars.ReplaceAllString(name, "_")

	// Remove trailing dots (Windows doesn't allow filenames ending with dots)
	name = regexp.MustCompile(`\.+$`).ReplaceAllString(name, "")

	// Replace multiple whitespace with single space for cleaner names
	name = regexp.MustCompile(`\s+`).ReplaceAllString(name, " ")

	// Remove trailing whitespace
	name = strings.TrimRight(name, " ")

	return name
}

// EnsureDir creates a directory and all parent directories if they don't exist.
//
// Directories are created with mode 0755 (rwxr-xr-x).
// If the directory already exists, no error is returned.
func EnsureDir(path string) error {
	return os.MkdirAll(path, 0755)
}
