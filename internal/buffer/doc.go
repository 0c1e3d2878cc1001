// Package buffer provides the decoded-PCM buffer type and the pure
// operations the asset cache performs on it.
//
// # Buffer
//
// Buffer stores audio in planar form: one []float32 per channel, samples in
// [-1, 1]. Planar layout makes the cache's two core operations cheap and
// obvious:
//
//	buffer.Fill(dst, src)        // forward-order in-place refill
//	buffer.ReverseInto(dst, src) // time-reversed derivation
//
// # Silence pre-allocation
//
// NewSilent builds a zeroed buffer of a known shape. The cache hands these out
// synchronously so callers always get a playable (silent) buffer of the right
// duration before the network fetch and decode finish; the same buffer is then
// refilled in place.
//
// # go-audio interop
//
// FromIntBuffer, FromFloatBuffer and AsFloatBuffer convert between planar
// buffers and the interleaved github.com/go-audio/audio buffer types used by
// the format decoders.
package buffer
