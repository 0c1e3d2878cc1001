// Package codec supplies the decode capability: turning fetched bytes into
// PCM buffers.
//
// The asset manager treats decoding as an opaque collaborator with the fixed
// contract DecodeFunc(ctx, bytes) (*buffer.Buffer, error). This package
// builds such functions from a Registry of per-extension decoders:
//
//	reg := codec.DefaultRegistry()
//	decode := reg.DecodeFunc(".ogg")
//
// Built-in decoders cover ".wav" (github.com/go-audio/wav), ".mp3"
// (github.com/hajimehoshi/go-mp3) and ".ogg" (github.com/jfreymuth/oggvorbis).
// Hosts that ship their own codecs (e.g. webm/opus) register additional
// decoders or hand the cache a DecodeFunc directly. An extension with no
// decoder yields a nil DecodeFunc, and loads for it fail with "no decoder".
package codec
