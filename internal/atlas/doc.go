// Package atlas provides the sound catalog data model and its lookup index.
//
// An atlas maps package names to ordered lists of sound items. Each item
// binds a logical source name to a physical file id plus sample count and
// language tag. The wire format is a JSON object of package name to arrays
// of [sourceName, fileID, numSamples, language] tuples; Parse preserves key
// order because it supplies the default package priority.
//
// # Resolution
//
// Lookups take ordered active-package and active-language lists. Scanning is
// priority-ordered and first-match-wins, which gives deterministic override
// semantics: an item in an earlier package shadows one with the same source
// name in a later package.
//
//	item, ok := a.FindSource("voice_player", activePackages, activeLanguages)
//
// # File ids
//
// File ids embed encoding metadata ("96kb.2ch.7f3a"); NumChannels and
// Bitrate extract it best-effort, returning ok=false on malformed ids.
package atlas
