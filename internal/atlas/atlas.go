package atlas

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// NoLanguage is the sentinel language tag for items that apply to any
// active language.
const NoLanguage = "_"

// SoundItem describes one entry in an atlas package.
//
// On the wire an item is the positional 4-tuple
// [sourceName, fileID, numSamples, language]; in memory it is a named record.
// Items are immutable once parsed.
type SoundItem struct {
	// SourceName is the logical identifier callers request playback by.
	// It is package- and language-independent.
	SourceName string

	// FileID is the physical asset identifier, a compound id embedding
	// bitrate and channel metadata: "<bitrate>kb.<channels>ch.<uniqueid>".
	FileID string

	// NumSamples is the per-channel sample count of the decoded asset.
	NumSamples int

	// Language is the language tag this item belongs to, or NoLanguage
	// when the item applies regardless of the active language.
	Language string
}

// MarshalJSON encodes the item as the positional 4-tuple wire form.
func (s SoundItem) MarshalJSON() ([]byte, error) {
	return json.Marshal([]any{s.SourceName, s.FileID, s.NumSamples, s.Language})
}

// UnmarshalJSON decodes the positional 4-tuple wire form.
func (s *SoundItem) UnmarshalJSON(data []byte) error {
	var tuple []json.RawMessage
	if err := json.Unmarshal(data, &tuple); err != nil {
		return fmt.Errorf("sound item: %w", err)
	}
	if len(tuple) != 4 {
		return fmt.Errorf("sound item: expected 4 fields, got %d", len(tuple))
	}
	if err := json.Unmarshal(tuple[0], &s.SourceName); err != nil {
		return fmt.Errorf("sound item source name: %w", err)
	}
	if err := json.Unmarshal(tuple[1], &s.FileID); err != nil {
		return fmt.Errorf("sound item file id: %w", err)
	}
	if err := json.Unmarshal(tuple[2], &s.NumSamples); err != nil {
		return fmt.Errorf("sound item sample count: %w", err)
	}
	if err := json.Unmarshal(tuple[3], &s.Language); err != nil {
		return fmt.Errorf("sound item language: %w", err)
	}
	return nil
}

// Package is a named, ordered group of sound items.
type Package struct {
	Name  string
	Items []SoundItem
}

// Atlas is the catalog mapping package names to packages.
//
// Package order is preserved from the wire document: it supplies the default
// active-package priority order. Keys are unique; a duplicate key on decode
// replaces the earlier package in place.
type Atlas struct {
	names    []string
	packages map[string]*Package
}

// NewAtlas returns an empty atlas.
func NewAtlas() *Atlas {
	return &Atlas{packages: make(map[string]*Package)}
}

// Parse decodes an atlas document.
//
// The wire format is a JSON object whose keys are package names and whose
// values are arrays of item 4-tuples. Key order is preserved, so decoding
// walks the token stream rather than unmarshalling into a Go map.
func Parse(data []byte) (*Atlas, error) {
	dec := json.NewDecoder(bytes.NewReader(data))

	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("atlas: %w", err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, fmt.Errorf("atlas: expected object, got %v", tok)
	}

	a := NewAtlas()
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("atlas: %w", err)
		}
		name := keyTok.(string)

		var items []SoundItem
		if err := dec.Decode(&items); err != nil {
			return nil, fmt.Errorf("atlas package %q: %w", name, err)
		}
		a.SetPackage(&Package{Name: name, Items: items})
	}

	if _, err := dec.Token(); err != nil {
		return nil, fmt.Errorf("atlas: %w", err)
	}
	return a, nil
}

// MarshalJSON encodes the atlas back into its wire form, preserving
// package order.
func (a *Atlas) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, name := range a.names {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(name)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		items, err := json.Marshal(a.packages[name].Items)
		if err != nil {
			return nil, err
		}
		buf.Write(items)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// SetPackage inserts or replaces a package. A replaced package keeps its
// original position in the order.
func (a *Atlas) SetPackage(pkg *Package) {
	if _, exists := a.packages[pkg.Name]; !exists {
		a.names = append(a.names, pkg.Name)
	}
	a.packages[pkg.Name] = pkg
}

// Package returns the named package, or nil if absent.
func (a *Atlas) Package(name string) *Package {
	return a.packages[name]
}

// HasPackage reports whether the atlas contains the named package.
func (a *Atlas) HasPackage(name string) bool {
	_, ok := a.packages[name]
	return ok
}

// PackageNames returns all package names in atlas order.
func (a *Atlas) PackageNames() []string {
	names := make([]string, len(a.names))
	copy(names, a.names)
	return names
}

// Len returns the number of packages.
func (a *Atlas) Len() int {
	return len(a.names)
}
