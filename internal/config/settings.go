package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Settings holds all configuration options.
type Settings struct {
	// Atlas settings
	AtlasURL        string `json:"atlas_url"`
	SourcePath      string `json:"source_path"`
	FileExtension   string `json:"file_extension"` // .webm, .mp4, .wav, .mp3, .ogg
	DefaultLanguage string `json:"default_language"`

	// Load settings
	SampleRate         int      `json:"sample_rate"`
	MaxConcurrentLoads int      `json:"max_concurrent_loads"`
	HTTPTimeoutSeconds int      `json:"http_timeout_seconds"`
	PriorityList       []string `json:"priority_list"`

	// Output
	Verbose bool `json:"verbose"`
}

// DefaultSettings returns settings with default values.
func DefaultSettings() *Settings {
	return &Settings{
		FileExtension:   ".webm",
		DefaultLanguage: "english",

		SampleRate:         48000,
		MaxConcurrentLoads: 10,
		HTTPTimeoutSeconds: 60,
	}
}

// Validate checks settings for values the manager cannot work with.
func (s *Settings) Validate() error {
	switch s.FileExtension {
	case ".webm", ".mp4", ".wav", ".mp3", ".ogg":
	default:
		return fmt.Errorf("unsupported file extension %q", s.FileExtension)
	}
	if s.SampleRate <= 0 {
		return fmt.Errorf("sample rate must be positive, got %d", s.SampleRate)
	}
	if s.MaxConcurrentLoads <= 0 {
		return fmt.Errorf("max concurrent loads must be positive, got %d", s.MaxConcurrentLoads)
	}
	return nil
}

// Load reads settings from a JSON file.
func Load(path string) (*Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultSettings(), nil
		}
		return nil, err
	}

	settings := DefaultSettings()
	if err := json.Unmarshal(data, settings); err != nil {
		return nil, err
	}

	return settings, nil
}

// Save writes settings to a JSON file.
func (s *Settings) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}
