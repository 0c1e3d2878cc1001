// Package config provides configuration management for smanager.
//
// This package handles:
//   - Loading and saving settings from JSON files
//   - Default configuration values
//   - Validation of player-facing options
//
// # Default Settings
//
// Use DefaultSettings() to get sensible defaults:
//
//	settings := config.DefaultSettings()
//	// .webm assets at 48 kHz
//	// english as the default language
//	// up to 10 concurrent loads
//
// # Loading from File
//
//	settings, err := config.Load("/path/to/config.json")
//	if err != nil {
//	    // Uses defaults if file doesn't exist
//	}
//
// # Saving Settings
//
//	settings.AtlasURL = "https://cdn.example.com/sounds.atlas.json"
//	err := settings.Save("/path/to/config.json")
//
// # Configuration Options
//
// Settings includes options for:
//   - Atlas location and asset source path
//   - File extension and decode sample rate
//   - Language defaults and load priorities
//   - Concurrency and HTTP timeout limits
package config
