// Package http provides the HTTP client used to fetch atlas documents and
// encoded audio assets.
//
// The Client in this package handles:
//   - User-Agent headers
//   - Timeout handling
//   - Whole-body asset fetches
//   - File size retrieval via HEAD requests
//
// # Basic Usage
//
//	client := http.NewClient(60 * time.Second)
//
//	// Fetch an atlas document
//	doc, err := client.Get(ctx, "https://cdn.example.com/sounds/atlas.json")
//
//	// Estimate a prefetch
//	size, err := client.GetFileSize(ctx, assetURL)
//
// Fetches are single-attempt: retry policy belongs to neither this client
// nor the cache, which issues at most one fetch per file.
package http
