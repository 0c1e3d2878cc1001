package atlas

import (
	"strconv"
	"strings"
)

// File ids embed encoding metadata: "<bitrate>kb.<channels>ch.<uniqueid>",
// e.g. "96kb.2ch.7f3a". Parsing is best-effort; a malformed id yields
// ok=false, never an error or panic.

// NumChannels extracts the channel count from a file id.
func NumChannels(fileID string) (int, bool) {
	parts := strings.Split(fileID, ".")
	if len(parts) < 2 {
		return 0, false
	}
	field, found := strings.CutSuffix(parts[1], "ch")
	if !found {
		return 0, false
	}
	n, err := strconv.Atoi(field)
	if err != nil || n < 1 {
		return 0, false
	}
	return n, true
}

// Bitrate extracts the bitrate in kbit/s from a file id.
func Bitrate(fileID string) (int, bool) {
	field, _, found := strings.Cut(fileID, ".")
	if !found {
		field = fileID
	}
	field, found = strings.CutSuffix(field, "kb")
	if !found {
		return 0, false
	}
	n, err := strconv.Atoi(field)
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}
