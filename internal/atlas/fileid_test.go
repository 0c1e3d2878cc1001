package atlas

import "testing"

func TestNumChannels(t *testing.T) {
	tests := []struct {
		fileID string
		want   int
		ok     bool
	}{
		{"96kb.2ch.a001", 2, true},
		{"128kb.1ch.xyz", 1, true},
		{"64kb.6ch.surround", 6, true},
		{"96kb.0ch.bad", 0, false},
		{"96kb.twoch.bad", 0, false},
		{"96kb.2.bad", 0, false},
		{"plainname", 0, false},
		{"", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.fileID, func(t *testing.T) {
			got, ok := NumChannels(tt.fileID)
			if got != tt.want || ok != tt.ok {
				t.Errorf("NumChannels(%q) = (%d, %v), want (%d, %v)",
					tt.fileID, got, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestBitrate(t *testing.T) {
	tests := []struct {
		fileID string
		want   int
		ok     bool
	}{
		{"96kb.2ch.a001", 96, true},
		{"128kb.1ch.xyz", 128, true},
		{"0kb.1ch.silent", 0, true},
		{"96.2ch.bad", 0, false},
		{"kb.2ch.bad", 0, false},
		{"highkb.2ch.bad", 0, false},
		{"", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.fileID, func(t *testing.T) {
			got, ok := Bitrate(tt.fileID)
			if got != tt.want || ok != tt.ok {
				t.Errorf("Bitrate(%q) = (%d, %v), want (%d, %v)",
					tt.fileID, got, ok, tt.want, tt.ok)
			}
		})
	}
}
