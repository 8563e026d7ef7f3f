package errmsg

import (
	"errors"
	"testing"
)

func TestFormat(t *testing.T) {
	tests := []struct {
		name     string
		op       Op
		err      error
		expected string
	}{
		{
			name:     "nil error returns empty string",
			op:       OpLibraryScan,
			err:      nil,
			expected: "",
		},
		{
			name:     "formats error with operation",
			op:       OpLibraryScan,
			err:      errors.New("permission denied"),
			expected: "Failed to scan library: permission denied",
		},
		{
			name:     "playback operation",
			op:       OpPlaybackStart,
			err:      errors.New("no playable source"),
			expected: "Failed to start playback: no playable source",
		},
		{
			name:     "crossfade operation",
			op:       OpCrossfade,
			err:      errors.New("stream expired"),
			expected: "Failed to crossfade: stream expired",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Format(tt.op, tt.err)
			if result != tt.expected {
				t.Errorf("Format() = %q, want %q", result, tt.expected)
			}
		})
	}
}

func TestFormatWith(t *testing.T) {
	tests := []struct {
		name     string
		op       Op
		context  string
		err      error
		expected string
	}{
		{
			name:     "nil error returns empty string",
			op:       OpPlaylistCreate,
			context:  "Road Trip",
			err:      nil,
			expected: "",
		},
		{
			name:     "empty context falls back to Format",
			op:       OpPlaylistCreate,
			context:  "",
			err:      errors.New("duplicate name"),
			expected: "Failed to create playlist: duplicate name",
		},
		{
			name:     "context included in message",
			op:       OpPlaylistDelete,
			context:  "Road Trip",
			err:      errors.New("playlist is protected"),
			expected: "Failed to delete playlist 'Road Trip': playlist is protected",
		},
		{
			name:     "download with track context",
			op:       OpDownloadQueue,
			context:  "Artist - Song",
			err:      errors.New("catalog unavailable"),
			expected: "Failed to queue download 'Artist - Song': catalog unavailable",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := FormatWith(tt.op, tt.context, tt.err)
			if result != tt.expected {
				t.Errorf("FormatWith() = %q, want %q", result, tt.expected)
			}
		})
	}
}
