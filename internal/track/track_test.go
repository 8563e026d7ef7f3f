package track

import "testing"

func TestKey_RemoteTrack(t *testing.T) {
	tr := Track{ID: "abc", Source: SourceStreaming, ExternalID: "555"}

	if got := tr.Key(); got != "streaming:555" {
		t.Errorf("Key() = %q, want %q", got, "streaming:555")
	}
}

func TestKey_LocalOnlyTrack(t *testing.T) {
	tr := Track{ID: "lib-42", Source: SourceLocal, Local: true}

	if got := tr.Key(); got != "lib-42" {
		t.Errorf("Key() = %q, want %q", got, "lib-42")
	}
}

func TestKey_ImportedTrackKeepsOrigin(t *testing.T) {
	// A streaming track imported into the local library must keep the
	// composite key of the remote original.
	remote := Track{ID: "555", Source: SourceStreaming, ExternalID: "555"}
	imported := Track{
		ID:         "lib-7",
		Source:     SourceLocal,
		Origin:     SourceStreaming,
		ExternalID: "555",
		Path:       "/music/a.flac",
		Local:      true,
	}

	if remote.Key() != imported.Key() {
		t.Errorf("keys differ: remote %q, imported %q", remote.Key(), imported.Key())
	}
	if !remote.SameIdentity(imported) {
		t.Error("SameIdentity() = false, want true")
	}
}

func TestSource_Valid(t *testing.T) {
	tests := []struct {
		source Source
		want   bool
	}{
		{SourceLocal, true},
		{SourceStreaming, true},
		{SourceSubsonic, true},
		{SourceJellyfin, true},
		{Source("spotify"), false},
		{Source(""), false},
	}
	for _, tt := range tests {
		if got := tt.source.Valid(); got != tt.want {
			t.Errorf("Valid(%q) = %v, want %v", tt.source, got, tt.want)
		}
	}
}

func TestQuality_String(t *testing.T) {
	tests := []struct {
		q    Quality
		want string
	}{
		{QualityUnknown, "Unknown"},
		{QualityLow, "Low"},
		{QualityHigh, "High"},
		{QualityLossless, "Lossless"},
		{QualityLocal, "Local"},
	}
	for _, tt := range tests {
		if got := tt.q.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}
