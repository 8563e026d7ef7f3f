package provider

import (
	"testing"

	"github.com/lnicolet/cadence/internal/track"
)

func TestRegistry_IsConfigured(t *testing.T) {
	r := NewRegistry()

	if r.IsConfigured(track.SourceStreaming) {
		t.Error("IsConfigured() = true for empty registry")
	}

	r.Register(NewMock(track.SourceStreaming))

	if !r.IsConfigured(track.SourceStreaming) {
		t.Error("IsConfigured() = false after Register")
	}
	if r.IsConfigured(track.SourceJellyfin) {
		t.Error("IsConfigured() = true for unregistered source")
	}
}

func TestRegistry_ListEnabled_FollowsOrder(t *testing.T) {
	r := NewRegistry()
	r.Register(NewMock(track.SourceJellyfin))
	r.Register(NewMock(track.SourceLocal))
	r.Register(NewMock(track.SourceStreaming))

	got := r.ListEnabled()
	want := []track.Source{track.SourceLocal, track.SourceStreaming, track.SourceJellyfin}

	if len(got) != len(want) {
		t.Fatalf("ListEnabled() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("ListEnabled()[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestRegistry_SetOrder_Reorders(t *testing.T) {
	r := NewRegistry()
	r.Register(NewMock(track.SourceLocal))
	r.Register(NewMock(track.SourceStreaming))
	r.Register(NewMock(track.SourceSubsonic))

	r.SetOrder([]track.Source{track.SourceSubsonic, track.SourceLocal, track.SourceStreaming})

	got := r.ListEnabled()
	want := []track.Source{track.SourceSubsonic, track.SourceLocal, track.SourceStreaming}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("ListEnabled()[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestRegistry_SetOrder_IgnoresUnknownAndDuplicates(t *testing.T) {
	r := NewRegistry()
	r.SetOrder([]track.Source{
		track.SourceLocal,
		track.Source("bogus"),
		track.SourceLocal,
		track.SourceStreaming,
	})

	got := r.Order()
	want := []track.Source{track.SourceLocal, track.SourceStreaming}
	if len(got) != len(want) {
		t.Fatalf("Order() = %v, want %v", got, want)
	}
}

func TestRegistry_SetOrder_UnlistedSourcesStillEnabled(t *testing.T) {
	r := NewRegistry()
	r.Register(NewMock(track.SourceLocal))
	r.Register(NewMock(track.SourceJellyfin))

	r.SetOrder([]track.Source{track.SourceLocal})

	got := r.ListEnabled()
	if len(got) != 2 {
		t.Fatalf("ListEnabled() = %v, want 2 sources", got)
	}
	if got[0] != track.SourceLocal || got[1] != track.SourceJellyfin {
		t.Errorf("ListEnabled() = %v, want [local jellyfin]", got)
	}
}

func TestRegistry_Capabilities(t *testing.T) {
	r := NewRegistry()
	m := NewMock(track.SourceSubsonic)
	m.SetCapabilities(Capabilities{Searchable: true, NetworkResolve: true})
	r.Register(m)

	caps := r.Capabilities(track.SourceSubsonic)
	if !caps.Searchable || !caps.NetworkResolve || caps.DualStream {
		t.Errorf("Capabilities() = %+v", caps)
	}

	// Unregistered source reports the zero descriptor.
	if caps := r.Capabilities(track.SourceStreaming); caps.Searchable {
		t.Errorf("Capabilities(unregistered) = %+v, want zero", caps)
	}
}
