package downloads

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/lnicolet/cadence/internal/provider"
	"github.com/lnicolet/cadence/internal/resolve"
	"github.com/lnicolet/cadence/internal/track"
)

type fakeImporter struct {
	mu       sync.Mutex
	imported map[string]string // key -> path
}

func newFakeImporter() *fakeImporter {
	return &fakeImporter{imported: make(map[string]string)}
}

func (f *fakeImporter) ImportRemote(t track.Track, path string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.imported[t.Key()] = path
	return nil
}

func (f *fakeImporter) IsDownloaded(key string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.imported[key]
	return ok
}

func (f *fakeImporter) pathOf(key string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.imported[key]
}

func newManager(t *testing.T, streamURL string) (*Manager, *fakeImporter) {
	t.Helper()
	reg := provider.NewRegistry()
	sm := provider.NewMock(track.SourceStreaming)
	sm.SetStream(provider.Stream{URL: streamURL, Quality: track.QualityHigh})
	reg.Register(sm)

	lib := newFakeImporter()
	return New(resolve.New(reg, track.QualityHigh), lib, t.TempDir()), lib
}

func remoteTrack(id string) track.Track {
	return track.Track{
		ID: id, Source: track.SourceStreaming, ExternalID: id,
		Title: "song " + id, Artist: "artist",
	}
}

func waitFor(t *testing.T, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal(msg)
}

func TestStart_DownloadsAndImports(t *testing.T) {
	body := []byte("fake audio bytes")
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "audio/flac")
		w.Write(body)
	}))
	defer srv.Close()

	m, lib := newManager(t, srv.URL)
	tr := remoteTrack("555")

	if err := m.Start(context.Background(), tr); err != nil {
		t.Fatal(err)
	}

	waitFor(t, func() bool { return lib.IsDownloaded("streaming:555") },
		"track never imported")

	path := lib.pathOf("streaming:555")
	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != string(body) {
		t.Error("downloaded content does not match source")
	}
	if !m.IsDownloaded("streaming:555") {
		t.Error("IsDownloaded = false after import")
	}
	if _, active := m.ProgressOf("streaming:555"); active {
		t.Error("ProgressOf reports active after completion")
	}
}

func TestStart_LocalTrackIsNoop(t *testing.T) {
	m, lib := newManager(t, "http://unused")

	err := m.Start(context.Background(), track.Track{
		ID: "x", Source: track.SourceLocal, Path: "/music/x.mp3", Local: true,
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(m.Jobs()) != 0 {
		t.Error("local track produced a download job")
	}
	if len(lib.imported) != 0 {
		t.Error("local track was re-imported")
	}
}

func TestStart_AlreadyDownloadedIsNoop(t *testing.T) {
	m, lib := newManager(t, "http://unused")
	lib.imported["streaming:555"] = "/music/already.flac"

	if err := m.Start(context.Background(), remoteTrack("555")); err != nil {
		t.Fatal(err)
	}
	if len(m.Jobs()) != 0 {
		t.Error("already-downloaded track produced a job")
	}
}

func TestStart_ServerErrorFailsJob(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	m, lib := newManager(t, srv.URL)
	if err := m.Start(context.Background(), remoteTrack("bad")); err != nil {
		t.Fatal(err)
	}

	waitFor(t, func() bool {
		jobs := m.Jobs()
		return len(jobs) == 1 && jobs[0].Status == StatusFailed
	}, "job never failed")

	if lib.IsDownloaded("streaming:bad") {
		t.Error("failed download was imported")
	}
}

func TestProgressOf_MidFlight(t *testing.T) {
	half := make(chan struct{})
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Length", "100")
		w.WriteHeader(http.StatusOK)
		w.Write(make([]byte, 50))
		w.(http.Flusher).Flush()
		close(half)
		<-release
		w.Write(make([]byte, 50))
	}))
	defer srv.Close()

	m, _ := newManager(t, srv.URL)
	if err := m.Start(context.Background(), remoteTrack("p")); err != nil {
		t.Fatal(err)
	}

	<-half
	waitFor(t, func() bool {
		p, active := m.ProgressOf("streaming:p")
		return active && p >= 0.5
	}, "mid-flight progress never observed")

	close(release)
	waitFor(t, func() bool {
		_, active := m.ProgressOf("streaming:p")
		return !active
	}, "download never finished")
}

func TestFilenameFor(t *testing.T) {
	tr := track.Track{Artist: "AC/DC", Title: "Back in Black", Source: track.SourceStreaming, ExternalID: "1"}

	got := filenameFor(tr, "audio/flac")
	want := "AC_DC - Back in Black.flac"
	if got != want {
		t.Errorf("filenameFor() = %q, want %q", got, want)
	}
}
