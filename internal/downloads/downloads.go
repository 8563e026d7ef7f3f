// Package downloads imports remote tracks into the local library,
// tracking per-track progress while the transfer runs.
package downloads

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/hashicorp/go-retryablehttp"

	"github.com/lnicolet/cadence/internal/resolve"
	"github.com/lnicolet/cadence/internal/track"
)

// Status constants for download states.
const (
	StatusPending     = "pending"
	StatusDownloading = "downloading"
	StatusCompleted   = "completed"
	StatusFailed      = "failed"
)

// Importer is the library side of a completed download.
type Importer interface {
	ImportRemote(t track.Track, path string) error
	IsDownloaded(key string) bool
}

// Job tracks one in-flight track download.
type Job struct {
	Track     track.Track
	Status    string
	BytesRead int64
	Size      int64
	Err       error
}

// Progress returns the fraction transferred, in [0, 1]. Unknown sizes
// report 0 until completion.
func (j *Job) Progress() float64 {
	if j.Size <= 0 {
		if j.Status == StatusCompleted {
			return 1
		}
		return 0
	}
	return float64(j.BytesRead) / float64(j.Size)
}

// Manager downloads tracks and hands the files to the library.
type Manager struct {
	mu sync.Mutex

	resolver *resolve.Resolver
	library  Importer
	dir      string
	client   *http.Client

	jobs map[string]*Job // keyed by composite key
}

// New creates a manager writing downloads into dir.
func New(resolver *resolve.Resolver, library Importer, dir string) *Manager {
	rc := retryablehttp.NewClient()
	rc.RetryMax = 2
	rc.Logger = nil
	return &Manager{
		resolver: resolver,
		library:  library,
		dir:      dir,
		client:   rc.StandardClient(),
		jobs:     make(map[string]*Job),
	}
}

// IsDownloaded reports whether the composite key is already in the
// local library.
func (m *Manager) IsDownloaded(key string) bool {
	return m.library.IsDownloaded(key)
}

// ProgressOf reports the progress of an active download for the key.
// The second return is false when no download is running.
func (m *Manager) ProgressOf(key string) (float64, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	j, ok := m.jobs[key]
	if !ok || j.Status == StatusCompleted || j.Status == StatusFailed {
		return 0, false
	}
	return j.Progress(), true
}

// Jobs returns a snapshot of all known jobs.
func (m *Manager) Jobs() []Job {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Job, 0, len(m.jobs))
	for _, j := range m.jobs {
		out = append(out, *j)
	}
	return out
}

// Start downloads a remote track into the library. Local tracks and
// tracks already downloaded or in flight are no-ops.
func (m *Manager) Start(ctx context.Context, t track.Track) error {
	if t.Local || t.Source == track.SourceLocal {
		return nil
	}
	key := t.Key()
	if m.library.IsDownloaded(key) {
		return nil
	}

	m.mu.Lock()
	if j, ok := m.jobs[key]; ok && j.Status != StatusFailed {
		m.mu.Unlock()
		return nil
	}
	job := &Job{Track: t, Status: StatusPending}
	m.jobs[key] = job
	m.mu.Unlock()

	go m.run(ctx, job, key)
	return nil
}

func (m *Manager) run(ctx context.Context, job *Job, key string) {
	err := m.download(ctx, job, key)

	m.mu.Lock()
	defer m.mu.Unlock()
	if err != nil {
		job.Status = StatusFailed
		job.Err = err
		return
	}
	job.Status = StatusCompleted
}

func (m *Manager) download(ctx context.Context, job *Job, key string) error {
	ref, err := m.resolver.Resolve(ctx, job.Track)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ref.URI, nil)
	if err != nil {
		return err
	}
	resp, err := m.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("download: unexpected status %d", resp.StatusCode)
	}

	m.mu.Lock()
	job.Status = StatusDownloading
	job.Size = resp.ContentLength
	m.mu.Unlock()

	if err := os.MkdirAll(m.dir, 0o755); err != nil {
		return err
	}
	path := filepath.Join(m.dir, filenameFor(job.Track, resp.Header.Get("Content-Type")))
	f, err := os.Create(path)
	if err != nil {
		return err
	}

	_, err = io.Copy(f, &countingReader{r: resp.Body, m: m, job: job})
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(path)
		return err
	}

	return m.library.ImportRemote(job.Track, path)
}

// countingReader updates the job's byte counter as the body streams.
type countingReader struct {
	r   io.Reader
	m   *Manager
	job *Job
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	if n > 0 {
		c.m.mu.Lock()
		c.job.BytesRead += int64(n)
		c.m.mu.Unlock()
	}
	return n, err
}

// filenameFor builds a stable, filesystem-safe name for the download.
func filenameFor(t track.Track, contentType string) string {
	base := t.Artist + " - " + t.Title
	if base == " - " {
		base = t.Key()
	}
	base = sanitize(base)

	ext := ".mp3"
	switch {
	case strings.Contains(contentType, "flac"):
		ext = ".flac"
	case strings.Contains(contentType, "ogg"):
		ext = ".ogg"
	case strings.Contains(contentType, "wav"):
		ext = ".wav"
	}
	return base + ext
}

func sanitize(s string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|':
			return '_'
		}
		return r
	}, s)
}
