package audio

import (
	"fmt"
	"io"
	"net/http"
)

// httpSeeker exposes a stream URL as an io.ReadSeekCloser using HTTP
// range requests, so the decoders can seek without downloading the whole
// file up front.
type httpSeeker struct {
	url           string
	currentPos    int64
	contentLength int64
	contentType   string
	reader        io.ReadCloser
	client        *http.Client
}

func newHTTPSeeker(url string) (*httpSeeker, error) {
	client := &http.Client{}

	resp, err := client.Head(url)
	if err != nil {
		return nil, fmt.Errorf("probe stream: %w", err)
	}
	resp.Body.Close()

	hs := &httpSeeker{
		url:           url,
		contentLength: resp.ContentLength, // -1 for chunked encoding is fine
		contentType:   resp.Header.Get("Content-Type"),
		client:        client,
	}
	if err := hs.openReader(0); err != nil {
		return nil, err
	}
	return hs, nil
}

func (hs *httpSeeker) ContentType() string {
	return hs.contentType
}

func (hs *httpSeeker) openReader(pos int64) error {
	if hs.reader != nil {
		hs.reader.Close()
	}

	req, err := http.NewRequest(http.MethodGet, hs.url, http.NoBody)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if pos > 0 {
		req.Header.Set("Range", fmt.Sprintf("bytes=%d-", pos))
	}

	resp, err := hs.client.Do(req)
	if err != nil {
		return fmt.Errorf("open stream: %w", err)
	}
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusPartialContent {
		resp.Body.Close()
		return fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	hs.reader = resp.Body
	hs.currentPos = pos
	return nil
}

func (hs *httpSeeker) Read(p []byte) (n int, err error) {
	if hs.reader == nil {
		return 0, fmt.Errorf("no active reader")
	}
	n, err = hs.reader.Read(p)
	hs.currentPos += int64(n)
	return n, err
}

func (hs *httpSeeker) Seek(offset int64, whence int) (int64, error) {
	var newPos int64
	switch whence {
	case io.SeekStart:
		newPos = offset
	case io.SeekCurrent:
		newPos = hs.currentPos + offset
	case io.SeekEnd:
		newPos = hs.contentLength + offset
	default:
		return 0, fmt.Errorf("invalid whence: %d", whence)
	}

	if newPos < 0 {
		return 0, fmt.Errorf("negative position")
	}
	if hs.contentLength >= 0 && newPos > hs.contentLength {
		newPos = hs.contentLength
	}

	if newPos != hs.currentPos {
		if err := hs.openReader(newPos); err != nil {
			return hs.currentPos, err
		}
	}
	return hs.currentPos, nil
}

func (hs *httpSeeker) Close() error {
	if hs.reader != nil {
		return hs.reader.Close()
	}
	return nil
}
