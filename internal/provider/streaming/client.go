// Package streaming implements the subscription hi-fi catalog source.
package streaming

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"golang.org/x/time/rate"
)

const (
	requestTimeout = 15 * time.Second
	// The catalog throttles aggressively; stay well under its limit.
	requestsPerSecond = 4
)

// Client provides access to the streaming catalog API.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	limiter    *rate.Limiter
}

// NewClient creates a new catalog client. baseURL must not have a trailing
// slash; token is the subscription session token.
func NewClient(baseURL, token string) *Client {
	rc := retryablehttp.NewClient()
	rc.RetryMax = 2
	rc.Logger = nil
	rc.HTTPClient.Timeout = requestTimeout

	return &Client{
		baseURL:    baseURL,
		token:      token,
		httpClient: rc.StandardClient(),
		limiter:    rate.NewLimiter(rate.Limit(requestsPerSecond), 1),
	}
}

// apiTrack is the catalog's native track record.
type apiTrack struct {
	ID           string `json:"id"`
	Title        string `json:"title"`
	Artist       string `json:"artist"`
	AlbumTitle   string `json:"albumTitle"`
	AlbumCover   string `json:"albumCover"`
	Duration     int    `json:"duration"` // seconds
	AudioQuality struct {
		MaximumBitDepth     int  `json:"maximumBitDepth"`
		MaximumSamplingRate int  `json:"maximumSampleRate"`
		IsHiRes             bool `json:"isHiRes"`
	} `json:"audioQuality"`
}

// SearchTracks runs a track search against the catalog.
func (c *Client) SearchTracks(ctx context.Context, query string) ([]apiTrack, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	searchURL := fmt.Sprintf("%s/search?q=%s&type=track", c.baseURL, url.QueryEscape(query))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, searchURL, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	c.setHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("API returned status %d: %s", resp.StatusCode, string(body))
	}

	var result struct {
		Tracks []apiTrack `json:"tracks"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return result.Tracks, nil
}

// streamGrant is the catalog's response to a stream request. The URL is
// signed and expires; it must be requested fresh for every playback attempt.
type streamGrant struct {
	URL       string `json:"url"`
	Format    string `json:"format"`
	ExpiresAt string `json:"expiresAt"` // RFC 3339, may be empty
}

// StreamURL requests a fresh signed stream URL for a track id.
func (c *Client) StreamURL(ctx context.Context, trackID, quality string) (streamGrant, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return streamGrant{}, err
	}

	reqURL := fmt.Sprintf("%s/stream?trackId=%s&quality=%s",
		c.baseURL, url.QueryEscape(trackID), url.QueryEscape(quality))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, http.NoBody)
	if err != nil {
		return streamGrant{}, fmt.Errorf("create request: %w", err)
	}
	c.setHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return streamGrant{}, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return streamGrant{}, fmt.Errorf("API returned status %d: %s", resp.StatusCode, string(body))
	}

	var grant streamGrant
	if err := json.NewDecoder(resp.Body).Decode(&grant); err != nil {
		return streamGrant{}, fmt.Errorf("decode response: %w", err)
	}
	if grant.URL == "" {
		return streamGrant{}, fmt.Errorf("catalog returned no stream URL for track %s", trackID)
	}
	return grant, nil
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/json")
}
