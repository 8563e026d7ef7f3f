// Package jellyfin implements the Jellyfin media server source.
package jellyfin

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/hashicorp/go-retryablehttp"
)

// Client provides access to a Jellyfin server's REST API using an API key.
type Client struct {
	baseURL    string
	apiKey     string
	userID     string
	httpClient *http.Client
}

// NewClient creates a new Jellyfin client. baseURL must not have a
// trailing slash.
func NewClient(baseURL, apiKey, userID string) *Client {
	rc := retryablehttp.NewClient()
	rc.RetryMax = 2
	rc.Logger = nil
	rc.HTTPClient.Timeout = 15 * time.Second

	return &Client{
		baseURL:    baseURL,
		apiKey:     apiKey,
		userID:     userID,
		httpClient: rc.StandardClient(),
	}
}

// item is the Jellyfin API's audio item record. RunTimeTicks are 100ns units.
type item struct {
	ID           string   `json:"Id"`
	Name         string   `json:"Name"`
	Album        string   `json:"Album"`
	AlbumArtist  string   `json:"AlbumArtist"`
	Artists      []string `json:"Artists"`
	IndexNumber  int      `json:"IndexNumber"`
	RunTimeTicks int64    `json:"RunTimeTicks"`
	ImageTags    struct {
		Primary string `json:"Primary"`
	} `json:"ImageTags"`
}

// SearchAudio searches audio items by term.
func (c *Client) SearchAudio(ctx context.Context, term string, limit int) ([]item, error) {
	params := url.Values{}
	params.Set("searchTerm", term)
	params.Set("IncludeItemTypes", "Audio")
	params.Set("Recursive", "true")
	params.Set("Limit", fmt.Sprintf("%d", limit))

	reqURL := fmt.Sprintf("%s/Users/%s/Items?%s", c.baseURL, url.PathEscape(c.userID), params.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, http.NoBody)
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
		Items []item `json:"Items"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return result.Items, nil
}

// AudioStreamURL builds a universal audio stream URL for an item. The URL
// embeds the API key, so it is minted per playback attempt.
func (c *Client) AudioStreamURL(itemID string, maxBitRate int) string {
	params := url.Values{}
	params.Set("api_key", c.apiKey)
	params.Set("UserId", c.userID)
	params.Set("Container", "flac,mp3,ogg")
	if maxBitRate > 0 {
		params.Set("MaxStreamingBitrate", fmt.Sprintf("%d", maxBitRate*1000))
	}
	return fmt.Sprintf("%s/Audio/%s/universal?%s", c.baseURL, url.PathEscape(itemID), params.Encode())
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("Authorization",
		fmt.Sprintf(`MediaBrowser Client="cadence", Device="cadence", Version="1.0", Token="%s"`, c.apiKey))
	req.Header.Set("Accept", "application/json")
}
