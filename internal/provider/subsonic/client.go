// Package subsonic implements the Subsonic-API media server source.
package subsonic

import (
	"context"
	"crypto/md5"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/hashicorp/go-retryablehttp"
)

const (
	apiVersion = "1.16.1"
	clientName = "cadence"
)

// Client provides access to a Subsonic-compatible server's REST API.
type Client struct {
	baseURL    string
	username   string
	password   string
	httpClient *http.Client
}

// NewClient creates a new Subsonic client. baseURL must not have a
// trailing slash.
func NewClient(baseURL, username, password string) *Client {
	rc := retryablehttp.NewClient()
	rc.RetryMax = 2
	rc.Logger = nil
	rc.HTTPClient.Timeout = 15 * time.Second

	return &Client{
		baseURL:    baseURL,
		username:   username,
		password:   password,
		httpClient: rc.StandardClient(),
	}
}

// authParams builds the salted-token auth parameters the Subsonic API
// requires on every call.
func (c *Client) authParams() url.Values {
	salt := randomSalt()
	token := md5.Sum([]byte(c.password + salt))

	params := url.Values{}
	params.Set("u", c.username)
	params.Set("t", hex.EncodeToString(token[:]))
	params.Set("s", salt)
	params.Set("v", apiVersion)
	params.Set("c", clientName)
	params.Set("f", "json")
	return params
}

func randomSalt() string {
	b := make([]byte, 8)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}

// child is the Subsonic API's song record.
type child struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Artist   string `json:"artist"`
	Album    string `json:"album"`
	Track    int    `json:"track"`
	Duration int    `json:"duration"` // seconds
	CoverArt string `json:"coverArt"`
	BitRate  int    `json:"bitRate"`
	Suffix   string `json:"suffix"`
}

type subsonicResponse struct {
	SubsonicResponse struct {
		Status string `json:"status"`
		Error  struct {
			Code    int    `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
		SearchResult3 struct {
			Song []child `json:"song"`
		} `json:"searchResult3"`
	} `json:"subsonic-response"`
}

// Ping verifies connectivity and credentials.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.call(ctx, "ping", nil)
	return err
}

// Search3 runs a song search.
func (c *Client) Search3(ctx context.Context, query string, songCount int) ([]child, error) {
	params := url.Values{}
	params.Set("query", query)
	params.Set("songCount", fmt.Sprintf("%d", songCount))
	params.Set("artistCount", "0")
	params.Set("albumCount", "0")

	body, err := c.call(ctx, "search3", params)
	if err != nil {
		return nil, err
	}
	return body.SubsonicResponse.SearchResult3.Song, nil
}

// StreamURL builds a streaming URL for a song id. Subsonic stream URLs
// embed a fresh auth token, so each call yields a new time-boxed URL.
func (c *Client) StreamURL(id string, maxBitRate int) string {
	params := c.authParams()
	params.Set("id", id)
	if maxBitRate > 0 {
		params.Set("maxBitRate", fmt.Sprintf("%d", maxBitRate))
	}
	return c.baseURL + "/rest/stream?" + params.Encode()
}

func (c *Client) call(ctx context.Context, endpoint string, extra url.Values) (*subsonicResponse, error) {
	params := c.authParams()
	for k, vs := range extra {
		for _, v := range vs {
			params.Add(k, v)
		}
	}

	reqURL := c.baseURL + "/rest/" + endpoint + "?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("API returned status %d: %s", resp.StatusCode, string(body))
	}

	var result subsonicResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if result.SubsonicResponse.Status != "ok" {
		e := result.SubsonicResponse.Error
		return nil, fmt.Errorf("server error %d: %s", e.Code, e.Message)
	}
	return &result, nil
}
