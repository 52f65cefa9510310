// Package youtube looks up public video metadata through oEmbed.
package youtube

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"time"

	"golang.org/x/sync/errgroup"
)

// DefaultEndpoint is YouTube's public oEmbed endpoint
const DefaultEndpoint = "https://www.youtube.com/oembed"

const listLimit = 4

var videoID = regexp.MustCompile(`^[A-Za-z0-9_-]{6,20}$`)

// Video is the metadata oEmbed exposes for one video
type Video struct {
	ID           string `json:"id"`
	Title        string `json:"title"`
	ThumbnailURL string `json:"thumbnail_url"`
	AuthorName   string `json:"author_name"`
}

// Client queries an oEmbed endpoint
type Client struct {
	endpoint string
	http     *http.Client
}

// NewClient creates a client for endpoint. An empty endpoint means
// DefaultEndpoint.
func NewClient(endpoint string, timeout time.Duration) *Client {
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	return &Client{
		endpoint: endpoint,
		http:     &http.Client{Timeout: timeout},
	}
}

// ValidID reports whether id looks like a YouTube video id
func ValidID(id string) bool {
	return videoID.MatchString(id)
}

// Metadata returns the metadata of video id. A video oEmbed does not know
// (removed, private, bad id) is (nil, nil); only transport failures are errors.
func (c *Client) Metadata(ctx context.Context, id string) (*Video, error) {
	q := url.Values{}
	q.Set("url", "https://www.youtube.com/watch?v="+id)
	q.Set("format", "json")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint+"?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build oembed request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch oembed for %s: %w", id, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, nil
	}

	var v Video
	if err := json.NewDecoder(resp.Body).Decode(&v); err != nil {
		return nil, fmt.Errorf("failed to decode oembed for %s: %w", id, err)
	}
	v.ID = id
	return &v, nil
}

// MetadataList looks up ids concurrently and returns the videos found, in
// the order of ids. Unknown videos are left out.
func (c *Client) MetadataList(ctx context.Context, ids []string) ([]Video, error) {
	found := make([]*Video, len(ids))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(listLimit)
	for i, id := range ids {
		g.Go(func() error {
			v, err := c.Metadata(ctx, id)
			if err != nil {
				return err
			}
			found[i] = v
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	videos := make([]Video, 0, len(ids))
	for _, v := range found {
		if v != nil {
			videos = append(videos, *v)
		}
	}
	return videos, nil
}
