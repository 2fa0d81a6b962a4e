package imagecache

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/sync/singleflight"
	"todo-project/pkg/logger"
)

const (
	imageFile    = "cached-image.jpg"
	metadataFile = "image-metadata.json"
	maxRedirects = 10
)

type metadata struct {
	Timestamp int64 `json:"timestamp"` // unix milliseconds
}

// Cache serves a recent copy of an external image from disk, refetching once
// the entry is older than the TTL. Concurrent misses share a single fetch.
type Cache struct {
	url    string
	dir    string
	ttl    time.Duration
	client *http.Client
	group  singleflight.Group
	now    func() time.Time
}

// New returns a cache that fetches url and stores the bytes under dir.
func New(url, dir string, ttl time.Duration) *Cache {
	return &Cache{
		url: url,
		dir: dir,
		ttl: ttl,
		client: &http.Client{
			// Redirects are followed by hand so the hop count can be capped.
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		now: time.Now,
	}
}

// Get returns the cached image bytes, refreshing first if the entry is absent
// or stale.
func (c *Cache) Get(ctx context.Context) ([]byte, error) {
	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return nil, err
	}
	if c.fresh() {
		logger.Debug(ctx, "Serving cached image")
		return os.ReadFile(c.imagePath())
	}
	_, err, _ := c.group.Do("image", func() (interface{}, error) {
		return nil, c.fetch(ctx)
	})
	if err != nil {
		return nil, err
	}
	return os.ReadFile(c.imagePath())
}

// fresh reports whether a complete cache entry exists and is within the TTL.
// The metadata file is written last, so its presence implies the image bytes
// were fully written.
func (c *Cache) fresh() bool {
	if _, err := os.Stat(c.imagePath()); err != nil {
		return false
	}
	raw, err := os.ReadFile(c.metadataPath())
	if err != nil {
		return false
	}
	var m metadata
	if err := json.Unmarshal(raw, &m); err != nil {
		return false
	}
	age := c.now().Sub(time.UnixMilli(m.Timestamp))
	return age < c.ttl
}

// fetch downloads a new image, following redirects up to maxRedirects hops,
// and replaces the cache entry wholesale: bytes first, metadata after.
func (c *Cache) fetch(ctx context.Context) error {
	logger.Info(ctx, "Fetching new image", "url", c.url)
	url := c.url
	for hop := 0; hop < maxRedirects; hop++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return err
		}
		resp, err := c.client.Do(req)
		if err != nil {
			return err
		}
		if resp.StatusCode >= 300 && resp.StatusCode < 400 {
			loc, err := resp.Location()
			resp.Body.Close()
			if err != nil {
				return fmt.Errorf("failed to fetch image: redirect without location (status %d)", resp.StatusCode)
			}
			logger.Debug(ctx, "Following redirect", "location", loc.String())
			url = loc.String()
			continue
		}
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			resp.Body.Close()
			return fmt.Errorf("failed to fetch image: status %d", resp.StatusCode)
		}
		err = c.store(resp.Body)
		resp.Body.Close()
		if err != nil {
			return err
		}
		logger.Info(ctx, "Image cached successfully")
		return nil
	}
	return fmt.Errorf("failed to fetch image: more than %d redirects", maxRedirects)
}

func (c *Cache) store(body io.Reader) error {
	f, err := os.Create(c.imagePath())
	if err != nil {
		return err
	}
	if _, err := io.Copy(f, body); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	raw, err := json.Marshal(metadata{Timestamp: c.now().UnixMilli()})
	if err != nil {
		return err
	}
	return os.WriteFile(c.metadataPath(), raw, 0o644)
}

func (c *Cache) imagePath() string    { return filepath.Join(c.dir, imageFile) }
func (c *Cache) metadataPath() string { return filepath.Join(c.dir, metadataFile) }
