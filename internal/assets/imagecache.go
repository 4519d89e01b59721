package assets

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"
)

var unsafeChars = regexp.MustCompile(`\W+`)

// ImageCache fetches reaction images by search query with an on-disk cache.
// Cache keys are sanitized queries, so repeated queries never re-download.
type ImageCache struct {
	dir        string
	apiKey     string
	cxKey      string
	httpClient *http.Client
}

// NewImageCache creates a cache rooted at dir. Credentials come from
// GOOGLE_API_KEY and GOOGLE_CX_KEY.
func NewImageCache(dir string) *ImageCache {
	return &ImageCache{
		dir:        dir,
		apiKey:     os.Getenv("GOOGLE_API_KEY"),
		cxKey:      os.Getenv("GOOGLE_CX_KEY"),
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
}

// SetHTTPClient overrides the HTTP client (used by tests)
func (c *ImageCache) SetHTTPClient(client *http.Client) { c.httpClient = client }

// Fetch resolves a search query to a local image path. A cached image is
// returned without any network call. Any lookup or download failure returns
// ""; callers treat that as no asset available, not an error.
func (c *ImageCache) Fetch(ctx context.Context, query string) string {
	if query == "" {
		return ""
	}

	key := CacheKey(query)
	localPath := filepath.Join(c.dir, key)
	if _, err := os.Stat(localPath); err == nil {
		log.Printf("[assets] cache hit for %q", query)
		return localPath
	}

	if c.apiKey == "" || c.cxKey == "" {
		log.Printf("[assets] image search credentials missing; skipping %q", query)
		return ""
	}

	imgURL, err := c.search(ctx, query)
	if err != nil {
		log.Printf("[assets] Warning: image search failed for %q: %v", query, err)
		return ""
	}

	if err := c.download(ctx, imgURL, localPath); err != nil {
		log.Printf("[assets] Warning: image download failed for %q: %v", query, err)
		return ""
	}

	log.Printf("[assets] downloaded new image asset: %s", key)
	return localPath
}

// CacheKey normalizes a query to a filesystem-safe cache filename
func CacheKey(query string) string {
	return unsafeChars.ReplaceAllString(strings.ToLower(query), "_") + ".jpg"
}

type searchResponse struct {
	Items []struct {
		Link string `json:"link"`
	} `json:"items"`
}

func (c *ImageCache) search(ctx context.Context, query string) (string, error) {
	params := url.Values{}
	params.Set("q", query)
	params.Set("cx", c.cxKey)
	params.Set("key", c.apiKey)
	params.Set("searchType", "image")
	params.Set("num", "1")
	params.Set("fileType", "jpg")

	reqURL := "https://www.googleapis.com/customsearch/v1?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, "GET", reqURL, nil)
	if err != nil {
		return "", err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("HTTP %d from image search", resp.StatusCode)
	}

	var result searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", err
	}
	if len(result.Items) == 0 {
		return "", fmt.Errorf("no results for %q", query)
	}
	return result.Items[0].Link, nil
}

// download writes to a temp file and renames into place so concurrent
// readers never observe a partial image
func (c *ImageCache) download(ctx context.Context, imgURL, dest string) error {
	if err := os.MkdirAll(c.dir, 0755); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, "GET", imgURL, nil)
	if err != nil {
		return err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("HTTP %d downloading image", resp.StatusCode)
	}

	tmp, err := os.CreateTemp(c.dir, ".download-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, resp.Body); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), dest)
}
