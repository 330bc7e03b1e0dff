package marionette

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"
)

// Fetcher retrieves raw asset bytes (model documents, moc blobs, textures)
// by path or absolute URL.
type Fetcher interface {
	Fetch(path string) ([]byte, error)
}

// Client talks to the backend HTTP API. It holds an ordered endpoint list
// with a sticky-fallback discipline: the primary is tried first, then the
// fallbacks in order; whichever endpoint first succeeds becomes the new
// primary for subsequent calls in the session.
//
// The mutex only guards the sticky primary index; model loads run in
// background goroutines and may race on it; everything else in marionette
// stays on the game loop.
type Client struct {
	endpoints []string
	http      *http.Client

	mu      sync.Mutex
	primary int
}

// NewClient creates a backend client over the given base URLs, primary
// first. An empty list yields a client whose calls all fail with
// *AssetFetchError.
func NewClient(endpoints []string) *Client {
	return &Client{
		endpoints: endpoints,
		http:      &http.Client{Timeout: 15 * time.Second},
	}
}

// CatalogueEntry is one model offered by the backend.
type CatalogueEntry = ModelLocator

// Catalogue fetches the list of available models.
func (c *Client) Catalogue() ([]CatalogueEntry, error) {
	var entries []CatalogueEntry
	if err := c.getJSON("/models", &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// motionDocument matches the backend motion endpoint payload.
type motionDocument struct {
	Motions map[string][]motionEntry `json:"motions"`
}

type motionEntry struct {
	Name        string  `json:"name"`
	File        string  `json:"file"`
	Index       int     `json:"index"`
	FadeInTime  float64 `json:"fadeInTime"`
	FadeOutTime float64 `json:"fadeOutTime"`
}

// Motions fetches the grouped motion data for one character.
func (c *Client) Motions(character string) (map[string][]motionEntry, error) {
	var doc motionDocument
	if err := c.getJSON("/motions/"+url.PathEscape(character), &doc); err != nil {
		return nil, err
	}
	return doc.Motions, nil
}

type previewDocument struct {
	Success bool   `json:"success"`
	Preview string `json:"preview"`
}

// GetPreview fetches the cached preview for a character. A 404 means the
// backend has none; that is not an error, the empty string triggers
// downstream snapshot generation.
func (c *Client) GetPreview(character string) (string, error) {
	data, status, err := c.get("/preview/" + url.PathEscape(character))
	if err != nil {
		return "", err
	}
	if status == http.StatusNotFound {
		return "", nil
	}
	var doc previewDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return "", fmt.Errorf("marionette: decode preview: %w", err)
	}
	if !doc.Success {
		return "", nil
	}
	return doc.Preview, nil
}

// PutPreview uploads a preview snapshot for a character.
func (c *Client) PutPreview(character, preview string) error {
	body, err := json.Marshal(map[string]string{"preview": preview})
	if err != nil {
		return err
	}
	data, _, err := c.post("/preview/"+url.PathEscape(character), body)
	if err != nil {
		return err
	}
	var doc previewDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("marionette: decode preview response: %w", err)
	}
	if !doc.Success {
		return fmt.Errorf("marionette: backend rejected preview for %s", character)
	}
	return nil
}

// Fetch implements Fetcher. Absolute URLs are fetched directly; relative
// paths resolve against the sticky endpoint list.
func (c *Client) Fetch(path string) ([]byte, error) {
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return c.fetchURL(path)
	}
	data, status, err := c.get(path)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, &AssetFetchError{URL: path, Err: fmt.Errorf("status %d", status)}
	}
	return data, nil
}

// MotionFileURL resolves a relative motion file path against the current
// sticky primary endpoint.
func (c *Client) MotionFileURL(file string) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.endpoints) == 0 {
		return file
	}
	return joinURL(c.endpoints[c.primary], file)
}

// --- Transport internals ---

// tryOrder returns endpoint indices in sticky order: primary first, then
// the remaining endpoints in their configured order.
func (c *Client) tryOrder() []int {
	c.mu.Lock()
	primary := c.primary
	c.mu.Unlock()

	order := make([]int, 0, len(c.endpoints))
	order = append(order, primary)
	for i := range c.endpoints {
		if i != primary {
			order = append(order, i)
		}
	}
	return order
}

func (c *Client) promote(i int) {
	c.mu.Lock()
	c.primary = i
	c.mu.Unlock()
}

// get performs a GET against the endpoint list with sticky fallback.
// A 404 from an otherwise-healthy endpoint is a definitive answer, not a
// reason to try the next endpoint.
func (c *Client) get(path string) ([]byte, int, error) {
	return c.do(http.MethodGet, path, nil)
}

func (c *Client) post(path string, body []byte) ([]byte, int, error) {
	return c.do(http.MethodPost, path, body)
}

func (c *Client) do(method, path string, body []byte) ([]byte, int, error) {
	if len(c.endpoints) == 0 {
		return nil, 0, &AssetFetchError{URL: path, Err: fmt.Errorf("no endpoints configured")}
	}
	var lastErr error
	for _, i := range c.tryOrder() {
		u := joinURL(c.endpoints[i], path)
		data, status, err := c.request(method, u, body)
		if err != nil {
			lastErr = err
			debugf("endpoint %s failed, trying next: %v", c.endpoints[i], err)
			continue
		}
		c.promote(i)
		return data, status, nil
	}
	return nil, 0, lastErr
}

func (c *Client) request(method, u string, body []byte) ([]byte, int, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequest(method, u, reader)
	if err != nil {
		return nil, 0, &AssetFetchError{URL: u, Err: err}
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, 0, &AssetFetchError{URL: u, Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, &AssetFetchError{URL: u, Err: err}
	}
	if resp.StatusCode >= 500 {
		return nil, 0, &AssetFetchError{URL: u, Err: fmt.Errorf("status %d", resp.StatusCode)}
	}
	return data, resp.StatusCode, nil
}

func (c *Client) fetchURL(u string) ([]byte, error) {
	data, status, err := c.request(http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, &AssetFetchError{URL: u, Err: fmt.Errorf("status %d", status)}
	}
	return data, nil
}

func (c *Client) getJSON(path string, v any) error {
	data, status, err := c.get(path)
	if err != nil {
		return err
	}
	if status != http.StatusOK {
		return &AssetFetchError{URL: path, Err: fmt.Errorf("status %d", status)}
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("marionette: decode %s: %w", path, err)
	}
	return nil
}

func joinURL(base, path string) string {
	return strings.TrimSuffix(base, "/") + "/" + strings.TrimPrefix(path, "/")
}
