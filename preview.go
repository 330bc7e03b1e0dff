package marionette

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"

	"github.com/HugoSmits86/nativewebp"
	"github.com/quasilyte/gdata/v2"
	"golang.org/x/image/draw"
)

// gdata storage location for cached previews.
const (
	previewObject = "previews"
	previewPrefix = "data:image/webp;base64,"
)

// PreviewCache is a best-effort thumbnail cache: a local gdata layer is
// consulted before the backend (read-through), and uploads land in both
// (write-through). The local store may be nil, in which case only the
// backend is consulted; a failed gdata.Open degrades to that mode.
type PreviewCache struct {
	client *Client
	store  *gdata.Manager
}

// NewPreviewCache creates a cache over the backend client and an optional
// local store.
func NewPreviewCache(client *Client, store *gdata.Manager) *PreviewCache {
	return &PreviewCache{client: client, store: store}
}

// Get returns the cached preview for a character, or "" when neither layer
// has one. A backend 404 is not an error; the empty result tells the caller
// to generate a snapshot.
func (pc *PreviewCache) Get(character string) (string, error) {
	if pc.store != nil && pc.store.ObjectPropExists(previewObject, character) {
		data, err := pc.store.LoadObjectProp(previewObject, character)
		if err == nil && len(data) > 0 {
			return string(data), nil
		}
		debugf("local preview for %s unreadable: %v", character, err)
	}

	preview, err := pc.client.GetPreview(character)
	if err != nil {
		return "", err
	}
	if preview != "" {
		pc.saveLocal(character, preview)
	}
	return preview, nil
}

// Put stores a preview in both layers. The local write is best-effort; the
// backend result is returned.
func (pc *PreviewCache) Put(character, preview string) error {
	pc.saveLocal(character, preview)
	return pc.client.PutPreview(character, preview)
}

func (pc *PreviewCache) saveLocal(character, preview string) {
	if pc.store == nil {
		return
	}
	if err := pc.store.SaveObjectProp(previewObject, character, []byte(preview)); err != nil {
		debugf("save local preview for %s: %v", character, err)
	}
}

// Snapshot downscales a stage frame to thumbnail size and encodes it as a
// WebP data URL suitable for Put.
func Snapshot(frame image.Image, width, height int) (string, error) {
	if width <= 0 || height <= 0 {
		return "", fmt.Errorf("marionette: snapshot size %dx%d", width, height)
	}
	thumb := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.CatmullRom.Scale(thumb, thumb.Bounds(), frame, frame.Bounds(), draw.Src, nil)

	var buf bytes.Buffer
	if err := nativewebp.Encode(&buf, thumb, nil); err != nil {
		return "", fmt.Errorf("marionette: encode snapshot: %w", err)
	}
	return previewPrefix + base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

// Ensure returns the cached preview for a character, generating and storing
// a fresh snapshot from the given frame when neither cache layer has one.
func (pc *PreviewCache) Ensure(character string, frame image.Image, width, height int) (string, error) {
	preview, err := pc.Get(character)
	if err != nil {
		debugf("preview lookup for %s: %v", character, err)
	}
	if preview != "" {
		return preview, nil
	}

	preview, err = Snapshot(frame, width, height)
	if err != nil {
		return "", err
	}
	if err := pc.Put(character, preview); err != nil {
		debugf("preview upload for %s: %v", character, err)
	}
	return preview, nil
}
