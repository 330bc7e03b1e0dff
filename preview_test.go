package marionette

import (
	"encoding/json"
	"fmt"
	"image"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/quasilyte/gdata/v2"
)

// previewBackend is an httptest backend serving the preview endpoints and
// counting GET hits so tests can tell cache layers apart.
type previewBackend struct {
	srv    *httptest.Server
	stored map[string]string
	gets   atomic.Int64
}

func newPreviewBackend(t *testing.T) *previewBackend {
	t.Helper()
	b := &previewBackend{stored: map[string]string{}}
	b.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		name := strings.TrimPrefix(r.URL.Path, "/preview/")
		switch r.Method {
		case http.MethodGet:
			b.gets.Add(1)
			p, ok := b.stored[name]
			if !ok {
				http.NotFound(w, r)
				return
			}
			json.NewEncoder(w).Encode(map[string]any{"success": true, "preview": p})
		case http.MethodPost:
			var body map[string]string
			if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			b.stored[name] = body["preview"]
			json.NewEncoder(w).Encode(map[string]any{"success": true})
		default:
			http.Error(w, "method", http.StatusMethodNotAllowed)
		}
	}))
	t.Cleanup(b.srv.Close)
	return b
}

func testStore(t *testing.T, name string) *gdata.Manager {
	t.Helper()
	appName := fmt.Sprintf("marionette_test_%s_%d", name, time.Now().UnixNano())
	m, err := gdata.Open(gdata.Config{AppName: appName})
	if err != nil {
		t.Fatalf("gdata.Open: %v", err)
	}
	t.Cleanup(func() {
		if home, err := os.UserHomeDir(); err == nil {
			os.RemoveAll(filepath.Join(home, ".local", "share", appName))
		}
	})
	return m
}

func testFrame() image.Image {
	return image.NewRGBA(image.Rect(0, 0, 64, 96))
}

func TestPreviewCache_GetEmptyOnBothMisses(t *testing.T) {
	b := newPreviewBackend(t)
	pc := NewPreviewCache(NewClient([]string{b.srv.URL}), testStore(t, "miss"))

	got, err := pc.Get("haru")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got != "" {
		t.Errorf("Get = %q, want empty", got)
	}
}

func TestPreviewCache_PutThenGetRoundTrips(t *testing.T) {
	b := newPreviewBackend(t)
	pc := NewPreviewCache(NewClient([]string{b.srv.URL}), testStore(t, "roundtrip"))

	if err := pc.Put("haru", "data:image/webp;base64,AAAA"); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if b.stored["haru"] == "" {
		t.Fatalf("Put did not reach the backend")
	}

	got, err := pc.Get("haru")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got != "data:image/webp;base64,AAAA" {
		t.Errorf("Get = %q", got)
	}
	// Put wrote through locally, so the read never touched the backend.
	if n := b.gets.Load(); n != 0 {
		t.Errorf("backend GETs = %d, want 0", n)
	}
}

func TestPreviewCache_BackendHitBackfillsLocalStore(t *testing.T) {
	b := newPreviewBackend(t)
	b.stored["haru"] = "data:image/webp;base64,BBBB"
	pc := NewPreviewCache(NewClient([]string{b.srv.URL}), testStore(t, "backfill"))

	for i := 0; i < 2; i++ {
		got, err := pc.Get("haru")
		if err != nil {
			t.Fatalf("Get #%d: %v", i+1, err)
		}
		if got != "data:image/webp;base64,BBBB" {
			t.Fatalf("Get #%d = %q", i+1, got)
		}
	}
	if n := b.gets.Load(); n != 1 {
		t.Errorf("backend GETs = %d, want 1 (second read served locally)", n)
	}
}

func TestPreviewCache_NilStoreDegradesToBackendOnly(t *testing.T) {
	b := newPreviewBackend(t)
	b.stored["haru"] = "data:image/webp;base64,CCCC"
	pc := NewPreviewCache(NewClient([]string{b.srv.URL}), nil)

	for i := 0; i < 2; i++ {
		got, err := pc.Get("haru")
		if err != nil || got == "" {
			t.Fatalf("Get #%d = (%q, %v)", i+1, got, err)
		}
	}
	if n := b.gets.Load(); n != 2 {
		t.Errorf("backend GETs = %d, want 2 without a local layer", n)
	}
}

func TestSnapshot_ProducesWebPDataURL(t *testing.T) {
	got, err := Snapshot(testFrame(), 250, 250)
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	if !strings.HasPrefix(got, "data:image/webp;base64,") {
		t.Errorf("missing data URL prefix: %.40q", got)
	}
	if len(got) <= len("data:image/webp;base64,") {
		t.Errorf("empty payload")
	}
}

func TestSnapshot_RejectsDegenerateSize(t *testing.T) {
	if _, err := Snapshot(testFrame(), 0, 250); err == nil {
		t.Errorf("zero width accepted")
	}
	if _, err := Snapshot(testFrame(), 250, -1); err == nil {
		t.Errorf("negative height accepted")
	}
}

func TestPreviewCache_EnsureGeneratesOnceThenReuses(t *testing.T) {
	b := newPreviewBackend(t)
	pc := NewPreviewCache(NewClient([]string{b.srv.URL}), testStore(t, "ensure"))

	first, err := pc.Ensure("haru", testFrame(), 32, 32)
	if err != nil {
		t.Fatalf("Ensure: %v", err)
	}
	if !strings.HasPrefix(first, "data:image/webp;base64,") {
		t.Fatalf("generated preview malformed: %.40q", first)
	}
	if b.stored["haru"] != first {
		t.Errorf("generated preview not uploaded")
	}

	second, err := pc.Ensure("haru", testFrame(), 32, 32)
	if err != nil {
		t.Fatalf("Ensure: %v", err)
	}
	if second != first {
		t.Errorf("Ensure regenerated instead of reusing the cache")
	}
}
