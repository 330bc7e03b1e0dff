package marionette

import (
	"bytes"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"math"
	"path"
	"strings"

	"github.com/hajimehoshi/ebiten/v2"
)

// Provider is one model-construction back-end. Providers wrap distinct
// library entry points that may or may not be present in the host build;
// an unavailable back-end is simply absent from the loader's list rather
// than detected at run time.
type Provider interface {
	Name() string
	Build(src *ModelSource, assets Fetcher) (*CharacterRuntime, error)
}

// RuntimeFactory constructs a deformation runtime from a binary model blob,
// returning the handle together with the raw shared-buffer geometry decoded
// from it. nil means the raw extraction fallback is unavailable.
type RuntimeFactory func(moc []byte) (DeformationRuntime, RawGeometry, error)

// Loader produces ready CharacterRuntimes. It tries each provider in order
// and falls back to raw extraction through the runtime factory; if
// everything fails the load fails with a *LoadError naming every attempt.
type Loader struct {
	providers []Provider
	factory   RuntimeFactory
	assets    Fetcher
	cfg       Config
}

// NewLoader creates a loader. providers may be empty and factory may be nil,
// but a loader with neither can never succeed.
func NewLoader(providers []Provider, factory RuntimeFactory, assets Fetcher, cfg Config) *Loader {
	return &Loader{providers: providers, factory: factory, assets: assets, cfg: cfg}
}

// Load fetches the model source document for the locator and constructs a
// CharacterRuntime. Blocking; the registry runs it off the game loop.
func (l *Loader) Load(loc ModelLocator) (*CharacterRuntime, error) {
	doc, err := l.assets.Fetch(loc.ConfigFile)
	if err != nil {
		return nil, err
	}
	src, err := ParseModelSource(doc)
	if err != nil {
		return nil, err
	}

	var attempts []LoadAttempt
	for _, p := range l.providers {
		runtime, err := p.Build(src, l.assets)
		if err == nil {
			return runtime, nil
		}
		debugf("provider %s failed for %s: %v", p.Name(), loc.Name, err)
		attempts = append(attempts, LoadAttempt{Provider: p.Name(), Err: err})
	}

	if l.factory != nil {
		runtime, err := l.loadRaw(loc, src)
		if err == nil {
			return runtime, nil
		}
		debugf("raw extraction failed for %s: %v", loc.Name, err)
		attempts = append(attempts, LoadAttempt{Provider: "raw", Err: err})
	}

	return nil, &LoadError{Model: loc.Name, Attempts: attempts}
}

// loadRaw is the manual extraction path: fetch the moc blob, construct the
// runtime, decode every referenced texture, and extract meshes with atlas
// remapping. The authored bounding box is unknown on this path, so
// ModelHeight stays 0 and scale-to-fit substitutes the configured constant.
func (l *Loader) loadRaw(loc ModelLocator, src *ModelSource) (*CharacterRuntime, error) {
	moc, err := l.assets.Fetch(resolveRef(loc, src.FileReferences.Moc))
	if err != nil {
		return nil, err
	}
	rt, geom, err := l.factory(moc)
	if err != nil {
		return nil, err
	}

	textures := make([]*ebiten.Image, 0, len(src.FileReferences.Textures))
	for _, ref := range src.FileReferences.Textures {
		data, err := l.assets.Fetch(resolveRef(loc, ref))
		if err != nil {
			rt.Release()
			return nil, err
		}
		img, _, err := image.Decode(bytes.NewReader(data))
		if err != nil {
			rt.Release()
			return nil, fmt.Errorf("marionette: decode texture %s: %w", ref, err)
		}
		textures = append(textures, ebiten.NewImageFromImage(img))
	}

	meshes, err := ExtractMeshes(geom, src.AtlasTable(), textures)
	if err != nil {
		rt.Release()
		for _, tex := range textures {
			tex.Deallocate()
		}
		return nil, err
	}

	return NewCharacterRuntime(rt, meshes, textures, 0), nil
}

// resolveRef resolves a file reference from the model source document
// against the model's path.
func resolveRef(loc ModelLocator, ref string) string {
	if strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://") || strings.HasPrefix(ref, "/") {
		return ref
	}
	if loc.Path == "" {
		return ref
	}
	return path.Join(loc.Path, ref)
}

// FitScale computes the base scale that makes a model occupy FitRatio of
// the viewport's vertical extent, never upscaling past native size. When
// the authored height is unknown (raw path), the configured logical height
// constant substitutes for it, so on that path a tiny model in a huge
// viewport stays at native size.
func FitScale(viewportHeight, modelHeight float64, cfg Config) float64 {
	h := modelHeight
	if h <= 0 {
		h = cfg.RawModelHeight
	}
	if h <= 0 || viewportHeight <= 0 {
		return cfg.DefaultBaseScale
	}
	return math.Min(viewportHeight*cfg.FitRatio/h, 1.0)
}
