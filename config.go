package marionette

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// Config holds the tunable constants of a stage. Zero/absent fields in a
// YAML document fall back to the defaults, so a partial config file is fine.
type Config struct {
	// MaxInstances caps the number of concurrently loaded characters.
	MaxInstances int `yaml:"maxInstances"`

	// Margin keeps dragged instances at least this many pixels inside the
	// viewport on every axis.
	Margin float64 `yaml:"margin"`

	// FitRatio is the fraction of the viewport height a freshly loaded
	// model should occupy (never upscaled past native size).
	FitRatio float64 `yaml:"fitRatio"`

	// DefaultBaseScale seeds an instance's transform before scale-to-fit
	// has a viewport to work with.
	DefaultBaseScale float64 `yaml:"defaultBaseScale"`

	// RawModelHeight substitutes for the authored bounding box on the raw
	// extraction path, where no box is available.
	RawModelHeight float64 `yaml:"rawModelHeight"`

	// Zoom limits and per-wheel-notch step. Render scale is always
	// baseScale*zoom, so these bound the multiplier, not the final scale.
	ZoomMin  float64 `yaml:"zoomMin"`
	ZoomMax  float64 `yaml:"zoomMax"`
	ZoomStep float64 `yaml:"zoomStep"`

	// Idle motion scheduling windows, in seconds. Each instance picks a
	// random warm-up in [IdleWarmupMin, IdleWarmupMax] after creation, then
	// a random interval in [IdleIntervalMin, IdleIntervalMax] per repeat.
	IdleWarmupMin   float64 `yaml:"idleWarmupMin"`
	IdleWarmupMax   float64 `yaml:"idleWarmupMax"`
	IdleIntervalMin float64 `yaml:"idleIntervalMin"`
	IdleIntervalMax float64 `yaml:"idleIntervalMax"`

	// MotionHold is the assumed clip body length in seconds, between the
	// fade-in and fade-out. The backend reports no clip durations, so this
	// bounds how long a clip occupies an instance's motion queue.
	MotionHold float64 `yaml:"motionHold"`

	// Endpoints is the backend base-URL list, primary first. Whichever
	// endpoint first succeeds becomes the sticky primary for the session.
	Endpoints []string `yaml:"endpoints"`

	// Preview thumbnail dimensions.
	PreviewWidth  int `yaml:"previewWidth"`
	PreviewHeight int `yaml:"previewHeight"`

	// DragAlpha is the reduced opacity applied to an instance while it is
	// being dragged.
	DragAlpha float64 `yaml:"dragAlpha"`

	// DragDeadZone is the pointer travel in pixels before a press becomes
	// a drag instead of a tap.
	DragDeadZone float64 `yaml:"dragDeadZone"`
}

// DefaultConfig returns the stock configuration.
func DefaultConfig() Config {
	return Config{
		MaxInstances:     5,
		Margin:           16,
		FitRatio:         0.75,
		DefaultBaseScale: 0.2,
		RawModelHeight:   1000,
		ZoomMin:          0.5,
		ZoomMax:          3.0,
		ZoomStep:         0.1,
		IdleWarmupMin:    2,
		IdleWarmupMax:    5,
		IdleIntervalMin:  8,
		IdleIntervalMax:  20,
		MotionHold:       4,
		PreviewWidth:     250,
		PreviewHeight:    250,
		DragAlpha:        0.6,
		DragDeadZone:     4,
	}
}

// LoadConfig decodes a YAML document over the defaults. Fields left zero in
// the document keep their default values.
func LoadConfig(data []byte) (Config, error) {
	cfg := DefaultConfig()
	var overlay Config
	if err := yaml.Unmarshal(data, &overlay); err != nil {
		return cfg, fmt.Errorf("marionette: parse config: %w", err)
	}
	if overlay.MaxInstances > 0 {
		cfg.MaxInstances = overlay.MaxInstances
	}
	if overlay.Margin > 0 {
		cfg.Margin = overlay.Margin
	}
	if overlay.FitRatio > 0 {
		cfg.FitRatio = overlay.FitRatio
	}
	if overlay.DefaultBaseScale > 0 {
		cfg.DefaultBaseScale = overlay.DefaultBaseScale
	}
	if overlay.RawModelHeight > 0 {
		cfg.RawModelHeight = overlay.RawModelHeight
	}
	if overlay.ZoomMin > 0 {
		cfg.ZoomMin = overlay.ZoomMin
	}
	if overlay.ZoomMax > 0 {
		cfg.ZoomMax = overlay.ZoomMax
	}
	if overlay.ZoomStep > 0 {
		cfg.ZoomStep = overlay.ZoomStep
	}
	if overlay.IdleWarmupMin > 0 {
		cfg.IdleWarmupMin = overlay.IdleWarmupMin
	}
	if overlay.IdleWarmupMax > 0 {
		cfg.IdleWarmupMax = overlay.IdleWarmupMax
	}
	if overlay.IdleIntervalMin > 0 {
		cfg.IdleIntervalMin = overlay.IdleIntervalMin
	}
	if overlay.IdleIntervalMax > 0 {
		cfg.IdleIntervalMax = overlay.IdleIntervalMax
	}
	if overlay.MotionHold > 0 {
		cfg.MotionHold = overlay.MotionHold
	}
	if len(overlay.Endpoints) > 0 {
		cfg.Endpoints = overlay.Endpoints
	}
	if overlay.PreviewWidth > 0 {
		cfg.PreviewWidth = overlay.PreviewWidth
	}
	if overlay.PreviewHeight > 0 {
		cfg.PreviewHeight = overlay.PreviewHeight
	}
	if overlay.DragAlpha > 0 {
		cfg.DragAlpha = overlay.DragAlpha
	}
	if overlay.DragDeadZone > 0 {
		cfg.DragDeadZone = overlay.DragDeadZone
	}
	if cfg.ZoomMin > cfg.ZoomMax {
		return cfg, fmt.Errorf("marionette: config: zoomMin %v exceeds zoomMax %v", cfg.ZoomMin, cfg.ZoomMax)
	}
	return cfg, nil
}
