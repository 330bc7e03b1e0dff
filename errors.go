package marionette

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for registry admission control. Both are rejected
// synchronously with no side effects on the registry.
var (
	// ErrCapacityExceeded is returned by Registry.Create when the instance
	// limit is already reached.
	ErrCapacityExceeded = errors.New("marionette: instance capacity exceeded")

	// ErrAlreadyLoaded is returned by Registry.Create when a model with the
	// same logical name is already on stage. The existing instance is
	// re-focused and its id returned alongside this error.
	ErrAlreadyLoaded = errors.New("marionette: model already loaded")

	// ErrNoSuchInstance is returned by Focus and Remove for unknown ids.
	ErrNoSuchInstance = errors.New("marionette: no such instance")
)

// GeometryError reports malformed offset/count pairs in raw drawable data.
// It aborts the whole model load rather than silently truncating buffers.
type GeometryError struct {
	Drawable int
	Reason   string
}

func (e *GeometryError) Error() string {
	return fmt.Sprintf("marionette: drawable %d: %s", e.Drawable, e.Reason)
}

// AssetFetchError reports a network or HTTP failure while loading a model,
// texture, motion list, or preview. The URL names the endpoint attempted.
type AssetFetchError struct {
	URL string
	Err error
}

func (e *AssetFetchError) Error() string {
	return fmt.Sprintf("marionette: fetch %s: %v", e.URL, e.Err)
}

func (e *AssetFetchError) Unwrap() error { return e.Err }

// LoadAttempt records one failed model-construction back-end.
type LoadAttempt struct {
	Provider string
	Err      error
}

// LoadError aggregates the failure of every attempted construction back-end.
// No partial instance is registered when it is returned.
type LoadError struct {
	Model    string
	Attempts []LoadAttempt
}

func (e *LoadError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "marionette: load %q failed", e.Model)
	if len(e.Attempts) == 0 {
		b.WriteString(": no construction back-end available")
		return b.String()
	}
	b.WriteString(":")
	for _, a := range e.Attempts {
		fmt.Fprintf(&b, "\n  %s: %v", a.Provider, a.Err)
	}
	return b.String()
}

// MotionPlaybackError reports that every playback method failed for a clip.
// Non-fatal: the instance keeps animating and responding to input.
type MotionPlaybackError struct {
	Character string
	Clip      string
	Err       error
}

func (e *MotionPlaybackError) Error() string {
	return fmt.Sprintf("marionette: play %q on %s: %v", e.Clip, e.Character, e.Err)
}

func (e *MotionPlaybackError) Unwrap() error { return e.Err }
