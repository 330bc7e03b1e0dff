package marionette

import (
	"fmt"
	"math/rand"
	"strings"

	"github.com/tanema/gween"
	"github.com/tanema/gween/ease"
)

// MotionType classifies a motion clip by the intent of its source group.
type MotionType uint8

const (
	MotionBody MotionType = iota // default when no keyword matches
	MotionIdle
	MotionHead
	MotionExpression
	MotionSpecial
	MotionTalk

	// MotionAny is a filter wildcard for PlayRandom, never stored on a clip.
	MotionAny MotionType = 0xFF
)

// String returns the lowercase type name.
func (t MotionType) String() string {
	switch t {
	case MotionIdle:
		return "idle"
	case MotionHead:
		return "head"
	case MotionExpression:
		return "expression"
	case MotionSpecial:
		return "special"
	case MotionTalk:
		return "talk"
	case MotionAny:
		return "any"
	default:
		return "body"
	}
}

// classifyMotion derives a clip's type from its group name by keyword.
// Computed once at ingestion, never re-derived.
func classifyMotion(group string) MotionType {
	g := strings.ToLower(group)
	switch {
	case containsAny(g, "idle", "breath", "stand"):
		return MotionIdle
	case containsAny(g, "head", "nod", "shake"):
		return MotionHead
	case containsAny(g, "exp", "face", "emotion"):
		return MotionExpression
	case containsAny(g, "special"):
		return MotionSpecial
	case containsAny(g, "talk", "speak", "mouth"):
		return MotionTalk
	default:
		return MotionBody
	}
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

// priorityFor maps a motion type to its queue priority. Idle motions lose
// to everything else so an interaction-triggered clip always preempts the
// breathing loop.
func priorityFor(t MotionType) int {
	switch t {
	case MotionIdle:
		return 1
	case MotionSpecial:
		return 3
	default:
		return 2
	}
}

// MotionClip is a named, grouped, classified animation sequence playable on
// a character.
type MotionClip struct {
	Name     string
	Group    string
	File     string
	Index    int
	Type     MotionType
	Priority int
	FadeIn   float64 // seconds
	FadeOut  float64 // seconds
}

// MotionPlayer is the playback surface of the deformation engine. Each
// method is one playback route; PlayRandom tries them in order and the
// first success wins.
type MotionPlayer interface {
	// PlayNamed starts a motion by its clip name.
	PlayNamed(character, name string) error
	// PlayGroup starts a motion by source group and index within it.
	PlayGroup(character, group string, index int) error
	// PlayFile starts a motion from a backend motion-file URL.
	PlayFile(character, fileURL string) error
	// Stop halts any active motion for the character.
	Stop(character string) error
}

// MotionLibrary fetches, classifies, and plays motion clips per character.
type MotionLibrary struct {
	client *Client
	player MotionPlayer
	clips  map[string][]MotionClip
	rng    *rand.Rand
}

// NewMotionLibrary creates a library over the backend client and player.
// rng may be nil, in which case a time-seeded source is used.
func NewMotionLibrary(client *Client, player MotionPlayer, rng *rand.Rand) *MotionLibrary {
	if rng == nil {
		rng = newRand()
	}
	return &MotionLibrary{
		client: client,
		player: player,
		clips:  make(map[string][]MotionClip),
		rng:    rng,
	}
}

// LoadFor fetches the grouped motion data for a character and flattens it
// into classified clips. It only fetches and classifies; the result is not
// selectable until published with Ingest. That split keeps LoadFor safe to
// call from a background load goroutine while the game loop keeps reading
// the library for characters already on stage.
func (ml *MotionLibrary) LoadFor(character string) ([]MotionClip, error) {
	groups, err := ml.client.Motions(character)
	if err != nil {
		return nil, err
	}
	var clips []MotionClip
	for group, entries := range groups {
		t := classifyMotion(group)
		for _, e := range entries {
			clips = append(clips, MotionClip{
				Name:     e.Name,
				Group:    group,
				File:     e.File,
				Index:    e.Index,
				Type:     t,
				Priority: priorityFor(t),
				FadeIn:   e.FadeInTime,
				FadeOut:  e.FadeOutTime,
			})
		}
	}
	return clips, nil
}

// Ingest publishes a character's clips for selection, replacing any
// previously published set. Call on the game loop only; every other reader
// and writer of the clip table lives there too.
func (ml *MotionLibrary) Ingest(character string, clips []MotionClip) {
	ml.clips[character] = clips
}

// Clips returns the loaded clips for a character (nil if never loaded).
func (ml *MotionLibrary) Clips(character string) []MotionClip {
	return ml.clips[character]
}

// Grouped returns the character's clips bucketed by type.
func (ml *MotionLibrary) Grouped(character string) map[MotionType][]MotionClip {
	out := make(map[MotionType][]MotionClip)
	for _, c := range ml.clips[character] {
		out[c.Type] = append(out[c.Type], c)
	}
	return out
}

// Random selects uniformly at random among the character's clips,
// optionally filtered by type (MotionAny means no filter). Selection only;
// pair with Play.
func (ml *MotionLibrary) Random(character string, t MotionType) (MotionClip, error) {
	var pool []MotionClip
	for _, c := range ml.clips[character] {
		if t == MotionAny || c.Type == t {
			pool = append(pool, c)
		}
	}
	if len(pool) == 0 {
		return MotionClip{}, fmt.Errorf("marionette: no %s motions loaded for %s", t, character)
	}
	return pool[ml.rng.Intn(len(pool))], nil
}

// PlayRandom selects a clip with Random and plays it. The returned clip is
// valid when err is nil or a *MotionPlaybackError; playback failure is
// non-fatal to the instance.
func (ml *MotionLibrary) PlayRandom(character string, t MotionType) (MotionClip, error) {
	clip, err := ml.Random(character, t)
	if err != nil {
		return MotionClip{}, err
	}
	if err := ml.Play(character, clip); err != nil {
		return clip, err
	}
	return clip, nil
}

// Play attempts the three playback routes in order: direct named-motion
// call, group+index call, backend motion-file URL. The first success wins.
func (ml *MotionLibrary) Play(character string, clip MotionClip) error {
	var errs []error

	if clip.Name != "" {
		err := ml.player.PlayNamed(character, clip.Name)
		if err == nil {
			return nil
		}
		errs = append(errs, fmt.Errorf("named: %w", err))
	}
	if clip.Group != "" {
		err := ml.player.PlayGroup(character, clip.Group, clip.Index)
		if err == nil {
			return nil
		}
		errs = append(errs, fmt.Errorf("group: %w", err))
	}
	if clip.File != "" {
		err := ml.player.PlayFile(character, ml.client.MotionFileURL(clip.File))
		if err == nil {
			return nil
		}
		errs = append(errs, fmt.Errorf("file: %w", err))
	}

	err := &MotionPlaybackError{
		Character: character,
		Clip:      clip.Name,
		Err:       fmt.Errorf("all playback methods failed: %v", errs),
	}
	debugf("%v", err)
	return err
}

// Stop halts any active motion for the character only.
func (ml *MotionLibrary) Stop(character string) {
	if err := ml.player.Stop(character); err != nil {
		debugf("stop %s: %v", character, err)
	}
}

// --- Per-instance motion queue ---

// motionQueue serializes clip playback on one instance. A playing clip is
// only preempted by an equal-or-higher priority clip; the fade envelope
// weights the instance's motion blend during fade-in.
//
// The backend reports no clip durations, so a clip expires after its fades
// plus the configured hold time; expiry reopens the queue so scheduled idle
// motions resume after an interaction-triggered clip.
type motionQueue struct {
	current   MotionClip
	playing   bool
	fade      *gween.Tween
	weight    float64
	hold      float64 // assumed clip body length between the fades
	remaining float64
}

// offer proposes a clip. Returns true when the clip takes the stage.
func (q *motionQueue) offer(clip MotionClip) bool {
	if q.playing && clip.Priority < q.current.Priority {
		return false
	}
	q.current = clip
	q.playing = true
	q.weight = 0
	q.remaining = clip.FadeIn + q.hold + clip.FadeOut
	if clip.FadeIn > 0 {
		q.fade = gween.New(0, 1, float32(clip.FadeIn), ease.Linear)
	} else {
		q.fade = nil
		q.weight = 1
	}
	return true
}

// advance moves the fade envelope and expiry clock forward by dt seconds.
func (q *motionQueue) advance(dt float64) {
	if !q.playing {
		return
	}
	if q.fade != nil {
		w, done := q.fade.Update(float32(dt))
		q.weight = float64(w)
		if done {
			q.fade = nil
		}
	}
	q.remaining -= dt
	if q.remaining <= 0 {
		q.finish()
	}
}

// finish clears the queue when the player reports the clip over.
func (q *motionQueue) finish() {
	q.playing = false
	q.fade = nil
	q.weight = 0
}
