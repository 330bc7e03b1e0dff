package marionette

import (
	"math/rand"
	"time"
)

func newRand() *rand.Rand {
	return rand.New(rand.NewSource(time.Now().UnixNano()))
}

// idleScheduler fires an instance's idle/breathing motion after a randomized
// warm-up delay, then repeats on a randomized interval. The jitter keeps
// multiple avatars from synchronizing. It is advanced by frame dt on the
// update loop and cancelled explicitly when its owning instance is removed,
// so no timer outlives its instance.
type idleScheduler struct {
	rng         *rand.Rand
	intervalMin float64
	intervalMax float64
	wait        float64
	cancelled   bool
	fire        func()
}

// newIdleScheduler creates a scheduler armed with a warm-up delay drawn from
// [warmupMin, warmupMax].
func newIdleScheduler(cfg Config, rng *rand.Rand, fire func()) *idleScheduler {
	s := &idleScheduler{
		rng:         rng,
		intervalMin: cfg.IdleIntervalMin,
		intervalMax: cfg.IdleIntervalMax,
		fire:        fire,
	}
	s.wait = randomIn(rng, cfg.IdleWarmupMin, cfg.IdleWarmupMax)
	return s
}

// Advance moves the schedule forward by dt seconds, firing at most once.
func (s *idleScheduler) Advance(dt float64) {
	if s.cancelled {
		return
	}
	s.wait -= dt
	if s.wait > 0 {
		return
	}
	s.wait = randomIn(s.rng, s.intervalMin, s.intervalMax)
	s.fire()
}

// Cancel permanently stops the scheduler.
func (s *idleScheduler) Cancel() {
	s.cancelled = true
}

// Cancelled reports whether the scheduler has been stopped.
func (s *idleScheduler) Cancelled() bool {
	return s.cancelled
}

func randomIn(rng *rand.Rand, lo, hi float64) float64 {
	if hi <= lo {
		return lo
	}
	return lo + rng.Float64()*(hi-lo)
}
