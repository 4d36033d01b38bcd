// Package playback resolves a persisted entry into a playable source with a
// trustworthy displayed duration.
//
// The media's self-reported duration is not trusted: depending on how the
// blob was produced it can come back infinite or zero. The reconciler waits a
// bounded grace period for the first finite positive report; past that it
// falls back to the duration captured at recording time.
package playback

import (
	"math"
	"time"
)

// DefaultGracePeriod bounds how long the reconciler waits for the media to
// report a usable duration.
const DefaultGracePeriod = 2 * time.Second

// Reconciler decides which duration to display: the media's self-reported
// value or the stored one. Once a duration has been displayed it is never
// silently replaced.
type Reconciler struct {
	storedSec int
	grace     time.Duration
	displayed int
	decided   bool
	deadline  time.Time
	nowFunc   func() time.Time
}

func NewReconciler(storedSec int, grace time.Duration) *Reconciler {
	if grace <= 0 {
		grace = DefaultGracePeriod
	}
	r := &Reconciler{storedSec: storedSec, grace: grace, nowFunc: time.Now}
	r.deadline = r.nowFunc().Add(grace)
	return r
}

// Observe feeds a self-reported duration from the media's metadata events.
// The first finite positive value wins; anything after a decision is ignored.
func (r *Reconciler) Observe(reportedSec float64) {
	if r.decided {
		return
	}
	if math.IsInf(reportedSec, 0) || math.IsNaN(reportedSec) || reportedSec <= 0 {
		if r.graceExpired() {
			r.decide(r.storedSec)
		}
		return
	}
	r.decide(int(math.Round(reportedSec)))
}

// Elapse forces the grace-period fallback: if no finite positive duration has
// been observed, the stored duration becomes the displayed one.
func (r *Reconciler) Elapse() {
	if !r.decided {
		r.decide(r.storedSec)
	}
}

// Displayed returns the reconciled duration and whether a decision was made.
func (r *Reconciler) Displayed() (int, bool) {
	return r.displayed, r.decided
}

func (r *Reconciler) decide(sec int) {
	r.displayed = sec
	r.decided = true
}

func (r *Reconciler) graceExpired() bool {
	return !r.nowFunc().Before(r.deadline)
}

// ClampSeek bounds a seek request to [0, displayedSec]. With an unknown or
// zero displayed duration the seek is a no-op and the second return value is
// false.
func ClampSeek(target float64, displayedSec int) (float64, bool) {
	if displayedSec <= 0 {
		return 0, false
	}
	if target < 0 {
		return 0, true
	}
	if max := float64(displayedSec); target > max {
		return max, true
	}
	return target, true
}

// State of the player, derived only from media events.
type State int

const (
	StateStopped State = iota
	StatePlaying
	StatePaused
)

func (s State) String() string {
	switch s {
	case StatePlaying:
		return "playing"
	case StatePaused:
		return "paused"
	}
	return "stopped"
}

// Event is a media-element event. Button handlers must not set state
// directly; the displayed state always follows what the media actually did.
type Event int

const (
	EventPlay Event = iota
	EventPause
	EventEnded
	EventError
)

// Next returns the player state after a media event. Errors reset playback.
func Next(cur State, ev Event) State {
	switch ev {
	case EventPlay:
		return StatePlaying
	case EventPause:
		return StatePaused
	case EventEnded, EventError:
		return StateStopped
	}
	return cur
}
