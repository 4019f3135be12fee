package command

import (
	"time"

	"golang.org/x/time/rate"

	"goldmod/internal/log"
)

// floodGuard throttles client input per player slot. It runs off the
// host's frame clock rather than wall time, so a paused or lagging server
// does not bank up allowance.
type floodGuard struct {
	limit rate.Limit
	burst int
	per   map[int]*rate.Limiter
}

var floodEpoch = time.Unix(0, 0)

// SetFloodLimit throttles per-player client dispatch to r lines per second
// with the given burst. Throttled lines are claimed by the guard so the
// spam reaches neither handlers nor the host's default path. Zero or
// negative values disable the guard.
func (d *Dispatcher) SetFloodLimit(r float64, burst int) {
	if r <= 0 || burst <= 0 {
		d.flood = nil
		return
	}
	d.flood = &floodGuard{
		limit: rate.Limit(r),
		burst: burst,
		per:   make(map[int]*rate.Limiter),
	}
	log.Debug("command flood guard enabled", "rate", r, "burst", burst)
}

// ForgetPlayer drops a slot's throttle state. Called when the slot
// empties; the next occupant starts with a fresh allowance.
func (d *Dispatcher) ForgetPlayer(key int) {
	if d.flood != nil {
		delete(d.flood.per, key)
	}
}

// ForgetAllPlayers drops throttle state for every slot. Called at map
// change, where the roster empties without per-player disconnects.
func (d *Dispatcher) ForgetAllPlayers() {
	if d.flood != nil {
		d.flood.per = make(map[int]*rate.Limiter)
	}
}

func (d *Dispatcher) floodNow() time.Time {
	return floodEpoch.Add(time.Duration(d.eng.TimeOffset() * float64(time.Second)))
}

func (g *floodGuard) allowAt(now time.Time, key int) bool {
	lim, ok := g.per[key]
	if !ok {
		lim = rate.NewLimiter(g.limit, g.burst)
		g.per[key] = lim
	}
	return lim.AllowN(now, 1)
}
