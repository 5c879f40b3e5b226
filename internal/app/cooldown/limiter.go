// Package cooldown implements sliding-window invocation limits keyed by
// command path and scope.
package cooldown

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// Decision is the outcome of a single CheckAndRecord call.
type Decision struct {
	Allowed    bool
	RetryAfter time.Duration
}

type recordKey struct {
	path  string
	scope Scope
}

// record holds at most MaxCalls timestamps, oldest first.
type record struct {
	mu     sync.Mutex
	hits   []time.Time
	window time.Duration
	dead   bool
}

type Limiter struct {
	clock clockwork.Clock

	mu      sync.Mutex
	records map[recordKey]*record
}

func NewLimiter(clock clockwork.Clock) *Limiter {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Limiter{clock: clock, records: map[recordKey]*record{}}
}

// CheckAndRecord admits the invocation and records it when the scope still has
// room in the window, otherwise reports how long until the oldest hit expires.
// The check and the append are atomic per (path, scope).
func (l *Limiter) CheckAndRecord(path string, scope Scope, p Policy) (Decision, error) {
	if err := p.Validate(); err != nil {
		return Decision{}, err
	}
	key := recordKey{path: path, scope: scope}

	for {
		rec := l.record(key)
		rec.mu.Lock()
		if rec.dead {
			// swept between lookup and lock
			rec.mu.Unlock()
			continue
		}
		d := rec.admit(l.clock.Now(), p)
		rec.mu.Unlock()
		return d, nil
	}
}

func (l *Limiter) record(key recordKey) *record {
	l.mu.Lock()
	defer l.mu.Unlock()
	rec, ok := l.records[key]
	if !ok {
		rec = &record{}
		l.records[key] = rec
	}
	return rec
}

func (r *record) admit(now time.Time, p Policy) Decision {
	r.window = p.Window
	cutoff := now.Add(-p.Window)

	kept := r.hits[:0]
	for _, t := range r.hits {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}
	r.hits = kept

	if len(r.hits) < p.MaxCalls {
		r.hits = append(r.hits, now)
		return Decision{Allowed: true}
	}
	return Decision{RetryAfter: p.Window - now.Sub(r.hits[0])}
}

// Sweep drops records whose newest hit is already outside its window and
// returns how many were removed. Stale records expire on their own when
// checked, so this only bounds memory.
func (l *Limiter) Sweep() int {
	now := l.clock.Now()

	l.mu.Lock()
	defer l.mu.Unlock()

	n := 0
	for key, rec := range l.records {
		rec.mu.Lock()
		if len(rec.hits) == 0 || !rec.hits[len(rec.hits)-1].After(now.Add(-rec.window)) {
			rec.dead = true
			delete(l.records, key)
			n++
		}
		rec.mu.Unlock()
	}
	return n
}

// Len reports how many (path, scope) records are currently tracked.
func (l *Limiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.records)
}
