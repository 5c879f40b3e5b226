// Package janitor periodically drops in-memory state that has already expired.
package janitor

import (
	"context"
	"log/slog"
	"time"

	"github.com/jonboulle/clockwork"
)

// Sweeper removes expired entries and reports how many it dropped.
type Sweeper interface {
	Sweep() int
}

type SweepFunc func() int

func (f SweepFunc) Sweep() int { return f() }

type target struct {
	name string
	s    Sweeper
}

type Janitor struct {
	clock   clockwork.Clock
	every   time.Duration
	log     *slog.Logger
	targets []target
}

func New(clock clockwork.Clock, every time.Duration, log *slog.Logger) *Janitor {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if log == nil {
		log = slog.Default()
	}
	return &Janitor{clock: clock, every: every, log: log}
}

// Add registers s under name. Not safe to call once Run has started.
func (j *Janitor) Add(name string, s Sweeper) *Janitor {
	j.targets = append(j.targets, target{name: name, s: s})
	return j
}

// RunOnce sweeps every target and returns what each one dropped.
func (j *Janitor) RunOnce() map[string]int {
	out := make(map[string]int, len(j.targets))
	for _, t := range j.targets {
		n := t.s.Sweep()
		out[t.name] = n
		if n > 0 {
			j.log.Debug("swept", "target", t.name, "removed", n)
		}
	}
	return out
}

// Run sweeps on every tick until ctx is done.
func (j *Janitor) Run(ctx context.Context) {
	ticker := j.clock.NewTicker(j.every)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.Chan():
			j.RunOnce()
		case <-ctx.Done():
			return
		}
	}
}
