package service

import (
	"context"
	"fmt"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/jose-valero/soup-bot/internal/app/command"
)

type DebugService struct {
	gw    GatewayInfo
	proc  ProcessStats
	clock clockwork.Clock
	boot  time.Time
}

func NewDebugService(gw GatewayInfo, proc ProcessStats, clock clockwork.Clock) *DebugService {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &DebugService{gw: gw, proc: proc, clock: clock, boot: clock.Now()}
}

func (s *DebugService) Ping(_ context.Context, _ *command.Ctx) (command.Action, error) {
	lat := s.gw.HeartbeatLatency()
	if lat <= 0 {
		return command.Reply{Content: "🏓 Pong! (no heartbeat yet)"}, nil
	}
	return command.Reply{Content: fmt.Sprintf("🏓 Pong! `%dms`", lat.Milliseconds())}, nil
}

func (s *DebugService) Stats(_ context.Context, c *command.Ctx) (command.Action, error) {
	started := s.boot
	cpu, mem := "n/a", "n/a"
	smp, err := s.proc.Sample()
	if err != nil {
		// una muestra parcial (p.ej. RSS del runtime) sigue sirviendo
		c.Log.Warn("process stats incomplete", "err", err)
		if smp.CPU > 0 {
			cpu = fmtDuration(smp.CPU)
		}
		if smp.RSS > 0 {
			mem = fmtBytes(smp.RSS)
		}
	} else {
		cpu = fmtDuration(smp.CPU)
		mem = fmtBytes(smp.RSS)
	}
	if !smp.Started.IsZero() {
		started = smp.Started
	}

	return command.Reply{Embed: &command.Embed{
		Title: "Bot stats",
		Fields: []command.Field{
			{Name: "Uptime", Value: fmtDuration(s.clock.Since(started)), Inline: true},
			{Name: "CPU time", Value: cpu, Inline: true},
			{Name: "Memory", Value: mem, Inline: true},
			{Name: "Guilds", Value: fmt.Sprint(s.gw.GuildCount()), Inline: true},
		},
	}}, nil
}

// 1h02m03s / 4m05s / 1.25s
func fmtDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%.2fs", d.Seconds())
	}
	d = d.Round(time.Second)
	h := int(d / time.Hour)
	m := int(d % time.Hour / time.Minute)
	sec := int(d % time.Minute / time.Second)
	if h > 0 {
		return fmt.Sprintf("%dh%02dm%02ds", h, m, sec)
	}
	return fmt.Sprintf("%dm%02ds", m, sec)
}

func fmtBytes(b uint64) string {
	const mib = 1 << 20
	return fmt.Sprintf("%.1f MiB", float64(b)/mib)
}
