package service

import (
	"context"
	"time"
)

// Lo implementa internal/adapters/inspiro.Client
type InspireAPI interface {
	Quote(ctx context.Context) (string, error)
	Flow(ctx context.Context) ([]string, error)
}

// Lo implementa el adapter de discord (heartbeat + state)
type GatewayInfo interface {
	HeartbeatLatency() time.Duration
	GuildCount() int
}

// ProcessSample es lo que /debug stats muestra del proceso.
type ProcessSample struct {
	Started time.Time
	CPU     time.Duration
	RSS     uint64
}

// Lo implementa internal/infra/metrics.ProcessReader
type ProcessStats interface {
	Sample() (ProcessSample, error)
}
