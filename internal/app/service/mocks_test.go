package service

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"
)

type MockInspireAPI struct {
	mock.Mock
}

func (m *MockInspireAPI) Quote(ctx context.Context) (string, error) {
	args := m.Called(ctx)
	return args.String(0), args.Error(1)
}

func (m *MockInspireAPI) Flow(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	if v := args.Get(0); v != nil {
		return v.([]string), args.Error(1)
	}
	return nil, args.Error(1)
}

type MockProcessStats struct {
	mock.Mock
}

func (m *MockProcessStats) Sample() (ProcessSample, error) {
	args := m.Called()
	return args.Get(0).(ProcessSample), args.Error(1)
}

type fakeGateway struct {
	latency time.Duration
	guilds  int
}

func (g fakeGateway) HeartbeatLatency() time.Duration { return g.latency }
func (g fakeGateway) GuildCount() int                 { return g.guilds }
