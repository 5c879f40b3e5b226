package command

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/samber/mo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jose-valero/soup-bot/internal/app/cooldown"
	"github.com/jose-valero/soup-bot/internal/domain"
)

type recordingObserver struct {
	mu       sync.Mutex
	outcomes []string
}

func (o *recordingObserver) ObserveCommand(command, outcome string, _ time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.outcomes = append(o.outcomes, command+"="+outcome)
}

type fixture struct {
	clock *clockwork.FakeClock
	reg   *Registry
	obs   *recordingObserver
	d     *Dispatcher
}

func newFixture(t *testing.T, opts ...Option) *fixture {
	t.Helper()
	f := &fixture{
		clock: clockwork.NewFakeClock(),
		reg:   NewRegistry(),
		obs:   &recordingObserver{},
	}
	opts = append([]Option{WithClock(f.clock), WithObserver(f.obs), WithWorkers(2)}, opts...)
	f.d = NewDispatcher(f.reg, cooldown.NewLimiter(f.clock), opts...)
	t.Cleanup(f.d.Close)
	return f
}

func inv(path ...string) Invocation {
	return Invocation{
		Path:      path,
		Options:   map[string]any{},
		UserID:    "u1",
		GuildID:   mo.Some("g1"),
		ChannelID: "c1",
	}
}

func TestDispatcher_UnknownCommand(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.reg.Register([]string{"debug", "ping"}, leaf("x")))

	a := f.d.Handle(context.Background(), inv("nope"))
	assert.Equal(t, Fail{Reason: ReasonUnknownCommand, Detail: "nope"}, a)

	// a group is not runnable
	a = f.d.Handle(context.Background(), inv("debug"))
	assert.Equal(t, ReasonUnknownCommand, a.(Fail).Reason)
}

func TestDispatcher_ThrottledNeverRunsHandler(t *testing.T) {
	f := newFixture(t)
	var calls atomic.Int32
	require.NoError(t, f.reg.Register([]string{"quote"}, LeafSpec{
		Cooldown: &cooldown.Policy{Window: 5 * time.Second, MaxCalls: 1, Bucket: cooldown.BucketGuild},
		Handler: func(context.Context, *Ctx) (Action, error) {
			calls.Add(1)
			return Reply{Content: "done"}, nil
		},
	}))

	a := f.d.Handle(context.Background(), inv("quote"))
	assert.Equal(t, Reply{Content: "done"}, a)
	assert.Equal(t, int32(1), calls.Load())

	f.clock.Advance(2 * time.Second)
	a = f.d.Handle(context.Background(), inv("quote"))
	fail, ok := a.(Fail)
	require.True(t, ok)
	assert.Equal(t, ReasonRateLimited, fail.Reason)
	assert.Equal(t, 3*time.Second, fail.RetryAfter)
	assert.Equal(t, int32(1), calls.Load())

	// other guild has its own bucket
	other := inv("quote")
	other.GuildID = mo.Some("g2")
	assert.IsType(t, Reply{}, f.d.Handle(context.Background(), other))
	assert.Equal(t, int32(2), calls.Load())

	f.clock.Advance(3 * time.Second)
	assert.IsType(t, Reply{}, f.d.Handle(context.Background(), inv("quote")))
	assert.Equal(t, int32(3), calls.Load())
}

func TestDispatcher_CooldownBeforeValidation(t *testing.T) {
	f := newFixture(t)
	var calls atomic.Int32
	require.NoError(t, f.reg.Register([]string{"8ball"}, LeafSpec{
		Options:  []OptionSpec{{Name: "question", Type: OptString, Required: true, Rest: true}},
		Cooldown: &cooldown.Policy{Window: 3 * time.Second, MaxCalls: 1, Bucket: cooldown.BucketUser},
		Handler: func(context.Context, *Ctx) (Action, error) {
			calls.Add(1)
			return Reply{}, nil
		},
	}))

	a := f.d.Handle(context.Background(), inv("8ball"))
	assert.Equal(t, Fail{Reason: ReasonMissingOption, Detail: "question"}, a)

	// the invalid call still consumed the slot
	valid := inv("8ball")
	valid.Options["question"] = "will it compile?"
	a = f.d.Handle(context.Background(), valid)
	assert.Equal(t, ReasonRateLimited, a.(Fail).Reason)
	assert.Zero(t, calls.Load())
}

func TestDispatcher_NormalizesOptions(t *testing.T) {
	f := newFixture(t)
	var got *Ctx
	require.NoError(t, f.reg.Register([]string{"album"}, LeafSpec{
		Options: []OptionSpec{
			{Name: "title", Type: OptString, Required: true},
			{Name: "attachment_1", Type: OptAttachment, Required: true},
			{Name: "attachment_2", Type: OptAttachment},
			{Name: "attachment_3", Type: OptAttachment},
			{Name: "count", Type: OptInteger},
			{Name: "loud", Type: OptBoolean},
		},
		Handler: func(_ context.Context, c *Ctx) (Action, error) {
			got = c
			return Reply{}, nil
		},
	}))

	in := inv("album")
	in.Options = map[string]any{
		"title":        "trip",
		"attachment_1": domain.RawAttachment{URL: "https://x/1.png"},
		"attachment_3": domain.RawAttachment{URL: "https://x/3.png"},
		"count":        float64(4),
		"loud":         true,
		"unknown":      "dropped",
	}
	require.IsType(t, Reply{}, f.d.Handle(context.Background(), in))
	require.NotNil(t, got)

	assert.Equal(t, "trip", got.String("title"))
	n, ok := got.Int("count")
	assert.True(t, ok)
	assert.Equal(t, int64(4), n)
	assert.True(t, got.Bool("loud"))
	assert.Empty(t, got.String("unknown"))

	atts := got.Attachments()
	require.Len(t, atts, 2)
	assert.Equal(t, "https://x/1.png", atts[0].URL)
	assert.Equal(t, "https://x/3.png", atts[1].URL)
}

func TestDispatcher_WrongTypeCountsAsMissing(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.reg.Register([]string{"album"}, LeafSpec{
		Options: []OptionSpec{{Name: "attachment_1", Type: OptAttachment, Required: true}},
		Handler: okHandler,
	}))
	in := inv("album")
	in.Options["attachment_1"] = "not-an-attachment"
	assert.Equal(t, Fail{Reason: ReasonMissingOption, Detail: "attachment_1"}, f.d.Handle(context.Background(), in))
}

func TestDispatcher_HandlerErrorsAreHidden(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.reg.Register([]string{"flow"}, LeafSpec{
		Handler: func(context.Context, *Ctx) (Action, error) {
			return nil, errors.New("upstream 502: secret body")
		},
	}))
	assert.Equal(t, Fail{Reason: ReasonHandlerError}, f.d.Handle(context.Background(), inv("flow")))
}

func TestDispatcher_UserErrorReachesUser(t *testing.T) {
	f := newFixture(t)
	cause := errors.New("only 1 image")
	require.NoError(t, f.reg.Register([]string{"album"}, LeafSpec{
		Handler: func(context.Context, *Ctx) (Action, error) {
			return nil, Reject(ReasonInsufficientMedia, "Upload at least two images.", cause)
		},
	}))
	a := f.d.Handle(context.Background(), inv("album"))
	assert.Equal(t, Fail{Reason: ReasonInsufficientMedia, Detail: "Upload at least two images."}, a)
}

func TestDispatcher_RecoversPanics(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.reg.Register([]string{"boom"}, LeafSpec{
		Handler: func(context.Context, *Ctx) (Action, error) { panic("kaboom") },
	}))
	require.NoError(t, f.reg.Register([]string{"fine"}, leaf("x")))

	assert.Equal(t, Fail{Reason: ReasonHandlerError}, f.d.Handle(context.Background(), inv("boom")))
	// the worker survives
	assert.Equal(t, Reply{Content: "ok"}, f.d.Handle(context.Background(), inv("fine")))
}

func TestDispatcher_NilActionIsAnError(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.reg.Register([]string{"nil"}, LeafSpec{
		Handler: func(context.Context, *Ctx) (Action, error) { return nil, nil },
	}))
	assert.Equal(t, Fail{Reason: ReasonHandlerError}, f.d.Handle(context.Background(), inv("nil")))
}

func TestDispatcher_Timeout(t *testing.T) {
	f := newFixture(t, WithTimeout(20*time.Millisecond))
	release := make(chan struct{})
	defer close(release)
	require.NoError(t, f.reg.Register([]string{"slow"}, LeafSpec{
		Handler: func(ctx context.Context, _ *Ctx) (Action, error) {
			select {
			case <-release:
			case <-ctx.Done():
			}
			return Reply{}, nil
		},
	}))
	assert.Equal(t, Fail{Reason: ReasonHandlerError}, f.d.Handle(context.Background(), inv("slow")))
}

func TestDispatcher_AdmitThenExecute(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.reg.Register([]string{"debug", "ping"}, LeafSpec{Ephemeral: true, Handler: okHandler}))

	c, fail := f.d.Admit(inv("debug", "ping"))
	require.Nil(t, fail)
	require.NotNil(t, c)
	assert.True(t, c.Node.Ephemeral)
	assert.Equal(t, Reply{Content: "ok"}, f.d.Execute(context.Background(), c))

	f.obs.mu.Lock()
	defer f.obs.mu.Unlock()
	assert.Equal(t, []string{"debug.ping=ok"}, f.obs.outcomes)
}

func TestDispatcher_ObservesOutcomes(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.reg.Register([]string{"quote"}, LeafSpec{
		Cooldown: &cooldown.Policy{Window: time.Second, MaxCalls: 1, Bucket: cooldown.BucketGlobal},
		Handler:  okHandler,
	}))
	f.d.Handle(context.Background(), inv("quote"))
	f.d.Handle(context.Background(), inv("quote"))
	f.d.Handle(context.Background(), inv("missing"))

	f.obs.mu.Lock()
	defer f.obs.mu.Unlock()
	assert.Equal(t, []string{"quote=ok", "quote=rate_limited", "unknown=unknown_command"}, f.obs.outcomes)
}

func TestDispatcher_ClosedRefusesWork(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.reg.Register([]string{"fine"}, leaf("x")))
	f.d.Close()
	assert.Equal(t, Fail{Reason: ReasonHandlerError}, f.d.Handle(context.Background(), inv("fine")))
}

func TestDispatcher_ConcurrentInvocationsOneSlot(t *testing.T) {
	f := newFixture(t, WithWorkers(4))
	var calls atomic.Int32
	require.NoError(t, f.reg.Register([]string{"album"}, LeafSpec{
		Cooldown: &cooldown.Policy{Window: 30 * time.Second, MaxCalls: 1, Bucket: cooldown.BucketUser},
		Handler: func(context.Context, *Ctx) (Action, error) {
			calls.Add(1)
			return Reply{}, nil
		},
	}))

	start := make(chan struct{})
	var wg sync.WaitGroup
	var limited atomic.Int32
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			if fail, ok := f.d.Handle(context.Background(), inv("album")).(Fail); ok && fail.Reason == ReasonRateLimited {
				limited.Add(1)
			}
		}()
	}
	close(start)
	wg.Wait()

	assert.Equal(t, int32(1), calls.Load())
	assert.Equal(t, int32(31), limited.Load())
}
