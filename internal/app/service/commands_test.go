package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/samber/mo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/jose-valero/soup-bot/internal/app/command"
	"github.com/jose-valero/soup-bot/internal/app/cooldown"
	"github.com/jose-valero/soup-bot/internal/app/gallery"
	"github.com/jose-valero/soup-bot/internal/domain"
)

type harness struct {
	clock *clockwork.FakeClock
	api   *MockInspireAPI
	proc  *MockProcessStats
	store *gallery.Store
	reg   *command.Registry
	d     *command.Dispatcher
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		clock: clockwork.NewFakeClock(),
		api:   &MockInspireAPI{},
		proc:  &MockProcessStats{},
		reg:   command.NewRegistry(),
	}
	h.store = gallery.NewStore(h.clock, 2*time.Minute)
	svcs := Services{
		Debug:     NewDebugService(fakeGateway{latency: 42 * time.Millisecond, guilds: 3}, h.proc, h.clock),
		EightBall: NewEightBall(func(int) int { return 0 }),
		Inspire:   NewInspireService(h.api),
		Album:     NewAlbumService(h.store, gallery.IndexAll, gallery.MostRecentFirst),
	}
	require.NoError(t, RegisterCommands(h.reg, svcs))
	h.d = command.NewDispatcher(h.reg, cooldown.NewLimiter(h.clock), command.WithClock(h.clock))
	t.Cleanup(h.d.Close)
	return h
}

func (h *harness) run(path []string, opts map[string]any) command.Action {
	if opts == nil {
		opts = map[string]any{}
	}
	return h.d.Handle(context.Background(), command.Invocation{
		Path:      path,
		Options:   opts,
		UserID:    "u1",
		GuildID:   mo.Some("g1"),
		ChannelID: "c1",
	})
}

func img(name string) domain.RawAttachment {
	return domain.RawAttachment{URL: "https://cdn.example.com/" + name, Filename: name, ContentType: "image/png"}
}

func TestRegisterCommands_Tree(t *testing.T) {
	h := newHarness(t)

	var keys []string
	for _, l := range h.reg.Leaves() {
		keys = append(keys, l.Key())
		assert.NotEmpty(t, l.Description, l.Key())
	}
	assert.Equal(t, []string{"debug.ping", "debug.stats", "8ball", "quote", "flow", "album"}, keys)

	album, err := h.reg.Resolve([]string{"album"})
	require.NoError(t, err)
	assert.Len(t, album.Options, 1+MaxAlbumAttachments)
	assert.True(t, album.Options[0].Required)
	assert.True(t, album.Options[1].Required)
	assert.False(t, album.Options[2].Required)

	ball, err := h.reg.Resolve([]string{"8ball"})
	require.NoError(t, err)
	assert.True(t, ball.Options[0].Rest)

	// registering twice collides
	assert.ErrorIs(t, RegisterCommands(h.reg, Services{}), command.ErrDuplicatePath)
}

func TestPing(t *testing.T) {
	h := newHarness(t)
	assert.Equal(t, command.Reply{Content: "🏓 Pong! `42ms`"}, h.run([]string{"debug", "ping"}, nil))
}

func TestStats(t *testing.T) {
	h := newHarness(t)
	h.proc.On("Sample").Return(ProcessSample{
		Started: h.clock.Now().Add(-90 * time.Minute),
		CPU:     1500 * time.Millisecond,
		RSS:     64 << 20,
	}, nil)

	a := h.run([]string{"debug", "stats"}, nil)
	r, ok := a.(command.Reply)
	require.True(t, ok, "%#v", a)
	require.NotNil(t, r.Embed)

	got := map[string]string{}
	for _, f := range r.Embed.Fields {
		got[f.Name] = f.Value
	}
	assert.Equal(t, "1h30m00s", got["Uptime"])
	assert.Equal(t, "1.50s", got["CPU time"])
	assert.Equal(t, "64.0 MiB", got["Memory"])
	assert.Equal(t, "3", got["Guilds"])
	h.proc.AssertExpectations(t)
}

func TestStats_NoProcessCollector(t *testing.T) {
	h := newHarness(t)
	h.proc.On("Sample").Return(ProcessSample{}, errors.New("no procfs"))
	h.clock.Advance(5 * time.Minute)

	r := h.run([]string{"debug", "stats"}, nil).(command.Reply)
	assert.Equal(t, "5m00s", r.Embed.Fields[0].Value)
	assert.Equal(t, "n/a", r.Embed.Fields[1].Value)
	assert.Equal(t, "n/a", r.Embed.Fields[2].Value)
}

func TestStats_PartialSampleStillReportsMemory(t *testing.T) {
	h := newHarness(t)
	h.proc.On("Sample").Return(ProcessSample{RSS: 64 << 20}, errors.New("process collector not available"))

	r := h.run([]string{"debug", "stats"}, nil).(command.Reply)
	assert.Equal(t, "n/a", r.Embed.Fields[1].Value)
	assert.Equal(t, "64.0 MiB", r.Embed.Fields[2].Value)
}

func TestEightBall(t *testing.T) {
	h := newHarness(t)
	a := h.run([]string{"8ball"}, map[string]any{"question": "  will it rain?  "})
	r := a.(command.Reply)
	assert.Equal(t, "🎱 will it rain?", r.Embed.Title)
	assert.Equal(t, eightBallAnswers[0], r.Embed.Description)

	// per-user cooldown
	a = h.run([]string{"8ball"}, map[string]any{"question": "again?"})
	assert.Equal(t, command.ReasonRateLimited, a.(command.Fail).Reason)
}

func TestQuote(t *testing.T) {
	h := newHarness(t)
	h.api.On("Quote", mock.Anything).Return("https://generated.inspirobot.me/a/x.jpg", nil).Once()

	assert.Equal(t, command.Reply{AttachmentURL: "https://generated.inspirobot.me/a/x.jpg"}, h.run([]string{"quote"}, nil))
	h.api.AssertExpectations(t)
}

func TestQuote_ProviderFailureIsGeneric(t *testing.T) {
	h := newHarness(t)
	h.api.On("Quote", mock.Anything).Return("", errors.New("502 bad gateway")).Once()

	assert.Equal(t, command.Fail{Reason: command.ReasonHandlerError}, h.run([]string{"quote"}, nil))
}

func TestFlow(t *testing.T) {
	h := newHarness(t)
	lines := []string{"one", "two", "three", "four", "five", "six", "seven", "eight", "nine", "ten"}
	h.api.On("Flow", mock.Anything).Return(lines, nil).Once()

	r := h.run([]string{"flow"}, nil).(command.Reply)
	assert.Equal(t, "> one\n> two\n> three\n> four\n> five\n> six\n> seven\n> eight", r.Content)
}

func TestAlbum(t *testing.T) {
	h := newHarness(t)
	a := h.run([]string{"album"}, map[string]any{
		"title":        "summer",
		"attachment_1": img("a.png"),
		"attachment_2": domain.RawAttachment{URL: "https://cdn.example.com/notes.txt", ContentType: "text/plain"},
		"attachment_3": img("c.png"),
	})
	r, ok := a.(command.ReplyWithSession)
	require.True(t, ok, "%#v", a)
	assert.Equal(t, "summer", r.View.Page.Title)
	assert.Equal(t, "c.png", r.View.Page.Media.Filename)
	assert.Equal(t, 3, r.View.Page.Media.Index)
	assert.Equal(t, 2, r.View.Total)
	assert.Equal(t, 1, h.store.Len())

	v, err := h.store.Transition(r.View.SessionID, gallery.NavNext)
	require.NoError(t, err)
	assert.Equal(t, "a.png", v.Page.Media.Filename)
}

func TestAlbum_InsufficientMedia(t *testing.T) {
	h := newHarness(t)
	a := h.run([]string{"album"}, map[string]any{
		"title":        "lonely",
		"attachment_1": img("a.png"),
		"attachment_2": domain.RawAttachment{URL: "https://cdn.example.com/x.pdf", ContentType: "application/pdf"},
	})
	f, ok := a.(command.Fail)
	require.True(t, ok)
	assert.Equal(t, command.ReasonInsufficientMedia, f.Reason)
	assert.Contains(t, f.Detail, "at least 2 images")
	assert.Zero(t, h.store.Len())
}

func TestAlbum_MissingTitle(t *testing.T) {
	h := newHarness(t)
	a := h.run([]string{"album"}, map[string]any{"attachment_1": img("a.png")})
	assert.Equal(t, command.Fail{Reason: command.ReasonMissingOption, Detail: "title"}, a)
}

func TestFmtDuration(t *testing.T) {
	assert.Equal(t, "0.25s", fmtDuration(250*time.Millisecond))
	assert.Equal(t, "4m05s", fmtDuration(4*time.Minute+5*time.Second))
	assert.Equal(t, "26h00m01s", fmtDuration(26*time.Hour+time.Second))
}
