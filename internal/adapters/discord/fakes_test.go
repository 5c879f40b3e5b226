package discord

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/require"

	"github.com/jose-valero/soup-bot/internal/app/command"
	"github.com/jose-valero/soup-bot/internal/app/cooldown"
	"github.com/jose-valero/soup-bot/internal/app/gallery"
	"github.com/jose-valero/soup-bot/internal/domain"
)

type call struct {
	kind   string
	resp   *discordgo.InteractionResponse
	params *discordgo.WebhookParams
}

type fakeResponder struct {
	mu        sync.Mutex
	calls     []call
	followErr error
	n         int
}

func (f *fakeResponder) InteractionRespond(_ *discordgo.Interaction, resp *discordgo.InteractionResponse, _ ...discordgo.RequestOption) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call{kind: "respond", resp: resp})
	return nil
}

func (f *fakeResponder) FollowupMessageCreate(i *discordgo.Interaction, _ bool, data *discordgo.WebhookParams, _ ...discordgo.RequestOption) (*discordgo.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call{kind: "followup", params: data})
	if f.followErr != nil {
		return nil, f.followErr
	}
	f.n++
	return &discordgo.Message{ID: fmt.Sprintf("m%d", f.n), ChannelID: i.ChannelID}, nil
}

func (f *fakeResponder) InteractionResponseEdit(_ *discordgo.Interaction, _ *discordgo.WebhookEdit, _ ...discordgo.RequestOption) (*discordgo.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call{kind: "edit"})
	return &discordgo.Message{}, nil
}

func (f *fakeResponder) all() []call {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]call(nil), f.calls...)
}

type fakeEditor struct {
	mu    sync.Mutex
	edits []*discordgo.MessageEdit
}

func (f *fakeEditor) ChannelMessageEditComplex(m *discordgo.MessageEdit, _ ...discordgo.RequestOption) (*discordgo.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.edits = append(f.edits, m)
	return &discordgo.Message{ID: m.ID}, nil
}

type transitions struct {
	mu  sync.Mutex
	got []string
}

func (t *transitions) ObserveTransition(nav, outcome string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.got = append(t.got, nav+"="+outcome)
}

type harness struct {
	clock  *clockwork.FakeClock
	reg    *command.Registry
	store  *gallery.Store
	editor *fakeEditor
	obs    *transitions
	router *Router
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		clock:  clockwork.NewFakeClock(),
		reg:    command.NewRegistry(),
		editor: &fakeEditor{},
		obs:    &transitions{},
	}
	h.store = gallery.NewStore(h.clock, 2*time.Minute)
	disp := command.NewDispatcher(h.reg, cooldown.NewLimiter(h.clock),
		command.WithClock(h.clock), command.WithWorkers(2))
	t.Cleanup(disp.Close)

	require.NoError(t, h.reg.Register([]string{"debug", "ping"}, command.LeafSpec{
		Description: "Latency",
		Ephemeral:   true,
		Handler: func(context.Context, *command.Ctx) (command.Action, error) {
			return command.Reply{Content: "🏓 Pong!"}, nil
		},
	}))
	require.NoError(t, h.reg.Register([]string{"album"}, command.LeafSpec{
		Description: "Make an album",
		Options: []command.OptionSpec{
			{Name: "title", Type: command.OptString, Required: true},
			{Name: "attachment_1", Type: command.OptAttachment, Required: true},
			{Name: "attachment_2", Type: command.OptAttachment},
			{Name: "attachment_3", Type: command.OptAttachment},
		},
		Cooldown: &cooldown.Policy{Window: 30 * time.Second, MaxCalls: 1, Bucket: cooldown.BucketUser},
		Handler: func(_ context.Context, c *command.Ctx) (command.Action, error) {
			media, err := gallery.Classify(c.Attachments(), gallery.IndexAll)
			if err != nil {
				return nil, command.Reject(command.ReasonInsufficientMedia, "Need two images.", err)
			}
			_, v, err := h.store.Create(c.String("title"), media, gallery.MostRecentFirst)
			if err != nil {
				return nil, err
			}
			return command.ReplyWithSession{View: v}, nil
		},
	}))

	quiet := slog.New(slog.NewTextHandler(io.Discard, nil))
	h.router = NewRouter(nil, "g1", h.reg, disp, h.store,
		WithLogger(quiet),
		WithEditor(h.editor),
		WithTransitionObserver(h.obs),
		WithPressLimiter(cooldown.NewLimiter(h.clock)),
	)
	return h
}

// newSession crea una galeria de n imagenes directamente en el store; la
// pagina 0 es n.png.
func (h *harness) newSession(t *testing.T, n int) gallery.View {
	t.Helper()
	raw := make([]domain.RawAttachment, n)
	for i := range raw {
		raw[i] = domain.RawAttachment{URL: fmt.Sprintf("https://cdn/%d.png", i+1), Filename: fmt.Sprintf("%d.png", i+1)}
	}
	media, err := gallery.Classify(raw, gallery.IndexAll)
	require.NoError(t, err)
	_, v, err := h.store.Create("trip", media, gallery.MostRecentFirst)
	require.NoError(t, err)
	return v
}

func member(id string) *discordgo.Member {
	return &discordgo.Member{User: &discordgo.User{ID: id}}
}

func slash(data discordgo.ApplicationCommandInteractionData) *discordgo.Interaction {
	return &discordgo.Interaction{
		ID:        "i1",
		Type:      discordgo.InteractionApplicationCommand,
		GuildID:   "g1",
		ChannelID: "c1",
		Member:    member("u1"),
		Data:      data,
	}
}

func press(customID string) *discordgo.Interaction {
	return &discordgo.Interaction{
		ID:        "i2",
		Type:      discordgo.InteractionMessageComponent,
		GuildID:   "g1",
		ChannelID: "c1",
		Member:    member("u1"),
		Data: discordgo.MessageComponentInteractionData{
			CustomID:      customID,
			ComponentType: discordgo.ButtonComponent,
		},
	}
}

func modal(customID, value string) *discordgo.Interaction {
	return &discordgo.Interaction{
		ID:        "i3",
		Type:      discordgo.InteractionModalSubmit,
		GuildID:   "g1",
		ChannelID: "c1",
		Member:    member("u1"),
		Data: discordgo.ModalSubmitInteractionData{
			CustomID: customID,
			Components: []discordgo.MessageComponent{
				&discordgo.ActionsRow{Components: []discordgo.MessageComponent{
					&discordgo.TextInput{CustomID: jumpInputID, Value: value},
				}},
			},
		},
	}
}

// buttons aplana las filas de componentes.
func buttons(comps []discordgo.MessageComponent) []discordgo.Button {
	var out []discordgo.Button
	for _, c := range comps {
		row, ok := c.(discordgo.ActionsRow)
		if !ok {
			continue
		}
		for _, b := range row.Components {
			if btn, ok := b.(discordgo.Button); ok {
				out = append(out, btn)
			}
		}
	}
	return out
}
