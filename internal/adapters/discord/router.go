package discord

import (
	"log/slog"
	"runtime/debug"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/jose-valero/soup-bot/internal/app/command"
	"github.com/jose-valero/soup-bot/internal/app/cooldown"
	"github.com/jose-valero/soup-bot/internal/app/gallery"
)

// DefaultPresence es lo que el bot "escucha" al conectarse.
const DefaultPresence = "x0rtex atm"

// pressPolicy limita los clicks de botones por usuario
var pressPolicy = cooldown.Policy{Window: 2 * time.Second, MaxCalls: 5, Bucket: cooldown.BucketUser}

// TransitionObserver recibe cada click de galeria (metricas).
type TransitionObserver interface {
	ObserveTransition(nav, outcome string)
}

type nopTransitions struct{}

func (nopTransitions) ObserveTransition(string, string) {}

type messageRef struct {
	ChannelID string
	MessageID string
}

type RouterOption func(*Router)

func WithLogger(l *slog.Logger) RouterOption { return func(r *Router) { r.log = l } }

func WithTransitionObserver(o TransitionObserver) RouterOption {
	return func(r *Router) { r.obs = o }
}

// WithPressLimiter usa l para limitar clicks; normalmente el mismo limitador
// de los comandos, asi el janitor tambien purga esos registros.
func WithPressLimiter(l *cooldown.Limiter) RouterOption { return func(r *Router) { r.press = l } }

// WithEditor reemplaza quien edita los mensajes de galerias vencidas.
func WithEditor(e MessageEditor) RouterOption { return func(r *Router) { r.edit = e } }

func WithPresence(p string) RouterOption { return func(r *Router) { r.presence = p } }

type Router struct {
	s        *discordgo.Session
	guildID  string
	presence string
	log      *slog.Logger

	reg   *command.Registry
	disp  *command.Dispatcher
	store *gallery.Store
	press *cooldown.Limiter
	obs   TransitionObserver
	edit  MessageEditor

	mu       sync.Mutex
	messages map[string]messageRef // session id -> mensaje con los botones
}

func NewRouter(
	s *discordgo.Session,
	guildID string,
	reg *command.Registry,
	disp *command.Dispatcher,
	store *gallery.Store,
	opts ...RouterOption,
) *Router {
	r := &Router{
		s:        s,
		guildID:  guildID,
		presence: DefaultPresence,
		log:      slog.Default(),
		reg:      reg,
		disp:     disp,
		store:    store,
		obs:      nopTransitions{},
		messages: map[string]messageRef{},
	}
	if s != nil {
		r.edit = s
	}
	for _, o := range opts {
		o(r)
	}
	if r.press == nil {
		r.press = cooldown.NewLimiter(nil)
	}
	store.OnExpire(r.onGalleryExpired)
	return r
}

// Register sincroniza el arbol de comandos con Discord en un solo PUT.
func (r *Router) Register() error {
	appID := r.s.State.User.ID
	cmds, err := r.s.ApplicationCommandBulkOverwrite(appID, r.guildID, BuildCommands(r.reg))
	if err != nil {
		return err
	}
	r.log.Info("commands synced", "count", len(cmds), "guild", r.guildID)
	return nil
}

func (r *Router) Handlers() {
	r.s.AddHandler(func(s *discordgo.Session, ic *discordgo.InteractionCreate) {
		r.HandleInteraction(s, ic.Interaction)
	})

	r.s.AddHandler(func(s *discordgo.Session, ev *discordgo.Ready) {
		r.log.Info("gateway ready", "user", ev.User.Username, "guilds", len(ev.Guilds))
		if err := s.UpdateListeningStatus(r.presence); err != nil {
			r.log.Warn("presence update failed", "err", err)
		}
	})
}

// HandleInteraction atiende cualquier interaccion, venga del gateway o del
// endpoint HTTP. Nunca entra en panico.
func (r *Router) HandleInteraction(rs Responder, i *discordgo.Interaction) {
	log := r.log.With("interaction", i.ID, "type", i.Type.String())
	defer func() {
		if rec := recover(); rec != nil {
			log.Error("panic handling interaction", "panic", rec, "stack", string(debug.Stack()))
		}
	}()

	switch i.Type {
	case discordgo.InteractionApplicationCommand:
		r.handleSlashCommand(rs, i, log)
	case discordgo.InteractionMessageComponent:
		r.handleMessageComponent(rs, i, log)
	case discordgo.InteractionModalSubmit:
		r.handleModalSubmit(rs, i, log)
	default:
		log.Debug("ignored interaction")
	}
}

func (r *Router) track(sessionID string, m *discordgo.Message) {
	r.mu.Lock()
	r.messages[sessionID] = messageRef{ChannelID: m.ChannelID, MessageID: m.ID}
	r.mu.Unlock()
}

func (r *Router) untrack(sessionID string) (messageRef, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ref, ok := r.messages[sessionID]
	delete(r.messages, sessionID)
	return ref, ok
}

// onGalleryExpired deshabilita los botones del mensaje de una sesion vencida.
func (r *Router) onGalleryExpired(v gallery.View) {
	ref, ok := r.untrack(v.SessionID)
	if !ok || r.edit == nil {
		return
	}
	embed, comps := renderGallery(v, true)
	embeds := []*discordgo.MessageEmbed{embed}
	_, err := r.edit.ChannelMessageEditComplex(&discordgo.MessageEdit{
		ID:         ref.MessageID,
		Channel:    ref.ChannelID,
		Embeds:     &embeds,
		Components: &comps,
	})
	if err != nil {
		r.log.Warn("could not disable expired gallery", "session", v.SessionID, "err", err)
	}
}

// Gateway expone lo que /debug necesita de la sesion del gateway.
type Gateway struct{ S *discordgo.Session }

func (g Gateway) HeartbeatLatency() time.Duration {
	if g.S.LastHeartbeatAck.IsZero() || g.S.LastHeartbeatSent.IsZero() {
		return 0
	}
	return g.S.HeartbeatLatency()
}

func (g Gateway) GuildCount() int {
	if g.S.State == nil {
		return 0
	}
	g.S.State.RLock()
	defer g.S.State.RUnlock()
	return len(g.S.State.Guilds)
}
