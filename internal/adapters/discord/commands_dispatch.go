// Logica de InteractionApplicationCommand: decodificar, admitir, diferir,
// ejecutar y entregar. Los comandos en si viven en el registry.
package discord

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/bwmarrin/discordgo"
	"github.com/samber/mo"

	"github.com/jose-valero/soup-bot/internal/app/command"
	"github.com/jose-valero/soup-bot/internal/domain"
)

var errNoUser = errors.New("interaction without user")

// decodeInvocation aplana subcomandos en el path y junta las opciones.
func decodeInvocation(i *discordgo.Interaction) (command.Invocation, error) {
	data := i.ApplicationCommandData()
	inv := command.Invocation{
		Path:      []string{data.Name},
		Options:   map[string]any{},
		UserID:    userID(i),
		GuildID:   mo.None[string](),
		ChannelID: i.ChannelID,
	}
	if inv.UserID == "" {
		return inv, errNoUser
	}
	if i.GuildID != "" {
		inv.GuildID = mo.Some(i.GuildID)
	}

	opts := data.Options
	for len(opts) == 1 &&
		(opts[0].Type == discordgo.ApplicationCommandOptionSubCommand ||
			opts[0].Type == discordgo.ApplicationCommandOptionSubCommandGroup) {
		inv.Path = append(inv.Path, opts[0].Name)
		opts = opts[0].Options
	}

	for _, o := range opts {
		switch o.Type {
		case discordgo.ApplicationCommandOptionString:
			inv.Options[o.Name] = o.StringValue()
		case discordgo.ApplicationCommandOptionInteger:
			inv.Options[o.Name] = o.IntValue()
		case discordgo.ApplicationCommandOptionBoolean:
			inv.Options[o.Name] = o.BoolValue()
		case discordgo.ApplicationCommandOptionAttachment:
			// el valor es el id; el archivo viene en Resolved
			id, _ := o.Value.(string)
			a, ok := resolvedAttachment(data.Resolved, id)
			if !ok {
				continue
			}
			inv.Options[o.Name] = a
			inv.Attachments = append(inv.Attachments, a)
		}
	}
	return inv, nil
}

func resolvedAttachment(res *discordgo.ApplicationCommandInteractionDataResolved, id string) (domain.RawAttachment, bool) {
	if res == nil || id == "" {
		return domain.RawAttachment{}, false
	}
	m, ok := res.Attachments[id]
	if !ok || m == nil {
		return domain.RawAttachment{}, false
	}
	return domain.RawAttachment{
		ID:          m.ID,
		URL:         m.URL,
		Filename:    m.Filename,
		ContentType: m.ContentType,
		Size:        m.Size,
	}, true
}

func (r *Router) handleSlashCommand(rs Responder, i *discordgo.Interaction, log *slog.Logger) {
	inv, err := decodeInvocation(i)
	if err != nil {
		log.Warn("bad command interaction", "err", err)
		_ = respondEphemeral(rs, i, msgGeneric)
		return
	}
	name := strings.Join(inv.Path, ".")
	log = log.With("command", name, "user", inv.UserID)
	defer step(log, "cmd."+name)()

	// rechazos (cooldown, opciones) se contestan al toque, sin defer
	c, rejected := r.disp.Admit(inv)
	if rejected != nil {
		if err := respondEphemeral(rs, i, actionText(rejected)); err != nil {
			log.Warn("reply failed", "err", err)
		}
		return
	}

	if err := deferReply(rs, i, c.Node.Ephemeral); err != nil {
		log.Error("defer failed", "err", err)
		return
	}
	a := r.disp.Execute(context.Background(), c)
	r.deliver(rs, i, a, c.Node.Ephemeral, log)
}

func (r *Router) deliver(rs Responder, i *discordgo.Interaction, a command.Action, ephemeral bool, log *slog.Logger) {
	var err error
	switch a := a.(type) {
	case command.Reply:
		_, err = followup(rs, i, replyParams(a), ephemeral)

	case command.ReplyWithSession:
		embed, comps := renderGallery(a.View, false)
		var msg *discordgo.Message
		msg, err = followup(rs, i, &discordgo.WebhookParams{
			Embeds:     []*discordgo.MessageEmbed{embed},
			Components: comps,
		}, ephemeral)
		if err == nil && msg != nil {
			r.track(a.View.SessionID, msg)
		}

	case command.Fail:
		// el mensaje de error siempre es privado
		_, err = followup(rs, i, &discordgo.WebhookParams{Content: failText(a)}, true)

	default:
		log.Error("unknown action", "action", a)
		_, err = followup(rs, i, &discordgo.WebhookParams{Content: msgGeneric}, true)
	}
	if err != nil {
		log.Warn("delivery failed", "err", err)
	}
}

func actionText(a command.Action) string {
	if f, ok := a.(command.Fail); ok {
		return failText(f)
	}
	return msgGeneric
}
